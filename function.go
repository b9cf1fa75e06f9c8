package pseudo

import (
	"fmt"
	"strings"
)

// Function is a parsed function expression such as
// "ff31(keyId=papis-common-key-1,strategy=skip)".
type Function struct {
	Name string
	Args []Arg
}

// Arg is one function argument. Positional arguments have an empty Key.
type Arg struct {
	Key   string
	Value string
}

// ParseFunction parses "name(arg, key=value, ...)". Arguments are split on
// top-level commas and on the first "=". Whitespace around names, keys and
// values is ignored.
func ParseFunction(expr string) (Function, error) {
	s := strings.TrimSpace(expr)
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Function{}, newFunctionError(expr, "expected name(args)")
	}
	name := strings.TrimSpace(s[:open])
	if name == "" || strings.ContainsAny(name, "(),= ") {
		return Function{}, newFunctionError(expr, "invalid function name")
	}

	fn := Function{Name: name}
	body := s[open+1 : len(s)-1]
	if strings.TrimSpace(body) == "" {
		return fn, nil
	}

	parts, err := splitArgs(body)
	if err != nil {
		return Function{}, newFunctionError(expr, err.Error())
	}
	for _, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			fn.Args = append(fn.Args, Arg{Value: strings.TrimSpace(part)})
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return Function{}, newFunctionError(expr, "empty argument name")
		}
		fn.Args = append(fn.Args, Arg{Key: key, Value: strings.TrimSpace(value)})
	}
	return fn, nil
}

// splitArgs splits on commas outside (), [] and {} groups.
func splitArgs(body string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, c := range body {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	return append(parts, body[start:]), nil
}

// Get returns the value of the named argument.
func (f Function) Get(key string) (string, bool) {
	for _, a := range f.Args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Positional returns the i-th positional argument.
func (f Function) Positional(i int) (string, bool) {
	n := 0
	for _, a := range f.Args {
		if a.Key != "" {
			continue
		}
		if n == i {
			return a.Value, true
		}
		n++
	}
	return "", false
}

// String renders the expression with arguments in their original order.
func (f Function) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, a := range f.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		if a.Key != "" {
			b.WriteString(a.Key)
			b.WriteByte('=')
		}
		b.WriteString(a.Value)
	}
	b.WriteByte(')')
	return b.String()
}
