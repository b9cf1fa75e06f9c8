package pseudo

import (
	"context"
	"fmt"
	"regexp"
)

// DefaultPlaceholder replaces redacted values when the expression names none.
const DefaultPlaceholder = "*"

// Redactor applies redact(...) expressions locally:
//
//	redact()                       every value becomes "*"
//	redact(placeholder=#)          every value becomes "#"
//	redact(#)                      same, positional form
//	redact(placeholder=#,regex=R)  only substrings matching R become "#"
//
// Null values stay null. Non-string values are formatted with fmt before
// redaction, so redacted columns are always strings.
type Redactor struct{}

// Transform implements Transformer.
func (Redactor) Transform(_ context.Context, req TransformRequest) ([]any, error) {
	fn, err := ParseFunction(req.Func)
	if err != nil {
		return nil, err
	}
	if fn.Name != string(FuncRedact) {
		return nil, newFunctionError(req.Func, "not a redact expression")
	}

	placeholder, ok := fn.Get("placeholder")
	if !ok {
		placeholder, ok = fn.Positional(0)
	}
	if !ok {
		placeholder = DefaultPlaceholder
	}

	var re *regexp.Regexp
	if expr, ok := fn.Get("regex"); ok {
		if re, err = regexp.Compile(expr); err != nil {
			return nil, newFunctionError(req.Func, err.Error())
		}
	}

	out := make([]any, len(req.Values))
	for i, v := range req.Values {
		if v == nil {
			continue
		}
		if re == nil {
			out[i] = placeholder
			continue
		}
		s, isString := v.(string)
		if !isString {
			s = fmt.Sprint(v)
		}
		out[i] = re.ReplaceAllLiteralString(s, placeholder)
	}
	return out, nil
}
