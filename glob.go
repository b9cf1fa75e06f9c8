package pseudo

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Glob is a compiled path pattern.
//
// Patterns follow the usual glob rules over "/"-separated paths:
//
//	*        any run of characters within one segment
//	**       any run of characters across segments
//	**/      zero or more whole segments
//	?        exactly one character other than "/"
//	{a,b}    either alternative (no nesting)
//	[abc]    one character from the class, [!abc] for the complement
//	\c       the literal character c
//
// Matching is case-insensitive and a single leading "/" is ignored on both
// the pattern and the path.
type Glob struct {
	pattern string
	re      *regexp.Regexp
}

// Compile parses a glob pattern. Malformed patterns (unbalanced braces or
// brackets, nested braces, a trailing escape) are rejected here so that
// matching never fails.
func Compile(pattern string) (*Glob, error) {
	if pattern == "" {
		return nil, errors.New("empty pattern")
	}
	src := []rune(normalizePath(pattern))
	var b strings.Builder
	b.WriteString("^")
	if err := translateGlob(src, false, true, &b); err != nil {
		return nil, err
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return &Glob{pattern: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on a malformed pattern.
func MustCompile(pattern string) *Glob {
	g, err := Compile(pattern)
	if err != nil {
		panic("pseudo: compile " + pattern + ": " + err.Error())
	}
	return g
}

// Match reports whether path matches the compiled pattern.
func (g *Glob) Match(path string) bool {
	return g.re.MatchString(normalizePath(path))
}

// String returns the pattern as written.
func (g *Glob) String() string {
	return g.pattern
}

// Match reports whether path matches pattern. A malformed pattern matches
// nothing; use Compile or NewRuleSet to surface the error.
func Match(path, pattern string) bool {
	g, err := lookupGlob(pattern)
	if err != nil {
		return false
	}
	return g.Match(path)
}

func normalizePath(p string) string {
	return strings.ToLower(strings.TrimPrefix(p, "/"))
}

// translateGlob writes the regular expression for src into b. segStart tells
// whether src begins at the start of a path segment.
func translateGlob(src []rune, inBrace, segStart bool, b *strings.Builder) error {
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '\\':
			if i+1 >= len(src) {
				return errors.New("trailing escape")
			}
			i++
			b.WriteString(regexp.QuoteMeta(string(src[i])))
		case '*':
			if i+1 < len(src) && src[i+1] == '*' {
				run := i
				for i+1 < len(src) && src[i+1] == '*' {
					i++
				}
				atSegment := segStart && run == 0 || run > 0 && src[run-1] == '/'
				if atSegment && i+1 < len(src) && src[i+1] == '/' {
					i++
					b.WriteString("(?:.*/)?")
				} else {
					b.WriteString(".*")
				}
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			end, err := writeClass(src, i, b)
			if err != nil {
				return err
			}
			i = end
		case '{':
			if inBrace {
				return errors.New("nested braces")
			}
			end, err := writeAlternation(src, i, segStart && i == 0 || i > 0 && src[i-1] == '/', b)
			if err != nil {
				return err
			}
			i = end
		case '}':
			return errors.New("unmatched closing brace")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return nil
}

// writeClass translates the bracket expression opening at src[open] and
// returns the index of its closing bracket.
func writeClass(src []rune, open int, b *strings.Builder) (int, error) {
	i := open + 1
	negate := false
	if i < len(src) && (src[i] == '!' || src[i] == '^') {
		negate = true
		i++
	}
	var body strings.Builder
	first := true
	for ; i < len(src); i++ {
		c := src[i]
		if c == ']' && !first {
			if negate {
				b.WriteString("[^/")
			} else {
				b.WriteString("[")
			}
			b.WriteString(body.String())
			b.WriteString("]")
			return i, nil
		}
		first = false
		switch c {
		case '\\':
			if i+1 >= len(src) {
				return 0, errors.New("trailing escape")
			}
			i++
			body.WriteString(classLiteral(src[i]))
		case '[', ']', '^':
			body.WriteString(classLiteral(c))
		default:
			body.WriteRune(c)
		}
	}
	return 0, errors.New("unclosed character class")
}

func classLiteral(r rune) string {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return string(r)
	}
	return `\` + string(r)
}

// writeAlternation translates the brace group opening at src[open] and
// returns the index of its closing brace. Whitespace around each
// alternative is ignored.
func writeAlternation(src []rune, open int, segStart bool, b *strings.Builder) (int, error) {
	var alts [][]rune
	start := open + 1
	for i := open + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			end := classEnd(src, i)
			if end < 0 {
				return 0, errors.New("unclosed character class")
			}
			i = end
		case '{':
			return 0, errors.New("nested braces")
		case ',':
			alts = append(alts, src[start:i])
			start = i + 1
		case '}':
			alts = append(alts, src[start:i])
			b.WriteString("(?:")
			for n, alt := range alts {
				if n > 0 {
					b.WriteString("|")
				}
				if err := translateGlob([]rune(strings.TrimSpace(string(alt))), true, segStart, b); err != nil {
					return 0, err
				}
			}
			b.WriteString(")")
			return i, nil
		}
	}
	return 0, errors.New("unclosed brace")
}

// classEnd returns the index of the bracket closing the class at src[open],
// or -1 when the class is never closed.
func classEnd(src []rune, open int) int {
	i := open + 1
	if i < len(src) && (src[i] == '!' || src[i] == '^') {
		i++
	}
	first := true
	for ; i < len(src); i++ {
		switch {
		case src[i] == '\\':
			i++
		case src[i] == ']' && !first:
			return i
		}
		first = false
	}
	return -1
}
