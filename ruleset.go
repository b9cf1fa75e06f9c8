package pseudo

import (
	"context"
)

// Rule pairs a glob pattern with the transformation to apply to every field
// it matches. Func is an opaque expression such as "redact(placeholder=#)";
// matching never interprets it.
type Rule struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty" bson:"name,omitempty" koanf:"name"`
	Pattern string `json:"pattern" yaml:"pattern" msgpack:"pattern" bson:"pattern" koanf:"pattern"`
	Func    string `json:"func" yaml:"func" msgpack:"func" bson:"func" koanf:"func"`
}

// RuleSet is an ordered list of validated rules. When several rules match
// a path the earliest one wins.
//
// A RuleSet is immutable and safe for concurrent use.
type RuleSet struct {
	rules []Rule
	globs []*Glob
}

// NewRuleSet compiles rules in order. The first malformed pattern fails the
// whole set with a *RuleError.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	rs := &RuleSet{
		rules: make([]Rule, len(rules)),
		globs: make([]*Glob, len(rules)),
	}
	copy(rs.rules, rules)

	for i, r := range rules {
		g, err := lookupGlob(r.Pattern)
		if err != nil {
			err = newRuleError(i, r, err)
			emitRulesCompiled(context.Background(), len(rules), err)
			return nil, err
		}
		rs.globs[i] = g
	}

	emitRulesCompiled(context.Background(), len(rules), nil)
	return rs, nil
}

// MustRuleSet is like NewRuleSet but panics on a malformed rule.
func MustRuleSet(rules ...Rule) *RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic("pseudo: " + err.Error())
	}
	return rs
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns a copy of the rules in priority order.
func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Match returns the first rule whose pattern matches path.
func (rs *RuleSet) Match(path string) (Rule, bool) {
	i := rs.index(path)
	if i < 0 {
		return Rule{}, false
	}
	return rs.rules[i], true
}

func (rs *RuleSet) index(path string) int {
	if rs == nil {
		return -1
	}
	for i, g := range rs.globs {
		if g.Match(path) {
			return i
		}
	}
	return -1
}
