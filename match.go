package pseudo

import (
	"context"
	"time"
)

// ConcreteRule is a rule resolved against one leaf of a schema.
type ConcreteRule struct {
	Rule Rule   `json:"rule" yaml:"rule" msgpack:"rule" bson:"rule"`
	Path string `json:"path" yaml:"path" msgpack:"path" bson:"path"`
}

// FieldMatch is a rule resolved against one leaf column of a document.
// Column is the handle used to write transformed values back.
//
// Path is canonical and has no leading slash ("identifiers/fnr", not
// "/identifiers/fnr"). Glob matching and UpdatePath accept either form.
type FieldMatch struct {
	Path   string
	Column ColumnID
	Rule   Rule
	Target *Rule // set by MatchRulePair when a target rule also matches
	Rows   int   // number of values currently stored in the column
}

// MatchSchema walks a schema depth-first and returns one ConcreteRule per
// leaf that some rule matches, in walk order.
//
// Lists and arrays of structs do not add a path segment; lists or arrays
// whose element is itself a list or array fail with a *SchemaError.
func MatchSchema(root *Field, rules *RuleSet) ([]ConcreteRule, error) {
	start := time.Now()
	out, err := matchSchema(root, rules)
	emitSchemaMatched(context.Background(), rules.Len(), len(out), time.Since(start), err)
	return out, err
}

func matchSchema(root *Field, rules *RuleSet) ([]ConcreteRule, error) {
	if root == nil || root.Type != TypeStruct {
		return nil, newSchemaError("", root.TypeString(), "root must be a struct")
	}
	out := []ConcreteRule{}
	if err := matchStruct(root, "", rules, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matchStruct(f *Field, prefix string, rules *RuleSet, out *[]ConcreteRule) error {
	for _, child := range f.Children {
		if err := matchField(child, joinPath(prefix, child.Name), rules, out); err != nil {
			return err
		}
	}
	return nil
}

func matchField(f *Field, path string, rules *RuleSet, out *[]ConcreteRule) error {
	switch {
	case f.Type == TypeStruct:
		return matchStruct(f, path, rules, out)
	case f.Type.isCollection():
		if f.Elem == nil {
			return newSchemaError(path, string(f.Type), "missing element")
		}
		switch {
		case f.Elem.Type == TypeStruct:
			return matchStruct(f.Elem, path, rules, out)
		case f.Elem.Type.isCollection():
			return newSchemaError(path, f.TypeString(), "nested collections are not addressable")
		}
	}
	if r, ok := rules.Match(path); ok {
		*out = append(*out, ConcreteRule{Rule: r, Path: path})
	}
	return nil
}
