package pseudo

import (
	"fmt"
)

// DataType tags a field. Composite types (struct, list, array) carry
// children; every other tag is a scalar leaf.
type DataType string

// Known data types. Scalar tags outside this list are accepted and passed
// through unchanged.
const (
	TypeString  DataType = "string"
	TypeInt64   DataType = "int64"
	TypeFloat64 DataType = "float64"
	TypeBool    DataType = "bool"
	TypeNull    DataType = "null"
	TypeStruct  DataType = "struct"
	TypeList    DataType = "list"
	TypeArray   DataType = "array"
)

// IsNested reports whether t is a composite type.
func (t DataType) IsNested() bool {
	switch t {
	case TypeStruct, TypeList, TypeArray:
		return true
	}
	return false
}

// isCollection reports whether t is a list or an array.
func (t DataType) isCollection() bool {
	return t == TypeList || t == TypeArray
}

// Field describes one node of a schema tree.
type Field struct {
	Name     string   `json:"name" yaml:"name" msgpack:"name" bson:"name"`
	Type     DataType `json:"type" yaml:"type" msgpack:"type" bson:"type"`
	Children []*Field `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty" bson:"children,omitempty"`
	Elem     *Field   `json:"elem,omitempty" yaml:"elem,omitempty" msgpack:"elem,omitempty" bson:"elem,omitempty"`
	Size     int      `json:"size,omitempty" yaml:"size,omitempty" msgpack:"size,omitempty" bson:"size,omitempty"`
}

// Scalar returns a leaf field.
func Scalar(name string, t DataType) *Field {
	return &Field{Name: name, Type: t}
}

// Struct returns a struct field with the given children.
func Struct(name string, children ...*Field) *Field {
	return &Field{Name: name, Type: TypeStruct, Children: children}
}

// List returns a variable-length list field.
func List(name string, elem *Field) *Field {
	return &Field{Name: name, Type: TypeList, Elem: elem}
}

// Array returns a fixed-size list field.
func Array(name string, elem *Field, size int) *Field {
	return &Field{Name: name, Type: TypeArray, Elem: elem, Size: size}
}

// Schema returns the root struct of a schema.
func Schema(children ...*Field) *Field {
	return Struct("", children...)
}

// TypeString describes the field's type, e.g. "list<struct>" or
// "array<int64, 3>".
func (f *Field) TypeString() string {
	if f == nil {
		return "?"
	}
	switch f.Type {
	case TypeList:
		return "list<" + f.Elem.TypeString() + ">"
	case TypeArray:
		return fmt.Sprintf("array<%s, %d>", f.Elem.TypeString(), f.Size)
	}
	return string(f.Type)
}

// Validate checks that every node of the tree can be addressed by a path:
// collections have an element, collections do not nest directly, and
// struct children have unique names.
func (f *Field) Validate() error {
	if f == nil {
		return newSchemaError("", "", "nil schema")
	}
	return f.validate("")
}

func (f *Field) validate(path string) error {
	switch {
	case f.Type == "":
		return newSchemaError(path, "", "missing type")
	case f.Type == TypeStruct:
		seen := make(map[string]bool, len(f.Children))
		for _, child := range f.Children {
			if child == nil {
				return newSchemaError(path, "struct", "nil child")
			}
			if seen[child.Name] {
				return newSchemaError(joinPath(path, child.Name), "", "duplicate field name")
			}
			seen[child.Name] = true
			if err := child.validate(joinPath(path, child.Name)); err != nil {
				return err
			}
		}
	case f.Type.isCollection():
		if f.Elem == nil {
			return newSchemaError(path, string(f.Type), "missing element")
		}
		if f.Elem.Type.isCollection() {
			return newSchemaError(path, f.TypeString(), "nested collections are not addressable")
		}
		if f.Type == TypeArray && f.Size < 0 {
			return newSchemaError(path, f.TypeString(), "negative array size")
		}
		return f.Elem.validate(path)
	default:
		if len(f.Children) > 0 || f.Elem != nil {
			return newSchemaError(path, string(f.Type), "scalar with children")
		}
	}
	return nil
}

// Paths returns every leaf path of the tree in walk order.
func (f *Field) Paths() []string {
	var out []string
	var walk func(*Field, string)
	walk = func(n *Field, path string) {
		switch {
		case n.Type == TypeStruct:
			for _, child := range n.Children {
				walk(child, joinPath(path, child.Name))
			}
		case n.Type.isCollection() && n.Elem != nil:
			walk(n.Elem, path)
		default:
			out = append(out, path)
		}
	}
	walk(f, "")
	return out
}

// joinPath appends a field name to a path. Unnamed fields become "[]".
func joinPath(prefix, name string) string {
	if name == "" {
		name = "[]"
	}
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
