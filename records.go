package pseudo

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// FromRecords builds a Document from row maps laid out according to schema.
// Missing keys are null; keys the schema does not name are rejected.
func FromRecords(schema *Field, rows []map[string]any) (*Document, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if schema.Type != TypeStruct {
		return nil, newSchemaError("", schema.TypeString(), "root must be a struct")
	}
	slots := make([]any, len(rows))
	for i, row := range rows {
		if row != nil {
			slots[i] = row
		}
	}
	if err := checkKeys(schema, slots, ""); err != nil {
		return nil, err
	}
	frame := &Frame{Height: len(rows)}
	for _, child := range schema.Children {
		cd, err := columnize(child, fieldSlots(slots, child.Name), joinPath("", child.Name))
		if err != nil {
			return nil, err
		}
		frame.Columns = append(frame.Columns, cd)
	}
	return FromFrame(frame)
}

// columnize converts one value per slot into column form.
func columnize(f *Field, slots []any, path string) (ColumnData, error) {
	cd := ColumnData{Name: f.Name, Type: f.Type, Size: f.Size}
	switch f.Type {
	case TypeStruct:
		valid := make([]bool, len(slots))
		for i, v := range slots {
			if v == nil {
				continue
			}
			if _, ok := v.(map[string]any); !ok {
				return cd, newStructureReason(path, fmt.Sprintf("row %d: expected object, got %T", i, v))
			}
			valid[i] = true
		}
		cd.Validity = compactValidity(valid)
		if err := checkKeys(f, slots, path); err != nil {
			return cd, err
		}
		for _, child := range f.Children {
			ccd, err := columnize(child, fieldSlots(slots, child.Name), joinPath(path, child.Name))
			if err != nil {
				return cd, err
			}
			cd.Children = append(cd.Children, ccd)
		}

	case TypeList, TypeArray:
		valid := make([]bool, len(slots))
		offsets := make([]int, 1, len(slots)+1)
		var elems []any
		for i, v := range slots {
			if v == nil {
				if f.Type == TypeArray {
					elems = append(elems, make([]any, f.Size)...)
				}
				offsets = append(offsets, len(elems))
				continue
			}
			items, ok := toSlice(v)
			if !ok {
				return cd, newStructureReason(path, fmt.Sprintf("row %d: expected list, got %T", i, v))
			}
			if f.Type == TypeArray && len(items) != f.Size {
				return cd, newStructureReason(path, fmt.Sprintf("row %d: array has %d elements, want %d", i, len(items), f.Size))
			}
			valid[i] = true
			elems = append(elems, items...)
			offsets = append(offsets, len(elems))
		}
		cd.Validity = compactValidity(valid)
		if f.Type == TypeList {
			cd.Offsets = offsets
		}
		ecd, err := columnize(f.Elem, elems, path)
		if err != nil {
			return cd, err
		}
		cd.Children = []ColumnData{ecd}

	default:
		cd.Values = slots
	}
	return cd, nil
}

func fieldSlots(slots []any, name string) []any {
	out := make([]any, len(slots))
	for i, v := range slots {
		if m, ok := v.(map[string]any); ok {
			out[i] = m[name]
		}
	}
	return out
}

func checkKeys(f *Field, slots []any, path string) error {
	known := make(map[string]bool, len(f.Children))
	for _, child := range f.Children {
		known[child.Name] = true
	}
	for i, v := range slots {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for key := range m {
			if !known[key] {
				return newStructureReason(joinPath(path, key), fmt.Sprintf("row %d: field not in schema", i))
			}
		}
	}
	return nil
}

// compactValidity returns nil when every slot is valid.
func compactValidity(valid []bool) []bool {
	for _, ok := range valid {
		if !ok {
			return valid
		}
	}
	return nil
}

func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// InferSchema derives a schema from row maps. Object keys are sorted by
// name, nested objects become structs and slices become lists. A field
// takes the type of its non-null values; int64 and float64 widen to
// float64, any other disagreement is an error.
func InferSchema(rows []map[string]any) (*Field, error) {
	root := Schema()
	for _, row := range rows {
		f, err := inferValue("", "", row)
		if err != nil {
			return nil, err
		}
		if root, err = mergeFields("", root, f); err != nil {
			return nil, err
		}
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return root, nil
}

func inferValue(name, path string, v any) (*Field, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		f := Struct(name)
		for _, k := range keys {
			child, err := inferValue(k, joinPath(path, k), val[k])
			if err != nil {
				return nil, err
			}
			f.Children = append(f.Children, child)
		}
		return f, nil
	case []byte:
		return nil, newSchemaError(path, "[]byte", "binary values are not supported")
	}
	if t, ok := scalarType(v); ok {
		return Scalar(name, t), nil
	}
	items, ok := toSlice(v)
	if !ok {
		return nil, newSchemaError(path, fmt.Sprintf("%T", v), "unsupported value")
	}
	elem := Scalar("", TypeNull)
	for _, item := range items {
		ef, err := inferValue("", path, item)
		if err != nil {
			return nil, err
		}
		if elem, err = mergeFields(path, elem, ef); err != nil {
			return nil, err
		}
	}
	return List(name, elem), nil
}

// mergeFields unifies two inferred fields at the same path.
func mergeFields(path string, a, b *Field) (*Field, error) {
	switch {
	case a.Type == TypeNull:
		out := *b
		out.Name = a.Name
		return &out, nil
	case b.Type == TypeNull:
		return a, nil
	case a.Type == TypeStruct && b.Type == TypeStruct:
		byName := make(map[string]*Field, len(a.Children)+len(b.Children))
		for _, c := range a.Children {
			byName[c.Name] = c
		}
		for _, c := range b.Children {
			if prev, ok := byName[c.Name]; ok {
				merged, err := mergeFields(joinPath(path, c.Name), prev, c)
				if err != nil {
					return nil, err
				}
				byName[c.Name] = merged
				continue
			}
			byName[c.Name] = c
		}
		out := Struct(a.Name)
		for _, c := range byName {
			out.Children = append(out.Children, c)
		}
		sort.Slice(out.Children, func(i, j int) bool {
			return out.Children[i].Name < out.Children[j].Name
		})
		return out, nil
	case a.Type == TypeList && b.Type == TypeList:
		elem, err := mergeFields(path, a.Elem, b.Elem)
		if err != nil {
			return nil, err
		}
		return List(a.Name, elem), nil
	case !a.Type.IsNested() && !b.Type.IsNested():
		if t, ok := mergeTypes(a.Type, b.Type); ok {
			return Scalar(a.Name, t), nil
		}
	}
	return nil, newSchemaError(path, strings.Join([]string{a.TypeString(), b.TypeString()}, " vs "), "conflicting value types")
}
