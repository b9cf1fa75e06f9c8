package pseudo

import (
	"errors"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func personRecords() []map[string]any {
	return []map[string]any{
		{
			"fnr":         "11111111111",
			"identifiers": map[string]any{"fnr": "22222222222", "dnr": "41111111111"},
			"addresses":   []any{map[string]any{"street": "Storgata 1", "zip": "0150"}},
			"tags":        []any{"x", "y"},
			"scores":      []any{1, 2},
		},
		{
			"fnr":       "33333333333",
			"addresses": []any{},
			"scores":    []any{3, 4},
		},
		{
			"identifiers": map[string]any{"fnr": "44444444444"},
			"addresses": []any{
				map[string]any{"street": "Bryggen 2", "zip": "5003"},
				map[string]any{"street": "Torget 3", "zip": "7011"},
			},
			"tags": []string{"z"},
		},
	}
}

func personDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := FromRecords(personSchema(), personRecords())
	if err != nil {
		t.Fatalf("FromRecords() error: %v", err)
	}
	return doc
}

func TestFromRecords_Layout(t *testing.T) {
	doc := personDocument(t)

	if doc.Height() != 3 {
		t.Errorf("Height() = %d, want 3", doc.Height())
	}
	if len(doc.Roots()) != 5 {
		t.Fatalf("Roots() = %d, want 5", len(doc.Roots()))
	}

	frame := doc.ToFrame()
	byName := make(map[string]ColumnData)
	for _, cd := range frame.Columns {
		byName[cd.Name] = cd
	}

	ids := byName["identifiers"]
	if !reflect.DeepEqual(ids.Validity, []bool{true, false, true}) {
		t.Errorf("identifiers validity = %v, want [true false true]", ids.Validity)
	}
	if got := ids.Children[1].Values; !reflect.DeepEqual(got, []any{"41111111111", nil, nil}) {
		t.Errorf("identifiers/dnr values = %v", got)
	}

	addr := byName["addresses"]
	if !reflect.DeepEqual(addr.Offsets, []int{0, 1, 1, 3}) {
		t.Errorf("addresses offsets = %v, want [0 1 1 3]", addr.Offsets)
	}
	if addr.Validity != nil {
		t.Errorf("addresses validity = %v, want nil", addr.Validity)
	}

	tags := byName["tags"]
	if !reflect.DeepEqual(tags.Offsets, []int{0, 2, 2, 3}) {
		t.Errorf("tags offsets = %v, want [0 2 2 3]", tags.Offsets)
	}
	if !reflect.DeepEqual(tags.Validity, []bool{true, false, true}) {
		t.Errorf("tags validity = %v, want [true false true]", tags.Validity)
	}

	scores := byName["scores"]
	want := []any{int64(1), int64(2), int64(3), int64(4), nil, nil}
	if !reflect.DeepEqual(scores.Children[0].Values, want) {
		t.Errorf("scores elements = %v, want %v", scores.Children[0].Values, want)
	}
}

func TestDocument_Records(t *testing.T) {
	doc := personDocument(t)
	rows := doc.Records()

	want := map[string]any{
		"fnr":         "33333333333",
		"identifiers": nil,
		"addresses":   []any{},
		"tags":        nil,
		"scores":      []any{int64(3), int64(4)},
	}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("Records()[1] = %s\nwant %s", spew.Sdump(rows[1]), spew.Sdump(want))
	}

	ids := rows[2]["identifiers"].(map[string]any)
	if ids["fnr"] != "44444444444" || ids["dnr"] != nil {
		t.Errorf("Records()[2].identifiers = %v", ids)
	}
	if got := rows[2]["tags"]; !reflect.DeepEqual(got, []any{"z"}) {
		t.Errorf("Records()[2].tags = %v, want [z]", got)
	}
}

func TestDocument_Schema(t *testing.T) {
	doc := personDocument(t)
	got := doc.Schema()
	if !reflect.DeepEqual(got.Paths(), personSchema().Paths()) {
		t.Errorf("Schema().Paths() = %v, want %v", got.Paths(), personSchema().Paths())
	}
	if got.Children[4].Size != 2 {
		t.Errorf("scores size = %d, want 2", got.Children[4].Size)
	}
}

func TestFrame_RoundTrip(t *testing.T) {
	doc := personDocument(t)

	again, err := FromFrame(doc.ToFrame())
	if err != nil {
		t.Fatalf("FromFrame() error: %v", err)
	}
	if !reflect.DeepEqual(again.Records(), doc.Records()) {
		t.Errorf("round trip mismatch:\n%s\nwant\n%s", spew.Sdump(again.Records()), spew.Sdump(doc.Records()))
	}
}

func TestDocument_ToFrameIsCopy(t *testing.T) {
	doc := personDocument(t)
	frame := doc.ToFrame()
	frame.Columns[0].Values[0] = "mutated"

	if doc.Records()[0]["fnr"] != "11111111111" {
		t.Error("mutating a frame should not affect the document")
	}
}

func TestDocument_Clone(t *testing.T) {
	doc := personDocument(t)
	clone := doc.Clone()

	tree := NewTree(clone)
	fm := FieldMatch{Column: clone.Roots()[0]}
	if err := tree.Update(fm, []any{"a", "b", "c"}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if doc.Records()[0]["fnr"] != "11111111111" {
		t.Error("updating a clone should not affect the original")
	}
	if clone.Records()[0]["fnr"] != "a" {
		t.Errorf("clone fnr = %v, want a", clone.Records()[0]["fnr"])
	}
}

func TestDocument_Values(t *testing.T) {
	doc := personDocument(t)

	if _, err := doc.Values(ColumnID(99)); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Values(99) error = %v, want ErrUnknownColumn", err)
	}
	if _, err := doc.Values(doc.Roots()[1]); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Values(struct) error = %v, want ErrUnknownColumn", err)
	}

	values, err := doc.Values(doc.Roots()[0])
	if err != nil {
		t.Fatalf("Values() error: %v", err)
	}
	if !reflect.DeepEqual(values, []any{"11111111111", "33333333333", nil}) {
		t.Errorf("Values() = %v", values)
	}

	path, _ := doc.Path(doc.Roots()[2])
	if path != "addresses" {
		t.Errorf("Path() = %q, want addresses", path)
	}
	typ, _ := doc.Type(doc.Roots()[4])
	if typ != TypeArray {
		t.Errorf("Type() = %q, want array", typ)
	}
}

func TestFromFrame_Mismatch(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		path  string
	}{
		{
			name:  "nil frame",
			frame: nil,
			path:  "",
		},
		{
			name: "short leaf",
			frame: &Frame{Height: 3, Columns: []ColumnData{
				{Name: "fnr", Type: TypeString, Values: []any{"a", "b"}},
			}},
			path: "fnr",
		},
		{
			name: "short struct child",
			frame: &Frame{Height: 2, Columns: []ColumnData{
				{Name: "ids", Type: TypeStruct, Children: []ColumnData{
					{Name: "fnr", Type: TypeString, Values: []any{"a"}},
				}},
			}},
			path: "ids/fnr",
		},
		{
			name: "offsets length",
			frame: &Frame{Height: 2, Columns: []ColumnData{
				{Name: "tags", Type: TypeList, Offsets: []int{0, 1}, Children: []ColumnData{
					{Type: TypeString, Values: []any{"a"}},
				}},
			}},
			path: "tags",
		},
		{
			name: "offsets decrease",
			frame: &Frame{Height: 2, Columns: []ColumnData{
				{Name: "tags", Type: TypeList, Offsets: []int{0, 2, 1}, Children: []ColumnData{
					{Type: TypeString, Values: []any{"a"}},
				}},
			}},
			path: "tags",
		},
		{
			name: "list elements",
			frame: &Frame{Height: 1, Columns: []ColumnData{
				{Name: "tags", Type: TypeList, Offsets: []int{0, 2}, Children: []ColumnData{
					{Type: TypeString, Values: []any{"a"}},
				}},
			}},
			path: "tags",
		},
		{
			name: "elements under null list",
			frame: &Frame{Height: 2, Columns: []ColumnData{
				{Name: "tags", Type: TypeList, Validity: []bool{true, false}, Offsets: []int{0, 1, 2}, Children: []ColumnData{
					{Type: TypeString, Values: []any{"a", "hidden"}},
				}},
			}},
			path: "tags",
		},
		{
			name: "array elements",
			frame: &Frame{Height: 2, Columns: []ColumnData{
				{Name: "pair", Type: TypeArray, Size: 2, Children: []ColumnData{
					{Type: TypeInt64, Values: []any{1, 2, 3}},
				}},
			}},
			path: "pair",
		},
		{
			name: "validity length",
			frame: &Frame{Height: 2, Columns: []ColumnData{
				{Name: "fnr", Type: TypeString, Validity: []bool{true}, Values: []any{"a", "b"}},
			}},
			path: "fnr",
		},
		{
			name: "duplicate columns",
			frame: &Frame{Height: 1, Columns: []ColumnData{
				{Name: "fnr", Type: TypeString, Values: []any{"a"}},
				{Name: "fnr", Type: TypeString, Values: []any{"b"}},
			}},
			path: "fnr",
		},
		{
			name: "bad scalar",
			frame: &Frame{Height: 1, Columns: []ColumnData{
				{Name: "n", Type: TypeInt64, Values: []any{"one"}},
			}},
			path: "n",
		},
		{
			name: "two element columns",
			frame: &Frame{Height: 0, Columns: []ColumnData{
				{Name: "tags", Type: TypeList, Children: []ColumnData{
					{Type: TypeString}, {Type: TypeString},
				}},
			}},
			path: "tags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := FromFrame(tt.frame)
			if doc != nil {
				t.Error("FromFrame() should not return a document on error")
			}
			if !errors.Is(err, ErrStructuralMismatch) {
				t.Fatalf("FromFrame() error = %v, want ErrStructuralMismatch", err)
			}
			var structErr *StructureError
			if errors.As(err, &structErr) && structErr.Path != tt.path {
				t.Errorf("StructureError.Path = %q, want %q", structErr.Path, tt.path)
			}
		})
	}
}

func TestFromFrame_NestedCollection(t *testing.T) {
	frame := &Frame{Height: 1, Columns: []ColumnData{
		{Name: "matrix", Type: TypeList, Offsets: []int{0, 1}, Children: []ColumnData{
			{Type: TypeList, Offsets: []int{0, 1}, Children: []ColumnData{
				{Type: TypeInt64, Values: []any{1}},
			}},
		}},
	}}

	_, err := FromFrame(frame)
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Errorf("FromFrame() error = %v, want ErrUnsupportedSchema", err)
	}
}

func TestFromFrame_CoercesWireTypes(t *testing.T) {
	frame := &Frame{Height: 3, Columns: []ColumnData{
		{Name: "n", Type: TypeInt64, Values: []any{float64(1), int32(2), uint8(3)}},
		{Name: "f", Type: TypeFloat64, Values: []any{int64(1), float32(2.5), nil}},
	}}

	doc, err := FromFrame(frame)
	if err != nil {
		t.Fatalf("FromFrame() error: %v", err)
	}
	n, _ := doc.Values(doc.Roots()[0])
	if !reflect.DeepEqual(n, []any{int64(1), int64(2), int64(3)}) {
		t.Errorf("n = %v", n)
	}
	f, _ := doc.Values(doc.Roots()[1])
	if !reflect.DeepEqual(f, []any{float64(1), float64(2.5), nil}) {
		t.Errorf("f = %v", f)
	}
}

func TestFromRecords_Errors(t *testing.T) {
	schema := personSchema()
	tests := []struct {
		name string
		rows []map[string]any
		err  error
	}{
		{"unknown key", []map[string]any{{"other": 1}}, ErrStructuralMismatch},
		{"nested unknown key", []map[string]any{{"identifiers": map[string]any{"x": "1"}}}, ErrStructuralMismatch},
		{"object expected", []map[string]any{{"identifiers": "nope"}}, ErrStructuralMismatch},
		{"list expected", []map[string]any{{"tags": "nope"}}, ErrStructuralMismatch},
		{"array size", []map[string]any{{"scores": []any{1}}}, ErrStructuralMismatch},
		{"scalar type", []map[string]any{{"fnr": 12}}, ErrStructuralMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromRecords(schema, tt.rows); !errors.Is(err, tt.err) {
				t.Errorf("FromRecords() error = %v, want %v", err, tt.err)
			}
		})
	}

	bad := Schema(List("m", List("", Scalar("", TypeInt64))))
	if _, err := FromRecords(bad, nil); !errors.Is(err, ErrUnsupportedSchema) {
		t.Errorf("FromRecords(list<list>) error = %v, want ErrUnsupportedSchema", err)
	}
}

func TestInferSchema(t *testing.T) {
	rows := []map[string]any{
		{"b": 1, "a": "x", "nested": map[string]any{"z": true}},
		{"b": 2.5, "tags": []any{"t"}, "nested": nil},
		{"a": nil, "nested": map[string]any{"y": "s"}, "tags": []any{}},
	}

	got, err := InferSchema(rows)
	if err != nil {
		t.Fatalf("InferSchema() error: %v", err)
	}

	want := Schema(
		Scalar("a", TypeString),
		Scalar("b", TypeFloat64),
		Struct("nested",
			Scalar("y", TypeString),
			Scalar("z", TypeBool),
		),
		List("tags", Scalar("", TypeString)),
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InferSchema() = %s\nwant %s", spew.Sdump(got), spew.Sdump(want))
	}

	if _, err := FromRecords(got, rows); err != nil {
		t.Errorf("FromRecords(inferred) error: %v", err)
	}
}

func TestInferSchema_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows []map[string]any
	}{
		{"conflict", []map[string]any{{"a": "x"}, {"a": 1}}},
		{"struct vs scalar", []map[string]any{{"a": map[string]any{}}, {"a": 1}}},
		{"list of lists", []map[string]any{{"a": []any{[]any{1}}}}},
		{"unsupported value", []map[string]any{{"a": struct{}{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := InferSchema(tt.rows); !errors.Is(err, ErrUnsupportedSchema) {
				t.Errorf("InferSchema() error = %v, want ErrUnsupportedSchema", err)
			}
		})
	}
}
