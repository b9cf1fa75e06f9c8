package pseudo

import (
	"context"
	"fmt"
	"time"
)

// Frame is the serializable columnar form of a Document.
type Frame struct {
	Height  int          `json:"height" yaml:"height" msgpack:"height" bson:"height"`
	Columns []ColumnData `json:"columns" yaml:"columns" msgpack:"columns" bson:"columns"`
}

// ColumnData is one column of a Frame.
//
// Leaf columns hold one value per slot in Values. Struct columns hold their
// fields in Children, each aligned with the struct's slots. Lists hold
// Offsets (one more than their slot count, starting at 0) and a single
// unnamed element column in Children. Arrays hold Size elements per slot
// in a single element column. Validity, when present, marks null slots.
type ColumnData struct {
	Name     string       `json:"name" yaml:"name" msgpack:"name" bson:"name"`
	Type     DataType     `json:"type" yaml:"type" msgpack:"type" bson:"type"`
	Size     int          `json:"size,omitempty" yaml:"size,omitempty" msgpack:"size,omitempty" bson:"size,omitempty"`
	Validity []bool       `json:"validity,omitempty" yaml:"validity,omitempty" msgpack:"validity,omitempty" bson:"validity,omitempty"`
	Offsets  []int        `json:"offsets,omitempty" yaml:"offsets,omitempty" msgpack:"offsets,omitempty" bson:"offsets,omitempty"`
	Values   []any        `json:"values,omitempty" yaml:"values,omitempty" msgpack:"values,omitempty" bson:"values,omitempty"`
	Children []ColumnData `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty" bson:"children,omitempty"`
}

// FromFrame builds a Document from a Frame. Every column must agree with
// the row count implied by its parent; scalar values are converted to their
// column's type. Input slices are copied.
func FromFrame(frame *Frame) (*Document, error) {
	start := time.Now()
	doc, err := fromFrame(frame)
	rows, cols := 0, 0
	if doc != nil {
		rows, cols = doc.height, len(doc.columns)
	}
	emitTreeBuilt(context.Background(), rows, cols, time.Since(start), err)
	return doc, err
}

func fromFrame(frame *Frame) (*Document, error) {
	if frame == nil {
		return nil, newStructureReason("", "nil frame")
	}
	if frame.Height < 0 {
		return nil, newStructureReason("", fmt.Sprintf("negative height %d", frame.Height))
	}
	doc := &Document{height: frame.Height}
	seen := make(map[string]bool, len(frame.Columns))
	for _, cd := range frame.Columns {
		path := joinPath("", cd.Name)
		if seen[cd.Name] {
			return nil, newStructureReason(path, "duplicate column name")
		}
		seen[cd.Name] = true
		id, err := doc.build(cd, path, frame.Height)
		if err != nil {
			return nil, err
		}
		doc.roots = append(doc.roots, id)
	}
	return doc, nil
}

// build adds cd and its descendants to the arena. want is the number of
// slots the parent expects this column to hold.
func (d *Document) build(cd ColumnData, path string, want int) (ColumnID, error) {
	if cd.Type == "" {
		return 0, newStructureReason(path, "missing type")
	}
	if cd.Validity != nil && len(cd.Validity) != want {
		return 0, newStructureReason(path, fmt.Sprintf("validity has %d entries, want %d", len(cd.Validity), want))
	}

	id := d.alloc()
	c := column{
		name:     cd.Name,
		path:     path,
		dtype:    cd.Type,
		length:   want,
		validity: cloneSlice(cd.Validity),
	}

	switch cd.Type {
	case TypeStruct:
		if len(cd.Values) > 0 || len(cd.Offsets) > 0 {
			return 0, newStructureReason(path, "struct column carries values")
		}
		seen := make(map[string]bool, len(cd.Children))
		for _, child := range cd.Children {
			childPath := joinPath(path, child.Name)
			if seen[child.Name] {
				return 0, newStructureReason(childPath, "duplicate field name")
			}
			seen[child.Name] = true
			cid, err := d.build(child, childPath, want)
			if err != nil {
				return 0, err
			}
			c.children = append(c.children, cid)
		}

	case TypeList:
		offsets, err := checkOffsets(path, cd.Offsets, cd.Validity, want)
		if err != nil {
			return 0, err
		}
		c.offsets = offsets
		eid, err := d.buildElem(cd, path, offsets[len(offsets)-1])
		if err != nil {
			return 0, err
		}
		c.children = []ColumnID{eid}

	case TypeArray:
		if cd.Size < 0 {
			return 0, newStructureReason(path, fmt.Sprintf("negative array size %d", cd.Size))
		}
		c.size = cd.Size
		eid, err := d.buildElem(cd, path, want*cd.Size)
		if err != nil {
			return 0, err
		}
		c.children = []ColumnID{eid}

	default:
		if len(cd.Children) > 0 || len(cd.Offsets) > 0 {
			return 0, newStructureReason(path, "scalar column carries children")
		}
		if len(cd.Values) != want {
			return 0, newStructureError(path, want, len(cd.Values))
		}
		values, err := coerceAll(cd.Type, cd.Values)
		if err != nil {
			return 0, newStructureReason(path, err.Error())
		}
		c.values = values
	}

	d.columns[id] = c
	return id, nil
}

// buildElem builds the single element column of a list or array. Element
// columns share their parent's path.
func (d *Document) buildElem(cd ColumnData, path string, want int) (ColumnID, error) {
	if len(cd.Values) > 0 {
		return 0, newStructureReason(path, fmt.Sprintf("%s column carries values", cd.Type))
	}
	if len(cd.Children) != 1 {
		return 0, newStructureReason(path, fmt.Sprintf("%s column needs exactly one element column, got %d", cd.Type, len(cd.Children)))
	}
	elem := cd.Children[0]
	if elem.Type.isCollection() {
		return 0, newSchemaError(path, fmt.Sprintf("%s<%s>", cd.Type, elem.Type), "nested collections are not addressable")
	}
	return d.build(elem, path, want)
}

// checkOffsets validates list offsets against the row count. Null rows
// must span no elements.
func checkOffsets(path string, offsets []int, validity []bool, want int) ([]int, error) {
	if want == 0 && len(offsets) == 0 {
		return []int{0}, nil
	}
	if len(offsets) != want+1 {
		return nil, newStructureReason(path, fmt.Sprintf("offsets have %d entries, want %d", len(offsets), want+1))
	}
	if offsets[0] != 0 {
		return nil, newStructureReason(path, "offsets must start at 0")
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, newStructureReason(path, fmt.Sprintf("offsets decrease at %d", i))
		}
		if validity != nil && !validity[i-1] && offsets[i] != offsets[i-1] {
			return nil, newStructureReason(path, fmt.Sprintf("row %d: null list has %d elements", i-1, offsets[i]-offsets[i-1]))
		}
	}
	return cloneSlice(offsets), nil
}

// ToFrame returns the document in columnar form. The frame shares no
// memory with the document.
func (d *Document) ToFrame() *Frame {
	frame := &Frame{
		Height:  d.height,
		Columns: make([]ColumnData, 0, len(d.roots)),
	}
	for _, id := range d.roots {
		frame.Columns = append(frame.Columns, d.columnData(id))
	}
	return frame
}

func (d *Document) columnData(id ColumnID) ColumnData {
	c := &d.columns[id]
	cd := ColumnData{
		Name:     c.name,
		Type:     c.dtype,
		Size:     c.size,
		Validity: cloneSlice(c.validity),
		Offsets:  cloneSlice(c.offsets),
		Values:   cloneSlice(c.values),
	}
	for _, child := range c.children {
		cd.Children = append(cd.Children, d.columnData(child))
	}
	return cd
}
