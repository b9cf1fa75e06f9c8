package pseudo

import (
	"fmt"
)

// ColumnID is a stable handle to a column of a Document. Handles stay valid
// for the lifetime of the document and are the only way matches refer back
// to the data they came from.
type ColumnID int

// column is one node of the column arena.
type column struct {
	name     string
	path     string
	dtype    DataType
	size     int // elements per row for arrays
	length   int // number of slots in this column
	validity []bool
	offsets  []int
	values   []any
	children []ColumnID
}

// Document is a columnar, nested dataset. Columns live in an arena indexed
// by ColumnID; struct columns own their field columns, and lists and arrays
// own a single element column.
//
// Documents are not safe for concurrent mutation. Reads may run concurrently
// with each other.
type Document struct {
	columns []column
	roots   []ColumnID
	height  int
}

// Height returns the number of rows.
func (d *Document) Height() int {
	return d.height
}

// Len returns the number of columns in the arena, nested columns included.
func (d *Document) Len() int {
	return len(d.columns)
}

// Roots returns the handles of the top-level columns in order.
func (d *Document) Roots() []ColumnID {
	out := make([]ColumnID, len(d.roots))
	copy(out, d.roots)
	return out
}

// Path returns the canonical path of a column.
func (d *Document) Path(id ColumnID) (string, error) {
	c, err := d.column(id)
	if err != nil {
		return "", err
	}
	return c.path, nil
}

// Type returns the data type of a column.
func (d *Document) Type(id ColumnID) (DataType, error) {
	c, err := d.column(id)
	if err != nil {
		return "", err
	}
	return c.dtype, nil
}

// Values returns a copy of a leaf column's values.
func (d *Document) Values(id ColumnID) ([]any, error) {
	c, err := d.column(id)
	if err != nil {
		return nil, err
	}
	if c.dtype.IsNested() {
		return nil, fmt.Errorf("%w: column %q is not a leaf", ErrUnknownColumn, c.path)
	}
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out, nil
}

// Schema reconstructs the schema tree of the document.
func (d *Document) Schema() *Field {
	root := Schema()
	for _, id := range d.roots {
		root.Children = append(root.Children, d.field(id))
	}
	return root
}

func (d *Document) field(id ColumnID) *Field {
	c := &d.columns[id]
	f := &Field{Name: c.name, Type: c.dtype}
	switch c.dtype {
	case TypeStruct:
		f.Children = make([]*Field, 0, len(c.children))
		for _, child := range c.children {
			f.Children = append(f.Children, d.field(child))
		}
	case TypeList:
		f.Elem = d.field(c.children[0])
	case TypeArray:
		f.Elem = d.field(c.children[0])
		f.Size = c.size
	}
	return f
}

// Records returns the document as one map per row. Null structs and lists
// become nil; lists and arrays become []any.
func (d *Document) Records() []map[string]any {
	rows := make([]map[string]any, d.height)
	for i := range rows {
		row := make(map[string]any, len(d.roots))
		for _, id := range d.roots {
			row[d.columns[id].name] = d.valueAt(id, i)
		}
		rows[i] = row
	}
	return rows
}

func (d *Document) valueAt(id ColumnID, i int) any {
	c := &d.columns[id]
	if c.validity != nil && !c.validity[i] {
		return nil
	}
	switch c.dtype {
	case TypeStruct:
		m := make(map[string]any, len(c.children))
		for _, child := range c.children {
			m[d.columns[child].name] = d.valueAt(child, i)
		}
		return m
	case TypeList:
		return d.slice(c.children[0], c.offsets[i], c.offsets[i+1])
	case TypeArray:
		return d.slice(c.children[0], i*c.size, (i+1)*c.size)
	}
	return c.values[i]
}

func (d *Document) slice(elem ColumnID, start, end int) []any {
	out := make([]any, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, d.valueAt(elem, j))
	}
	return out
}

// Clone returns a deep copy of the document. Column handles are shared
// between the copy and the original.
func (d *Document) Clone() *Document {
	out := &Document{
		columns: make([]column, len(d.columns)),
		roots:   make([]ColumnID, len(d.roots)),
		height:  d.height,
	}
	copy(out.roots, d.roots)
	for i, c := range d.columns {
		out.columns[i] = column{
			name:     c.name,
			path:     c.path,
			dtype:    c.dtype,
			size:     c.size,
			length:   c.length,
			validity: cloneSlice(c.validity),
			offsets:  cloneSlice(c.offsets),
			values:   cloneSlice(c.values),
			children: cloneSlice(c.children),
		}
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func (d *Document) column(id ColumnID) (*column, error) {
	if id < 0 || int(id) >= len(d.columns) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownColumn, id)
	}
	return &d.columns[id], nil
}

// alloc reserves an arena slot so that parents precede their children.
func (d *Document) alloc() ColumnID {
	d.columns = append(d.columns, column{})
	return ColumnID(len(d.columns) - 1)
}
