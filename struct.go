package pseudo

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/sentinel"
)

// tagPseudo holds a function expression, e.g. `pseudo:"daead(keyId=ssb-common-key-1)"`.
const tagPseudo = "pseudo"

func init() {
	sentinel.Tag(tagPseudo)
}

var timeType = reflect.TypeOf(time.Time{})

// typePlan is the schema and rule list derived from one Go type.
type typePlan struct {
	typeName string
	schema   *Field
	rules    []Rule
}

var (
	plans   = make(map[reflect.Type]*typePlan)
	plansMu sync.RWMutex
)

// SchemaOf derives a record schema from the struct type T. Field names come
// from json tags, pointers are dereferenced, slices become lists, arrays keep
// their length and time.Time is a string. Maps, interfaces and byte slices
// are rejected with ErrUnsupportedSchema.
//
// If *T implements SchemaProvider its schema is returned instead.
func SchemaOf[T any]() (*Field, error) {
	var zero T
	if p, ok := any(&zero).(SchemaProvider); ok {
		root := p.PseudoSchema()
		if err := root.Validate(); err != nil {
			return nil, err
		}
		return root, nil
	}
	plan, err := planOf[T]()
	if err != nil {
		return nil, err
	}
	return plan.schema, nil
}

// RulesOf collects a rule for every field of T carrying a pseudo tag, in
// field order. Each pattern is the literal path of its field, so a tag
// inside a slice element applies to every element.
//
// If *T implements RulesProvider its rules are returned instead.
func RulesOf[T any]() ([]Rule, error) {
	var zero T
	if p, ok := any(&zero).(RulesProvider); ok {
		return p.PseudoRules(), nil
	}
	plan, err := planOf[T]()
	if err != nil {
		return nil, err
	}
	out := make([]Rule, len(plan.rules))
	copy(out, plan.rules)
	return out, nil
}

// RuleSetOf compiles RulesOf[T] into a RuleSet.
func RuleSetOf[T any]() (*RuleSet, error) {
	rules, err := RulesOf[T]()
	if err != nil {
		return nil, err
	}
	return NewRuleSet(rules...)
}

// planOf returns the cached plan for T, building it on first use.
func planOf[T any]() (*typePlan, error) {
	key := reflect.TypeOf((*T)(nil)).Elem()

	plansMu.RLock()
	if cached, ok := plans[key]; ok {
		plansMu.RUnlock()
		return cached, nil
	}
	plansMu.RUnlock()

	plan, err := buildPlan[T](key)
	if err != nil {
		return nil, err
	}

	plansMu.Lock()
	defer plansMu.Unlock()
	if cached, ok := plans[key]; ok {
		return cached, nil
	}
	plans[key] = plan
	return plan, nil
}

func buildPlan[T any](key reflect.Type) (*typePlan, error) {
	rt := derefType(key)
	if rt.Kind() != reflect.Struct {
		return nil, newSchemaError("", key.String(), "record type must be a struct")
	}

	var meta sentinel.Metadata
	if key.Kind() == reflect.Struct {
		meta = sentinel.Scan[T]()
	} else {
		meta = *scanNestedType(rt)
	}

	b := &planBuilder{seen: map[reflect.Type]bool{rt: true}}
	children, err := b.fields(meta, rt, "", meta.TypeName)
	if err != nil {
		return nil, err
	}

	root := Schema(children...)
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &typePlan{typeName: meta.TypeName, schema: root, rules: b.rules}, nil
}

type planBuilder struct {
	seen  map[reflect.Type]bool
	rules []Rule
}

// fields converts the exported fields of a struct. Untagged embedded
// structs are flattened into their parent, as encoding/json does.
func (b *planBuilder) fields(meta sentinel.Metadata, rt reflect.Type, path, goName string) ([]*Field, error) {
	var out []*Field
	for _, fm := range meta.Fields {
		sf := rt.FieldByIndex(fm.Index)
		name, named, ok := jsonName(sf)
		if !ok || !sf.IsExported() && !sf.Anonymous {
			continue
		}

		if sf.Anonymous && !named && derefType(sf.Type).Kind() == reflect.Struct {
			et := derefType(sf.Type)
			kids, err := b.fields(*scanNestedType(et), et, path, goName)
			if err != nil {
				return nil, err
			}
			out = append(out, kids...)
			continue
		}

		fpath := joinPath(path, name)
		fname := goName + "." + sf.Name

		f, err := b.field(name, sf.Type, fpath, fname)
		if err != nil {
			return nil, err
		}
		if fn, ok := pseudoTag(fm, sf); ok {
			if err := b.rule(f, fname, fpath, fn); err != nil {
				return nil, err
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func (b *planBuilder) field(name string, t reflect.Type, path, goName string) (*Field, error) {
	t = derefType(t)
	if t == timeType {
		return Scalar(name, TypeString), nil
	}

	switch t.Kind() {
	case reflect.String:
		return Scalar(name, TypeString), nil
	case reflect.Bool:
		return Scalar(name, TypeBool), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Scalar(name, TypeInt64), nil
	case reflect.Float32, reflect.Float64:
		return Scalar(name, TypeFloat64), nil

	case reflect.Struct:
		if b.seen[t] {
			return nil, newSchemaError(path, t.String(), "recursive type")
		}
		b.seen[t] = true
		defer delete(b.seen, t)

		kids, err := b.fields(*scanNestedType(t), t, path, goName)
		if err != nil {
			return nil, err
		}
		return Struct(name, kids...), nil

	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return nil, newSchemaError(path, t.String(), "byte slices are not supported")
		}
		if k := derefType(t.Elem()).Kind(); k == reflect.Slice || k == reflect.Array {
			return nil, newSchemaError(path, t.String(), "nested collections are not supported")
		}
		elem, err := b.field("", t.Elem(), path, goName)
		if err != nil {
			return nil, err
		}
		if t.Kind() == reflect.Array {
			return Array(name, elem, t.Len()), nil
		}
		return List(name, elem), nil
	}

	return nil, newSchemaError(path, t.String(), "unsupported kind "+t.Kind().String())
}

// rule records a tagged field. Only leaves can carry a function.
func (b *planBuilder) rule(f *Field, goName, path, fn string) error {
	r := Rule{Name: goName, Pattern: escapeGlob(path), Func: fn}

	leaf := f
	if leaf.Type.isCollection() {
		leaf = leaf.Elem
	}
	if leaf.Type == TypeStruct {
		return newRuleError(len(b.rules), r, newSchemaError(path, f.TypeString(), "pseudo tag on a struct field"))
	}
	if _, err := CheckFunction(fn); err != nil {
		return newRuleError(len(b.rules), r, err)
	}

	b.rules = append(b.rules, r)
	return nil
}

// scanNestedType returns sentinel metadata for a nested struct, scanning it
// by reflection when sentinel has not seen it.
func scanNestedType(rt reflect.Type) *sentinel.Metadata {
	if md, ok := sentinel.Lookup(rt.String()); ok {
		return &md
	}

	md := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        make(map[string]string),
		}
		if val, ok := sf.Tag.Lookup(tagPseudo); ok {
			fm.Tags[tagPseudo] = val
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		md.Fields = append(md.Fields, fm)
	}

	return &md
}

func pseudoTag(fm sentinel.FieldMetadata, sf reflect.StructField) (string, bool) {
	if val, ok := fm.Tags[tagPseudo]; ok {
		return val, true
	}
	return sf.Tag.Lookup(tagPseudo)
}

// jsonName returns the encoded name of a field, whether the json tag named
// it, and false when the field is skipped.
func jsonName(sf reflect.StructField) (name string, named, ok bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false, false
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "" {
		return sf.Name, false, true
	}
	return name, true, true
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// escapeGlob quotes glob metacharacters so a field path matches literally.
func escapeGlob(path string) string {
	if !strings.ContainsAny(path, `*?[]{}\`) {
		return path
	}
	var sb strings.Builder
	for _, r := range path {
		if strings.ContainsRune(`*?[]{}\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
