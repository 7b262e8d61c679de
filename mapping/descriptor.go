package mapping

import (
	"reflect"
	"strings"
)

// Struct tag names and options recognized by DescribeStruct.
const (
	// TagColumn marks a field for persistence and optionally overrides its
	// persisted name: `column:"title"`. An empty name keeps the default.
	TagColumn = "column"

	// TagConvert names a registered converter for the field: `convert:"money"`
	TagConvert = "convert"

	// OptionID marks the field as the entity identifier: `column:",id"`
	OptionID = "id"
)

// IDColumn is the default persisted name of an identifier field. An explicit
// column name override wins over it.
const IDColumn = "_id"

// NamedEntity overrides the default entity name (the struct's simple name).
// Implement it on the entity's pointer or value receiver.
type NamedEntity interface {
	EntityName() string
}

var namedEntityType = reflect.TypeOf((*NamedEntity)(nil)).Elem()

// TypeDescriptor is an explicit description of how a struct type persists.
// It is the resolver's sole input: DescribeStruct (struct tags) and the
// fluent Builder both produce one. Fields are ordered ancestor contributions
// first, then the type's own fields, each group in declaration order.
type TypeDescriptor struct {
	goType reflect.Type
	name   string
	fields []FieldDescriptor
}

// FieldDescriptor describes a single persisted member of a type
type FieldDescriptor struct {
	// FieldName is the Go struct field name
	FieldName string

	// Column overrides the persisted name; empty keeps the default
	Column string

	// ID marks the field as the entity identifier
	ID bool

	// Converter names a registered converter; empty means no conversion
	Converter string

	// Type is the declared Go type of the field
	Type reflect.Type

	// Index is the reflect index path from the owning struct
	Index []int
}

// Name returns the entity name the descriptor declares
func (d *TypeDescriptor) Name() string { return d.name }

// Type returns the described struct type
func (d *TypeDescriptor) Type() reflect.Type { return d.goType }

// Fields returns the described fields in persistence order
func (d *TypeDescriptor) Fields() []FieldDescriptor {
	fields := make([]FieldDescriptor, len(d.fields))
	copy(fields, d.fields)
	return fields
}

// DescribeStruct builds a TypeDescriptor from a struct type's tags. A field
// is persisted iff it carries a column tag; unexported and untagged fields
// are excluded entirely. Embedded (anonymous) structs without a column tag
// contribute their own tagged fields before the owning type's fields, the way
// a mapped superclass contributes fields to its subclasses.
func DescribeStruct(t reflect.Type) (*TypeDescriptor, error) {
	return describeStruct(t, make(map[reflect.Type]bool))
}

func describeStruct(t reflect.Type, visiting map[reflect.Type]bool) (*TypeDescriptor, error) {
	if t == nil {
		return nil, configErrf("", "", "cannot describe nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, configErrf(t.String(), "", "entity type must be a struct, got %s", t.Kind())
	}
	if visiting[t] {
		return nil, configErrf(t.Name(), "", "circular embedding involving %s", t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	d := &TypeDescriptor{goType: t, name: entityName(t)}

	// Ancestor contributions come first: embedded structs without a column
	// tag act as field-contributing superclasses.
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		if _, tagged := f.Tag.Lookup(TagColumn); tagged {
			continue // persisted as a regular embedded-value field below
		}
		ft := f.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct {
			continue
		}
		parent, err := describeStruct(ft, visiting)
		if err != nil {
			return nil, err
		}
		for _, pf := range parent.fields {
			pf.Index = append([]int{i}, pf.Index...)
			d.fields = append(d.fields, pf)
		}
	}

	// The type's own tagged fields, in declaration order.
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup(TagColumn)
		if !ok {
			continue
		}
		fd := FieldDescriptor{
			FieldName: f.Name,
			Type:      f.Type,
			Index:     append([]int(nil), f.Index...),
		}

		parts := strings.Split(tag, ",")
		fd.Column = strings.TrimSpace(parts[0])
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case OptionID:
				fd.ID = true
			case "":
			default:
				return nil, configErrf(d.name, f.Name, "unknown column option %q", strings.TrimSpace(opt))
			}
		}

		if conv, ok := f.Tag.Lookup(TagConvert); ok {
			if conv == "" {
				return nil, configErrf(d.name, f.Name, "convert tag requires a converter name")
			}
			fd.Converter = conv
		}

		d.fields = append(d.fields, fd)
	}

	return d, nil
}

// entityName returns the declared entity name for a struct type: the value of
// EntityName() when the type implements NamedEntity, else its simple name.
func entityName(t reflect.Type) string {
	if t.Implements(namedEntityType) || reflect.PtrTo(t).Implements(namedEntityType) {
		if named, ok := reflect.New(t).Interface().(NamedEntity); ok {
			if n := named.EntityName(); n != "" {
				return n
			}
		}
	}
	return t.Name()
}
