package mapping

import (
	"reflect"
)

// Builder assembles a TypeDescriptor for callers that cannot or will not tag
// their structs. Field declarations are validated lazily: the first error is
// retained and returned from Build.
type Builder struct {
	d   TypeDescriptor
	err error
}

// Describe starts a descriptor for the struct type of sample. The sample may
// be a value or a pointer; only its type is used.
func Describe(sample any) *Builder {
	b := &Builder{}
	t := reflect.TypeOf(sample)
	if t == nil {
		b.err = configErrf("", "", "cannot describe nil type")
		return b
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		b.err = configErrf(t.String(), "", "entity type must be a struct, got %s", t.Kind())
		return b
	}
	b.d.goType = t
	b.d.name = entityName(t)
	return b
}

// Named overrides the entity name
func (b *Builder) Named(name string) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = configErrf(b.d.name, "", "entity name must not be empty")
		return b
	}
	b.d.name = name
	return b
}

// Extends contributes the parent descriptor's fields ahead of the fields
// declared so far, the way a mapped superclass contributes fields to its
// subclasses. The entity struct must embed the parent type.
func (b *Builder) Extends(parent *TypeDescriptor) *Builder {
	if b.err != nil {
		return b
	}
	if parent == nil {
		b.err = configErrf(b.d.name, "", "parent descriptor is nil")
		return b
	}

	embedded := -1
	for i := 0; i < b.d.goType.NumField(); i++ {
		f := b.d.goType.Field(i)
		if f.Anonymous && f.Type == parent.goType {
			embedded = i
			break
		}
	}
	if embedded < 0 {
		b.err = configErrf(b.d.name, "", "%s does not embed parent type %s", b.d.goType, parent.goType)
		return b
	}

	contributed := make([]FieldDescriptor, 0, len(parent.fields)+len(b.d.fields))
	for _, pf := range parent.fields {
		pf.Index = append([]int{embedded}, pf.Index...)
		contributed = append(contributed, pf)
	}
	b.d.fields = append(contributed, b.d.fields...)
	return b
}

// ID declares the identifier field with the default persisted name
func (b *Builder) ID(fieldName string) *Builder {
	return b.add(fieldName, "", true, "")
}

// IDNamed declares the identifier field with an explicit persisted name
func (b *Builder) IDNamed(fieldName, column string) *Builder {
	return b.add(fieldName, column, true, "")
}

// Field declares a persisted field with the default persisted name
func (b *Builder) Field(fieldName string) *Builder {
	return b.add(fieldName, "", false, "")
}

// FieldNamed declares a persisted field with an explicit persisted name
func (b *Builder) FieldNamed(fieldName, column string) *Builder {
	return b.add(fieldName, column, false, "")
}

// Converted declares a persisted field routed through a named converter
func (b *Builder) Converted(fieldName, column, converter string) *Builder {
	if b.err == nil && converter == "" {
		b.err = configErrf(b.d.name, fieldName, "converter name must not be empty")
		return b
	}
	return b.add(fieldName, column, false, converter)
}

// Build returns the assembled descriptor or the first declaration error
func (b *Builder) Build() (*TypeDescriptor, error) {
	if b.err != nil {
		return nil, b.err
	}
	d := b.d
	d.fields = append([]FieldDescriptor(nil), b.d.fields...)
	return &d, nil
}

func (b *Builder) add(fieldName, column string, id bool, converter string) *Builder {
	if b.err != nil {
		return b
	}
	f, ok := b.d.goType.FieldByName(fieldName)
	if !ok || !f.IsExported() {
		b.err = configErrf(b.d.name, fieldName, "no exported field %s on %s", fieldName, b.d.goType)
		return b
	}
	b.d.fields = append(b.d.fields, FieldDescriptor{
		FieldName: fieldName,
		Column:    column,
		ID:        id,
		Converter: converter,
		Type:      f.Type,
		Index:     append([]int(nil), f.Index...),
	})
	return b
}
