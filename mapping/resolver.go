package mapping

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Resolver computes and caches EntityMetadata per Go type.
//
// Resolution is pure and referentially transparent: concurrent callers racing
// for the same type may each compute metadata, but only one result is
// published and all callers agree on the cached winner. Failed resolutions
// are never cached.
type Resolver struct {
	converters *ConverterRegistry

	mu    sync.RWMutex
	cache map[reflect.Type]*EntityMetadata
}

// NewResolver creates a resolver backed by the given converter registry.
// A nil registry starts empty.
func NewResolver(converters *ConverterRegistry) *Resolver {
	if converters == nil {
		converters = NewConverterRegistry()
	}
	return &Resolver{
		converters: converters,
		cache:      make(map[reflect.Type]*EntityMetadata),
	}
}

// Converters returns the resolver's converter registry
func (r *Resolver) Converters() *ConverterRegistry {
	return r.converters
}

// Resolve returns metadata for the dynamic type of entity, which may be a
// value or a pointer
func (r *Resolver) Resolve(entity any) (*EntityMetadata, error) {
	t := reflect.TypeOf(entity)
	if t == nil {
		return nil, configErrf("", "", "cannot resolve nil entity")
	}
	return r.ResolveType(t)
}

// ResolveType returns metadata for a struct type, describing it from its
// struct tags on first use
func (r *Resolver) ResolveType(t reflect.Type) (*EntityMetadata, error) {
	if t == nil {
		return nil, configErrf("", "", "cannot resolve nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if meta := r.cached(t); meta != nil {
		return meta, nil
	}
	d, err := DescribeStruct(t)
	if err != nil {
		return nil, err
	}
	return r.resolve(d, make(map[reflect.Type]bool))
}

// ResolveDescriptor returns metadata for an explicitly built descriptor. The
// first descriptor resolved for a type wins; later calls for the same type
// return the cached metadata regardless of the descriptor supplied.
func (r *Resolver) ResolveDescriptor(d *TypeDescriptor) (*EntityMetadata, error) {
	if d == nil {
		return nil, configErrf("", "", "cannot resolve nil descriptor")
	}
	if meta := r.cached(d.goType); meta != nil {
		return meta, nil
	}
	return r.resolve(d, make(map[reflect.Type]bool))
}

func (r *Resolver) cached(t reflect.Type) *EntityMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[t]
}

// resolve computes metadata for a descriptor without holding the cache lock,
// then publishes it, keeping the first published result for the type.
func (r *Resolver) resolve(d *TypeDescriptor, visiting map[reflect.Type]bool) (*EntityMetadata, error) {
	t := d.goType
	if visiting[t] {
		return nil, configErrf(d.name, "", "circular embedding involving %s", t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	name := d.name
	if name == "" {
		name = t.Name()
	}
	if name == "" {
		return nil, configErrf(t.String(), "", "entity name must not be empty")
	}

	meta := &EntityMetadata{
		Name:     name,
		Type:     t,
		Fields:   make([]FieldMetadata, 0, len(d.fields)),
		id:       -1,
		byColumn: make(map[string]int, len(d.fields)),
	}

	for _, fd := range d.fields {
		fm, err := r.resolveField(name, fd, visiting)
		if err != nil {
			return nil, err
		}

		if _, dup := meta.byColumn[fm.Column]; dup {
			return nil, configErrf(name, fd.FieldName, "duplicate persisted name %q", fm.Column)
		}
		if fm.ID {
			if meta.id >= 0 {
				return nil, configErrf(name, fd.FieldName,
					"multiple identifier fields (%s and %s)", meta.Fields[meta.id].FieldName, fd.FieldName)
			}
			meta.id = len(meta.Fields)
		}

		meta.byColumn[fm.Column] = len(meta.Fields)
		meta.Fields = append(meta.Fields, fm)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cache[t]; ok {
		return existing, nil
	}
	r.cache[t] = meta
	return meta, nil
}

func (r *Resolver) resolveField(entity string, fd FieldDescriptor, visiting map[reflect.Type]bool) (FieldMetadata, error) {
	fm := FieldMetadata{
		FieldName: fd.FieldName,
		Column:    fd.Column,
		Type:      fd.Type,
		Index:     fd.Index,
		ID:        fd.ID,
	}
	if fm.Column == "" {
		if fd.ID {
			fm.Column = IDColumn
		} else {
			fm.Column = fd.FieldName
		}
	}

	if fd.Converter != "" {
		conv, ok := r.converters.Get(fd.Converter)
		if !ok {
			return fm, configErrf(entity, fd.FieldName, "unknown converter %q", fd.Converter)
		}
		if typed, ok := conv.(TypedConverter); ok {
			at := typed.AttributeType()
			declared := derefType(fd.Type)
			if at != nil && at != declared && at != fd.Type {
				return fm, configErrf(entity, fd.FieldName,
					"converter %q accepts %s, field is %s", fd.Converter, at, fd.Type)
			}
		}
		fm.Kind = KindConverted
		fm.Converter = conv
		return fm, nil
	}

	return r.classify(entity, fd.FieldName, fm, visiting)
}

// classify determines the field kind from its declared type, recursively
// resolving nested persistable types
func (r *Resolver) classify(entity, field string, fm FieldMetadata, visiting map[reflect.Type]bool) (FieldMetadata, error) {
	t := derefType(fm.Type)

	switch {
	case isScalarType(t):
		fm.Kind = KindScalar

	case t.Kind() == reflect.Struct:
		nested, persistable, err := r.resolveNested(t, visiting)
		if err != nil {
			return fm, err
		}
		if !persistable {
			// Plain value struct with no persistence intent: passed through
			// unconverted to the native representation.
			fm.Kind = KindScalar
			return fm, nil
		}
		fm.Element = nested
		if _, hasID := nested.ID(); hasID {
			fm.Kind = KindEntity
		} else {
			fm.Kind = KindEmbedded
		}

	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		et := derefType(t.Elem())
		fm.ElementType = t.Elem()
		switch {
		case isScalarType(et):
			fm.Kind = KindScalarCollection
		case et.Kind() == reflect.Struct:
			nested, persistable, err := r.resolveNested(et, visiting)
			if err != nil {
				return fm, err
			}
			if !persistable {
				fm.Kind = KindScalarCollection
				return fm, nil
			}
			fm.Element = nested
			if _, hasID := nested.ID(); hasID {
				fm.Kind = KindEntityCollection
			} else {
				fm.Kind = KindEmbeddedCollection
			}
		default:
			return fm, configErrf(entity, field, "unsupported collection element type %s", t.Elem())
		}

	default:
		return fm, configErrf(entity, field, "unsupported field type %s", fm.Type)
	}

	return fm, nil
}

// resolveNested resolves the schema of a nested struct type. A nested type is
// persistable when it declares at least one persisted field; plain value
// structs report persistable == false and stay scalars. The visiting set is
// threaded through so field-type cycles surface as configuration errors
// instead of unbounded recursion.
func (r *Resolver) resolveNested(t reflect.Type, visiting map[reflect.Type]bool) (*EntityMetadata, bool, error) {
	if meta := r.cached(t); meta != nil {
		return meta, true, nil
	}

	d, err := describeStruct(t, make(map[reflect.Type]bool))
	if err != nil {
		return nil, false, err
	}
	if len(d.fields) == 0 {
		return nil, false, nil
	}

	nested, err := r.resolve(d, visiting)
	if err != nil {
		return nil, false, err
	}
	return nested, true, nil
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	uuidType     = reflect.TypeOf(uuid.UUID{})
	durationType = reflect.TypeOf(time.Duration(0))
	bytesType    = reflect.TypeOf([]byte(nil))
)

// isScalarType reports whether a type passes through to the native
// representation unconverted
func isScalarType(t reflect.Type) bool {
	switch t {
	case timeType, uuidType, durationType, bytesType:
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}
