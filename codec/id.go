package codec

import (
	"fmt"
	"reflect"

	"github.com/leomrlima/nosql/mapping"
)

// ID reads the identifier value from an entity. ok is false when the entity
// type declares no identifier.
func ID(meta *mapping.EntityMetadata, entity any) (any, bool, error) {
	idf, ok := meta.ID()
	if !ok {
		return nil, false, nil
	}

	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, true, fmt.Errorf("cannot read identifier of nil %s", meta.Name)
		}
		rv = rv.Elem()
	}
	fv, reachable := fieldByIndex(rv, idf.Index)
	if !reachable {
		return nil, true, nil
	}
	fv, isNil := derefValue(fv)
	if isNil {
		return nil, true, nil
	}
	return fv.Interface(), true, nil
}

// SetID writes the identifier value into an entity, which must be addressable
// through a pointer
func SetID(meta *mapping.EntityMetadata, entity any, id any) error {
	idf, ok := meta.ID()
	if !ok {
		return fmt.Errorf("entity %s declares no identifier", meta.Name)
	}

	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("entity must be a non-nil pointer to %s", meta.Type)
	}
	fv := fieldByIndexAlloc(rv.Elem(), idf.Index)
	if err := assignScalar(fv, id); err != nil {
		return &mapping.ConversionError{Entity: meta.Name, Field: idf.FieldName, Err: err}
	}
	return nil
}
