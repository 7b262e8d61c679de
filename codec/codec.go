// Package codec converts entity values to and from their native document
// representation using resolved entity metadata.
//
// A document is a mapping from persisted column name to native value: scalars
// pass through unconverted, converted fields go through their converter,
// embedded and entity fields nest as documents, and collections serialize as
// ordered sequences.
package codec

import (
	"fmt"
	"reflect"

	"github.com/leomrlima/nosql/mapping"
)

// Document is the native record shape shared by every provider
type Document map[string]any

// Marshal converts an entity value into its native document. The entity may
// be a value or a pointer and must match the metadata's type.
func Marshal(meta *mapping.EntityMetadata, entity any) (Document, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot marshal nil %s", meta.Name)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != meta.Type {
		return nil, fmt.Errorf("cannot marshal %T as entity %s (%s)", entity, meta.Name, meta.Type)
	}

	doc := make(Document, len(meta.Fields))
	for i := range meta.Fields {
		f := &meta.Fields[i]
		fv, ok := fieldByIndex(rv, f.Index)
		if !ok {
			doc[f.Column] = nil
			continue
		}
		native, err := marshalField(meta, f, fv)
		if err != nil {
			return nil, err
		}
		doc[f.Column] = native
	}
	return doc, nil
}

// Unmarshal populates an entity from a native document. out must be a
// non-nil pointer to a struct of the metadata's type. Columns absent from
// the document leave the corresponding fields untouched.
func Unmarshal(meta *mapping.EntityMetadata, doc Document, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("out must be a non-nil pointer to %s", meta.Type)
	}
	rv = rv.Elem()
	if rv.Type() != meta.Type {
		return fmt.Errorf("cannot unmarshal entity %s into %s", meta.Name, rv.Type())
	}

	for i := range meta.Fields {
		f := &meta.Fields[i]
		raw, ok := doc[f.Column]
		if !ok || raw == nil {
			continue
		}
		fv := fieldByIndexAlloc(rv, f.Index)
		if err := unmarshalField(meta, f, raw, fv); err != nil {
			return err
		}
	}
	return nil
}

func marshalField(meta *mapping.EntityMetadata, f *mapping.FieldMetadata, fv reflect.Value) (any, error) {
	fv, isNil := derefValue(fv)
	if isNil {
		return nil, nil
	}

	switch f.Kind {
	case mapping.KindScalar:
		return fv.Interface(), nil

	case mapping.KindConverted:
		native, err := f.Converter.ToNative(fv.Interface())
		if err != nil {
			return nil, &mapping.ConversionError{Entity: meta.Name, Field: f.FieldName, Err: err}
		}
		return native, nil

	case mapping.KindEmbedded, mapping.KindEntity:
		return Marshal(f.Element, fv.Interface())

	case mapping.KindScalarCollection, mapping.KindEmbeddedCollection, mapping.KindEntityCollection:
		return marshalCollection(meta, f, fv)

	default:
		return nil, fmt.Errorf("entity %s: field %s: unhandled kind %s", meta.Name, f.FieldName, f.Kind)
	}
}

func marshalCollection(meta *mapping.EntityMetadata, f *mapping.FieldMetadata, fv reflect.Value) (any, error) {
	if fv.Kind() == reflect.Slice && fv.IsNil() {
		return nil, nil
	}

	out := make([]any, 0, fv.Len())
	for i := 0; i < fv.Len(); i++ {
		ev, isNil := derefValue(fv.Index(i))
		if isNil {
			out = append(out, nil)
			continue
		}
		if f.Kind == mapping.KindScalarCollection {
			out = append(out, ev.Interface())
			continue
		}
		nested, err := Marshal(f.Element, ev.Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, nested)
	}
	return out, nil
}

func unmarshalField(meta *mapping.EntityMetadata, f *mapping.FieldMetadata, raw any, fv reflect.Value) error {
	switch f.Kind {
	case mapping.KindScalar:
		if err := assignScalar(fv, raw); err != nil {
			return &mapping.ConversionError{Entity: meta.Name, Field: f.FieldName, Err: err}
		}
		return nil

	case mapping.KindConverted:
		value, err := f.Converter.FromNative(raw)
		if err != nil {
			return &mapping.ConversionError{Entity: meta.Name, Field: f.FieldName, Err: err}
		}
		if err := assignScalar(fv, value); err != nil {
			return &mapping.ConversionError{Entity: meta.Name, Field: f.FieldName, Err: err}
		}
		return nil

	case mapping.KindEmbedded, mapping.KindEntity:
		nested, err := asDocument(raw)
		if err != nil {
			return &mapping.ConversionError{Entity: meta.Name, Field: f.FieldName, Err: err}
		}
		target := allocTarget(fv)
		return Unmarshal(f.Element, nested, target.Addr().Interface())

	case mapping.KindScalarCollection, mapping.KindEmbeddedCollection, mapping.KindEntityCollection:
		return unmarshalCollection(meta, f, raw, fv)

	default:
		return fmt.Errorf("entity %s: field %s: unhandled kind %s", meta.Name, f.FieldName, f.Kind)
	}
}

func unmarshalCollection(meta *mapping.EntityMetadata, f *mapping.FieldMetadata, raw any, fv reflect.Value) error {
	rawv := reflect.ValueOf(raw)
	if rawv.Kind() != reflect.Slice && rawv.Kind() != reflect.Array {
		return &mapping.ConversionError{
			Entity: meta.Name, Field: f.FieldName,
			Err: fmt.Errorf("expected a sequence, got %T", raw),
		}
	}

	target := allocTarget(fv)
	n := rawv.Len()

	var slice reflect.Value
	switch target.Kind() {
	case reflect.Slice:
		slice = reflect.MakeSlice(target.Type(), n, n)
	case reflect.Array:
		if target.Len() < n {
			return &mapping.ConversionError{
				Entity: meta.Name, Field: f.FieldName,
				Err: fmt.Errorf("sequence of %d values overflows array of %d", n, target.Len()),
			}
		}
		slice = target
	default:
		return &mapping.ConversionError{
			Entity: meta.Name, Field: f.FieldName,
			Err: fmt.Errorf("field type %s is not a sequence", target.Type()),
		}
	}

	for i := 0; i < n; i++ {
		elem := rawv.Index(i).Interface()
		if elem == nil {
			continue
		}
		ev := allocTarget(slice.Index(i))

		if f.Kind == mapping.KindScalarCollection {
			if err := assignScalar(ev, elem); err != nil {
				return &mapping.ConversionError{Entity: meta.Name, Field: f.FieldName, Err: err}
			}
			continue
		}

		nested, err := asDocument(elem)
		if err != nil {
			return &mapping.ConversionError{Entity: meta.Name, Field: f.FieldName, Err: err}
		}
		if err := Unmarshal(f.Element, nested, ev.Addr().Interface()); err != nil {
			return err
		}
	}

	if target.Kind() == reflect.Slice {
		target.Set(slice)
	}
	return nil
}

// asDocument normalizes the map shapes a driver may hand back
func asDocument(raw any) (Document, error) {
	switch v := raw.(type) {
	case Document:
		return v, nil
	case map[string]any:
		return Document(v), nil
	default:
		return nil, fmt.Errorf("expected a nested document, got %T", raw)
	}
}
