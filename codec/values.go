package codec

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
)

// fieldByIndex walks an index path, reporting ok == false when a nil pointer
// interrupts the path
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		for rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = rv.Field(i)
	}
	return rv, true
}

// fieldByIndexAlloc walks an index path, allocating nil pointers along the way
func fieldByIndexAlloc(rv reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		for rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				rv.Set(reflect.New(rv.Type().Elem()))
			}
			rv = rv.Elem()
		}
		rv = rv.Field(i)
	}
	return rv
}

// derefValue dereferences pointers, reporting nil pointers
func derefValue(rv reflect.Value) (reflect.Value, bool) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return rv, true
		}
		rv = rv.Elem()
	}
	return rv, false
}

// allocTarget dereferences a settable destination, allocating pointers
func allocTarget(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}
	return rv
}

// assignScalar assigns a native value to a destination field, converting
// between numeric representations. Drivers hand back wider types than the
// field declares (JSON numbers arrive as float64), so numeric conversions are
// performed when lossless by kind. Well-known scalars stored as text by
// JSON-backed providers (time.Time, uuid.UUID, []byte) are decoded from
// strings.
func assignScalar(dst reflect.Value, v any) error {
	dst = allocTarget(dst)

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}

	if rv.Type() == dst.Type() {
		dst.Set(rv)
		return nil
	}
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if convertibleKinds(rv.Kind(), dst.Kind()) && rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	if s, ok := v.(string); ok {
		if handled, err := assignText(dst, s); handled {
			return err
		}
	}
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}

// assignText decodes a string into destinations that serialize as text.
// handled reports whether the destination takes text at all, so unrelated
// mismatches still surface the generic assignment error.
func assignText(dst reflect.Value, s string) (handled bool, err error) {
	if dst.CanAddr() {
		if u, ok := dst.Addr().Interface().(encoding.TextUnmarshaler); ok {
			if err := u.UnmarshalText([]byte(s)); err != nil {
				return true, fmt.Errorf("cannot assign %q to %s: %w", s, dst.Type(), err)
			}
			return true, nil
		}
	}
	if dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8 {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return true, fmt.Errorf("cannot assign %q to %s: %w", s, dst.Type(), err)
		}
		dst.Set(reflect.ValueOf(decoded).Convert(dst.Type()))
		return true, nil
	}
	return false, nil
}

// convertibleKinds limits reflect conversion to same-family kinds so that
// surprising conversions (int -> string) never happen silently
func convertibleKinds(from, to reflect.Kind) bool {
	return (isNumericKind(from) && isNumericKind(to)) ||
		(from == reflect.String && to == reflect.String)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
