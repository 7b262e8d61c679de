package mapping

import (
	"errors"
	"fmt"
)

// Common mapping error types
var (
	// ErrConfiguration is returned when an entity declaration is malformed or
	// ambiguous. Configuration errors are fatal at resolution time: no
	// metadata is cached for the offending type.
	ErrConfiguration = errors.New("invalid entity configuration")

	// ErrConversion is returned when a value fails to convert to or from its
	// native representation. Conversion errors are scoped to a single value
	// and never invalidate cached metadata.
	ErrConversion = errors.New("value conversion failed")
)

// ConfigurationError describes a malformed entity declaration
type ConfigurationError struct {
	Entity string
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("entity %s: field %s: %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("entity %s: %s", e.Entity, e.Reason)
}

// Is reports ErrConfiguration as this error's sentinel
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ConversionError describes a converter or assignment failure on one value
type ConversionError struct {
	Entity string
	Field  string
	Err    error
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	return fmt.Sprintf("entity %s: field %s: %v", e.Entity, e.Field, e.Err)
}

// Unwrap returns the underlying failure
func (e *ConversionError) Unwrap() error { return e.Err }

// Is reports ErrConversion as this error's sentinel
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// IsConfiguration returns true if the error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConversion returns true if the error is a conversion error
func IsConversion(err error) bool {
	return errors.Is(err, ErrConversion)
}

func configErrf(entity, field, format string, args ...any) error {
	return &ConfigurationError{Entity: entity, Field: field, Reason: fmt.Sprintf(format, args...)}
}
