package mapping

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Converter is a bidirectional transform between an attribute type and its
// native storage representation. Implementations must be stateless: one
// instance is registered per name and shared by every entity that references
// it.
type Converter interface {
	// ToNative converts an attribute value to its storage representation
	ToNative(value any) (any, error)

	// FromNative converts a storage value back to the attribute type
	FromNative(native any) (any, error)
}

// TypedConverter optionally declares the attribute type a converter accepts.
// The resolver validates the declared type against the field's type at
// resolution time; converters without a declared type skip that check.
type TypedConverter interface {
	Converter

	// AttributeType returns the attribute type this converter accepts
	AttributeType() reflect.Type
}

// ConverterRegistry holds named converters referenced by "convert" tags and
// descriptor fields. It is safe for concurrent use.
type ConverterRegistry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewConverterRegistry creates an empty converter registry
func NewConverterRegistry() *ConverterRegistry {
	return &ConverterRegistry{
		converters: make(map[string]Converter),
	}
}

// Register registers a converter under a name
func (r *ConverterRegistry) Register(name string, c Converter) error {
	if name == "" {
		return fmt.Errorf("converter name must not be empty")
	}
	if c == nil {
		return fmt.Errorf("converter %s is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.converters[name]; exists {
		return fmt.Errorf("converter %s is already registered", name)
	}
	r.converters[name] = c
	return nil
}

// Get retrieves a converter by name
func (r *ConverterRegistry) Get(name string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.converters[name]
	return c, exists
}

// Names returns the registered converter names in sorted order
func (r *ConverterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.converters))
	for name := range r.converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
