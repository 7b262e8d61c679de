package mapping

import (
	"reflect"
)

// EntityMetadata is the resolved, immutable schema for one entity type. It is
// published once per type and read freely by concurrent callers; consumers
// must not mutate it.
type EntityMetadata struct {
	// Name is the persisted record type name
	Name string

	// Type is the entity's struct type
	Type reflect.Type

	// Fields holds the persisted fields in serialization order: ancestor
	// contributions first, then the type's own fields
	Fields []FieldMetadata

	id       int
	byColumn map[string]int
}

// FieldMetadata is the resolved schema for one persisted field
type FieldMetadata struct {
	// FieldName is the Go struct field name
	FieldName string

	// Column is the persisted name
	Column string

	// Kind classifies how the field translates to its native representation
	Kind FieldKind

	// Type is the declared Go type of the field
	Type reflect.Type

	// Index is the reflect index path from the entity struct
	Index []int

	// ID marks the identifier field
	ID bool

	// Converter is the resolved converter instance for KindConverted fields
	Converter Converter

	// Element is the nested schema for embedded/entity fields; for the
	// nested collection kinds it describes the element type
	Element *EntityMetadata

	// ElementType is the element type for the collection kinds
	ElementType reflect.Type
}

// ID returns the identifier field, if the entity declares one. Entities
// without an identifier operate in key-value mode.
func (m *EntityMetadata) ID() (*FieldMetadata, bool) {
	if m.id < 0 {
		return nil, false
	}
	return &m.Fields[m.id], true
}

// Field returns the field persisted under the given column name
func (m *EntityMetadata) Field(column string) (*FieldMetadata, bool) {
	i, ok := m.byColumn[column]
	if !ok {
		return nil, false
	}
	return &m.Fields[i], true
}

// Columns returns the persisted column names in serialization order
func (m *EntityMetadata) Columns() []string {
	columns := make([]string, len(m.Fields))
	for i := range m.Fields {
		columns[i] = m.Fields[i].Column
	}
	return columns
}
