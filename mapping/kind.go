package mapping

// FieldKind classifies how a persisted field translates to its native
// representation.
type FieldKind int

const (
	// KindScalar passes the value through unconverted
	KindScalar FieldKind = iota

	// KindConverted routes the value through a registered Converter
	KindConverted

	// KindEmbedded serializes a nested embeddable type as a nested document
	KindEmbedded

	// KindEntity serializes a nested entity (a type with its own identifier)
	// as a nested document
	KindEntity

	// KindScalarCollection serializes a slice or array of scalars as an
	// ordered sequence
	KindScalarCollection

	// KindEmbeddedCollection serializes a slice or array of embeddables as an
	// ordered sequence of nested documents
	KindEmbeddedCollection

	// KindEntityCollection serializes a slice or array of entities as an
	// ordered sequence of nested documents
	KindEntityCollection
)

// String returns the string representation of the field kind
func (k FieldKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindConverted:
		return "converted"
	case KindEmbedded:
		return "embedded"
	case KindEntity:
		return "entity"
	case KindScalarCollection:
		return "scalar-collection"
	case KindEmbeddedCollection:
		return "embedded-collection"
	case KindEntityCollection:
		return "entity-collection"
	default:
		return "unknown"
	}
}

// IsCollection returns true for the collection kinds
func (k FieldKind) IsCollection() bool {
	return k == KindScalarCollection || k == KindEmbeddedCollection || k == KindEntityCollection
}

// IsNested returns true for kinds that serialize as nested documents,
// directly or per element
func (k FieldKind) IsNested() bool {
	return k == KindEmbedded || k == KindEntity || k == KindEmbeddedCollection || k == KindEntityCollection
}
