// Package mapping resolves Go struct types into entity metadata.
//
// Application structs declare persistence intent through struct tags (or an
// explicit descriptor builder); the Resolver turns a type description into an
// immutable EntityMetadata: a named record type, an ordered set of persisted
// columns, an optional identifier column, nested embedded/entity schemas, and
// per-field value converters. Metadata is computed once per type, cached for
// the process lifetime, and read freely by concurrent callers.
//
// The codec and provider packages consume EntityMetadata to translate entity
// values to and from their native document representation.
package mapping
