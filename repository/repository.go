// Package repository provides a typed repository bound to one entity type and
// one provider session. It is a thin convenience layer: metadata resolution,
// document translation, and identifier generation, with storage delegated to
// the session.
package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/leomrlima/nosql/codec"
	"github.com/leomrlima/nosql/mapping"
	"github.com/leomrlima/nosql/provider"
)

// Repository performs document operations for one entity type
type Repository[T any] struct {
	meta    *mapping.EntityMetadata
	session provider.Session
}

// New resolves the entity type's metadata and binds it to a session
func New[T any](resolver *mapping.Resolver, session provider.Session) (*Repository[T], error) {
	var zero T
	meta, err := resolver.Resolve(&zero)
	if err != nil {
		return nil, err
	}
	return &Repository[T]{meta: meta, session: session}, nil
}

// Metadata returns the resolved entity metadata
func (r *Repository[T]) Metadata() *mapping.EntityMetadata {
	return r.meta
}

// Insert stores a new entity, generating an identifier when the entity's
// identifier field is a zero-valued string or UUID
func (r *Repository[T]) Insert(ctx context.Context, entity *T) error {
	if err := r.ensureID(entity); err != nil {
		return err
	}
	doc, err := codec.Marshal(r.meta, entity)
	if err != nil {
		return err
	}
	return r.session.Insert(ctx, r.meta, doc)
}

// Update replaces a stored entity
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	doc, err := codec.Marshal(r.meta, entity)
	if err != nil {
		return err
	}
	return r.session.Update(ctx, r.meta, doc)
}

// Save updates a stored entity, inserting it when it does not exist yet
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	id, hasID, err := codec.ID(r.meta, entity)
	if err != nil {
		return err
	}
	if hasID && !isZeroValue(id) {
		err := r.Update(ctx, entity)
		if err == nil || !provider.IsNotFound(err) {
			return err
		}
	}
	return r.Insert(ctx, entity)
}

// FindByID fetches an entity by identifier
func (r *Repository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	doc, err := r.session.Get(ctx, r.meta, id)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := codec.Unmarshal(r.meta, doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes an entity by identifier
func (r *Repository[T]) DeleteByID(ctx context.Context, id any) error {
	return r.session.Delete(ctx, r.meta, id)
}

// ensureID fills a zero-valued identifier with a generated UUID where the
// identifier type supports it
func (r *Repository[T]) ensureID(entity *T) error {
	idf, ok := r.meta.ID()
	if !ok {
		return fmt.Errorf("%w: entity %s declares no identifier", provider.ErrMissingID, r.meta.Name)
	}

	id, _, err := codec.ID(r.meta, entity)
	if err != nil {
		return err
	}
	if !isZeroValue(id) {
		return nil
	}

	idType := derefType(idf.Type)
	if idType == reflect.TypeOf(uuid.UUID{}) {
		return codec.SetID(r.meta, entity, uuid.New())
	}
	if idType.Kind() == reflect.String {
		return codec.SetID(r.meta, entity, uuid.NewString())
	}
	return fmt.Errorf("%w: entity %s has a zero identifier and type %s cannot be generated",
		provider.ErrMissingID, r.meta.Name, idf.Type)
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.IsZero()
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
