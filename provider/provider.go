// Package provider defines the session contract shared by all database
// adapters and a registry that selects a driver by database type and
// provider name.
//
// Drivers register themselves from init(), so importing an adapter package
// for side effects is enough to make it selectable:
//
//	import _ "github.com/leomrlima/nosql/provider/redisdb"
package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/leomrlima/nosql/codec"
	"github.com/leomrlima/nosql/mapping"
)

// DatabaseType classifies the storage model a provider implements
type DatabaseType int

const (
	// KeyValue stores whole documents under a single key
	KeyValue DatabaseType = iota

	// Document stores documents with queryable structure
	Document

	// Column stores documents as rows in a wide-column or relational layout
	Column

	// Graph stores documents as property-graph nodes
	Graph
)

// String returns the string representation of the database type
func (d DatabaseType) String() string {
	switch d {
	case KeyValue:
		return "key-value"
	case Document:
		return "document"
	case Column:
		return "column"
	case Graph:
		return "graph"
	default:
		return "unknown"
	}
}

// ParseDatabaseType converts a string to a DatabaseType
func ParseDatabaseType(s string) (DatabaseType, error) {
	switch s {
	case "key-value", "keyvalue":
		return KeyValue, nil
	case "document":
		return Document, nil
	case "column":
		return Column, nil
	case "graph":
		return Graph, nil
	default:
		return 0, fmt.Errorf("unknown database type: %s", s)
	}
}

// Settings carries the connection settings a driver needs to open a session.
// Drivers read the fields relevant to them and ignore the rest.
type Settings struct {
	// Addr is the host:port address (redis)
	Addr string

	// URL is a full connection URL (sql providers)
	URL string

	// URI is the bolt URI (neo4j)
	URI string

	// Path is the data file path (jsonfile)
	Path string

	// Username and Password authenticate where the backend requires it
	Username string
	Password string

	// Database selects a logical database where the backend supports one
	Database string

	// Prefix namespaces keys for key-value providers
	Prefix string

	// Logger receives connection lifecycle events; nil disables logging
	Logger *zap.Logger
}

// NamedLogger returns the configured logger scoped to a driver name,
// or a no-op logger when none is configured
func (s Settings) NamedLogger(name string) *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger.Named(name)
}

// Driver opens sessions against one backend
type Driver interface {
	// Open connects to the backend and returns a ready session
	Open(ctx context.Context, settings Settings) (Session, error)
}

// Session performs document operations against one backend. Implementations
// are safe for concurrent use unless documented otherwise.
type Session interface {
	// Insert stores a new document; an existing document under the same
	// identifier fails with ErrDuplicateKey where the backend can detect it
	Insert(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error

	// Update replaces an existing document, failing with ErrNotFound when
	// no document exists under the identifier
	Update(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error

	// Get fetches the document stored under an identifier
	Get(ctx context.Context, meta *mapping.EntityMetadata, id any) (codec.Document, error)

	// Delete removes the document stored under an identifier
	Delete(ctx context.Context, meta *mapping.EntityMetadata, id any) error

	// Ping verifies backend connectivity
	Ping(ctx context.Context) error

	// Close releases the backend connection
	Close() error
}

// DocumentID extracts the identifier value from a document
func DocumentID(meta *mapping.EntityMetadata, doc codec.Document) (any, error) {
	idf, ok := meta.ID()
	if !ok {
		return nil, fmt.Errorf("%w: entity %s declares no identifier", ErrMissingID, meta.Name)
	}
	v, ok := doc[idf.Column]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: document for %s carries no %s value", ErrMissingID, meta.Name, idf.Column)
	}
	return v, nil
}
