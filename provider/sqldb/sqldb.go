// Package sqldb provides the column provider backed by database/sql. Each
// entity maps to a table with one column per persisted field; nested and
// collection values are stored JSON-encoded.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	// SQL drivers for the registered providers
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/leomrlima/nosql/codec"
	"github.com/leomrlima/nosql/mapping"
	"github.com/leomrlima/nosql/provider"
)

// Provider names this package registers
const (
	ProviderPostgres = "postgres"
	ProviderSQLite   = "sqlite"
)

func init() {
	provider.Register(provider.Key{Database: provider.Column, Provider: ProviderPostgres}, driver{driverName: "postgres"})
	provider.Register(provider.Key{Database: provider.Column, Provider: ProviderSQLite}, driver{driverName: "sqlite3"})
}

type driver struct {
	driverName string
}

// Open connects to the database and verifies connectivity before returning a
// session
func (d driver) Open(ctx context.Context, settings provider.Settings) (provider.Session, error) {
	db, err := sql.Open(d.driverName, settings.URL)
	if err != nil {
		return nil, fmt.Errorf("sql: failed to open %s connection: %w", d.driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sql: failed to connect: %w", err)
	}

	session := NewSessionFromDB(db, d.driverName, settings.Logger)
	session.logger.Debug("session opened", zap.String("driver", d.driverName))
	return session, nil
}

// Session is a database/sql-backed column session
type Session struct {
	db         *sql.DB
	driverName string
	logger     *zap.Logger
}

// NewSessionFromDB creates a session over an existing connection pool. Close
// closes the pool.
func NewSessionFromDB(db *sql.DB, driverName string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		db:         db,
		driverName: driverName,
		logger:     logger,
	}
}

// placeholder returns the bind placeholder for a 1-based parameter position
func (s *Session) placeholder(n int) string {
	if s.driverName == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Insert stores a new document as a row
func (s *Session) Insert(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	if _, err := provider.DocumentID(meta, doc); err != nil {
		return err
	}

	columns := make([]string, 0, len(meta.Fields))
	placeholders := make([]string, 0, len(meta.Fields))
	values := make([]any, 0, len(meta.Fields))
	for i := range meta.Fields {
		f := &meta.Fields[i]
		v, err := columnValue(f, doc[f.Column])
		if err != nil {
			return err
		}
		columns = append(columns, f.Column)
		placeholders = append(placeholders, s.placeholder(len(values)+1))
		values = append(values, v)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName(meta), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return convertDBError(err)
	}
	return nil
}

// Update replaces an existing row
func (s *Session) Update(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return err
	}
	idf, _ := meta.ID()

	assignments := make([]string, 0, len(meta.Fields))
	values := make([]any, 0, len(meta.Fields)+1)
	for i := range meta.Fields {
		f := &meta.Fields[i]
		if f.ID {
			continue
		}
		v, err := columnValue(f, doc[f.Column])
		if err != nil {
			return err
		}
		values = append(values, v)
		assignments = append(assignments, fmt.Sprintf("%s = %s", f.Column, s.placeholder(len(values))))
	}
	if len(assignments) == 0 {
		// Identifier-only entities have no assignable columns. Touch the key
		// column so the statement stays valid and RowsAffected still reports
		// whether the row exists.
		values = append(values, id)
		assignments = append(assignments, fmt.Sprintf("%s = %s", idf.Column, s.placeholder(len(values))))
	}
	values = append(values, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		tableName(meta), strings.Join(assignments, ", "), idf.Column, s.placeholder(len(values)))
	result, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return convertDBError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return convertDBError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	return nil
}

// Get fetches the row stored under an identifier
func (s *Session) Get(ctx context.Context, meta *mapping.EntityMetadata, id any) (codec.Document, error) {
	idf, ok := meta.ID()
	if !ok {
		return nil, fmt.Errorf("%w: entity %s declares no identifier", provider.ErrMissingID, meta.Name)
	}

	columns := meta.Columns()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(columns, ", "), tableName(meta), idf.Column, s.placeholder(1))

	row := s.db.QueryRowContext(ctx, query, id)

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := row.Scan(valuePtrs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
		}
		return nil, convertDBError(err)
	}

	doc := make(codec.Document, len(columns))
	for i := range meta.Fields {
		f := &meta.Fields[i]
		v, err := decodeColumn(f, values[i])
		if err != nil {
			return nil, err
		}
		doc[f.Column] = v
	}
	return doc, nil
}

// Delete removes the row stored under an identifier
func (s *Session) Delete(ctx context.Context, meta *mapping.EntityMetadata, id any) error {
	idf, ok := meta.ID()
	if !ok {
		return fmt.Errorf("%w: entity %s declares no identifier", provider.ErrMissingID, meta.Name)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", tableName(meta), idf.Column, s.placeholder(1))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return convertDBError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return convertDBError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	return nil
}

// Ping verifies backend connectivity
func (s *Session) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *Session) Close() error {
	s.logger.Debug("session closed")
	return s.db.Close()
}
