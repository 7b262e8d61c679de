// Package neo4jdb provides the Neo4j graph provider. Each entity maps to a
// node label with persisted fields as properties; nested and collection
// values are stored JSON-encoded, since graph properties hold primitives
// only.
package neo4jdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.uber.org/zap"

	"github.com/leomrlima/nosql/codec"
	"github.com/leomrlima/nosql/mapping"
	"github.com/leomrlima/nosql/provider"
)

// ProviderName is the name this driver registers under
const ProviderName = "neo4j"

func init() {
	provider.Register(provider.Key{Database: provider.Graph, Provider: ProviderName}, driver{})
}

type driver struct{}

// Open connects to Neo4j and verifies connectivity before returning a session
func (driver) Open(ctx context.Context, settings provider.Settings) (provider.Session, error) {
	auth := neo4j.NoAuth()
	if settings.Username != "" {
		auth = neo4j.BasicAuth(settings.Username, settings.Password, "")
	}

	drv, err := neo4j.NewDriverWithContext(settings.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to create driver: %w", err)
	}
	if err := drv.VerifyConnectivity(ctx); err != nil {
		_ = drv.Close(ctx)
		return nil, fmt.Errorf("neo4j: failed to connect: %w", err)
	}

	sessionCfg := neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite}
	if settings.Database != "" {
		sessionCfg.DatabaseName = settings.Database
	}

	logger := settings.NamedLogger("neo4j")
	logger.Debug("session opened", zap.String("uri", settings.URI))
	return &Session{
		driver:  drv,
		session: drv.NewSession(ctx, sessionCfg),
		logger:  logger,
	}, nil
}

// Session is a Neo4j-backed graph session
type Session struct {
	driver  neo4j.DriverWithContext
	session neo4j.SessionWithContext
	logger  *zap.Logger
}

// Insert creates a node for the document
func (s *Session) Insert(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	if _, err := provider.DocumentID(meta, doc); err != nil {
		return err
	}
	query, params, err := insertStatement(meta, doc)
	if err != nil {
		return err
	}
	if _, err := s.session.Run(ctx, query, params); err != nil {
		return fmt.Errorf("neo4j: insert failed: %w", err)
	}
	return nil
}

// Update replaces the properties of an existing node
func (s *Session) Update(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return err
	}
	query, params, err := updateStatement(meta, doc)
	if err != nil {
		return err
	}

	result, err := s.session.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("neo4j: update failed: %w", err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return fmt.Errorf("neo4j: update failed: %w", err)
	}
	if summary.Counters().PropertiesSet() == 0 {
		return fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	return nil
}

// Get fetches the node stored under an identifier
func (s *Session) Get(ctx context.Context, meta *mapping.EntityMetadata, id any) (codec.Document, error) {
	query, params, err := getStatement(meta, id)
	if err != nil {
		return nil, err
	}

	result, err := s.session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: get failed: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to collect results: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}

	node, ok := records[0].Values[0].(dbtype.Node)
	if !ok {
		return nil, fmt.Errorf("neo4j: expected a node, got %T", records[0].Values[0])
	}
	return expandProps(meta, node.Props)
}

// Delete removes the node stored under an identifier
func (s *Session) Delete(ctx context.Context, meta *mapping.EntityMetadata, id any) error {
	query, params, err := deleteStatement(meta, id)
	if err != nil {
		return err
	}

	result, err := s.session.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("neo4j: delete failed: %w", err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return fmt.Errorf("neo4j: delete failed: %w", err)
	}
	if summary.Counters().NodesDeleted() == 0 {
		return fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	return nil
}

// Ping verifies backend connectivity
func (s *Session) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close releases the session and the underlying driver
func (s *Session) Close() error {
	ctx := context.Background()
	s.logger.Debug("session closed")

	if err := s.session.Close(ctx); err != nil {
		return fmt.Errorf("neo4j: failed to close session: %w", err)
	}
	if err := s.driver.Close(ctx); err != nil {
		return fmt.Errorf("neo4j: failed to close driver: %w", err)
	}
	return nil
}
