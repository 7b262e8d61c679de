// Package redisdb provides the Redis key-value provider. Documents are
// stored JSON-encoded under "<prefix><entity>:<id>".
package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/leomrlima/nosql/codec"
	"github.com/leomrlima/nosql/mapping"
	"github.com/leomrlima/nosql/provider"
)

// ProviderName is the name this driver registers under
const ProviderName = "redis"

const openTimeout = 5 * time.Second

func init() {
	provider.Register(provider.Key{Database: provider.KeyValue, Provider: ProviderName}, driver{})
}

type driver struct{}

// Open connects to Redis and verifies connectivity before returning a session
func (driver) Open(ctx context.Context, settings provider.Settings) (provider.Session, error) {
	db := 0
	if settings.Database != "" {
		n, err := strconv.Atoi(settings.Database)
		if err != nil {
			return nil, fmt.Errorf("redis: database must be a number, got %q", settings.Database)
		}
		db = n
	}

	client := redis.NewClient(&redis.Options{
		Addr:     settings.Addr,
		Password: settings.Password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to connect: %w", err)
	}

	session := NewSessionFromClient(client, settings.Prefix, settings.Logger)
	session.logger.Debug("session opened", zap.String("addr", settings.Addr), zap.Int("db", db))
	return session, nil
}

// Session is a Redis-backed key-value session
type Session struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewSessionFromClient creates a session over an existing client. The caller
// retains ownership of nothing: Close closes the client.
func NewSessionFromClient(client *redis.Client, prefix string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *Session) key(meta *mapping.EntityMetadata, id any) string {
	return s.prefix + meta.Name + ":" + fmt.Sprint(id)
}

// Insert stores a new document, failing when the key already exists
func (s *Session) Insert(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("redis: failed to encode %s document: %w", meta.Name, err)
	}

	ok, err := s.client.SetNX(ctx, s.key(meta, id), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: insert failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %v", provider.ErrDuplicateKey, meta.Name, id)
	}
	return nil
}

// Update replaces an existing document
func (s *Session) Update(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("redis: failed to encode %s document: %w", meta.Name, err)
	}

	ok, err := s.client.SetXX(ctx, s.key(meta, id), payload, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("redis: update failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	return nil
}

// Get fetches the document stored under an identifier
func (s *Session) Get(ctx context.Context, meta *mapping.EntityMetadata, id any) (codec.Document, error) {
	payload, err := s.client.Get(ctx, s.key(meta, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
		}
		return nil, fmt.Errorf("redis: get failed: %w", err)
	}

	var doc codec.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("redis: failed to decode %s document: %w", meta.Name, err)
	}
	return doc, nil
}

// Delete removes the document stored under an identifier
func (s *Session) Delete(ctx context.Context, meta *mapping.EntityMetadata, id any) error {
	n, err := s.client.Del(ctx, s.key(meta, id)).Result()
	if err != nil {
		return fmt.Errorf("redis: delete failed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	return nil
}

// Ping verifies backend connectivity
func (s *Session) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Session) Close() error {
	s.logger.Debug("session closed")
	return s.client.Close()
}
