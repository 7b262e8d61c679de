// Package jsonfile provides the document provider backed by a single JSON
// file. A cross-process file lock guards every operation, so multiple
// processes can safely share one data file.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/leomrlima/nosql/codec"
	"github.com/leomrlima/nosql/mapping"
	"github.com/leomrlima/nosql/provider"
)

// ProviderName is the name this driver registers under
const ProviderName = "jsonfile"

const (
	lockTimeout    = 3 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

func init() {
	provider.Register(provider.Key{Database: provider.Document, Provider: ProviderName}, driver{})
}

type driver struct{}

// Open prepares a session over the configured data file, creating it lazily
// on first write
func (driver) Open(ctx context.Context, settings provider.Settings) (provider.Session, error) {
	if settings.Path == "" {
		return nil, fmt.Errorf("jsonfile: settings.Path is required")
	}
	session := NewSession(settings.Path, settings.Logger)
	session.logger.Debug("session opened", zap.String("path", settings.Path))
	return session, nil
}

// Session is a JSON-file-backed document session
type Session struct {
	path     string
	fileLock *flock.Flock
	logger   *zap.Logger
}

// NewSession creates a session over a data file path. A separate lock file
// sits next to the data file so file replacement during save never races the
// lock itself.
func NewSession(path string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		path:     path,
		fileLock: flock.New(path + ".lock"),
		logger:   logger,
	}
}

// fileData is the on-disk shape: documents keyed by entity name, then by
// identifier
type fileData struct {
	Entities map[string]map[string]codec.Document `json:"entities"`
	Metadata fileMetadata                         `json:"metadata"`
}

type fileMetadata struct {
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// withLock runs fn with the file lock held, loading the data first and saving
// it after when fn reports a change
func (s *Session) withLock(ctx context.Context, fn func(data *fileData) (bool, error)) error {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("jsonfile: failed to acquire file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("jsonfile: file lock is held by another process")
	}
	defer func() {
		if unlockErr := s.fileLock.Unlock(); unlockErr != nil {
			s.logger.Warn("failed to release file lock", zap.Error(unlockErr))
		}
	}()

	data, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(data)
	if err != nil {
		return err
	}
	if changed {
		return s.save(data)
	}
	return nil
}

func (s *Session) load() (*fileData, error) {
	data := &fileData{
		Entities: make(map[string]map[string]codec.Document),
		Metadata: fileMetadata{Version: "1.0"},
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, fmt.Errorf("jsonfile: failed to read %s: %w", s.path, err)
	}
	if len(payload) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(payload, data); err != nil {
		return nil, fmt.Errorf("jsonfile: failed to decode %s: %w", s.path, err)
	}
	if data.Entities == nil {
		data.Entities = make(map[string]map[string]codec.Document)
	}
	return data, nil
}

// save writes atomically: a temp file in the same directory, then a rename
func (s *Session) save(data *fileData) error {
	data.Metadata.UpdatedAt = time.Now()

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: failed to encode data: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonfile: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("jsonfile: failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("jsonfile: failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("jsonfile: failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Insert stores a new document
func (s *Session) Insert(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return err
	}
	key := fmt.Sprint(id)

	return s.withLock(ctx, func(data *fileData) (bool, error) {
		records := data.Entities[meta.Name]
		if records == nil {
			records = make(map[string]codec.Document)
			data.Entities[meta.Name] = records
		}
		if _, exists := records[key]; exists {
			return false, fmt.Errorf("%w: %s %v", provider.ErrDuplicateKey, meta.Name, id)
		}
		records[key] = doc
		return true, nil
	})
}

// Update replaces an existing document
func (s *Session) Update(ctx context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return err
	}
	key := fmt.Sprint(id)

	return s.withLock(ctx, func(data *fileData) (bool, error) {
		records := data.Entities[meta.Name]
		if _, exists := records[key]; !exists {
			return false, fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
		}
		records[key] = doc
		return true, nil
	})
}

// Get fetches the document stored under an identifier
func (s *Session) Get(ctx context.Context, meta *mapping.EntityMetadata, id any) (codec.Document, error) {
	key := fmt.Sprint(id)

	var doc codec.Document
	err := s.withLock(ctx, func(data *fileData) (bool, error) {
		record, exists := data.Entities[meta.Name][key]
		if !exists {
			return false, fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
		}
		doc = record
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the document stored under an identifier
func (s *Session) Delete(ctx context.Context, meta *mapping.EntityMetadata, id any) error {
	key := fmt.Sprint(id)

	return s.withLock(ctx, func(data *fileData) (bool, error) {
		records := data.Entities[meta.Name]
		if _, exists := records[key]; !exists {
			return false, fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
		}
		delete(records, key)
		return true, nil
	})
}

// Ping verifies the data file's directory is reachable
func (s *Session) Ping(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("jsonfile: data directory unavailable: %w", err)
	}
	return nil
}

// Close releases nothing: the file lock is scoped per operation
func (s *Session) Close() error {
	s.logger.Debug("session closed")
	return nil
}
