package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Key selects one registered driver: a database type qualified by a provider
// name
type Key struct {
	Database DatabaseType
	Provider string
}

// String returns the string representation of the key
func (k Key) String() string {
	return k.Database.String() + "/" + k.Provider
}

// Registry manages driver registrations and resolves lookup keys to drivers
type Registry struct {
	mu      sync.RWMutex
	drivers map[Key]Driver
}

// NewRegistry creates an empty driver registry
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[Key]Driver),
	}
}

// Register registers a driver under a key
func (r *Registry) Register(key Key, d Driver) error {
	if key.Provider == "" {
		return fmt.Errorf("provider name must not be empty")
	}
	if d == nil {
		return fmt.Errorf("driver for %s is nil", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[key]; exists {
		return fmt.Errorf("driver %s is already registered", key)
	}
	r.drivers[key] = d
	return nil
}

// Resolve selects a driver. An empty provider name matches by database type
// alone: exactly one candidate resolves, more than one is an AmbiguityError.
func (r *Registry) Resolve(db DatabaseType, provider string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider != "" {
		d, ok := r.drivers[Key{Database: db, Provider: provider}]
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnknownProvider, db, provider)
		}
		return d, nil
	}

	var candidates []string
	var match Driver
	for key, d := range r.drivers {
		if key.Database == db {
			candidates = append(candidates, key.Provider)
			match = d
		}
	}
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: no %s provider registered", ErrUnknownProvider, db)
	case 1:
		return match, nil
	default:
		return nil, &AmbiguityError{Database: db, Candidates: candidates}
	}
}

// Keys returns the registered keys sorted by database type, then provider
// name
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.drivers))
	for key := range r.drivers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Database != keys[j].Database {
			return keys[i].Database < keys[j].Database
		}
		return keys[i].Provider < keys[j].Provider
	})
	return keys
}

// Default is the process-wide registry the adapter packages register into
// from init()
var Default = NewRegistry()

// Register registers a driver in the default registry. It panics on
// registration errors, matching the database/sql convention for drivers
// registered from init().
func Register(key Key, d Driver) {
	if err := Default.Register(key, d); err != nil {
		panic(err)
	}
}

// Resolve selects a driver from the default registry
func Resolve(db DatabaseType, provider string) (Driver, error) {
	return Default.Resolve(db, provider)
}

// Open resolves a driver from the default registry and opens a session
func Open(ctx context.Context, db DatabaseType, provider string, settings Settings) (Session, error) {
	d, err := Resolve(db, provider)
	if err != nil {
		return nil, err
	}
	return d.Open(ctx, settings)
}
