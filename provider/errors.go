package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common provider error types
var (
	// ErrNotFound is returned when no document exists under an identifier
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert collides with an existing
	// document
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMissingID is returned when an operation needs an identifier the
	// entity or document does not carry
	ErrMissingID = errors.New("missing identifier")

	// ErrUnknownProvider is returned when no driver is registered for a
	// requested key
	ErrUnknownProvider = errors.New("unknown provider")
)

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey returns true if the error is ErrDuplicateKey
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// AmbiguityError is returned when a database type alone matches more than
// one registered driver and no provider name disambiguates the choice.
type AmbiguityError struct {
	Database   DatabaseType
	Candidates []string
}

// Error implements the error interface
func (e *AmbiguityError) Error() string {
	candidates := append([]string(nil), e.Candidates...)
	sort.Strings(candidates)
	return fmt.Sprintf("ambiguous %s provider: candidates are %s; qualify the lookup with a provider name",
		e.Database, strings.Join(candidates, ", "))
}

// IsAmbiguous returns true if the error is an AmbiguityError
func IsAmbiguous(err error) bool {
	var ambErr *AmbiguityError
	return errors.As(err, &ambErr)
}
