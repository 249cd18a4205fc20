// Package storage provides the record-store boundary for lineup.
//
// A Store is the system of record for items. Backends live in sub-packages
// (memory, sqlite) and in internal/notion for the hosted document database.
// The ordering core keeps no state of its own: every decision starts from a
// fresh read through this interface.
package storage

import (
	"context"
	"errors"

	"github.com/steveyegge/lineup/internal/types"
)

// ErrConflict is returned when an update was rejected because the record was
// modified concurrently. It is transient: the same update may succeed later.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrArchiveUnsupported is returned when the backend cannot archive records.
var ErrArchiveUnsupported = errors.New("archiving not supported by this backend")

// Fields is a set of field assignments. Applying the same Fields twice leaves
// the record in the same state as applying it once.
type Fields map[string]interface{}

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into f, overwriting existing keys.
func (f Fields) Merge(other Fields) Fields {
	for k, v := range other {
		f[k] = v
	}
	return f
}

// Store is the capability set the ordering core depends on.
type Store interface {
	// CreateRecord stores a new record and returns its identifier.
	CreateRecord(ctx context.Context, fields Fields) (string, error)
	// ReadRecord returns the record with the given id or ErrNotFound.
	ReadRecord(ctx context.Context, id string) (*types.Record, error)
	// UpdateRecord assigns fields on an existing record. Concurrent
	// modification may be reported as ErrConflict.
	UpdateRecord(ctx context.Context, id string, fields Fields) error
	// ListRecords returns records passing filter, ordered by sort.
	ListRecords(ctx context.Context, filter types.RecordFilter, sort []types.SortOption) ([]*types.Record, error)

	Close() error
}

// Archiver is implemented by stores that can hide a record without deleting
// it (the hosted database archives pages instead of removing them).
type Archiver interface {
	ArchiveRecord(ctx context.Context, id string) error
}

// AsArchiver attempts to cast a Store to Archiver.
func AsArchiver(s Store) (Archiver, bool) {
	a, ok := s.(Archiver)
	return a, ok
}

// IsConflict reports whether err is or wraps ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
