// Package lineup provides a minimal public API for embedding the ordering
// engine in other Go programs.
//
// It exports the core types, the rank allocator and constructors for the
// built-in stores so callers can keep their own lists in order without the
// CLI.
package lineup

import (
	"context"

	"github.com/steveyegge/lineup/internal/ordering"
	"github.com/steveyegge/lineup/internal/rank"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/storage/memory"
	"github.com/steveyegge/lineup/internal/storage/sqlite"
	"github.com/steveyegge/lineup/internal/types"
	"github.com/steveyegge/lineup/internal/writer"
)

// Core types
type (
	Item         = types.Item
	Record       = types.Record
	Partition    = types.Partition
	Rank         = rank.Rank
	Fields       = storage.Fields
	Store        = storage.Store
	Service      = ordering.Service
	ReorderError = ordering.ReorderError
)

// Partition constants
const (
	Incomplete = types.PartitionIncomplete
	Completed  = types.PartitionCompleted
)

// Errors
var (
	ErrConflict = storage.ErrConflict
	ErrNotFound = storage.ErrNotFound
)

// Allocate returns a rank between prev and next; nil means no neighbour.
func Allocate(prev, next *Rank, p Partition) Rank {
	return rank.Allocate(prev, next, p)
}

// NewService returns an ordering service over store with the default retry
// schedule (3 attempts, 500ms base delay).
func NewService(store Store) *Service {
	return ordering.New(store, writer.New(store))
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() Store {
	return memory.New()
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path.
func NewSQLiteStore(ctx context.Context, path string) (Store, error) {
	return sqlite.New(ctx, path)
}
