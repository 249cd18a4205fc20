// Package teststore opens throwaway record stores for tests so the same test
// body can run against every local backend.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    teststore.Run(t, func(t *testing.T, s storage.Store) {
//	        ids := teststore.Seed(t, s, "a", "b")
//	        ...
//	    })
//	}
package teststore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/storage/memory"
	"github.com/steveyegge/lineup/internal/storage/sqlite"
	"github.com/steveyegge/lineup/internal/types"
)

// Backends lists the backends Run iterates over.
var Backends = []string{"memory", "sqlite"}

// New opens an empty store of the named backend. It is closed, and any
// database file removed, when the test completes.
func New(t testing.TB, backend string) storage.Store {
	t.Helper()

	var (
		s   storage.Store
		err error
	)
	switch backend {
	case "memory":
		s = memory.New()
	case "sqlite":
		s, err = sqlite.New(context.Background(), filepath.Join(t.TempDir(), "lineup.db"))
	default:
		t.Fatalf("teststore: unknown backend %q", backend)
	}
	if err != nil {
		t.Fatalf("teststore: open %s: %v", backend, err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Run calls fn in a subtest for each backend.
func Run(t *testing.T, fn func(t *testing.T, s storage.Store)) {
	t.Helper()
	for _, backend := range Backends {
		t.Run(backend, func(t *testing.T) {
			fn(t, New(t, backend))
		})
	}
}

// Seed creates one unranked, incomplete record per title and returns the ids
// in order.
func Seed(t testing.TB, s storage.Store, titles ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		id, err := s.CreateRecord(context.Background(), storage.Fields{
			types.FieldTitle:     title,
			types.FieldCompleted: false,
		})
		if err != nil {
			t.Fatalf("teststore: seed %q: %v", title, err)
		}
		ids = append(ids, id)
	}
	return ids
}
