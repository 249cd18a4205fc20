// Package factory provides functions for creating storage backends based on configuration.
package factory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/steveyegge/lineup/internal/config"
	"github.com/steveyegge/lineup/internal/notion"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/storage/memory"
	"github.com/steveyegge/lineup/internal/storage/sqlite"
	"github.com/steveyegge/lineup/internal/telemetry"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendNotion = "notion"
)

// BackendFactory is a function that creates a storage backend
type BackendFactory func(ctx context.Context, opts Options) (storage.Store, error)

// backendRegistry holds registered backend factories
var backendRegistry = make(map[string]BackendFactory)

// RegisterBackend registers a storage backend factory
func RegisterBackend(name string, factory BackendFactory) {
	backendRegistry[name] = factory
}

// Options configures how the storage backend is opened
type Options struct {
	Path   string                // SQLite database path
	Notion config.NotionSettings // hosted database connection
}

func init() {
	RegisterBackend(BackendMemory, func(context.Context, Options) (storage.Store, error) {
		return memory.New(), nil
	})
	RegisterBackend(BackendSQLite, func(ctx context.Context, opts Options) (storage.Store, error) {
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		return sqlite.New(ctx, opts.Path)
	})
	RegisterBackend(BackendNotion, func(_ context.Context, opts Options) (storage.Store, error) {
		n := opts.Notion
		if n.Token == "" {
			return nil, fmt.Errorf("notion backend requires a token (set NOTION_TOKEN)")
		}
		if n.DatabaseID == "" {
			return nil, fmt.Errorf("notion backend requires a database id (set NOTION_DATABASE_ID or notion.database-id)")
		}
		client := notion.NewClient(n.Token).WithDatabaseID(n.DatabaseID)
		if n.BaseURL != "" {
			client = client.WithBaseURL(n.BaseURL)
		}
		return notion.NewStore(client, notion.PropertyNames{
			Title:       n.TitleProperty,
			Rank:        n.RankProperty,
			Status:      n.StatusProperty,
			CompletedAt: n.CompletedProperty,
			Description: n.DescriptionProperty,
			Category:    n.CategoryProperty,
			Deadline:    n.DeadlineProperty,
		}), nil
	})
}

// New creates a storage backend by name. The result is wrapped with
// telemetry instrumentation when telemetry is enabled.
func New(ctx context.Context, backend string, opts Options) (storage.Store, error) {
	backend = strings.ToLower(backend)
	if backend == "" {
		backend = BackendSQLite
	}
	factory, ok := backendRegistry[backend]
	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s (supported: %s)", backend, strings.Join(Backends(), ", "))
	}
	store, err := factory(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", backend, err)
	}
	return telemetry.WrapStore(store), nil
}

// NewFromConfig creates the backend selected by the loaded configuration.
func NewFromConfig(ctx context.Context) (storage.Store, error) {
	return New(ctx, config.Backend(), Options{
		Path:   config.DBPath(),
		Notion: config.Notion(),
	})
}

// Backends lists the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
