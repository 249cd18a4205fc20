// Package memory implements an in-memory record store. It backs tests and
// the memory backend, and can inject update failures to exercise the
// conflict retry path.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/steveyegge/lineup/internal/idgen"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/types"
)

// MemoryStorage is a mutex-guarded map of records that keeps insertion order.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*types.Record
	order   []string
	closed  bool
	now     func() time.Time

	updateErrs  map[string][]error
	updateCalls map[string]int
	archived    map[string]bool
	onList      func()
}

// New creates an empty in-memory store.
func New() *MemoryStorage {
	return &MemoryStorage{
		records:     make(map[string]*types.Record),
		updateErrs:  make(map[string][]error),
		updateCalls: make(map[string]int),
		archived:    make(map[string]bool),
		now:         time.Now,
	}
}

var (
	_ storage.Store    = (*MemoryStorage)(nil)
	_ storage.Archiver = (*MemoryStorage)(nil)
)

// CreateRecord stores a copy of fields under a new id.
func (m *MemoryStorage) CreateRecord(ctx context.Context, fields storage.Fields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", fmt.Errorf("create record: store is closed")
	}

	created := m.now().UTC()
	rec := &types.Record{Fields: fields.Clone(), CreatedAt: created}
	id, err := m.newID(rec.String(types.FieldTitle), created)
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}
	rec.ID = id
	m.records[id] = rec
	m.order = append(m.order, id)
	return id, nil
}

// ReadRecord returns a copy of the record.
func (m *MemoryStorage) ReadRecord(ctx context.Context, id string) (*types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok || m.archived[id] {
		return nil, fmt.Errorf("read record %s: %w", id, storage.ErrNotFound)
	}
	return copyRecord(rec), nil
}

// UpdateRecord assigns fields. Errors queued with InjectUpdateErrors are
// returned first, one per call, without touching the record.
func (m *MemoryStorage) UpdateRecord(ctx context.Context, id string, fields storage.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("update record %s: store is closed", id)
	}

	m.updateCalls[id]++
	if queued := m.updateErrs[id]; len(queued) > 0 {
		err := queued[0]
		m.updateErrs[id] = queued[1:]
		return err
	}

	rec, ok := m.records[id]
	if !ok || m.archived[id] {
		return fmt.Errorf("update record %s: %w", id, storage.ErrNotFound)
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}
	return nil
}

// ListRecords filters in insertion order, then stable-sorts.
func (m *MemoryStorage) ListRecords(ctx context.Context, filter types.RecordFilter, sort []types.SortOption) ([]*types.Record, error) {
	m.mu.RLock()
	var out []*types.Record
	for _, id := range m.order {
		if m.archived[id] {
			continue
		}
		rec := m.records[id]
		if !filter.Matches(rec) {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	hook := m.onList
	m.mu.RUnlock()

	types.SortRecords(out, sort)
	if hook != nil {
		hook()
	}
	return out, nil
}

// ArchiveRecord hides a record from reads and lists.
func (m *MemoryStorage) ArchiveRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("archive record %s: store is closed", id)
	}
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("archive record %s: %w", id, storage.ErrNotFound)
	}
	m.archived[id] = true
	return nil
}

// Close marks the store closed for writes. Reads keep working.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// InjectUpdateErrors queues errors returned by the next update calls for id.
func (m *MemoryStorage) InjectUpdateErrors(id string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErrs[id] = append(m.updateErrs[id], errs...)
}

// UpdateCalls returns how many update calls were made for id.
func (m *MemoryStorage) UpdateCalls(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updateCalls[id]
}

// OnList registers fn to run after every list query has been assembled and
// before it is returned.
func (m *MemoryStorage) OnList(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onList = fn
}

// SetClock overrides the creation timestamp source.
func (m *MemoryStorage) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func copyRecord(r *types.Record) *types.Record {
	fields := make(map[string]interface{}, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return &types.Record{ID: r.ID, Fields: fields, CreatedAt: r.CreatedAt}
}

// newID must be called with m.mu held.
func (m *MemoryStorage) newID(title string, created time.Time) (string, error) {
	for nonce := 0; nonce < idgen.MaxNonce; nonce++ {
		id := idgen.GenerateHashID("mem", title, created, idgen.DefaultLength, nonce)
		if _, taken := m.records[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free id for %q after %d attempts", title, idgen.MaxNonce)
}
