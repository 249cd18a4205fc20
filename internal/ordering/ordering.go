// Package ordering keeps items in a stable, user-visible order on top of a
// record store that has no transactions and no ordering primitive.
//
// Every operation reads the current state from the store, asks the rank
// allocator for a target rank and persists it: creates go straight to the
// store, updates go through the conflict-safe writer. The service holds no
// state between calls. Two callers racing on the same partition may read the
// same maximum and write duplicate ranks; the order is optimistic, not
// serialised.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/steveyegge/lineup/internal/debug"
	"github.com/steveyegge/lineup/internal/rank"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/types"
	"github.com/steveyegge/lineup/internal/writer"
)

// ErrInvalidPartition is returned for a partition outside incomplete/completed.
var ErrInvalidPartition = errors.New("invalid partition")

// ReorderError reports a BulkReorder that stopped part way. Writes for the
// first Succeeded ids were applied and are not rolled back.
type ReorderError struct {
	FailedID  string
	Succeeded int
	Err       error
}

func (e *ReorderError) Error() string {
	return fmt.Sprintf("reorder stopped at %s after %d successful writes: %v", e.FailedID, e.Succeeded, e.Err)
}

func (e *ReorderError) Unwrap() error { return e.Err }

// Service implements append, toggle, reorder and move over a store.
type Service struct {
	store  storage.Store
	writer *writer.Writer
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service. A nil writer gets the default retry schedule.
func New(store storage.Store, w *writer.Writer, opts ...Option) *Service {
	if w == nil {
		w = writer.New(store)
	}
	s := &Service{store: store, writer: w, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendToPartition creates a record from fields at the end of partition.
// The rank and completed fields in fields are overwritten.
func (s *Service) AppendToPartition(ctx context.Context, fields storage.Fields, partition types.Partition) (*types.Item, error) {
	if !partition.IsValid() {
		return nil, fmt.Errorf("append: %w: %q", ErrInvalidPartition, partition)
	}

	last, err := s.lastRank(ctx, partition, "")
	if err != nil {
		return nil, fmt.Errorf("append: %w", err)
	}
	r := rank.Allocate(last, nil, partition)

	create := fields.Clone()
	create[types.FieldRank] = r.String()
	create[types.FieldCompleted] = partition == types.PartitionCompleted
	if partition == types.PartitionCompleted {
		if _, ok := create[types.FieldCompletedAt]; !ok {
			create[types.FieldCompletedAt] = s.timestamp()
		}
	}

	id, err := s.store.CreateRecord(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("append: create record: %w", err)
	}
	debug.Logger().Debug("appended item", "id", id, "partition", partition, "rank", r)

	return types.ItemFromRecord(&types.Record{ID: id, Fields: create, CreatedAt: s.now().UTC()}), nil
}

// ToggleCompletion moves the item into the other partition, at its end.
// Rank, completed flag and completion timestamp go out in one write.
func (s *Service) ToggleCompletion(ctx context.Context, id string) (*types.Item, error) {
	rec, err := s.store.ReadRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("toggle %s: %w", id, err)
	}
	target := types.ItemFromRecord(rec).Partition.Other()
	item, err := s.moveRecord(ctx, rec, target, nil)
	if err != nil {
		return nil, fmt.Errorf("toggle %s: %w", id, err)
	}
	return item, nil
}

// MoveBetweenPartitions places the item at the end of target and applies
// extra in the same write. Moving into the current partition sends the item
// to the end of it.
func (s *Service) MoveBetweenPartitions(ctx context.Context, id string, target types.Partition, extra storage.Fields) (*types.Item, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("move %s: %w: %q", id, ErrInvalidPartition, target)
	}
	rec, err := s.store.ReadRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("move %s: %w", id, err)
	}
	item, err := s.moveRecord(ctx, rec, target, extra)
	if err != nil {
		return nil, fmt.Errorf("move %s: %w", id, err)
	}
	return item, nil
}

func (s *Service) moveRecord(ctx context.Context, rec *types.Record, target types.Partition, extra storage.Fields) (*types.Item, error) {
	last, err := s.lastRank(ctx, target, rec.ID)
	if err != nil {
		return nil, err
	}
	r := rank.Allocate(last, nil, target)

	update := storage.Fields{}
	update.Merge(extra)
	update[types.FieldRank] = r.String()
	update[types.FieldCompleted] = target == types.PartitionCompleted
	if target == types.PartitionCompleted {
		update[types.FieldCompletedAt] = s.timestamp()
	} else {
		update[types.FieldCompletedAt] = ""
	}

	if err := s.writer.Write(ctx, rec.ID, update); err != nil {
		return nil, err
	}
	debug.Logger().Debug("moved item", "id", rec.ID, "partition", target, "rank", r)

	fields := storage.Fields(rec.Fields).Clone().Merge(update)
	return types.ItemFromRecord(&types.Record{ID: rec.ID, Fields: fields, CreatedAt: rec.CreatedAt}), nil
}

// BulkReorder assigns increasing ranks to ids in the given order, one write
// per id. Each rank is allocated after the previous one, within the id's own
// partition. The first failure stops the batch with a *ReorderError.
//
// The running rank is carried across partitions. An Incomplete id listed
// after a Completed one therefore receives a rank above the Completed
// marker; callers that want both partitions kept apart should reorder them
// separately.
func (s *Service) BulkReorder(ctx context.Context, ids []string) error {
	var prev *rank.Rank
	for i, id := range ids {
		rec, err := s.store.ReadRecord(ctx, id)
		if err != nil {
			return &ReorderError{FailedID: id, Succeeded: i, Err: err}
		}
		p := types.ItemFromRecord(rec).Partition

		r := rank.Allocate(prev, nil, p)
		if err := s.writer.Write(ctx, id, storage.Fields{types.FieldRank: r.String()}); err != nil {
			return &ReorderError{FailedID: id, Succeeded: i, Err: err}
		}
		prev = &r
	}
	debug.Logger().Debug("reordered items", "count", len(ids))
	return nil
}

// List returns titled items, Incomplete first, each partition by rank.
func (s *Service) List(ctx context.Context) ([]*types.Item, error) {
	recs, err := s.store.ListRecords(ctx, types.RecordFilter{TitleNotEmpty: true}, types.DefaultSortOptions())
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	items := make([]*types.Item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, types.ItemFromRecord(rec))
	}
	return items, nil
}

// Archive hides an item through the store's archive capability. Items are
// never deleted.
func (s *Service) Archive(ctx context.Context, id string) error {
	a, ok := storage.AsArchiver(s.store)
	if !ok {
		return fmt.Errorf("archive %s: %w", id, storage.ErrArchiveUnsupported)
	}
	if err := a.ArchiveRecord(ctx, id); err != nil {
		return fmt.Errorf("archive %s: %w", id, err)
	}
	return nil
}

// lastRank returns the rank of the last item of partition in list order,
// skipping exclude. It returns nil for an empty partition.
func (s *Service) lastRank(ctx context.Context, partition types.Partition, exclude string) (*rank.Rank, error) {
	p := partition
	recs, err := s.store.ListRecords(ctx, types.RecordFilter{Partition: &p}, types.DefaultSortOptions())
	if err != nil {
		return nil, fmt.Errorf("list %s items: %w", partition, err)
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].ID == exclude {
			continue
		}
		v := recs[i].String(types.FieldRank)
		if v == "" {
			continue
		}
		r := rank.Rank(v)
		return &r, nil
	}
	return nil, nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
