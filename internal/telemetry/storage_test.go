package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/storage/memory"
	"github.com/steveyegge/lineup/internal/types"
)

func TestWrapStoreDisabledReturnsOriginal(t *testing.T) {
	require.NoError(t, Init(context.Background(), "lineup-test", "0", Settings{}))
	m := memory.New()
	assert.Same(t, m, WrapStore(m))
}

func TestWrapStoreEnabledDecorates(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(context.Background(), "lineup-test", "0", Settings{Enabled: true, Writer: &out}))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })
	require.True(t, Enabled())

	m := memory.New()
	wrapped := WrapStore(m)
	inst, ok := wrapped.(*InstrumentedStore)
	require.True(t, ok, "expected *InstrumentedStore, got %T", wrapped)
	assert.Same(t, m, inst.Unwrap())
}

func TestInstrumentedStoreForwards(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	s := newInstrumentedStore(m)

	id, err := s.CreateRecord(ctx, storage.Fields{types.FieldTitle: "a", types.FieldRank: "5000000000"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateRecord(ctx, id, storage.Fields{types.FieldRank: "K000000000"}))

	rec, err := s.ReadRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "K000000000", rec.String(types.FieldRank))

	recs, err := s.ListRecords(ctx, types.RecordFilter{}, types.DefaultSortOptions())
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	m.InjectUpdateErrors(id, storage.ErrConflict)
	err = s.UpdateRecord(ctx, id, storage.Fields{types.FieldRank: "R000000000"})
	assert.True(t, storage.IsConflict(err), "conflicts must pass through unchanged")

	require.NoError(t, s.ArchiveRecord(ctx, id))
	_, err = s.ReadRecord(ctx, id)
	assert.True(t, storage.IsNotFound(err))
}

type plainStore struct{ storage.Store }

func TestInstrumentedStoreArchiveUnsupported(t *testing.T) {
	s := newInstrumentedStore(plainStore{memory.New()})
	err := s.ArchiveRecord(context.Background(), "x")
	assert.ErrorIs(t, err, storage.ErrArchiveUnsupported)
}

func TestShutdownFlushesStdoutSpans(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	require.NoError(t, Init(ctx, "lineup-test", "0", Settings{Enabled: true, Stdout: true, Writer: &out}))

	s := WrapStore(memory.New())
	_, err := s.CreateRecord(ctx, storage.Fields{types.FieldTitle: "traced"})
	require.NoError(t, err)

	require.NoError(t, Shutdown(ctx))
	assert.False(t, Enabled())
	assert.Contains(t, out.String(), "store.CreateRecord")
}
