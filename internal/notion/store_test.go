package notion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/lineup/internal/ordering"
	"github.com/steveyegge/lineup/internal/rank"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/types"
	"github.com/steveyegge/lineup/internal/writer"
)

func TestStoreRoundTrip(t *testing.T) {
	_, client := newFakeNotion(t)
	s := NewStore(client, PropertyNames{})
	ctx := context.Background()

	id, err := s.CreateRecord(ctx, storage.Fields{
		types.FieldTitle:       "Buy milk",
		types.FieldDescription: "2 litres",
		types.FieldRank:        "5000000000",
		types.FieldCompleted:   false,
		types.FieldDeadline:    "2024-03-10T18:00:00Z",
	})
	require.NoError(t, err)

	rec, err := s.ReadRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", rec.String(types.FieldTitle))
	assert.Equal(t, "2 litres", rec.String(types.FieldDescription))
	assert.Equal(t, "5000000000", rec.String(types.FieldRank))
	assert.False(t, rec.Bool(types.FieldCompleted))
	assert.Equal(t, "2024-03-10T18:00:00Z", rec.String(types.FieldDeadline))

	require.NoError(t, s.UpdateRecord(ctx, id, storage.Fields{
		types.FieldRank:        "Z500000000",
		types.FieldCompleted:   true,
		types.FieldCompletedAt: "2024-03-09T14:30:00Z",
	}))
	rec, err = s.ReadRecord(ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.Bool(types.FieldCompleted))
	assert.Equal(t, "2024-03-09T14:30:00Z", rec.String(types.FieldCompletedAt))
	assert.Equal(t, "Buy milk", rec.String(types.FieldTitle), "untouched properties survive")

	require.NoError(t, s.UpdateRecord(ctx, id, storage.Fields{types.FieldCompletedAt: ""}))
	rec, err = s.ReadRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "", rec.String(types.FieldCompletedAt), "empty date clears the property")
}

func TestStoreCustomPropertyNames(t *testing.T) {
	fake, client := newFakeNotion(t)
	s := NewStore(client, PropertyNames{Rank: "Order Key", Status: "Done"})
	ctx := context.Background()

	id, err := s.CreateRecord(ctx, storage.Fields{types.FieldRank: "5000000000", types.FieldCompleted: true})
	require.NoError(t, err)

	fake.mu.Lock()
	props := fake.pages[id].Properties
	fake.mu.Unlock()
	assert.Contains(t, props, "Order Key")
	assert.Contains(t, props, "Done")
	assert.NotContains(t, props, "Rank")
}

func TestStoreListFiltersAndSorts(t *testing.T) {
	fake, client := newFakeNotion(t)
	s := NewStore(client, DefaultPropertyNames())
	ctx := context.Background()

	mk := func(title, r string, completed bool) {
		_, err := s.CreateRecord(ctx, storage.Fields{
			types.FieldTitle: title, types.FieldRank: r, types.FieldCompleted: completed,
		})
		require.NoError(t, err)
	}
	mk("done", "Z500000000", true)
	mk("second", "K000000000", false)
	mk("first", "5000000000", false)
	mk("", "1000000000", false)

	recs, err := s.ListRecords(ctx, types.RecordFilter{TitleNotEmpty: true}, types.DefaultSortOptions())
	require.NoError(t, err)
	var titles []string
	for _, r := range recs {
		titles = append(titles, r.String(types.FieldTitle))
	}
	assert.Equal(t, []string{"first", "second", "done"}, titles)

	fake.mu.Lock()
	query := string(fake.lastQueryRaw)
	fake.mu.Unlock()
	assert.True(t, strings.Contains(query, `"is_not_empty":true`), "title filter sent to server: %s", query)
	assert.True(t, strings.Contains(query, `"property":"Status"`), "status sort sent to server: %s", query)

	p := types.PartitionIncomplete
	recs, err = s.ListRecords(ctx, types.RecordFilter{Partition: &p}, types.DefaultSortOptions())
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestStoreArchive(t *testing.T) {
	_, client := newFakeNotion(t)
	s := NewStore(client, PropertyNames{})
	ctx := context.Background()

	id, err := s.CreateRecord(ctx, storage.Fields{types.FieldTitle: "old"})
	require.NoError(t, err)
	require.NoError(t, s.ArchiveRecord(ctx, id))

	_, err = s.ReadRecord(ctx, id)
	assert.True(t, storage.IsNotFound(err))

	recs, err := s.ListRecords(ctx, types.RecordFilter{}, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStoreMissingPage(t *testing.T) {
	_, client := newFakeNotion(t)
	s := NewStore(client, PropertyNames{})

	_, err := s.ReadRecord(context.Background(), "page-404")
	assert.True(t, storage.IsNotFound(err))
}

func TestStoreCategoryMention(t *testing.T) {
	fake, client := newFakeNotion(t)
	s := NewStore(client, PropertyNames{})
	ctx := context.Background()

	id, err := s.CreateRecord(ctx, storage.Fields{
		types.FieldCategory: "https://www.notion.so/Groceries-0123456789abcdef0123456789ABCDEF?pvs=4",
	})
	require.NoError(t, err)

	fake.mu.Lock()
	cat := fake.pages[id].Properties["Category"]
	fake.mu.Unlock()
	require.Len(t, cat.RichText, 1)
	require.NotNil(t, cat.RichText[0].Mention)
	assert.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", cat.RichText[0].Mention.Page.ID)

	rec, err := s.ReadRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", rec.String(types.FieldCategory))
}

func TestOrderingOverNotionRetriesConflicts(t *testing.T) {
	fake, client := newFakeNotion(t)
	s := NewStore(client, PropertyNames{})
	ctx := context.Background()

	svc := ordering.New(s, writer.New(s, writer.WithTimer(writer.NoDelay())))
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		it, err := svc.AppendToPartition(ctx, storage.Fields{types.FieldTitle: title}, types.PartitionIncomplete)
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}

	fake.mu.Lock()
	fake.conflictOn[ids[0]] = 2
	fake.mu.Unlock()

	toggled, err := svc.ToggleCompletion(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, byte(rank.Marker), toggled.Rank[0])

	require.NoError(t, svc.BulkReorder(ctx, []string{ids[2], ids[1]}))
	items, err := svc.List(ctx)
	require.NoError(t, err)
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"c", "b", "a"}, titles)
	assert.Len(t, fake.sortedPageIDs(), 3)
}

func TestPageIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://www.notion.so/Groceries-0123456789abcdef0123456789abcdef", "01234567-89ab-cdef-0123-456789abcdef", true},
		{"https://www.notion.so/ws/0123456789abcdef0123456789abcdef?pvs=4", "01234567-89ab-cdef-0123-456789abcdef", true},
		{"0123456789abcdef0123456789abcdef", "01234567-89ab-cdef-0123-456789abcdef", true},
		{"01234567-89ab-cdef-0123-456789abcdef", "01234567-89ab-cdef-0123-456789abcdef", true},
		{"Groceries", "", false},
		{"home-office", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := PageIDFromURL(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
