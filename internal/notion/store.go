package notion

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/types"
)

// PropertyNames maps record fields to database property names.
type PropertyNames struct {
	Title       string // title
	Rank        string // rich_text
	Status      string // checkbox, true when completed
	CompletedAt string // date
	Description string // rich_text
	Category    string // rich_text, may hold a page mention
	Deadline    string // date
}

// DefaultPropertyNames matches the todo database layout the app was built for.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		Title:       "Title",
		Rank:        "Rank",
		Status:      "Status",
		CompletedAt: "Completed",
		Description: "Description",
		Category:    "Category",
		Deadline:    "Deadline",
	}
}

// Store adapts a Client to storage.Store.
type Store struct {
	client *Client
	props  PropertyNames
}

var (
	_ storage.Store    = (*Store)(nil)
	_ storage.Archiver = (*Store)(nil)
)

// NewStore returns a Store over client. Empty property names fall back to
// the defaults.
func NewStore(client *Client, props PropertyNames) *Store {
	def := DefaultPropertyNames()
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&props.Title, def.Title)
	fill(&props.Rank, def.Rank)
	fill(&props.Status, def.Status)
	fill(&props.CompletedAt, def.CompletedAt)
	fill(&props.Description, def.Description)
	fill(&props.Category, def.Category)
	fill(&props.Deadline, def.Deadline)
	return &Store{client: client, props: props}
}

// CreateRecord creates a page.
func (s *Store) CreateRecord(ctx context.Context, fields storage.Fields) (string, error) {
	page, err := s.client.CreatePage(ctx, s.toProperties(fields))
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

// ReadRecord retrieves a page. Archived pages read as not found.
func (s *Store) ReadRecord(ctx context.Context, id string) (*types.Record, error) {
	page, err := s.client.RetrievePage(ctx, id)
	if err != nil {
		return nil, err
	}
	if page.Archived {
		return nil, fmt.Errorf("read record %s: archived: %w", id, storage.ErrNotFound)
	}
	return s.toRecord(page), nil
}

// UpdateRecord assigns the given fields as page properties.
func (s *Store) UpdateRecord(ctx context.Context, id string, fields storage.Fields) error {
	_, err := s.client.UpdatePage(ctx, id, s.toProperties(fields))
	return err
}

// ListRecords queries the database. Partition and title filters run on the
// server; the id filter and the final ordering are applied locally because
// the API sorts rich_text by collation rather than byte order.
func (s *Store) ListRecords(ctx context.Context, filter types.RecordFilter, sortOpts []types.SortOption) ([]*types.Record, error) {
	pages, err := s.client.QueryDatabase(ctx, QueryRequest{
		Filter: s.buildFilter(filter),
		Sorts:  s.buildSorts(sortOpts),
	})
	if err != nil {
		return nil, err
	}

	out := make([]*types.Record, 0, len(pages))
	for i := range pages {
		if pages[i].Archived {
			continue
		}
		rec := s.toRecord(&pages[i])
		if !filter.Matches(rec) {
			continue
		}
		out = append(out, rec)
	}
	types.SortRecords(out, sortOpts)
	return out, nil
}

// ArchiveRecord archives the page.
func (s *Store) ArchiveRecord(ctx context.Context, id string) error {
	return s.client.ArchivePage(ctx, id)
}

// Close is a no-op; the client holds no resources beyond idle connections.
func (s *Store) Close() error {
	s.client.HTTPClient.CloseIdleConnections()
	return nil
}

func (s *Store) buildFilter(f types.RecordFilter) interface{} {
	var and []map[string]interface{}
	if f.Partition != nil {
		and = append(and, map[string]interface{}{
			"property": s.props.Status,
			"checkbox": map[string]bool{"equals": *f.Partition == types.PartitionCompleted},
		})
	}
	if f.TitleNotEmpty {
		and = append(and, map[string]interface{}{
			"property": s.props.Title,
			"title":    map[string]bool{"is_not_empty": true},
		})
	}
	switch len(and) {
	case 0:
		return nil
	case 1:
		return and[0]
	}
	return map[string]interface{}{"and": and}
}

func (s *Store) buildSorts(opts []types.SortOption) []Sort {
	var sorts []Sort
	for _, opt := range opts {
		dir := Ascending
		if opt.Direction == types.SortDesc {
			dir = Descending
		}
		switch opt.Field {
		case types.SortFieldPartition:
			sorts = append(sorts, Sort{Property: s.props.Status, Direction: dir})
		case types.SortFieldRank:
			sorts = append(sorts, Sort{Property: s.props.Rank, Direction: dir})
		case types.SortFieldTitle:
			sorts = append(sorts, Sort{Property: s.props.Title, Direction: dir})
		case types.SortFieldCreated:
			sorts = append(sorts, Sort{Timestamp: "created_time", Direction: dir})
		}
	}
	return sorts
}

// toProperties converts field assignments into a property payload. Empty
// dates are sent as null so they clear the property.
func (s *Store) toProperties(fields storage.Fields) map[string]interface{} {
	rec := &types.Record{Fields: fields}
	props := make(map[string]interface{}, len(fields))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch key {
		case types.FieldTitle:
			props[s.props.Title] = map[string]interface{}{"title": textRuns(rec.String(key))}
		case types.FieldRank:
			props[s.props.Rank] = map[string]interface{}{"rich_text": textRuns(rec.String(key))}
		case types.FieldCompleted:
			props[s.props.Status] = map[string]interface{}{"checkbox": rec.Bool(key)}
		case types.FieldCompletedAt:
			props[s.props.CompletedAt] = dateValue(rec.String(key))
		case types.FieldDeadline:
			props[s.props.Deadline] = dateValue(rec.String(key))
		case types.FieldDescription:
			props[s.props.Description] = map[string]interface{}{"rich_text": textRuns(rec.String(key))}
		case types.FieldCategory:
			props[s.props.Category] = categoryValue(rec.String(key))
		default:
			props[key] = map[string]interface{}{"rich_text": textRuns(rec.String(key))}
		}
	}
	return props
}

func (s *Store) toRecord(page *Page) *types.Record {
	fields := map[string]interface{}{}
	known := map[string]bool{}
	get := func(name string) (Property, bool) {
		known[name] = true
		p, ok := page.Properties[name]
		return p, ok
	}

	if p, ok := get(s.props.Title); ok {
		fields[types.FieldTitle] = p.PlainText()
	}
	if p, ok := get(s.props.Rank); ok {
		fields[types.FieldRank] = p.PlainText()
	}
	if p, ok := get(s.props.Status); ok {
		fields[types.FieldCompleted] = p.Checkbox
	}
	if p, ok := get(s.props.CompletedAt); ok && p.Date != nil {
		fields[types.FieldCompletedAt] = p.Date.Start
	}
	if p, ok := get(s.props.Deadline); ok && p.Date != nil {
		fields[types.FieldDeadline] = p.Date.Start
	}
	if p, ok := get(s.props.Description); ok {
		fields[types.FieldDescription] = p.PlainText()
	}
	if p, ok := get(s.props.Category); ok {
		fields[types.FieldCategory] = p.PlainText()
	}
	for name, p := range page.Properties {
		if known[name] {
			continue
		}
		if p.Type == "rich_text" {
			fields[name] = p.PlainText()
		}
	}

	return &types.Record{ID: page.ID, Fields: fields, CreatedAt: page.CreatedTime.UTC()}
}

func textRuns(s string) []map[string]interface{} {
	if s == "" {
		return []map[string]interface{}{}
	}
	return []map[string]interface{}{{"text": map[string]string{"content": s}}}
}

func dateValue(s string) map[string]interface{} {
	if s == "" {
		return map[string]interface{}{"date": nil}
	}
	return map[string]interface{}{"date": map[string]string{"start": s}}
}

// categoryValue writes a page mention when the category is a page URL or id,
// and plain text otherwise.
func categoryValue(s string) map[string]interface{} {
	if id, ok := PageIDFromURL(s); ok {
		return map[string]interface{}{"rich_text": []map[string]interface{}{{
			"type":    "mention",
			"mention": map[string]interface{}{"type": "page", "page": map[string]string{"id": id}},
		}}}
	}
	return map[string]interface{}{"rich_text": textRuns(s)}
}

var hexID = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// PageIDFromURL extracts a dashed page id from a page URL such as
// https://www.notion.so/Groceries-0123456789abcdef0123456789abcdef?pvs=4.
// A bare 32-character id is accepted too.
func PageIDFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndexAny(raw, "/-"); i >= 0 && len(raw)-i-1 == 32 {
		raw = raw[i+1:]
	} else {
		raw = strings.ReplaceAll(raw, "-", "")
	}
	if !hexID.MatchString(raw) {
		return "", false
	}
	id := strings.ToLower(raw)
	return fmt.Sprintf("%s-%s-%s-%s-%s", id[:8], id[8:12], id[12:16], id[16:20], id[20:]), true
}
