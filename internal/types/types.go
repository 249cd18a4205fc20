// Package types defines the core data structures for lineup.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Partition is the Completed/Incomplete bucket an item belongs to.
type Partition string

// Partition constants
const (
	PartitionIncomplete Partition = "incomplete"
	PartitionCompleted  Partition = "completed"
)

// IsValid checks if the partition value is valid
func (p Partition) IsValid() bool {
	switch p {
	case PartitionIncomplete, PartitionCompleted:
		return true
	}
	return false
}

// Other returns the partition a toggle moves an item into.
func (p Partition) Other() Partition {
	if p == PartitionCompleted {
		return PartitionIncomplete
	}
	return PartitionCompleted
}

// ParsePartition accepts the canonical names plus a few CLI-friendly aliases.
func ParsePartition(s string) (Partition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "incomplete", "open", "todo":
		return PartitionIncomplete, nil
	case "completed", "complete", "done", "closed":
		return PartitionCompleted, nil
	}
	return "", fmt.Errorf("invalid partition %q (valid: incomplete, completed)", s)
}

// Record field keys understood by every store backend.
const (
	FieldRank        = "rank"
	FieldCompleted   = "completed"    // bool
	FieldCompletedAt = "completed_at" // RFC3339 string, "" when incomplete
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldDeadline    = "deadline" // RFC3339 string
)

// Record is a raw row as returned by a store.
type Record struct {
	ID        string                 `json:"id"`
	Fields    map[string]interface{} `json:"fields"`
	CreatedAt time.Time              `json:"created_at"`
}

// String returns the string value of a field, or "".
func (r *Record) String(key string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	switch v := r.Fields[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the boolean value of a field. Missing fields are false.
func (r *Record) Bool(key string) bool {
	if r == nil || r.Fields == nil {
		return false
	}
	switch v := r.Fields[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case int:
		return v != 0
	case int64:
		return v != 0
	}
	return false
}

// Item is the ordering view of a record.
type Item struct {
	ID          string                 `json:"id"`
	Rank        string                 `json:"rank"`
	Partition   Partition              `json:"partition"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Deadline    *time.Time             `json:"deadline,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	Fields      map[string]interface{} `json:"-"`
}

// ItemFromRecord builds an Item from a store record. A record without a
// completed flag is Incomplete.
func ItemFromRecord(r *Record) *Item {
	it := &Item{
		ID:          r.ID,
		Rank:        r.String(FieldRank),
		Partition:   PartitionIncomplete,
		Title:       r.String(FieldTitle),
		Description: r.String(FieldDescription),
		Category:    r.String(FieldCategory),
		CreatedAt:   r.CreatedAt,
		Fields:      r.Fields,
	}
	if r.Bool(FieldCompleted) {
		it.Partition = PartitionCompleted
	}
	if t, ok := parseTime(r.String(FieldCompletedAt)); ok {
		it.CompletedAt = &t
	}
	if t, ok := parseTime(r.String(FieldDeadline)); ok {
		it.Deadline = &t
	}
	return it
}

// IsCompleted reports whether the item is in the Completed partition.
func (i *Item) IsCompleted() bool {
	return i.Partition == PartitionCompleted
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// RecordFilter narrows a list query.
type RecordFilter struct {
	Partition     *Partition
	TitleNotEmpty bool
	IDs           []string
}

// Matches reports whether r passes the filter.
func (f RecordFilter) Matches(r *Record) bool {
	if f.Partition != nil {
		p := PartitionIncomplete
		if r.Bool(FieldCompleted) {
			p = PartitionCompleted
		}
		if p != *f.Partition {
			return false
		}
	}
	if f.TitleNotEmpty && strings.TrimSpace(r.String(FieldTitle)) == "" {
		return false
	}
	if len(f.IDs) > 0 {
		found := false
		for _, id := range f.IDs {
			if id == r.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortField names a sortable record attribute.
type SortField string

// Sort fields
const (
	SortFieldPartition SortField = "partition"
	SortFieldRank      SortField = "rank"
	SortFieldCreated   SortField = "created"
	SortFieldTitle     SortField = "title"
)

// SortDirection is ascending or descending.
type SortDirection string

// Sort directions
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortOption is one key of a multi-key sort.
type SortOption struct {
	Field     SortField
	Direction SortDirection
}
