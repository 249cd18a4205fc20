package types

import (
	"sort"
	"strings"
)

// DefaultSortOptions returns the default ordering for list queries:
// incomplete items first, then rank ascending.
func DefaultSortOptions() []SortOption {
	return []SortOption{
		{Field: SortFieldPartition, Direction: SortAsc},
		{Field: SortFieldRank, Direction: SortAsc},
	}
}

// ParseSortOrder converts a comma-delimited string (e.g. "partition-asc,rank-desc")
// into a slice of SortOption values. Unrecognised fields or directions are skipped.
func ParseSortOrder(raw string) []SortOption {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	options := make([]SortOption, 0, len(parts))
	seen := make(map[SortField]bool)

	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}

		field, dir := splitSortToken(token)
		if field == "" || dir == "" {
			continue
		}

		sortField := mapSortField(field)
		if sortField == "" {
			continue
		}

		direction := mapSortDirection(dir)
		if direction == "" {
			continue
		}

		if seen[sortField] {
			continue
		}
		seen[sortField] = true

		options = append(options, SortOption{
			Field:     sortField,
			Direction: direction,
		})
	}

	return options
}

// EncodeSortOrder converts a slice of SortOption values into a canonical
// string representation suitable for query parameters.
func EncodeSortOrder(options []SortOption) string {
	if len(options) == 0 {
		return ""
	}

	tokens := make([]string, 0, len(options))
	for _, opt := range options {
		field := string(mapSortField(string(opt.Field)))
		dir := string(mapSortDirection(string(opt.Direction)))
		if field == "" || dir == "" {
			continue
		}
		tokens = append(tokens, field+"-"+dir)
	}
	return strings.Join(tokens, ",")
}

// SortRecords stable-sorts records in place by opts. Records that compare
// equal on every key keep their relative order.
func SortRecords(records []*Record, opts []SortOption) {
	if len(opts) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, opt := range opts {
			c := compareField(records[i], records[j], opt.Field)
			if c == 0 {
				continue
			}
			if opt.Direction == SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareField(a, b *Record, field SortField) int {
	switch field {
	case SortFieldPartition:
		ab, bb := a.Bool(FieldCompleted), b.Bool(FieldCompleted)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case SortFieldRank:
		return strings.Compare(a.String(FieldRank), b.String(FieldRank))
	case SortFieldCreated:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortFieldTitle:
		return strings.Compare(strings.ToLower(a.String(FieldTitle)), strings.ToLower(b.String(FieldTitle)))
	}
	return 0
}

func splitSortToken(token string) (string, string) {
	if idx := strings.IndexAny(token, ":-"); idx >= 0 {
		left := strings.TrimSpace(token[:idx])
		right := strings.TrimSpace(token[idx+1:])
		return strings.ToLower(left), strings.ToLower(right)
	}
	token = strings.ToLower(token)
	switch token {
	case "rankasc":
		return "rank", "asc"
	case "rankdesc":
		return "rank", "desc"
	case "createdasc":
		return "created", "asc"
	case "createddesc":
		return "created", "desc"
	case "titleasc":
		return "title", "asc"
	case "titledesc":
		return "title", "desc"
	default:
		return "", ""
	}
}

func mapSortField(raw string) SortField {
	switch strings.ToLower(raw) {
	case "partition", "status":
		return SortFieldPartition
	case "rank", "order":
		return SortFieldRank
	case "created", "created_at":
		return SortFieldCreated
	case "title":
		return SortFieldTitle
	default:
		return ""
	}
}

func mapSortDirection(raw string) SortDirection {
	switch strings.ToLower(raw) {
	case "asc", "ascending":
		return SortAsc
	case "desc", "descending":
		return SortDesc
	default:
		return ""
	}
}
