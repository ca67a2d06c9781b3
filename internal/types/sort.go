package types

import (
	"sort"
	"strings"
	"time"
)

// SortField identifies an issue field usable as a sort key.
type SortField string

// Sort field constants
const (
	SortFieldCreated  SortField = "created"
	SortFieldUpdated  SortField = "updated"
	SortFieldPriority SortField = "priority"
	SortFieldTitle    SortField = "title"
	SortFieldStatus   SortField = "status"
	SortFieldID       SortField = "id"
)

// SortDirection is asc or desc.
type SortDirection string

// Sort direction constants
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortKey is one component of a multi-key sort order.
type SortKey struct {
	Field     SortField
	Direction SortDirection
}

// DefaultSortKeys returns the default ordering for query results:
// most recently updated first.
func DefaultSortKeys() []SortKey {
	return []SortKey{{Field: SortFieldUpdated, Direction: SortDesc}}
}

// ParseSortKeys converts a comma-delimited string (e.g. "priority:asc,updated:desc")
// into sort keys. Direction defaults to asc when omitted. Unknown fields or
// directions are rejected so a typo never silently reorders nothing.
func ParseSortKeys(raw string) ([]SortKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	keys := make([]SortKey, 0, len(parts))
	seen := make(map[SortField]bool)

	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}

		fieldRaw, dirRaw := token, "asc"
		if idx := strings.IndexAny(token, ":-"); idx >= 0 {
			fieldRaw = strings.TrimSpace(token[:idx])
			dirRaw = strings.TrimSpace(token[idx+1:])
		}

		field := mapSortField(fieldRaw)
		if field == "" {
			return nil, Validationf("unknown sort field %q", fieldRaw)
		}
		direction := mapSortDirection(dirRaw)
		if direction == "" {
			return nil, Validationf("invalid sort direction %q for field %q", dirRaw, fieldRaw)
		}

		if seen[field] {
			continue
		}
		seen[field] = true
		keys = append(keys, SortKey{Field: field, Direction: direction})
	}

	return keys, nil
}

func mapSortField(raw string) SortField {
	switch strings.ToLower(raw) {
	case "created", "created_at":
		return SortFieldCreated
	case "updated", "updated_at":
		return SortFieldUpdated
	case "priority":
		return SortFieldPriority
	case "title":
		return SortFieldTitle
	case "status":
		return SortFieldStatus
	case "id", "ref":
		return SortFieldID
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

// SortIssues orders issues in place by the given keys. The sort is stable:
// equal-key issues preserve their relative input order, and any remaining
// ties break on the ref string so output order is deterministic.
func SortIssues(issues []Issue, keys []SortKey) {
	if len(keys) == 0 {
		keys = DefaultSortKeys()
	}
	sort.SliceStable(issues, func(a, b int) bool {
		for _, key := range keys {
			c := compareByField(&issues[a], &issues[b], key.Field)
			if c == 0 {
				continue
			}
			if key.Direction == SortDesc {
				return c > 0
			}
			return c < 0
		}
		return issues[a].Ref.String() < issues[b].Ref.String()
	})
}

// compareByField returns -1, 0, or 1 comparing a to b on the given field.
func compareByField(a, b *Issue, field SortField) int {
	switch field {
	case SortFieldCreated:
		return compareTime(a.CreatedAt, b.CreatedAt)
	case SortFieldUpdated:
		return compareTime(a.UpdatedAt, b.UpdatedAt)
	case SortFieldPriority:
		return compareInt(int(a.Priority), int(b.Priority))
	case SortFieldTitle:
		return strings.Compare(a.Title, b.Title)
	case SortFieldStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case SortFieldID:
		return strings.Compare(a.Ref.String(), b.Ref.String())
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
