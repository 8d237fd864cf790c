package calendar

import (
	"sort"
	"time"

	"rentcal/internal/domain/shared/daterange"
)

// BlockedSet holds the unavailable days of one listing as YYYY-MM-DD keys.
// A set is never mutated after construction.
type BlockedSet struct {
	days map[string]struct{}
}

// NewBlockedSet normalises date-like strings by dropping any time component.
// Entries that are not calendar days are ignored.
func NewBlockedSet(raw []string) BlockedSet {
	days := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		day := daterange.TruncateDay(r)
		if day == "" {
			continue
		}
		if _, err := time.Parse(daterange.Layout, day); err != nil {
			continue
		}
		days[day] = struct{}{}
	}
	return BlockedSet{days: days}
}

// Contains formats t with its own calendar fields; converting through UTC
// would shift days for zones away from Greenwich.
func (s BlockedSet) Contains(t time.Time) bool {
	if len(s.days) == 0 || t.IsZero() {
		return false
	}
	_, ok := s.days[daterange.FormatDay(t)]
	return ok
}

func (s BlockedSet) Len() int { return len(s.days) }

// Dates returns the members in ascending order.
func (s BlockedSet) Dates() []string {
	out := make([]string, 0, len(s.days))
	for d := range s.days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
