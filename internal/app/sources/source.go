package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
)

var ErrAllSourcesFailed = errors.New("sources: every availability source failed")

// Source reports the unavailable days of a listing inside window as
// YYYY-MM-DD strings. Entries may carry a time component; consumers truncate.
type Source interface {
	BlockedDates(ctx context.Context, listingID string, window daterange.DateRange) ([]string, error)
}

type SourceFunc func(ctx context.Context, listingID string, window daterange.DateRange) ([]string, error)

func (f SourceFunc) BlockedDates(ctx context.Context, listingID string, window daterange.DateRange) ([]string, error) {
	return f(ctx, listingID, window)
}

// Named tags a source for log lines.
type Named struct {
	Name   string
	Source Source
}

// Composite unions every configured source. A failing source is logged and
// skipped; the call only fails when no source answered.
type Composite struct {
	Sources []Named
	Logger  *slog.Logger
}

func (c *Composite) BlockedDates(ctx context.Context, listingID string, window daterange.DateRange) ([]string, error) {
	if len(c.Sources) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{})
	var errs []error
	queried := 0
	for _, s := range c.Sources {
		if s.Source == nil {
			continue
		}
		queried++
		dates, err := s.Source.BlockedDates(ctx, listingID, window)
		if err != nil {
			if c.Logger != nil {
				c.Logger.WarnContext(ctx, "availability source failed", "source", s.Name, "listing_id", listingID, "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		for _, d := range dates {
			if day := daterange.TruncateDay(d); day != "" {
				seen[day] = struct{}{}
			}
		}
	}
	if len(errs) > 0 && len(errs) == queried {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// CalendarSource reads the locally stored availability calendar.
type CalendarSource struct {
	Calendars availability.Repository
}

func (s *CalendarSource) BlockedDates(ctx context.Context, listingID string, window daterange.DateRange) ([]string, error) {
	cal, err := s.Calendars.Calendar(ctx, availability.ListingID(listingID))
	if err != nil {
		if errors.Is(err, availability.ErrCalendarNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cal.BlockedDays(window), nil
}

// Static serves a fixed list for every listing, used by the terminal client
// for inline blocked dates.
type Static []string

func (s Static) BlockedDates(context.Context, string, daterange.DateRange) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}
