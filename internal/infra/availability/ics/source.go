package ics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"rentcal/internal/app/sources"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/infra/config"
)

// Source blocks the days covered by a listing's external calendar feeds.
// A listing without feeds has nothing blocked.
type Source struct {
	Feeds   map[string][]config.Feed
	Fetcher *Fetcher
	Zone    *time.Location
	Logger  *slog.Logger
}

func (s *Source) BlockedDates(ctx context.Context, listingID string, window daterange.DateRange) ([]string, error) {
	feeds := s.Feeds[listingID]
	if len(feeds) == 0 {
		return nil, nil
	}
	var (
		all  []string
		errs []error
	)
	for _, feed := range feeds {
		days, err := s.feedDays(ctx, feed, window)
		if err != nil {
			if s.Logger != nil {
				s.Logger.WarnContext(ctx, "ics feed failed", "listing_id", listingID, "feed", feed.ID, "error", err)
			}
			errs = append(errs, fmt.Errorf("feed %s: %w", feed.ID, err))
			continue
		}
		all = append(all, days...)
	}
	if len(errs) == len(feeds) {
		return nil, errors.Join(errs...)
	}
	return dedupe(all), nil
}

func (s *Source) feedDays(ctx context.Context, feed config.Feed, window daterange.DateRange) ([]string, error) {
	body, err := s.Fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return nil, err
	}
	events, err := Parse(body, s.Zone)
	if err != nil {
		return nil, err
	}
	return BlockedDays(events, window, s.Zone)
}

func dedupe(days []string) []string {
	seen := make(map[string]struct{}, len(days))
	out := days[:0]
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sortDays(out)
	return out
}

func sortDays(days []string) { sort.Strings(days) }

var _ sources.Source = (*Source)(nil)
