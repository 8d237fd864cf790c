package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/infra/config"
)

func march() daterange.DateRange {
	return daterange.DateRange{
		CheckIn:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBlockedDaysFromFixture(t *testing.T) {
	body, err := os.ReadFile("testdata/host.ics")
	require.NoError(t, err)

	events, err := Parse(body, time.UTC)
	require.NoError(t, err)
	require.Len(t, events, 3)

	days, err := BlockedDays(events, march(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-03",
		"2025-03-10", "2025-03-11", "2025-03-12",
		"2025-03-20", "2025-03-21",
		"2025-03-24",
	}, days)
}

func TestTimedEventsUseZone(t *testing.T) {
	body, err := os.ReadFile("testdata/host.ics")
	require.NoError(t, err)
	events, err := Parse(body, time.UTC)
	require.NoError(t, err)

	// 22:00Z-02:00Z is 06:00-10:00 on the 21st in UTC+8.
	days, err := BlockedDays(events, march(), time.FixedZone("UTC+8", 8*60*60))
	require.NoError(t, err)
	assert.Contains(t, days, "2025-03-21")
	assert.NotContains(t, days, "2025-03-20")
}

func TestBlockedDaysClipsToWindow(t *testing.T) {
	events := []Event{{
		Start:  time.Date(2025, time.February, 27, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}}
	days, err := BlockedDays(events, march(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01"}, days)
}

func TestParseRejectsEmptyFeed(t *testing.T) {
	_, err := Parse([]byte("  "), nil)
	assert.ErrorIs(t, err, ErrEmptyFeed)
}

func TestFetcherUsesConditionalRequests(t *testing.T) {
	body, err := os.ReadFile("testdata/host.ics")
	require.NoError(t, err)

	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, nil)
	first, err := f.Fetch(context.Background(), srv.URL+"/feed.ics")
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), srv.URL+"/feed.ics")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), notModified.Load())
}

func TestFetcherFallsBackToCacheOnServerError(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	fail.Store(true)
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(got), "VCALENDAR")

	_, err = NewFetcher(time.Second, nil).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestSourceUnionsFeedsAndToleratesOneFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := &Source{
		Feeds: map[string][]config.Feed{
			"loft": {
				{ID: "local", URL: "testdata/host.ics"},
				{ID: "gone", URL: srv.URL + "/missing.ics"},
			},
			"broken": {{ID: "gone", URL: srv.URL + "/missing.ics"}},
		},
		Fetcher: NewFetcher(time.Second, nil),
		Zone:    time.UTC,
	}

	days, err := s.BlockedDates(context.Background(), "loft", march())
	require.NoError(t, err)
	assert.Contains(t, days, "2025-03-11")

	days, err = s.BlockedDates(context.Background(), "unknown", march())
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = s.BlockedDates(context.Background(), "broken", march())
	assert.Error(t, err)
}
