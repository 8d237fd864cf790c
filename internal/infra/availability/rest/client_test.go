package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/shared/daterange"
)

func window() daterange.DateRange {
	return daterange.DateRange{
		CheckIn:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC),
	}
}

func TestClientRequestsWindowAndExpandsBlocks(t *testing.T) {
	var gotPath, gotFrom, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"listing_id":"loft 1","blocked_dates":["2025-03-12T00:00:00Z"],"blocks":[{"from":"2025-04-01","to":"2025-04-03"},{"from":"bad","to":"2025-04-03"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, nil)
	days, err := c.BlockedDates(context.Background(), "loft 1", window())
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/listings/loft%201/blocked-dates", gotPath)
	assert.Equal(t, "2025-03-01", gotFrom)
	assert.Equal(t, "2025-06-09", gotTo)
	assert.Equal(t, []string{"2025-03-12T00:00:00Z", "2025-04-01", "2025-04-02"}, days)
}

func TestClientReportsStatusWithSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"listing not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).BlockedDates(context.Background(), "x", window())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Contains(t, statusErr.Snippet, "listing not found")
}

func TestClientRejectsInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).BlockedDates(context.Background(), "x", window())
	assert.Error(t, err)
}
