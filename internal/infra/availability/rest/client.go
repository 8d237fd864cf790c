package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rentcal/internal/app/dto"
	"rentcal/internal/app/sources"
	"rentcal/internal/domain/shared/daterange"
)

const snippetBytes = 256

// Client reads blocked dates from an availability API, typically another
// rentcal instance:
//
//	GET {BaseURL}/api/v1/listings/{id}/blocked-dates?from=YYYY-MM-DD&to=YYYY-MM-DD
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logger,
	}
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Status  int
	Snippet string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("availability api: status %d: %s", e.Status, e.Snippet)
}

// BlockedDates returns blocked_dates plus every day covered by blocks.
func (c *Client) BlockedDates(ctx context.Context, listingID string, window daterange.DateRange) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/listings/%s/blocked-dates", c.BaseURL, url.PathEscape(listingID))
	q := url.Values{}
	q.Set("from", daterange.FormatDay(window.CheckIn))
	q.Set("to", daterange.FormatDay(window.CheckOut))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, snippetBytes))
		return nil, &StatusError{Status: resp.StatusCode, Snippet: strings.TrimSpace(string(body))}
	}

	var payload dto.BlockedDates
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("availability api: decode: %w", err)
	}
	days := append([]string(nil), payload.BlockedDates...)
	for _, b := range payload.Blocks {
		days = append(days, expandBlock(b)...)
	}
	if c.Logger != nil {
		c.Logger.DebugContext(ctx, "availability api answered", "listing_id", listingID, "days", len(days), "took", time.Since(started))
	}
	return days, nil
}

// expandBlock lists the nights [From, To). Malformed blocks are ignored.
func expandBlock(b dto.CalendarBlock) []string {
	from, err := daterange.ParseDay(b.From, time.UTC)
	if err != nil || from.IsZero() {
		return nil
	}
	to, err := daterange.ParseDay(b.To, time.UTC)
	if err != nil || !to.After(from) {
		return nil
	}
	var out []string
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out = append(out, daterange.FormatDay(d))
	}
	return out
}

var _ sources.Source = (*Client)(nil)
