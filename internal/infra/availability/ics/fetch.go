package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const maxFeedBytes = 8 << 20

var ErrNotModifiedWithoutCache = errors.New("ics: 304 Not Modified but nothing cached")

// Fetcher downloads feeds with conditional requests. Bodies are cached in
// memory per URL and reused on 304 or when the host is unreachable.
type Fetcher struct {
	Client *http.Client
	Logger *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
	fetchedAt    time.Time
}

func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, Logger: logger}
}

// Fetch returns the feed body. Plain paths and file:// URLs are read from
// disk, which the terminal client uses for exported calendars.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if feedURL == "" {
		return nil, errors.New("ics: feed URL is empty")
	}
	if path, ok := localPath(feedURL); ok {
		return os.ReadFile(path)
	}

	cached, hasCache := f.cached(feedURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")
	if hasCache {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := f.client().Do(req)
	if err != nil {
		if hasCache {
			f.warn(ctx, "ics fetch failed, using cached body", "url", redactURL(feedURL), "error", err)
			return cached.body, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
		if err != nil {
			return nil, err
		}
		f.store(feedURL, cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
			fetchedAt:    time.Now().UTC(),
		})
		return body, nil
	case http.StatusNotModified:
		if !hasCache {
			return nil, ErrNotModifiedWithoutCache
		}
		return cached.body, nil
	default:
		if hasCache {
			f.warn(ctx, "ics fetch non-OK, using cached body", "url", redactURL(feedURL), "status", resp.StatusCode)
			return cached.body, nil
		}
		return nil, fmt.Errorf("ics: fetch %s: %s", redactURL(feedURL), resp.Status)
	}
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fetcher) cached(feedURL string) (cacheEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.cache[feedURL]
	return e, ok
}

func (f *Fetcher) store(feedURL string, e cacheEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cache == nil {
		f.cache = make(map[string]cacheEntry)
	}
	f.cache[feedURL] = e
}

func (f *Fetcher) warn(ctx context.Context, msg string, args ...any) {
	if f.Logger != nil {
		f.Logger.WarnContext(ctx, msg, args...)
	}
}

func localPath(raw string) (string, bool) {
	if strings.HasPrefix(raw, "file://") {
		return strings.TrimPrefix(raw, "file://"), true
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return raw, true
	}
	return "", false
}

// redactURL keeps only scheme and host; feed URLs often embed secret tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/(redacted)"
}
