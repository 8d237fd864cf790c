package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Feed is one external iCal calendar whose events block a listing.
type Feed struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ListingFeeds binds feeds to one listing.
type ListingFeeds struct {
	ListingID string `yaml:"listing_id"`
	Feeds     []Feed `yaml:"feeds"`
}

// FeedsFile is the YAML document pointed to by FEEDS_FILE:
//
//	listings:
//	  - listing_id: loft-12
//	    feeds:
//	      - id: airbnb
//	        url: https://example.com/loft-12.ics
type FeedsFile struct {
	Listings []ListingFeeds `yaml:"listings"`
}

// ByListing indexes feeds by listing, dropping entries without a URL.
func (f FeedsFile) ByListing() map[string][]Feed {
	out := make(map[string][]Feed, len(f.Listings))
	for _, l := range f.Listings {
		for i, feed := range l.Feeds {
			if strings.TrimSpace(feed.URL) == "" {
				continue
			}
			if feed.ID == "" {
				feed.ID = fmt.Sprintf("%s-%d", l.ListingID, i)
			}
			out[l.ListingID] = append(out[l.ListingID], feed)
		}
	}
	return out
}

// LoadFeeds reads a feeds file. An empty path yields no feeds.
func LoadFeeds(path string) (FeedsFile, error) {
	if path == "" {
		return FeedsFile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FeedsFile{}, fmt.Errorf("read feeds file: %w", err)
	}
	var out FeedsFile
	if err := yaml.Unmarshal(data, &out); err != nil {
		return FeedsFile{}, fmt.Errorf("parse feeds file: %w", err)
	}
	for _, l := range out.Listings {
		if strings.TrimSpace(l.ListingID) == "" {
			return FeedsFile{}, errors.New("feeds file: listing_id is required")
		}
	}
	return out, nil
}
