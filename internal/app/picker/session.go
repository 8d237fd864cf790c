package picker

import (
	"context"
	"errors"
	"time"

	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
)

var (
	ErrSessionNotFound  = errors.New("picker: session not found")
	ErrConcurrentUpdate = errors.New("picker: session modified concurrently")
)

// Session is the persisted form of a picker State. Days are stored as
// YYYY-MM-DD strings in the session's own timezone so the snapshot survives
// any serialisation unchanged.
type Session struct {
	ID           string    `json:"id" bson:"_id"`
	ListingID    string    `json:"listing_id" bson:"listing_id"`
	Location     string    `json:"location,omitempty" bson:"location,omitempty"`
	Timezone     string    `json:"timezone" bson:"timezone"`
	Month        string    `json:"month" bson:"month"`
	CheckIn      string    `json:"check_in,omitempty" bson:"check_in,omitempty"`
	CheckOut     string    `json:"check_out,omitempty" bson:"check_out,omitempty"`
	Blocked      []string  `json:"blocked,omitempty" bson:"blocked,omitempty"`
	BlockedUntil string    `json:"blocked_until,omitempty" bson:"blocked_until,omitempty"`
	Version      int64     `json:"version" bson:"version"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Zone resolves the session timezone, falling back to UTC for unknown names.
func (s Session) Zone() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// State rebuilds the picker state held by the snapshot.
func (s Session) State() State {
	zone := s.Zone()
	month, err := daterange.ParseDay(s.Month, zone)
	if err != nil {
		month = time.Time{}
	}
	return State{
		ListingID: s.ListingID,
		Location:  s.Location,
		Zone:      zone,
		Month:     daterange.FirstOfMonth(month),
		Blocked:   calendar.NewBlockedSet(s.Blocked),
		Selection: calendar.Seed(s.CheckIn, s.CheckOut, zone),
	}
}

// Apply copies state into the snapshot, keeping identity and version.
func (s *Session) Apply(state State) {
	s.ListingID = state.ListingID
	s.Location = state.Location
	if state.Zone != nil {
		s.Timezone = state.Zone.String()
	}
	s.Month = daterange.FormatDay(daterange.FirstOfMonth(state.Month))
	dates := state.Selection.Dates()
	s.CheckIn = dates.CheckIn
	s.CheckOut = dates.CheckOut
	s.Blocked = state.Blocked.Dates()
}

// SessionRepository persists picker sessions. Save is optimistic: it fails
// with ErrConcurrentUpdate when the stored version differs from the one the
// caller loaded, and bumps Version on success. Version 0 means a new session.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	ByListing(ctx context.Context, listingID string) ([]*Session, error)
	Listings(ctx context.Context) ([]string, error)
}
