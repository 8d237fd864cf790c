package pickers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentcal/internal/app/picker"
	"rentcal/internal/app/sources"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
)

const (
	defaultHorizonDays = 365
	saveAttempts       = 3
)

// Deps is shared by every picker handler.
type Deps struct {
	Sessions    picker.SessionRepository
	Source      sources.Source
	Notifier    picker.Notifier
	Logger      *slog.Logger
	Clock       func() time.Time
	Zone        *time.Location
	HorizonDays int
	NewID       func() string
}

func (d *Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d *Deps) zone(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if d.Zone != nil {
		return d.Zone
	}
	return time.UTC
}

func (d *Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

// window covers the current month up to the horizon, stretched to include
// both rendered months.
func (d *Deps) window(state picker.State, now time.Time) daterange.DateRange {
	horizon := d.HorizonDays
	if horizon <= 0 {
		horizon = defaultHorizonDays
	}
	local := now.In(state.Zone)
	from := daterange.FirstOfMonth(local)
	to := daterange.StartOfDay(local).AddDate(0, 0, horizon)
	if visible := state.VisibleUntil(); visible.After(to) {
		to = visible
	}
	return daterange.DateRange{CheckIn: from, CheckOut: to}
}

// fetch replaces the blocked set. When the source fails the previous set is
// kept; a new session therefore starts with nothing blocked.
func (d *Deps) fetch(ctx context.Context, session *picker.Session, state picker.State, now time.Time) picker.State {
	if d.Source == nil {
		return state
	}
	window := d.window(state, now)
	dates, err := d.Source.BlockedDates(ctx, state.ListingID, window)
	if err != nil {
		if d.Logger != nil {
			d.Logger.WarnContext(ctx, "blocked dates unavailable", "listing_id", state.ListingID, "session_id", session.ID, "error", err)
		}
		return state
	}
	next, _ := picker.Reduce(state, picker.ReplaceBlocked{Dates: dates}, now)
	session.BlockedUntil = daterange.FormatDay(window.CheckOut)
	return next
}

// needsFetch reports whether the rendered months run past what was fetched.
func needsFetch(session *picker.Session, state picker.State) bool {
	if session.BlockedUntil == "" {
		return true
	}
	until, err := daterange.ParseDay(session.BlockedUntil, state.Zone)
	if err != nil {
		return true
	}
	return state.VisibleUntil().After(until)
}

type mutation func(session *picker.Session, state picker.State, now time.Time) (picker.State, *calendar.DatesSelected, error)

// mutate loads, changes and saves a session, retrying on version conflicts.
// Emissions are delivered only after the save succeeded.
func (d *Deps) mutate(ctx context.Context, id string, fn mutation) (*picker.Session, *calendar.DatesSelected, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		session, err := d.Sessions.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		now := d.now()
		next, emitted, err := fn(session, session.State(), now)
		if err != nil {
			return nil, nil, err
		}
		session.Apply(next)
		session.UpdatedAt = now.UTC()
		if err := d.Sessions.Save(ctx, session); err != nil {
			if errors.Is(err, picker.ErrConcurrentUpdate) {
				continue
			}
			return nil, nil, err
		}
		if emitted != nil {
			d.notify(ctx, session, *emitted, now)
		}
		return session, emitted, nil
	}
	return nil, nil, picker.ErrConcurrentUpdate
}

func (d *Deps) notify(ctx context.Context, session *picker.Session, dates calendar.DatesSelected, now time.Time) {
	if d.Notifier == nil {
		return
	}
	event := picker.SessionEvent{
		SessionID:  session.ID,
		ListingID:  session.ListingID,
		Dates:      dates,
		Nights:     session.State().Selection.Nights(),
		OccurredAt: now.UTC(),
	}
	if err := d.Notifier.DatesSelected(ctx, event); err != nil && d.Logger != nil {
		d.Logger.WarnContext(ctx, "dates selected delivery failed", "session_id", session.ID, "error", err)
	}
}
