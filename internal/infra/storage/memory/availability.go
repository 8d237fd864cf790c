package memory

import (
	"context"
	"sync"

	"rentcal/internal/domain/availability"
)

// AvailabilityRepository keeps availability calendars in memory. Callers get
// copies, so concurrent handlers never share a calendar.
type AvailabilityRepository struct {
	mu                 sync.RWMutex
	calendars          map[availability.ListingID]*availability.AvailabilityCalendar
	cleaningBufferDays int
}

// NewAvailabilityRepository returns a repository whose new calendars use the
// given cleaning buffer.
func NewAvailabilityRepository(cleaningBufferDays int) *AvailabilityRepository {
	return &AvailabilityRepository{
		calendars:          make(map[availability.ListingID]*availability.AvailabilityCalendar),
		cleaningBufferDays: cleaningBufferDays,
	}
}

// Calendar retrieves a calendar, returning an empty one for unknown listings.
func (r *AvailabilityRepository) Calendar(ctx context.Context, id availability.ListingID) (*availability.AvailabilityCalendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cal, ok := r.calendars[id]; ok {
		return cal.Clone(), nil
	}
	return availability.NewCalendar(id, r.cleaningBufferDays), nil
}

// Save persists a calendar snapshot when its version is current.
func (r *AvailabilityRepository) Save(ctx context.Context, calendar *availability.AvailabilityCalendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current int64
	if existing, ok := r.calendars[calendar.ListingID]; ok {
		current = existing.Version
	}
	if calendar.Version != current {
		return availability.ErrVersionConflict
	}
	calendar.Version++
	r.calendars[calendar.ListingID] = calendar.Clone()
	return nil
}

var _ availability.Repository = (*AvailabilityRepository)(nil)
