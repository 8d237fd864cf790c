package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/events"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: range not found")
	ErrCalendarNotFound = errors.New("availability: calendar not found")
	ErrVersionConflict  = errors.New("availability: calendar modified concurrently")
)

type ListingID string

type BlockReason string

const (
	ReasonBooking   BlockReason = "BOOKING"
	ReasonHostBlock BlockReason = "HOST_BLOCK"
	ReasonCleaning  BlockReason = "CLEANING_BUFFER"
)

// ParseReason maps wire values onto known reasons; anything else is a host block.
func ParseReason(raw string) BlockReason {
	switch BlockReason(raw) {
	case ReasonBooking, ReasonCleaning:
		return BlockReason(raw)
	default:
		return ReasonHostBlock
	}
}

// Block marks the nights [Range.CheckIn, Range.CheckOut) as unavailable.
// Ranges are stored as UTC midnights of the calendar days they cover.
type Block struct {
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

type AvailabilityCalendar struct {
	ListingID          ListingID
	Blocks             []Block
	Version            int64
	CleaningBufferDays int
	events.EventRecorder
}

// Repository loads and stores calendars. Calendar returns an empty calendar
// for unknown listings. Save compares Version with the stored one, fails with
// ErrVersionConflict on mismatch and increments it on success.
type Repository interface {
	Calendar(ctx context.Context, id ListingID) (*AvailabilityCalendar, error)
	Save(ctx context.Context, calendar *AvailabilityCalendar) error
}

func NewCalendar(id ListingID, cleaningBufferDays int) *AvailabilityCalendar {
	return &AvailabilityCalendar{ListingID: id, CleaningBufferDays: cleaningBufferDays}
}

// Clone copies the calendar without its pending events.
func (c *AvailabilityCalendar) Clone() *AvailabilityCalendar {
	out := &AvailabilityCalendar{
		ListingID:          c.ListingID,
		Version:            c.Version,
		CleaningBufferDays: c.CleaningBufferDays,
		Blocks:             make([]Block, len(c.Blocks)),
	}
	copy(out.Blocks, c.Blocks)
	return out
}

func (c *AvailabilityCalendar) CanReserve(r daterange.DateRange) bool {
	for _, block := range c.Blocks {
		if block.Range.Overlaps(r) {
			return false
		}
	}
	return true
}

// Reserve blocks a booked stay and, when configured, cleaning days on both
// sides of it. Buffers that would collide with other blocks are skipped.
func (c *AvailabilityCalendar) Reserve(r daterange.DateRange, bookingID string, now time.Time) error {
	r = utcDays(r)
	if !c.CanReserve(r) {
		c.Record(CalendarOverbookingPreventedEvent(c.ListingID, r, now))
		return ErrOverlappingRange
	}
	c.appendBlock(Block{Range: r, Reason: ReasonBooking, Reference: bookingID, CreatedAt: now.UTC()})

	if c.CleaningBufferDays > 0 {
		before := daterange.DateRange{CheckIn: r.CheckIn.AddDate(0, 0, -c.CleaningBufferDays), CheckOut: r.CheckIn}
		if c.CanReserve(before) {
			c.appendBlock(Block{Range: before, Reason: ReasonCleaning, Reference: bookingID + "-before", CreatedAt: now.UTC()})
		}
		after := daterange.DateRange{CheckIn: r.CheckOut, CheckOut: r.CheckOut.AddDate(0, 0, c.CleaningBufferDays)}
		if c.CanReserve(after) {
			c.appendBlock(Block{Range: after, Reason: ReasonCleaning, Reference: bookingID + "-after", CreatedAt: now.UTC()})
		}
	}

	c.Record(CalendarBlockedEvent(c.ListingID, r, ReasonBooking, bookingID, now))
	return nil
}

func (c *AvailabilityCalendar) BlockRange(r daterange.DateRange, reason BlockReason, reference string, now time.Time) error {
	if reason == "" {
		reason = ReasonHostBlock
	}
	r = utcDays(r)
	if !c.CanReserve(r) {
		return ErrOverlappingRange
	}
	c.appendBlock(Block{Range: r, Reason: reason, Reference: reference, CreatedAt: now.UTC()})
	c.Record(CalendarBlockedEvent(c.ListingID, r, reason, reference, now))
	return nil
}

// Release removes the block with the given reference together with any
// cleaning buffers derived from it.
func (c *AvailabilityCalendar) Release(reference string, now time.Time) error {
	idx := -1
	for i, block := range c.Blocks {
		if block.Reference == reference {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	kept := c.Blocks[:0]
	for i, block := range c.Blocks {
		if i == idx {
			continue
		}
		if block.Reason == ReasonCleaning && (block.Reference == reference+"-before" || block.Reference == reference+"-after") {
			continue
		}
		kept = append(kept, block)
	}
	c.Blocks = kept
	c.Record(CalendarReleasedEvent(c.ListingID, removed.Range, removed.Reason, reference, now))
	return nil
}

// BlockedDays lists the days inside window covered by any block, ascending.
func (c *AvailabilityCalendar) BlockedDays(window daterange.DateRange) []string {
	window = utcDays(window)
	seen := make(map[string]struct{})
	for _, block := range c.Blocks {
		part, ok := block.Range.Intersect(window)
		if !ok {
			continue
		}
		for _, d := range part.Days() {
			seen[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (c *AvailabilityCalendar) appendBlock(block Block) {
	c.Blocks = append(c.Blocks, block)
}

// utcDays re-anchors both ends on UTC midnight of their own calendar day so
// that blocks compare by day regardless of the caller's zone.
func utcDays(r daterange.DateRange) daterange.DateRange {
	return daterange.DateRange{CheckIn: utcDay(r.CheckIn), CheckOut: utcDay(r.CheckOut)}
}

func utcDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
