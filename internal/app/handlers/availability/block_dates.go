package availability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	"rentcal/internal/app/queries"
	domainavailability "rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/events"
)

const (
	blockDatesKey   = "availability.block_dates"
	releaseBlockKey = "availability.release_block"

	saveAttempts = 3
)

// BlockDatesCommand blocks the nights [From, To). A BOOKING reason reserves
// the stay and adds cleaning buffers around it.
type BlockDatesCommand struct {
	ListingID string `json:"listing_id" validate:"required"`
	From      string `json:"from" validate:"required,day"`
	To        string `json:"to" validate:"required,day"`
	Reason    string `json:"reason" validate:"omitempty,oneof=BOOKING HOST_BLOCK CLEANING_BUFFER"`
	Reference string `json:"reference"`
}

func (c BlockDatesCommand) Key() string { return blockDatesKey }

type BlockDatesHandler struct {
	Calendars domainavailability.Repository
	Publisher events.Publisher
	Logger    *slog.Logger
	Clock     func() time.Time
}

func (h *BlockDatesHandler) Handle(ctx context.Context, cmd BlockDatesCommand) (dto.Calendar, error) {
	from, err := daterange.ParseDay(cmd.From, time.UTC)
	if err != nil {
		return dto.Calendar{}, err
	}
	to, err := daterange.ParseDay(cmd.To, time.UTC)
	if err != nil {
		return dto.Calendar{}, err
	}
	r, err := daterange.New(from, to)
	if err != nil {
		return dto.Calendar{}, err
	}
	reference := cmd.Reference
	if reference == "" {
		reference = uuid.NewString()
	}
	reason := domainavailability.ParseReason(cmd.Reason)

	cal, err := update(ctx, h.Calendars, h.Publisher, h.Logger, domainavailability.ListingID(cmd.ListingID), func(cal *domainavailability.AvailabilityCalendar) error {
		if reason == domainavailability.ReasonBooking {
			return cal.Reserve(r, reference, now(h.Clock))
		}
		return cal.BlockRange(r, reason, reference, now(h.Clock))
	})
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(cal), nil
}

type ReleaseBlockCommand struct {
	ListingID string `json:"listing_id" validate:"required"`
	Reference string `json:"reference" validate:"required"`
}

func (c ReleaseBlockCommand) Key() string { return releaseBlockKey }

type ReleaseBlockHandler struct {
	Calendars domainavailability.Repository
	Publisher events.Publisher
	Logger    *slog.Logger
	Clock     func() time.Time
}

func (h *ReleaseBlockHandler) Handle(ctx context.Context, cmd ReleaseBlockCommand) (dto.Calendar, error) {
	cal, err := update(ctx, h.Calendars, h.Publisher, h.Logger, domainavailability.ListingID(cmd.ListingID), func(cal *domainavailability.AvailabilityCalendar) error {
		return cal.Release(cmd.Reference, now(h.Clock))
	})
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(cal), nil
}

// update loads, changes and saves a calendar, retrying on version conflicts,
// then publishes what the change recorded.
func update(ctx context.Context, repo domainavailability.Repository, pub events.Publisher, logger *slog.Logger, id domainavailability.ListingID, change func(*domainavailability.AvailabilityCalendar) error) (*domainavailability.AvailabilityCalendar, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		cal, err := repo.Calendar(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := change(cal); err != nil {
			if pub != nil && len(cal.PendingEvents()) > 0 {
				publish(ctx, pub, logger, cal)
			}
			return nil, err
		}
		if err := repo.Save(ctx, cal); err != nil {
			if errors.Is(err, domainavailability.ErrVersionConflict) {
				continue
			}
			return nil, err
		}
		publish(ctx, pub, logger, cal)
		return cal, nil
	}
	return nil, domainavailability.ErrVersionConflict
}

// publish is best effort: the calendar is already saved.
func publish(ctx context.Context, pub events.Publisher, logger *slog.Logger, cal *domainavailability.AvailabilityCalendar) {
	pending := cal.PendingEvents()
	cal.ClearEvents()
	if pub == nil || len(pending) == 0 {
		return
	}
	if err := pub.Publish(ctx, pending); err != nil && logger != nil {
		logger.WarnContext(ctx, "calendar events not published", "listing_id", cal.ListingID, "error", err)
	}
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

// Register wires the availability handlers onto the buses.
func Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus, calendars domainavailability.Repository, pub events.Publisher, logger *slog.Logger, clock func() time.Time) {
	commands.Register[BlockDatesCommand, dto.Calendar](cmds, &BlockDatesHandler{Calendars: calendars, Publisher: pub, Logger: logger, Clock: clock})
	commands.Register[ReleaseBlockCommand, dto.Calendar](cmds, &ReleaseBlockHandler{Calendars: calendars, Publisher: pub, Logger: logger, Clock: clock})
	queries.Register[GetCalendarQuery, dto.Calendar](qs, &GetCalendarHandler{Calendars: calendars})
	queries.Register[GetBlockedDatesQuery, dto.BlockedDates](qs, &GetBlockedDatesHandler{Calendars: calendars, Clock: clock})
}

var (
	_ commands.Handler[BlockDatesCommand, dto.Calendar]   = (*BlockDatesHandler)(nil)
	_ commands.Handler[ReleaseBlockCommand, dto.Calendar] = (*ReleaseBlockHandler)(nil)
)
