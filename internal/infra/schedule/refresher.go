package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/handlers/pickers"
	"rentcal/internal/app/picker"
)

// Refresher periodically re-reads blocked dates for every listing that has
// an open picker, so that changes made in external calendars show up.
type Refresher struct {
	Sessions picker.SessionRepository
	Commands commands.Bus
	Logger   *slog.Logger
	Timeout  time.Duration

	cron *cron.Cron
}

// RefreshAll refreshes each listing in turn and returns the number of
// sessions touched. One listing failing does not stop the others.
func (r *Refresher) RefreshAll(ctx context.Context) (int, error) {
	listings, err := r.Sessions.Listings(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	var errs []error
	for _, id := range listings {
		n, err := commands.Dispatch[pickers.RefreshListingCommand, int](ctx, r.Commands, pickers.RefreshListingCommand{ListingID: id})
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("listing %s: %w", id, err))
		}
	}
	return total, errors.Join(errs...)
}

// Start schedules RefreshAll on a standard five-field cron spec. Runs never
// overlap; a run still in progress makes the next tick a no-op.
func (r *Refresher) Start(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("schedule: invalid cron spec %q: %w", spec, err)
	}
	logger := cronLogger{r.Logger}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)))
	if _, err := c.AddFunc(spec, r.tick); err != nil {
		return err
	}
	r.cron = c
	c.Start()
	return nil
}

// Stop waits for a running refresh to finish or ctx to expire.
func (r *Refresher) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (r *Refresher) tick() {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	started := time.Now()
	n, err := r.RefreshAll(ctx)
	if r.Logger == nil {
		return
	}
	if err != nil {
		r.Logger.Warn("scheduled refresh incomplete", "sessions", n, "error", err)
		return
	}
	r.Logger.Info("scheduled refresh done", "sessions", n, "took", time.Since(started))
}

// cronLogger routes cron's own messages to slog at debug level; errors
// (recovered panics) stay at error level.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	if c.l != nil {
		c.l.Debug("cron: "+msg, kv...)
	}
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	if c.l != nil {
		c.l.Error("cron: "+msg, append(kv, "error", err)...)
	}
}
