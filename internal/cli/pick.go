package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rentcal/internal/app/picker"
	"rentcal/internal/app/sources"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/infra/availability/ics"
	"rentcal/internal/infra/availability/rest"
	"rentcal/internal/infra/config"
	"rentcal/internal/infra/obs"
	"rentcal/internal/store/drafts"
	"rentcal/internal/tui"
)

const fetchTimeout = 15 * time.Second

type pickOptions struct {
	listing  string
	location string
	icsFeeds []string
	apiURL   string
	blocked  []string
	checkIn  string
	checkOut string
	draft    string
	horizon  int
}

func newPickCmd(app *App) *cobra.Command {
	var opts pickOptions
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick a stay interactively",
		Long: `Opens the two-month picker in the terminal. Blocked days come from iCal
files or URLs, an availability API and --blocked, combined. With --draft the
selection can be saved with "s" and is saved again on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, app, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.listing, "listing", "listing", "Listing ID")
	f.StringVar(&opts.location, "location", "", "Location shown in the title")
	f.StringSliceVar(&opts.icsFeeds, "ics", nil, "iCal file or URL (repeatable)")
	f.StringVar(&opts.apiURL, "api", envOr("AVAILABILITY_API_URL", ""), "Availability API base URL")
	f.StringSliceVar(&opts.blocked, "blocked", nil, "Extra blocked days (YYYY-MM-DD)")
	f.StringVar(&opts.checkIn, "check-in", "", "Seeded check-in day")
	f.StringVar(&opts.checkOut, "check-out", "", "Seeded check-out day")
	f.StringVar(&opts.draft, "draft", "", "Draft name to load and save")
	f.IntVar(&opts.horizon, "horizon", 365, "Days ahead to read availability for")
	return cmd
}

func runPick(cmd *cobra.Command, app *App, opts pickOptions) error {
	if err := validateDays("--blocked", opts.blocked...); err != nil {
		return err
	}
	if err := validateDays("--check-in/--check-out", opts.checkIn, opts.checkOut); err != nil {
		return err
	}
	zone, err := app.zone()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var store *drafts.Store
	if opts.draft != "" {
		if store, err = openDrafts(ctx, app); err != nil {
			return err
		}
		defer store.Close()
		if d, err := store.Get(ctx, opts.draft); err == nil && opts.checkIn == "" {
			opts.checkIn, opts.checkOut = d.CheckIn, d.CheckOut
		} else if err != nil && !errors.Is(err, drafts.ErrNotFound) {
			return err
		}
	}

	now := app.clock()
	state := picker.NewState(opts.listing, opts.location, zone, now)
	state, _ = picker.Reduce(state, picker.SeedDates{CheckIn: opts.checkIn, CheckOut: opts.checkOut}, now)
	if !state.Selection.CheckIn.IsZero() {
		state, _ = picker.Reduce(state, picker.ShowMonth{Month: state.Selection.CheckIn}, now)
	}
	ps := picker.NewStore(state, app.now)

	source := buildPickSource(opts, zone)
	reload := func() ([]string, error) {
		local := app.clock().In(zone)
		window := daterange.DateRange{
			CheckIn:  daterange.FirstOfMonth(local),
			CheckOut: daterange.StartOfDay(local).AddDate(0, 0, opts.horizon),
		}
		if v := ps.State().VisibleUntil(); v.After(window.CheckOut) {
			window.CheckOut = v
		}
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		return source.BlockedDates(fetchCtx, opts.listing, window)
	}
	if dates, err := reload(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "availability unavailable:", err)
	} else {
		ps.Dispatch(picker.ReplaceBlocked{Dates: dates})
	}

	save := func(d calendar.DatesSelected) error {
		if store == nil {
			return errors.New("start with --draft NAME to save")
		}
		_, err := store.Save(ctx, drafts.Draft{Name: opts.draft, ListingID: opts.listing, CheckIn: d.CheckIn, CheckOut: d.CheckOut})
		return err
	}

	title := "Listing " + opts.listing
	if opts.location != "" {
		title += " · " + opts.location
	}
	final, err := tui.Run(ps, tui.Options{Title: title, Reload: reload, Save: save})
	if err != nil {
		return err
	}
	if store != nil && final.Dates().CheckIn != "" {
		if err := save(final.Dates()); err != nil {
			return err
		}
	}
	return writeOut(cmd, app, final.Dates())
}

func buildPickSource(opts pickOptions, zone *time.Location) sources.Source {
	logger := obs.Discard()
	composite := &sources.Composite{Logger: logger}
	if len(opts.blocked) > 0 {
		composite.Sources = append(composite.Sources, sources.Named{Name: "flags", Source: sources.Static(opts.blocked)})
	}
	if len(opts.icsFeeds) > 0 {
		feeds := make([]config.Feed, 0, len(opts.icsFeeds))
		for i, u := range opts.icsFeeds {
			feeds = append(feeds, config.Feed{ID: fmt.Sprintf("ics-%d", i), URL: u})
		}
		composite.Sources = append(composite.Sources, sources.Named{Name: "ics", Source: &ics.Source{
			Feeds:   map[string][]config.Feed{opts.listing: feeds},
			Fetcher: ics.NewFetcher(fetchTimeout, logger),
			Zone:    zone,
			Logger:  logger,
		}})
	}
	if opts.apiURL != "" {
		composite.Sources = append(composite.Sources, sources.Named{Name: "api", Source: rest.NewClient(opts.apiURL, fetchTimeout, logger)})
	}
	return composite
}
