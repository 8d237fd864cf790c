// Package cli implements the rentcal terminal client.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rentcal/internal/domain/shared/daterange"
)

type App struct {
	DraftsPath string
	Timezone   string
	Pretty     bool

	// now is overridden in tests.
	now func() time.Time
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{now: time.Now})
}

func newRootCmd(app *App) *cobra.Command {

	cmd := &cobra.Command{
		Use:          "rentcal",
		Short:        "Booking calendar picker for the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Print March and April with two blocked days and a seeded stay
  rentcal grid --month 2025-03 --blocked 2025-03-12,2025-03-13 --check-in 2025-03-20 --check-out 2025-03-23

  # Pick dates against a host's exported calendar and save the result
  rentcal pick --listing loft-12 --ics ~/Downloads/loft-12.ics --draft spring-trip

  # Saved drafts
  rentcal drafts list
`),
	}

	cmd.PersistentFlags().StringVar(&app.DraftsPath, "drafts", "", "Path to the drafts database (default ~/.rentcal/drafts.sqlite)")
	cmd.PersistentFlags().StringVar(&app.Timezone, "tz", envOr("RENTCAL_TZ", "Local"), "IANA timezone the calendar is shown in")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newGridCmd(app))
	cmd.AddCommand(newPickCmd(app))
	cmd.AddCommand(newDraftsCmd(app))
	return cmd
}

func (a *App) zone() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz: %w", err)
	}
	return loc, nil
}

func (a *App) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// validateDays rejects anything that is not a YYYY-MM-DD day.
func validateDays(flag string, days ...string) error {
	for _, d := range days {
		if d == "" {
			continue
		}
		if _, err := daterange.ParseDay(d, time.UTC); err != nil {
			return fmt.Errorf("%s: %q is not a YYYY-MM-DD day", flag, d)
		}
	}
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
