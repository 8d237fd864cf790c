package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rentcal/internal/app/picker"
	"rentcal/internal/tui"
)

func newGridCmd(app *App) *cobra.Command {
	var (
		month    string
		blocked  []string
		checkIn  string
		checkOut string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the two-month availability grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDays("--check-in/--check-out", checkIn, checkOut); err != nil {
				return err
			}
			zone, err := app.zone()
			if err != nil {
				return err
			}
			now := app.clock()
			state := picker.NewState("", "", zone, now)
			state, _ = picker.Reduce(state, picker.ReplaceBlocked{Dates: blocked}, now)
			state, _ = picker.Reduce(state, picker.SeedDates{CheckIn: checkIn, CheckOut: checkOut}, now)
			if month != "" {
				m, err := time.ParseInLocation("2006-01", month, zone)
				if err != nil {
					return fmt.Errorf("--month: %q is not YYYY-MM", month)
				}
				state, _ = picker.Reduce(state, picker.ShowMonth{Month: m}, now)
			}

			view := state.View(now)
			if asJSON {
				return writeOut(cmd, app, view.Months)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tui.RenderMonths(view.Months, time.Time{}, tui.PlainStyles()))
			fmt.Fprintln(out)
			fmt.Fprintln(out, tui.Summary(view.Dates, view.Nights))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "First month shown (YYYY-MM, default current month)")
	cmd.Flags().StringSliceVar(&blocked, "blocked", nil, "Blocked days (YYYY-MM-DD, comma separated or repeated)")
	cmd.Flags().StringVar(&checkIn, "check-in", "", "Seeded check-in day")
	cmd.Flags().StringVar(&checkOut, "check-out", "", "Seeded check-out day")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the grid cells as JSON")
	return cmd
}
