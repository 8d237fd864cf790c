package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rentcal/internal/store/drafts"
)

func newDraftsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage saved selections",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrafts(cmd, app, func(ctx context.Context, s *drafts.Store) error {
				list, err := s.List(ctx)
				if err != nil {
					return err
				}
				if list == nil {
					list = []drafts.Draft{}
				}
				return writeOut(cmd, app, list)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Show one draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrafts(cmd, app, func(ctx context.Context, s *drafts.Store) error {
				d, err := s.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("draft %q: %w", args[0], err)
				}
				return writeOut(cmd, app, d)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrafts(cmd, app, func(ctx context.Context, s *drafts.Store) error {
				if err := s.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("draft %q: %w", args[0], err)
				}
				return writeOut(cmd, app, map[string]string{"deleted": args[0]})
			})
		},
	})
	return cmd
}

func openDrafts(ctx context.Context, app *App) (*drafts.Store, error) {
	path := app.DraftsPath
	if path == "" {
		path = drafts.DefaultPath()
	}
	return drafts.Open(ctx, path)
}

func withDrafts(cmd *cobra.Command, app *App, fn func(context.Context, *drafts.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openDrafts(ctx, app)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
