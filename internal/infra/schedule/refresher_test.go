package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	"rentcal/internal/app/handlers/pickers"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/sources"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/infra/storage/memory"
)

func TestRefreshAllCoversEveryListing(t *testing.T) {
	sessions := memory.NewSessionRepository()
	var fetched []string
	deps := &pickers.Deps{
		Sessions: sessions,
		Source: sources.SourceFunc(func(_ context.Context, listingID string, _ daterange.DateRange) ([]string, error) {
			fetched = append(fetched, listingID)
			if listingID == "down" {
				return nil, errors.New("unreachable")
			}
			return []string{"2025-03-20"}, nil
		}),
		Clock: func() time.Time { return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC) },
	}
	cmds := commands.NewInMemoryBus()
	pickers.Register(cmds, queries.NewInMemoryBus(), deps)

	ctx := context.Background()
	for _, id := range []string{"a", "a", "b", "down"} {
		_, err := commands.Dispatch[pickers.OpenPickerCommand, dto.PickerView](ctx, cmds, pickers.OpenPickerCommand{ListingID: id})
		require.NoError(t, err)
	}
	fetched = nil

	r := &Refresher{Sessions: sessions, Commands: cmds}
	n, err := r.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.ElementsMatch(t, []string{"a", "a", "b", "down"}, fetched)
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	r := &Refresher{Sessions: memory.NewSessionRepository(), Commands: commands.NewInMemoryBus()}
	assert.Error(t, r.Start("every minute"))

	require.NoError(t, r.Start("*/5 * * * *"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
