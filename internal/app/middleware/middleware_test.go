package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/queries"
)

type ping struct{ Name string }

func (ping) Key() string { return "test.ping" }

type pingHandler struct{ calls int }

func (h *pingHandler) Handle(_ context.Context, p ping) (string, error) {
	h.calls++
	return "pong " + p.Name, nil
}

type lookup struct{ ping }

type lookupHandler struct{}

func (lookupHandler) Handle(_ context.Context, q lookup) (int, error) { return len(q.Name), nil }

func rejectEmpty(_ context.Context, msg any) error {
	switch m := msg.(type) {
	case ping:
		if m.Name == "" {
			return errors.New("name required")
		}
	case lookup:
		if m.Name == "" {
			return errors.New("name required")
		}
	}
	return nil
}

func TestChainOrderAndValidation(t *testing.T) {
	bus := commands.NewInMemoryBus()
	h := &pingHandler{}
	commands.Register[ping, string](bus, h)

	var order []string
	tag := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return dispatchFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	wrapped := ChainCommands(bus, tag("outer"), Validation(rejectEmpty), tag("inner"), Logging(logger))

	got, err := commands.Dispatch[ping, string](context.Background(), wrapped, ping{Name: "loft"})
	require.NoError(t, err)
	assert.Equal(t, "pong loft", got)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Contains(t, logs.String(), "command=test.ping")

	_, err = commands.Dispatch[ping, string](context.Background(), wrapped, ping{})
	assert.EqualError(t, err, "name required")
	assert.Equal(t, 1, h.calls)
	assert.Equal(t, []string{"outer", "inner", "outer"}, order)
}

func TestQueryChain(t *testing.T) {
	bus := queries.NewInMemoryBus()
	queries.Register[lookup, int](bus, lookupHandler{})
	wrapped := ChainQueries(bus, QueryValidation(rejectEmpty), QueryLogging(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	n, err := queries.Ask[lookup, int](context.Background(), wrapped, lookup{ping{Name: "cabin"}})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = queries.Ask[lookup, int](context.Background(), wrapped, lookup{})
	assert.Error(t, err)
}

func TestBusRejectsUnknownKeysAndWrongResults(t *testing.T) {
	bus := commands.NewInMemoryBus()
	_, err := bus.Dispatch(context.Background(), ping{Name: "x"})
	assert.ErrorIs(t, err, commands.ErrUnknownCommand)

	commands.Register[ping, string](bus, &pingHandler{})
	_, err = commands.Dispatch[ping, int](context.Background(), bus, ping{Name: "x"})
	assert.ErrorIs(t, err, commands.ErrResultType)

	assert.Panics(t, func() { commands.Register[ping, string](bus, &pingHandler{}) })
}
