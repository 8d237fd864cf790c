package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	availabilityapp "rentcal/internal/app/handlers/availability"
	pickerapp "rentcal/internal/app/handlers/pickers"
	"rentcal/internal/app/middleware"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/sources"
	"rentcal/internal/infra/config"
	"rentcal/internal/infra/obs"
	"rentcal/internal/infra/storage/memory"
	"rentcal/internal/pkg/validator"
)

type fakeRealtime struct{ closed []string }

func (f *fakeRealtime) Serve(w http.ResponseWriter, _ *http.Request, _ string) error {
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

func (f *fakeRealtime) Close(id string) { f.closed = append(f.closed, id) }

func newTestRouter(t *testing.T) (*gin.Engine, *fakeRealtime) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC) }
	calendars := memory.NewAvailabilityRepository(0)
	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	availabilityapp.Register(cmdBus, queryBus, calendars, nil, nil, clock)
	pickerapp.Register(cmdBus, queryBus, &pickerapp.Deps{
		Sessions: memory.NewSessionRepository(),
		Source:   &sources.CalendarSource{Calendars: calendars},
		Clock:    clock,
		Zone:     time.UTC,
	})

	validate := middleware.ValidatorFunc(func(_ context.Context, msg any) error { return validator.Validate(msg) })
	cmds := middleware.ChainCommands(cmdBus, middleware.Validation(validate))
	qs := middleware.ChainQueries(queryBus, middleware.QueryValidation(validate))

	rt := &fakeRealtime{}
	router := NewRouter(config.Config{}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Picker:       PickerHandler{Commands: cmds, Queries: qs, Realtime: rt},
		Availability: AvailabilityHandler{Commands: cmds, Queries: qs},
	})
	return router, rt
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/livez", nil).Code)
	rec := do(t, router, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPickerFlowOverHTTP(t *testing.T) {
	router, rt := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/listings/loft/blocks", map[string]string{"from": "2025-03-12", "to": "2025-03-13"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/pickers", map[string]string{"listing_id": "loft"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[dto.PickerView](t, rec)
	assert.Equal(t, 1, view.Blocked)
	base := "/api/v1/pickers/" + view.SessionID

	rec = do(t, router, http.MethodPost, base+"/clicks", map[string]string{"date": "2025-03-10"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.ClickResult](t, rec).Accepted)

	rec = do(t, router, http.MethodPost, base+"/clicks", map[string]string{"date": "2025-03-12"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dto.ClickResult](t, rec).Accepted)

	rec = do(t, router, http.MethodPost, base+"/clicks", map[string]string{"date": "2025-03-14"})
	res := decode[dto.ClickResult](t, rec)
	require.NotNil(t, res.Emitted)
	assert.Equal(t, "2025-03-10", res.Emitted.CheckIn)
	assert.Equal(t, "2025-03-14", res.Emitted.CheckOut)

	rec = do(t, router, http.MethodPost, base+"/month", map[string]int{"delta": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "April 2025", decode[dto.PickerView](t, rec).Months[0].Label)

	rec = do(t, router, http.MethodPost, base+"/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := decode[dto.ClickResult](t, rec)
	require.NotNil(t, cleared.Emitted)
	assert.Empty(t, cleared.Emitted.CheckIn)

	rec = do(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{view.SessionID}, rt.closed)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, base+"/ws", nil).Code)
}

func TestPickerValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/pickers", map[string]string{"timezone": "Mars/Olympus"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "listing_id")
	assert.Contains(t, fields, "timezone")

	rec = do(t, router, http.MethodPost, "/api/v1/pickers", map[string]string{"listing_id": "loft"})
	id := decode[dto.PickerView](t, rec).SessionID
	rec = do(t, router, http.MethodPost, "/api/v1/pickers/"+id+"/clicks", map[string]string{"date": "10/03/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/listings/loft/blocks", map[string]string{"from": "2025-03-10", "to": "2025-03-12", "reference": "r-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/listings/loft/blocks", map[string]string{"from": "2025-03-11", "to": "2025-03-15"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/listings/loft/blocked-dates?from=2025-03-01&to=2025-04-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2025-03-10", "2025-03-11"}, decode[dto.BlockedDates](t, rec).BlockedDates)

	rec = do(t, router, http.MethodGet, "/api/v1/listings/loft/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.Calendar](t, rec).Blocks, 1)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodDelete, "/api/v1/listings/loft/blocks/r-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/v1/listings/loft/blocks/r-1", nil).Code)

	rec = do(t, router, http.MethodGet, "/api/v1/listings/loft/blocked-dates?from=2025-04-01&to=2025-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
