package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tabledesk/internal/backend"
	"tabledesk/internal/config"
	"tabledesk/internal/events"
	"tabledesk/internal/models"
	"tabledesk/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	records    []models.Reservation
	listCalls  int
	listErr    error
	created    any
	updates    map[string]map[string]any
	updateErr  error
	deleted    []string
	smsTo      []string
	smsMessage string
	receipt    backend.Receipt
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{updates: make(map[string]map[string]any)}
}

func (f *fakeBackend) List(ctx context.Context, spec models.FilterSpec) ([]models.Reservation, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeBackend) Create(ctx context.Context, payload any) (models.Reservation, error) {
	f.created = payload
	return models.Reservation{ID: "new-1", Status: models.StatusPending}, nil
}

func (f *fakeBackend) Update(ctx context.Context, id string, patch any) (models.Reservation, error) {
	if f.updateErr != nil {
		return models.Reservation{}, f.updateErr
	}
	fields, _ := patch.(map[string]any)
	f.updates[id] = fields
	return models.Reservation{ID: id}, nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) SendSMS(ctx context.Context, id, message string) error {
	f.smsTo = append(f.smsTo, id)
	f.smsMessage = message
	return nil
}

func (f *fakeBackend) FetchReceipt(ctx context.Context, id string) (backend.Receipt, error) {
	return f.receipt, nil
}

func (f *fakeBackend) CalendarSync(ctx context.Context, id string) (backend.CalendarSyncResult, error) {
	return backend.CalendarSyncResult{Status: "synced", HTMLLink: "https://cal/e1"}, nil
}

type fakeRefresher struct{ requests []string }

func (f *fakeRefresher) RequestRefresh(trigger string) { f.requests = append(f.requests, trigger) }

type fakeExporter struct {
	workbookRows int
	receiptPath  string
}

func (f *fakeExporter) WriteWorkbook(records []models.Reservation, _ time.Time) (string, error) {
	f.workbookRows = len(records)
	return "/tmp/exports/reservations.xlsx", nil
}

func (f *fakeExporter) SaveReceipt(id string, receipt backend.Receipt) (string, error) {
	f.receiptPath = "/tmp/exports/receipt_" + id
	return f.receiptPath, nil
}

type testEnv struct {
	server    *Server
	api       *fakeBackend
	refresher *fakeRefresher
	exporter  *fakeExporter
	store     *repository.MemorySnapshotStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	api := newFakeBackend()
	refresher := &fakeRefresher{}
	exporter := &fakeExporter{}
	store := repository.NewMemorySnapshotStore(0)
	server := NewServer(config.ConsoleConfig{Port: 0}, store, api, refresher, exporter, events.NewEventBus(), &logger)
	return &testEnv{server: server, api: api, refresher: refresher, exporter: exporter, store: store}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func seedSnapshot(t *testing.T, env *testEnv, records ...models.Reservation) {
	t.Helper()
	require.NoError(t, env.store.Set(context.Background(), &models.Snapshot{
		Reservations: records,
		FetchedAt:    time.Now(),
	}))
}

func TestListFromSnapshotWithFilter(t *testing.T) {
	env := newTestEnv(t)
	seedSnapshot(t, env,
		models.Reservation{ID: "1", GuestName: "Ann", Status: "pending"},
		models.Reservation{ID: "2", GuestName: "Bo", Status: "confirmed"},
	)

	rec := env.do(t, http.MethodGet, "/console/v1/reservations?status=confirmed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reservations []models.Reservation `json:"reservations"`
		Total        int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Bo", resp.Reservations[0].GuestName)
	assert.Zero(t, env.api.listCalls, "snapshot hit must not call the backend")
}

func TestListColdStartFetchesBackend(t *testing.T) {
	env := newTestEnv(t)
	env.api.records = []models.Reservation{{ID: "1", GuestName: "Ann"}}

	rec := env.do(t, http.MethodGet, "/console/v1/reservations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.api.listCalls)

	// the fetched list is stored for the next request
	snapshot, err := env.store.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Len(t, snapshot.Reservations, 1)
}

func TestListBackendDownIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.api.listErr = backend.ErrUnavailable

	rec := env.do(t, http.MethodGet, "/console/v1/reservations", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not load reservations")
	assert.NotContains(t, rec.Body.String(), "unavailable", "backend detail must not leak")
}

func TestCreateValidDraft(t *testing.T) {
	env := newTestEnv(t)
	draft := fmt.Sprintf(`{"guest_name":"Ann","party_size":4,"time":"%s"}`,
		time.Now().Add(24*time.Hour).Format("2006-01-02T15:04"))

	rec := env.do(t, http.MethodPost, "/console/v1/reservations", draft)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, env.api.created)
	assert.Equal(t, []string{"manual"}, env.refresher.requests)
}

func TestCreateInvalidDraftReturnsFieldErrors(t *testing.T) {
	env := newTestEnv(t)
	draft := fmt.Sprintf(`{"guest_name":"Ann","phone":"abc","party_size":4,"time":"%s"}`,
		time.Now().Add(24*time.Hour).Format("2006-01-02T15:04"))

	rec := env.do(t, http.MethodPost, "/console/v1/reservations", draft)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors, "phone")
	assert.Nil(t, env.api.created, "invalid draft must not reach the backend")
}

func TestUpdateWhitelistsFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPatch, "/console/v1/reservations/r-1",
		`{"status":"confirmed","admin":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	patch := env.api.updates["r-1"]
	require.NotNil(t, patch)
	assert.Equal(t, "confirmed", patch["status"])
	assert.NotContains(t, patch, "admin")
}

func TestUpdateUnknownID(t *testing.T) {
	env := newTestEnv(t)
	env.api.updateErr = backend.ErrNotFound

	rec := env.do(t, http.MethodPatch, "/console/v1/reservations/ghost", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTriggersRefresh(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodDelete, "/console/v1/reservations/r-9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"r-9"}, env.api.deleted)
	assert.NotEmpty(t, env.refresher.requests)
}

func TestConfirmAndCancelActions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/console/v1/reservations/r-1/actions/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusConfirmed, env.api.updates["r-1"]["status"])

	rec = env.do(t, http.MethodPost, "/console/v1/reservations/r-2/actions/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusCancelled, env.api.updates["r-2"]["status"])
}

func TestSendSMSAction(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/console/v1/reservations/r-1/actions/send-sms",
		`{"message":"see you at 19:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"r-1"}, env.api.smsTo)
	assert.Equal(t, "see you at 19:00", env.api.smsMessage)

	rec = env.do(t, http.MethodPost, "/console/v1/reservations/r-1/actions/send-sms", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiptActionSavesFile(t *testing.T) {
	env := newTestEnv(t)
	env.api.receipt = backend.Receipt{URL: "https://receipts/r-1.pdf"}

	rec := env.do(t, http.MethodPost, "/console/v1/reservations/r-1/actions/receipt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, env.exporter.receiptPath)
	assert.Contains(t, rec.Body.String(), "url")
}

func TestCalendarSyncAction(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/console/v1/reservations/r-1/actions/calendar-sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://cal/e1")
}

func TestUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/console/v1/reservations/r-1/actions/teleport", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarView(t *testing.T) {
	env := newTestEnv(t)
	seedSnapshot(t, env,
		models.Reservation{ID: "wed", GuestName: "Ann", When: time.Date(2024, 1, 3, 23, 0, 0, 0, time.Local)},
		models.Reservation{ID: "no-instant", GuestName: "Bo"},
	)

	rec := env.do(t, http.MethodGet, "/console/v1/calendar?week=2024-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		WeekStart string `json:"week_start"`
		Days      []struct {
			Date  string `json:"date"`
			Items []struct {
				Column     int     `json:"column"`
				TopPercent float64 `json:"top_percent"`
			} `json:"items"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-01-01", resp.WeekStart)
	require.Len(t, resp.Days, 7)

	wednesday := resp.Days[2]
	assert.Equal(t, "2024-01-03", wednesday.Date)
	require.Len(t, wednesday.Items, 1)
	assert.Equal(t, 2, wednesday.Items[0].Column)
	assert.Equal(t, 100.0, wednesday.Items[0].TopPercent, "23:00 clamps to the bottom edge")

	for i, day := range resp.Days {
		if i != 2 {
			assert.Empty(t, day.Items)
		}
	}
}

func TestCalendarBadWeekParam(t *testing.T) {
	env := newTestEnv(t)
	seedSnapshot(t, env)

	rec := env.do(t, http.MethodGet, "/console/v1/calendar?week=someday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportUsesFilter(t *testing.T) {
	env := newTestEnv(t)
	seedSnapshot(t, env,
		models.Reservation{ID: "1", GuestName: "Ann", Status: "pending"},
		models.Reservation{ID: "2", GuestName: "Bo", Status: "confirmed"},
	)

	rec := env.do(t, http.MethodGet, "/console/v1/export?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.exporter.workbookRows)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	logger := zerolog.Nop()
	api := newFakeBackend()
	store := repository.NewMemorySnapshotStore(0)
	server := NewServer(
		config.ConsoleConfig{Port: 0, RateLimit: config.ConsoleRateLimit{RPS: 1, Burst: 2}},
		store, api, &fakeRefresher{}, &fakeExporter{}, events.NewEventBus(), &logger,
	)

	var last int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
