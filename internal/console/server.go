// Package console exposes the browser-facing HTTP surface: the reservation
// list, the weekly calendar grid, the create/edit form and the row actions.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"tabledesk/internal/backend"
	"tabledesk/internal/config"
	"tabledesk/internal/domain"
	"tabledesk/internal/models"

	"github.com/rs/zerolog"
)

// BackendAPI is the slice of the backend client the handlers use.
type BackendAPI interface {
	List(ctx context.Context, spec models.FilterSpec) ([]models.Reservation, error)
	Create(ctx context.Context, payload any) (models.Reservation, error)
	Update(ctx context.Context, id string, patch any) (models.Reservation, error)
	Delete(ctx context.Context, id string) error
	SendSMS(ctx context.Context, id, message string) error
	FetchReceipt(ctx context.Context, id string) (backend.Receipt, error)
	CalendarSync(ctx context.Context, id string) (backend.CalendarSyncResult, error)
}

// RefreshRequester schedules a snapshot refresh after a mutation.
type RefreshRequester interface {
	RequestRefresh(trigger string)
}

// Exporter writes workbooks and receipts to the exports directory.
type Exporter interface {
	WriteWorkbook(records []models.Reservation, generatedAt time.Time) (string, error)
	SaveReceipt(reservationID string, receipt backend.Receipt) (string, error)
}

// Server is the console HTTP server.
type Server struct {
	cfg       config.ConsoleConfig
	store     domain.SnapshotStore
	api       BackendAPI
	refresher RefreshRequester
	exporter  Exporter
	bus       domain.EventPublisher
	logger    *zerolog.Logger
	server    *http.Server
	limiters  sync.Map // map[string]*rate.Limiter
}

func NewServer(cfg config.ConsoleConfig, store domain.SnapshotStore, api BackendAPI, refresher RefreshRequester, exporter Exporter, bus domain.EventPublisher, logger *zerolog.Logger) *Server {
	sub := logger.With().Str("component", "console").Logger()
	s := &Server{
		cfg:       cfg,
		store:     store,
		api:       api,
		refresher: refresher,
		exporter:  exporter,
		bus:       bus,
		logger:    &sub,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/console/v1/reservations", s.handleReservations)
	mux.HandleFunc("/console/v1/reservations/", s.handleReservationItem)
	mux.HandleFunc("/console/v1/calendar", s.handleCalendar)
	mux.HandleFunc("/console/v1/export", s.handleExport)
	mux.HandleFunc("/healthz", s.handleHealth)

	handler := s.requestIDMiddleware(s.loggingMiddleware(s.rateLimitMiddleware(mux)))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s
}

// Handler exposes the configured handler chain, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("console server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("console listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
