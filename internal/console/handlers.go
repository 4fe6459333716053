package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"tabledesk/internal/backend"
	"tabledesk/internal/calendar"
	"tabledesk/internal/events"
	"tabledesk/internal/filter"
	"tabledesk/internal/form"
	"tabledesk/internal/metrics"
	"tabledesk/internal/models"
)

// patchFields lists the keys a PATCH may forward to the backend.
var patchFields = map[string]bool{
	"guest_name": true,
	"phone":      true,
	"party_size": true,
	"time":       true,
	"status":     true,
	"notes":      true,
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listReservations(w, r)
	case http.MethodPost:
		s.createReservation(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	records, fetchedAt, err := s.currentRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "could not load reservations")
		return
	}

	spec := parseFilterSpec(r)
	filtered := filter.Apply(records, spec)

	writeJSON(w, http.StatusOK, map[string]any{
		"reservations": filtered,
		"total":        len(filtered),
		"fetched_at":   fetchedAt,
	})
}

func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var draft form.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if problems := form.Validate(draft, time.Now()); len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": problems})
		return
	}

	created, err := s.api.Create(r.Context(), form.BuildPayload(draft))
	if err != nil {
		// Backend detail stays in the logs; the browser gets one generic
		// message with no field attribution.
		s.logger.Error().Err(err).Msg("create reservation failed")
		writeError(w, http.StatusBadGateway, "could not save the reservation")
		return
	}

	s.refresher.RequestRefresh("manual")
	writeJSON(w, http.StatusCreated, created)
}

// handleReservationItem dispatches /console/v1/reservations/{id} and
// /console/v1/reservations/{id}/actions/{action}.
func (s *Server) handleReservationItem(w http.ResponseWriter, r *http.Request) {
	const prefix = "/console/v1/reservations/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	if rest == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	parts := strings.Split(rest, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodPatch:
			s.updateReservation(w, r, id)
		case http.MethodDelete:
			s.deleteReservation(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case len(parts) == 3 && parts[1] == "actions" && r.Method == http.MethodPost:
		s.dispatchAction(w, r, id, parts[2])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) updateReservation(w http.ResponseWriter, r *http.Request, id string) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	patch := make(map[string]any, len(body))
	for key, value := range body {
		if patchFields[key] {
			patch[key] = value
		}
	}
	if len(patch) == 0 {
		writeError(w, http.StatusBadRequest, "no updatable fields in request")
		return
	}

	updated, err := s.api.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		s.logger.Error().Err(err).Str("id", id).Msg("update reservation failed")
		writeError(w, http.StatusBadGateway, "could not save the reservation")
		return
	}

	s.refresher.RequestRefresh("manual")
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteReservation(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.api.Delete(r.Context(), id); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		s.reportAction(id, "delete", err)
		writeError(w, http.StatusBadGateway, "could not delete the reservation")
		return
	}

	s.reportAction(id, "delete", nil)
	s.refresher.RequestRefresh("manual")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// dispatchAction runs one fire-and-forget row action. Failures surface as a
// single generic message; the list is refreshed wholesale afterwards rather
// than patched in place.
func (s *Server) dispatchAction(w http.ResponseWriter, r *http.Request, id, action string) {
	ctx := r.Context()

	var result any
	var err error

	switch action {
	case "confirm":
		result, err = s.api.Update(ctx, id, map[string]any{"status": models.StatusConfirmed})
	case "cancel":
		result, err = s.api.Update(ctx, id, map[string]any{"status": models.StatusCancelled})
	case "send-sms":
		var body backend.SMSRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil || strings.TrimSpace(body.Message) == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		err = s.api.SendSMS(ctx, id, body.Message)
		result = map[string]string{"status": "sent"}
	case "receipt":
		var receipt backend.Receipt
		receipt, err = s.api.FetchReceipt(ctx, id)
		if err == nil {
			var path string
			path, err = s.exporter.SaveReceipt(id, receipt)
			result = map[string]string{"kind": receipt.Kind(), "path": path}
		}
	case "calendar-sync":
		var synced backend.CalendarSyncResult
		synced, err = s.api.CalendarSync(ctx, id)
		result = map[string]string{"status": synced.Status, "link": synced.Link()}
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	s.reportAction(id, action, err)

	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		writeError(w, http.StatusBadGateway, "action failed")
		return
	}

	s.refresher.RequestRefresh("manual")
	writeJSON(w, http.StatusOK, result)
}

// reportAction feeds metrics and the transient-notification event stream.
func (s *Server) reportAction(id, action string, err error) {
	if err != nil {
		metrics.IncAction(action, "error")
		s.logger.Error().Err(err).Str("id", id).Str("action", action).Msg("action failed")
		_ = s.bus.PublishJSON(events.EventActionFailed, events.ActionPayload{Action: action, ReservationID: id})
		return
	}
	metrics.IncAction(action, "ok")
	_ = s.bus.PublishJSON(events.EventActionSucceeded, events.ActionPayload{Action: action, ReservationID: id})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	week := calendar.ThisWeek(time.Now())
	if raw := strings.TrimSpace(r.URL.Query().Get("week")); raw != "" {
		anchor, ok := models.ParseInstant(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid week format; expected YYYY-MM-DD")
			return
		}
		week = calendar.NewWeekWindow(anchor)
	}

	records, _, err := s.currentRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "could not load reservations")
		return
	}

	buckets := calendar.Layout(records, week)

	days := make([]map[string]any, 0, calendar.DaysPerWeek)
	for _, key := range week.Days() {
		days = append(days, map[string]any{
			"date":  key.String(),
			"items": bucketOrEmpty(buckets, key),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"week_start": week.Start.Format("2006-01-02"),
		"days":       days,
	})
}

func bucketOrEmpty(buckets map[calendar.DayKey][]calendar.PositionedItem, key calendar.DayKey) []calendar.PositionedItem {
	if items, ok := buckets[key]; ok {
		return items
	}
	return []calendar.PositionedItem{}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, _, err := s.currentRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "could not load reservations")
		return
	}

	filtered := filter.Apply(records, parseFilterSpec(r))

	path, err := s.exporter.WriteWorkbook(filtered, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "could not write export file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"path": path, "rows": len(filtered)})
}

// currentRecords serves from the snapshot and falls back to a direct backend
// fetch on a cold start.
func (s *Server) currentRecords(ctx context.Context) ([]models.Reservation, time.Time, error) {
	snapshot, err := s.store.Get(ctx)
	if err == nil && snapshot != nil {
		return snapshot.Reservations, snapshot.FetchedAt, nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("snapshot store unavailable, fetching directly")
	}

	records, err := s.api.List(ctx, models.FilterSpec{})
	if err != nil {
		return nil, time.Time{}, err
	}

	fetchedAt := time.Now()
	_ = s.store.Set(ctx, &models.Snapshot{Reservations: records, FetchedAt: fetchedAt})
	return records, fetchedAt, nil
}

// parseFilterSpec reads the filter query params. Bad values deactivate the
// clause instead of failing the request, mirroring the filter engine's
// degrade-not-throw policy.
func parseFilterSpec(r *http.Request) models.FilterSpec {
	query := r.URL.Query()

	spec := models.FilterSpec{
		Status: strings.TrimSpace(query.Get("status")),
		Search: query.Get("search"),
	}
	if from, ok := models.ParseInstant(query.Get("from")); ok {
		spec.From = from
	}
	if to, ok := models.ParseInstant(query.Get("to")); ok {
		spec.To = to
	}
	return spec
}
