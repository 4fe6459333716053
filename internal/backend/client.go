// Package backend is the outbound client for the external reservations REST
// service. The console owns no durable state; every read here is a full list
// fetch and every write is followed by a refresh at the call site.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tabledesk/internal/config"
	"tabledesk/internal/metrics"
	"tabledesk/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client talks to the reservations backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// NewClient создает клиент бэкенда на основе конфигурации
func NewClient(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	sub := logger.With().Str("component", "backend-client").Logger()
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		logger: &sub,
	}
}

// List fetches reservations matching the spec. The server-side filter is
// advisory: records are normalized and re-filtered client-side anyway, so a
// backend that ignores the query params still behaves correctly.
func (c *Client) List(ctx context.Context, spec models.FilterSpec) ([]models.Reservation, error) {
	query := url.Values{}
	if !spec.From.IsZero() {
		query.Set("from", spec.From.UTC().Format(time.RFC3339))
	}
	if !spec.To.IsZero() {
		query.Set("to", spec.To.UTC().Format(time.RFC3339))
	}
	if spec.Status != "" {
		query.Set("status", spec.Status)
	}
	if search := strings.TrimSpace(spec.Search); search != "" {
		query.Set("search", search)
	}

	endpoint := c.baseURL + "/reservations"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, endpoint, nil, "list")
	if err != nil {
		return nil, err
	}

	raws, err := decodeList(body)
	if err != nil {
		return nil, err
	}

	records := make([]models.Reservation, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		r := raw.Normalize()
		if !r.HasWhen() {
			skipped++
		}
		records = append(records, r)
	}
	if skipped > 0 {
		// diagnostic only; records without an instant are kept in the list
		// view and just never appear on the calendar
		c.logger.Warn().Int("count", skipped).Msg("reservations without a parseable instant")
	}
	return records, nil
}

// Create posts a validated form payload and returns the created record.
func (c *Client) Create(ctx context.Context, payload any) (models.Reservation, error) {
	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/reservations", payload, "create")
	if err != nil {
		return models.Reservation{}, err
	}
	return decodeOne(body)
}

// Update patches a reservation with partial fields.
func (c *Client) Update(ctx context.Context, id string, patch any) (models.Reservation, error) {
	body, err := c.do(ctx, http.MethodPatch, c.reservationURL(id), patch, "update")
	if err != nil {
		return models.Reservation{}, err
	}
	return decodeOne(body)
}

// Delete removes a reservation.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.reservationURL(id), nil, "delete")
	return err
}

// SendSMS asks the backend to notify the guest.
func (c *Client) SendSMS(ctx context.Context, id, message string) error {
	_, err := c.do(ctx, http.MethodPost, c.reservationURL(id)+"/send-sms", SMSRequest{Message: message}, "send_sms")
	return err
}

// FetchReceipt requests receipt generation for a reservation.
func (c *Client) FetchReceipt(ctx context.Context, id string) (Receipt, error) {
	body, err := c.do(ctx, http.MethodPost, c.reservationURL(id)+"/receipt", nil, "receipt")
	if err != nil {
		return Receipt{}, err
	}

	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		// Some backend versions answer with the raw receipt text.
		return Receipt{Text: string(body)}, nil
	}
	return receipt, nil
}

// CalendarSync asks the backend to push the reservation to its calendar.
func (c *Client) CalendarSync(ctx context.Context, id string) (CalendarSyncResult, error) {
	body, err := c.do(ctx, http.MethodPost, c.reservationURL(id)+"/calendar-sync", nil, "calendar_sync")
	if err != nil {
		return CalendarSyncResult{}, err
	}

	var result CalendarSyncResult
	if err := json.Unmarshal(body, &result); err != nil {
		return CalendarSyncResult{}, fmt.Errorf("%w: failed to decode calendar-sync response: %v", ErrInvalidResponse, err)
	}
	return result, nil
}

func (c *Client) reservationURL(id string) string {
	return c.baseURL + "/reservations/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, operation string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			metrics.IncBackendCall(operation, "error")
			return nil, fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		metrics.IncBackendCall(operation, "error")
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncBackendCall(operation, "unavailable")
		c.logger.Error().Err(err).Str("operation", operation).Msg("backend request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("operation", operation).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend call")

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// continue
	case resp.StatusCode == http.StatusNotFound:
		metrics.IncBackendCall(operation, "not_found")
		return nil, ErrNotFound
	default:
		metrics.IncBackendCall(operation, "error")
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Bytes("body", raw).
			Msg("backend returned unexpected status")

		var apiErr ErrorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrInvalidResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncBackendCall(operation, "error")
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrInvalidResponse, err)
	}

	metrics.IncBackendCall(operation, "ok")
	return body, nil
}

// decodeList tolerates both a bare JSON array and the historical
// {"reservations": [...]} wrapper.
func decodeList(body []byte) ([]models.RawReservation, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var raws []models.RawReservation
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("%w: failed to decode list: %v", ErrInvalidResponse, err)
		}
		return raws, nil
	}

	var wrapper struct {
		Reservations []models.RawReservation `json:"reservations"`
		Items        []models.RawReservation `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: failed to decode list: %v", ErrInvalidResponse, err)
	}
	if wrapper.Reservations != nil {
		return wrapper.Reservations, nil
	}
	return wrapper.Items, nil
}

func decodeOne(body []byte) (models.Reservation, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return models.Reservation{}, nil
	}

	var raw models.RawReservation
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return models.Reservation{}, fmt.Errorf("%w: failed to decode reservation: %v", ErrInvalidResponse, err)
	}
	return raw.Normalize(), nil
}
