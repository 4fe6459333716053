package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reservation is the canonical record the console works with. It is an
// immutable snapshot: nothing mutates a Reservation in place, updates go
// through the backend and come back via a full refresh.
type Reservation struct {
	ID        string    `json:"id"`
	GuestName string    `json:"guest_name"`
	Phone     string    `json:"phone,omitempty"`
	PartySize int       `json:"party_size"`
	When      time.Time `json:"when,omitzero"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
}

// HasWhen reports whether the record carries a parseable instant.
// Records without one are excluded from time-based filtering and the
// calendar grid rather than treated as errors.
func (r Reservation) HasWhen() bool {
	return !r.When.IsZero()
}

// KnownStatus reports whether Status is one of the recognized values.
// Unrecognized statuses are preserved and rendered with the "unknown" style.
func (r Reservation) KnownStatus() bool {
	for _, s := range KnownStatuses {
		if strings.EqualFold(r.Status, s) {
			return true
		}
	}
	return false
}

// FilterSpec is user-supplied criteria narrowing a reservation list.
// Zero values mean "clause inactive". An inverted From/To range is not an
// error; it simply matches nothing.
type FilterSpec struct {
	From   time.Time `json:"from,omitzero"`
	To     time.Time `json:"to,omitzero"`
	Status string    `json:"status,omitempty"`
	Search string    `json:"search,omitempty"`
}

// IsZero reports whether no clause is active.
func (s FilterSpec) IsZero() bool {
	return s.From.IsZero() && s.To.IsZero() && s.Status == "" && strings.TrimSpace(s.Search) == ""
}

// RawReservation mirrors the loose wire schema of the backend. The same
// concept arrives under several historical field names (time/when/datetime,
// guestName/guest_name/name), and numbers sometimes arrive as strings.
// Normalize is the single place that collapses the aliases.
type RawReservation struct {
	ID           any    `json:"id"`
	GuestName    string `json:"guestName"`
	GuestNameAlt string `json:"guest_name"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	PartySize    any    `json:"partySize"`
	PartySizeAlt any    `json:"party_size"`
	Guests       any    `json:"guests"`
	Time         string `json:"time"`
	When         string `json:"when"`
	Datetime     string `json:"datetime"`
	Date         string `json:"date"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
	Comment      string `json:"comment"`
}

// Normalize collapses the raw wire record into the canonical Reservation.
// Missing or malformed fields degrade to defaults, never to an error.
func (raw RawReservation) Normalize() Reservation {
	r := Reservation{
		ID:        coerceID(raw.ID),
		GuestName: firstNonEmpty(raw.GuestName, raw.GuestNameAlt, raw.Name),
		Phone:     strings.TrimSpace(raw.Phone),
		PartySize: coerceInt(raw.PartySize, raw.PartySizeAlt, raw.Guests),
		Status:    strings.TrimSpace(raw.Status),
		Notes:     firstNonEmpty(raw.Notes, raw.Comment),
	}
	if r.GuestName == "" {
		r.GuestName = PlaceholderGuestName
	}
	if when, ok := ParseInstant(firstNonEmpty(raw.Time, raw.When, raw.Datetime, raw.Date)); ok {
		r.When = when
	}
	return r
}

// instantLayouts are tried in order; layouts without a zone are interpreted
// in local time, matching how the console displays the grid.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant coerces one of the accepted wire formats into a time.Time.
// The boolean is false when the input is empty or unparseable.
func ParseInstant(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if strings.Contains(layout, "Z07:00") {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func coerceID(val any) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceInt(values ...any) int {
	for _, val := range values {
		switch v := val.(type) {
		case float64:
			return int(v)
		case int:
			return v
		case int64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}
