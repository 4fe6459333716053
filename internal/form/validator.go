// Package form validates reservation drafts submitted from the console's
// create/edit form and shapes the accepted payload for the backend.
package form

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"tabledesk/internal/models"
)

// PastSkewTolerance allows a reservation time slightly in the past to absorb
// clock skew between the browser and the server.
const PastSkewTolerance = 60 * time.Second

// phonePattern is intentionally permissive: digits plus the separators seen
// in international formats. Rejecting valid foreign numbers is worse than
// letting a sloppy one through.
var phonePattern = regexp.MustCompile(`^[0-9 ()+.\-]{7,20}$`)

// Draft is the raw form submission, prior to validation.
type Draft struct {
	GuestName string `json:"guest_name"`
	Phone     string `json:"phone"`
	PartySize int    `json:"party_size"`
	Time      string `json:"time"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

// Payload is the accepted submission: strings trimmed, the instant
// serialized to a canonical absolute-time string.
type Payload struct {
	GuestName string `json:"guest_name"`
	Phone     string `json:"phone,omitempty"`
	PartySize int    `json:"party_size"`
	Time      string `json:"time"`
	Status    string `json:"status,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Validate checks every rule independently and returns a field→message map.
// An empty map means the draft is valid. Validate never fails; all problems
// come back as data.
func Validate(draft Draft, now time.Time) map[string]string {
	problems := make(map[string]string)

	// длины считаем в рунах, имена гостей не только ASCII
	name := strings.TrimSpace(draft.GuestName)
	if n := utf8.RuneCountInString(name); n < models.MinGuestNameLen || n > models.MaxGuestNameLen {
		problems["guest_name"] = fmt.Sprintf("guest name must be %d-%d characters", models.MinGuestNameLen, models.MaxGuestNameLen)
	}

	if phone := strings.TrimSpace(draft.Phone); phone != "" && !phonePattern.MatchString(phone) {
		problems["phone"] = "phone may contain digits, spaces and + - . ( ), 7-20 characters"
	}

	if draft.PartySize < models.MinPartySize || draft.PartySize > models.MaxPartySize {
		problems["party_size"] = fmt.Sprintf("party size must be between %d and %d", models.MinPartySize, models.MaxPartySize)
	}

	if when, ok := models.ParseInstant(draft.Time); !ok {
		problems["time"] = "a valid reservation time is required"
	} else if when.Before(now.Add(-PastSkewTolerance)) {
		problems["time"] = "reservation time must not be in the past"
	}

	if utf8.RuneCountInString(strings.TrimSpace(draft.Notes)) > models.MaxNotesLen {
		problems["notes"] = fmt.Sprintf("notes must be at most %d characters", models.MaxNotesLen)
	}

	return problems
}

// BuildPayload shapes a validated draft for the create/update call.
// Call only after Validate returned no problems; the time is re-parsed and
// serialized as RFC3339 UTC regardless of the submitted local form.
func BuildPayload(draft Draft) Payload {
	when, _ := models.ParseInstant(draft.Time)
	return Payload{
		GuestName: strings.TrimSpace(draft.GuestName),
		Phone:     strings.TrimSpace(draft.Phone),
		PartySize: draft.PartySize,
		Time:      when.UTC().Format(time.RFC3339),
		Status:    strings.TrimSpace(draft.Status),
		Notes:     strings.TrimSpace(draft.Notes),
	}
}
