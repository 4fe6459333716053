// Package filter implements the reservation list filter: a pure,
// order-preserving AND of date-range, status and free-text clauses.
package filter

import (
	"strings"

	"tabledesk/internal/models"
)

// Apply returns the subset of records matching every active clause of spec,
// preserving the original relative order. Malformed input degrades to
// "does not match" or "matches everything"; Apply never fails.
func Apply(records []models.Reservation, spec models.FilterSpec) []models.Reservation {
	if spec.IsZero() {
		return records
	}

	out := make([]models.Reservation, 0, len(records))
	for _, r := range records {
		if Matches(r, spec) {
			out = append(out, r)
		}
	}
	return out
}

// Matches evaluates the per-record predicate. All active clauses must hold.
func Matches(r models.Reservation, spec models.FilterSpec) bool {
	return matchesFrom(r, spec) && matchesTo(r, spec) && matchesStatus(r, spec) && matchesSearch(r, spec)
}

// A record without a parseable instant compares as epoch zero, so it fails
// any active from-bound and passes any active to-bound.
func matchesFrom(r models.Reservation, spec models.FilterSpec) bool {
	if spec.From.IsZero() {
		return true
	}
	return !r.When.Before(spec.From)
}

func matchesTo(r models.Reservation, spec models.FilterSpec) bool {
	if spec.To.IsZero() {
		return true
	}
	return !r.When.After(spec.To)
}

func matchesStatus(r models.Reservation, spec models.FilterSpec) bool {
	if spec.Status == "" {
		return true
	}
	return strings.EqualFold(r.Status, spec.Status)
}

func matchesSearch(r models.Reservation, spec models.FilterSpec) bool {
	needle := strings.ToLower(strings.TrimSpace(spec.Search))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.GuestName), needle) ||
		strings.Contains(strings.ToLower(r.Phone), needle)
}
