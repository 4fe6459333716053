package models

import "time"

// Snapshot is the reservation list as last fetched from the backend.
// It is replaced wholesale on every successful refresh; nothing patches it
// element-in-place. Overlapping refreshes are last-write-wins, which is
// acceptable for read-only idempotent fetches.
type Snapshot struct {
	Reservations []Reservation `json:"reservations"`
	FetchedAt    time.Time     `json:"fetched_at"`
}

// Age reports how stale the snapshot is.
func (s *Snapshot) Age(now time.Time) time.Duration {
	if s == nil || s.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(s.FetchedAt)
}
