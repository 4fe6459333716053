package domain

import (
	"context"

	"tabledesk/internal/models"
)

// SnapshotStore holds the last fetched reservation list. Implementations
// must treat the snapshot as immutable: Set replaces it wholesale.
type SnapshotStore interface {
	Get(ctx context.Context) (*models.Snapshot, error)
	Set(ctx context.Context, snapshot *models.Snapshot) error
	Clear(ctx context.Context) error
}

// ReservationAPI is the slice of the backend client the console handlers
// and the refresh loop depend on.
type ReservationAPI interface {
	List(ctx context.Context, spec models.FilterSpec) ([]models.Reservation, error)
}

// EventPublisher decouples components from the concrete event bus.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
