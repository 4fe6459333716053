package repository

import (
	"context"
	"sync"
	"time"

	"tabledesk/internal/models"
)

// MemorySnapshotStore keeps the snapshot in process memory. It is the
// fallback behind Redis and the whole store in single-instance setups.
type MemorySnapshotStore struct {
	mu       sync.RWMutex
	snapshot *models.Snapshot
	storedAt time.Time
	ttl      time.Duration
}

func NewMemorySnapshotStore(ttl time.Duration) *MemorySnapshotStore {
	return &MemorySnapshotStore{ttl: ttl}
}

func (s *MemorySnapshotStore) Get(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, nil
	}
	if s.ttl > 0 && time.Since(s.storedAt) > s.ttl {
		return nil, nil
	}
	return s.snapshot, nil
}

func (s *MemorySnapshotStore) Set(ctx context.Context, snapshot *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.storedAt = time.Now()
	return nil
}

func (s *MemorySnapshotStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	return nil
}
