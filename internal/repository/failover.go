package repository

import (
	"context"
	"sync/atomic"
	"time"

	"tabledesk/internal/domain"
	"tabledesk/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSnapshotStore prefers the primary (Redis) store and degrades to
// the in-memory fallback when it fails, probing the primary again after a
// minute. The console stays usable on the fallback, it just loses snapshot
// sharing across instances.
type FailoverSnapshotStore struct {
	primary  domain.SnapshotStore
	fallback domain.SnapshotStore
	logger   *zerolog.Logger
	isDown   atomic.Bool
	// UnixNano метка последней неудачной проверки primary. Get дергают и
	// HTTP-обработчики, и refresher, поэтому атомик, а не time.Time.
	lastCheck atomic.Int64
}

func NewFailoverSnapshotStore(primary, fallback domain.SnapshotStore, logger *zerolog.Logger) *FailoverSnapshotStore {
	return &FailoverSnapshotStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverSnapshotStore) Get(ctx context.Context) (*models.Snapshot, error) {
	if !s.isDown.Load() {
		snapshot, err := s.primary.Get(ctx)
		if err == nil {
			return snapshot, nil
		}
		s.markDown(err)
	}

	// Try to recover after 1 minute
	if s.isDown.Load() && time.Since(time.Unix(0, s.lastCheck.Load())) > time.Minute {
		snapshot, err := s.primary.Get(ctx)
		if err == nil {
			s.isDown.Store(false)
			return snapshot, nil
		}
		s.lastCheck.Store(time.Now().UnixNano())
	}

	return s.fallback.Get(ctx)
}

func (s *FailoverSnapshotStore) Set(ctx context.Context, snapshot *models.Snapshot) error {
	// The fallback is always written so a failover never loses the current
	// list.
	if err := s.fallback.Set(ctx, snapshot); err != nil {
		return err
	}

	if !s.isDown.Load() {
		if err := s.primary.Set(ctx, snapshot); err != nil {
			s.markDown(err)
		}
	}
	return nil
}

func (s *FailoverSnapshotStore) Clear(ctx context.Context) error {
	if !s.isDown.Load() {
		if err := s.primary.Clear(ctx); err != nil {
			s.markDown(err)
		}
	}
	return s.fallback.Clear(ctx)
}

func (s *FailoverSnapshotStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("Primary snapshot store failed, falling back to memory")
	s.isDown.Store(true)
	s.lastCheck.Store(time.Now().UnixNano())
}
