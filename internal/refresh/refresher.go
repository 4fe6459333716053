// Package refresh keeps the reservation snapshot current: a polling timer
// re-fetches the list at a fixed interval, and an optional Redis pub/sub
// channel turns backend change events into immediate refreshes. This is a
// cache-invalidation signal only; no delta is ever applied.
package refresh

import (
	"context"
	"encoding/json"
	"time"

	"tabledesk/internal/domain"
	"tabledesk/internal/events"
	"tabledesk/internal/metrics"
	"tabledesk/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TriggerPoll    = "poll"
	TriggerPush    = "push"
	TriggerManual  = "manual"
	TriggerStartup = "startup"
)

// pushMessage is the recognized shape on the push channel. Anything else is
// ignored.
type pushMessage struct {
	Type string `json:"type"`
}

// Refresher owns the snapshot refresh lifecycle.
type Refresher struct {
	api          domain.ReservationAPI
	store        domain.SnapshotStore
	bus          domain.EventPublisher
	redisClient  *redis.Client
	pushChannel  string
	pollInterval time.Duration
	retryPolicy  RetryPolicy
	kick         chan string
	logger       *zerolog.Logger
}

// New builds a refresher with sane defaults. redisClient may be nil when the
// push channel is disabled.
func New(api domain.ReservationAPI, store domain.SnapshotStore, bus domain.EventPublisher, redisClient *redis.Client, pushChannel string, pollInterval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *Refresher {
	if pollInterval <= 0 {
		pollInterval = models.DefaultPollInterval * time.Second
	}
	sub := logger.With().Str("component", "refresher").Logger()
	return &Refresher{
		api:          api,
		store:        store,
		bus:          bus,
		redisClient:  redisClient,
		pushChannel:  pushChannel,
		pollInterval: pollInterval,
		retryPolicy:  retry.normalized(),
		kick:         make(chan string, 8),
		logger:       &sub,
	}
}

// Start runs the poll loop until ctx is cancelled. When a push channel is
// configured it is consumed in a second goroutine that only feeds the kick
// channel.
func (r *Refresher) Start(ctx context.Context) {
	if r.redisClient != nil && r.pushChannel != "" {
		go r.consumePush(ctx)
	}

	r.warmUp(ctx)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx, TriggerPoll); err != nil {
				r.logger.Error().Err(err).Msg("poll refresh failed, keeping previous snapshot")
				r.reportStaleAge(ctx)
			}
		case trigger := <-r.kick:
			if err := r.Refresh(ctx, trigger); err != nil {
				r.logger.Error().Err(err).Str("trigger", trigger).Msg("refresh failed")
			}
		}
	}
}

// RequestRefresh schedules an asynchronous refresh. It never blocks; when
// the queue is full a refresh is already pending, which is just as good.
func (r *Refresher) RequestRefresh(trigger string) {
	if trigger == "" {
		trigger = TriggerManual
	}
	select {
	case r.kick <- trigger:
	default:
	}
}

// Refresh fetches the full list and replaces the snapshot. Concurrent
// refreshes are last-write-wins, acceptable for idempotent reads.
func (r *Refresher) Refresh(ctx context.Context, trigger string) error {
	start := time.Now()
	records, err := r.api.List(ctx, models.FilterSpec{})
	if err != nil {
		metrics.IncSnapshotRefresh(trigger, "error")
		return err
	}

	snapshot := &models.Snapshot{Reservations: records, FetchedAt: time.Now()}
	if err := r.store.Set(ctx, snapshot); err != nil {
		metrics.IncSnapshotRefresh(trigger, "error")
		return err
	}

	metrics.IncSnapshotRefresh(trigger, "ok")
	metrics.SetSnapshotSize(len(records))
	metrics.SetSnapshotAge(snapshot.Age(time.Now()))

	_ = r.bus.PublishJSON(events.EventSnapshotRefreshed, events.SnapshotPayload{
		Count:      len(records),
		FetchedAt:  snapshot.FetchedAt,
		DurationMS: time.Since(start).Milliseconds(),
	})

	r.logger.Debug().
		Int("count", len(records)).
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Msg("snapshot refreshed")
	return nil
}

// reportStaleAge publishes how old the surviving snapshot is when a poll
// cycle fails to replace it.
func (r *Refresher) reportStaleAge(ctx context.Context) {
	snapshot, err := r.store.Get(ctx)
	if err != nil || snapshot == nil {
		return
	}
	metrics.SetSnapshotAge(snapshot.Age(time.Now()))
}

// warmUp retries the first fetch with backoff so the console does not sit
// on an empty list when the backend is briefly unavailable at startup.
func (r *Refresher) warmUp(ctx context.Context) {
	for attempt := 1; attempt <= r.retryPolicy.MaxRetries; attempt++ {
		if err := r.Refresh(ctx, TriggerStartup); err == nil {
			return
		}

		delay := r.retryPolicy.NextDelay(attempt)
		r.logger.Warn().Int("attempt", attempt).Dur("retry_in", delay).Msg("startup refresh failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	r.logger.Error().Msg("startup refresh gave up, waiting for the poll timer")
}

// consumePush subscribes to the push channel and maps recognized change
// events to kick requests. Message order does not matter: every recognized
// event means "the list changed, fetch it again".
func (r *Refresher) consumePush(ctx context.Context) {
	pubsub := r.redisClient.Subscribe(ctx, r.pushChannel)
	defer pubsub.Close()

	r.logger.Info().Str("channel", r.pushChannel).Msg("push channel connected")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			r.handlePush(msg.Payload)
		}
	}
}

func (r *Refresher) handlePush(payload string) {
	var msg pushMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logger.Warn().Str("payload", payload).Msg("unreadable push message ignored")
		return
	}
	if !events.IsChangeEvent(msg.Type) {
		return
	}

	_ = r.bus.PublishJSON(msg.Type, json.RawMessage(payload))
	r.RequestRefresh(TriggerPush)
}
