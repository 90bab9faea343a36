// Package events relays outbox rows written by checkout and order status
// changes to the outside world.
package events

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
)

// Sink receives each outbox event. Publish must be safe to repeat: an event
// is redelivered to every sink when any one of them fails.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event *models.OutboxEvent) error
}

type Relay struct {
	store       repository.Store
	sinks       []Sink
	interval    time.Duration
	batchSize   int
	maxAttempts int
	claimLease  time.Duration
	logger      *slog.Logger
}

const defaultClaimLease = time.Minute

func NewRelay(store repository.Store, cfg config.Kafka, logger *slog.Logger, sinks ...Sink) *Relay {
	return &Relay{
		store:       store,
		sinks:       sinks,
		interval:    cfg.PollInterval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		claimLease:  cmp.Or(cfg.ClaimLease, defaultClaimLease),
		logger:      logger.With(slog.String("component", "outbox-relay")),
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Outbox relay started", slog.Duration("interval", r.interval), slog.Int("sinks", len(r.sinks)))

	for {
		select {
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("Outbox batch failed", slog.Any("error", err))
			}
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return
		}
	}
}

// ProcessBatch claims one batch of pending events, delivers them and reports
// how many were published. Sinks are called with no store lock or
// transaction held; only the claim and the final bookkeeping touch the store.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	claimed, err := r.store.Repositories().Outbox.ClaimPending(ctx, r.batchSize, r.claimLease)
	if err != nil {
		return 0, fmt.Errorf("claim pending events: %w", err)
	}

	if len(claimed) == 0 {
		return 0, nil
	}

	failures := make(map[uuid.UUID]error, len(claimed))

	for _, event := range claimed {
		if err := r.dispatch(ctx, event); err != nil {
			r.logger.Warn("Event delivery failed",
				slog.String("eventId", event.ID.String()),
				slog.String("eventType", event.EventType),
				slog.Int("attempt", event.Attempts+1),
				slog.Any("error", err))
			failures[event.ID] = err
		}
	}

	// Unrecorded events are retried once their claim lapses.
	err = r.store.WithinTransaction(context.WithoutCancel(ctx), func(ctx context.Context, repos *repository.Repositories) error {
		for _, event := range claimed {
			if failure, failed := failures[event.ID]; failed {
				if err := repos.Outbox.MarkFailed(ctx, event.ID, failure.Error(), r.maxAttempts); err != nil {
					return fmt.Errorf("mark event %s failed: %w", event.ID, err)
				}

				continue
			}

			if err := repos.Outbox.MarkPublished(ctx, event.ID); err != nil {
				return fmt.Errorf("mark event %s published: %w", event.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, event := range claimed {
		if _, failed := failures[event.ID]; failed {
			metrics.OutboxEvent(event.EventType, metrics.OutcomeError)
		} else {
			metrics.OutboxEvent(event.EventType, metrics.OutcomeSuccess)
		}
	}

	published := len(claimed) - len(failures)
	if published > 0 {
		r.logger.Debug("Outbox batch published", slog.Int("events", published))
	}

	return published, nil
}

func (r *Relay) dispatch(ctx context.Context, event *models.OutboxEvent) error {
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			return fmt.Errorf("%s: %w", sink.Name(), err)
		}
	}

	return nil
}
