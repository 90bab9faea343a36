package memory

import (
	"context"
	"slices"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
)

type outboxRepo struct {
	access accessor
	now    func() time.Time
}

func (r *outboxRepo) Append(_ context.Context, event *models.OutboxEvent) error {
	return r.access(func(s *state) error {
		event.Status = models.EventStatusPending
		event.CreatedAt = r.now()
		s.outbox = append(s.outbox, *event)

		return nil
	})
}

// ClaimPending returns events in insertion order.
func (r *outboxRepo) ClaimPending(_ context.Context, limit int, lease time.Duration) ([]*models.OutboxEvent, error) {
	var events []*models.OutboxEvent

	err := r.access(func(s *state) error {
		now := r.now()
		until := now.Add(lease)

		for i := range s.outbox {
			if len(events) >= limit {
				break
			}

			e := &s.outbox[i]
			if e.Status != models.EventStatusPending || (e.ClaimedUntil != nil && e.ClaimedUntil.After(now)) {
				continue
			}

			e.ClaimedUntil = &until

			event := *e
			event.Payload = slices.Clone(e.Payload)
			events = append(events, &event)
		}

		return nil
	})

	return events, err
}

func (r *outboxRepo) update(id uuid.UUID, fn func(*models.OutboxEvent)) error {
	return r.access(func(s *state) error {
		i := slices.IndexFunc(s.outbox, func(e models.OutboxEvent) bool { return e.ID == id })
		if i < 0 {
			return repository.ErrNotFound
		}

		fn(&s.outbox[i])

		return nil
	})
}

func (r *outboxRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(e *models.OutboxEvent) {
		now := r.now()
		e.Status = models.EventStatusPublished
		e.PublishedAt = &now
		e.ClaimedUntil = nil
	})
}

func (r *outboxRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string, maxAttempts int) error {
	return r.update(id, func(e *models.OutboxEvent) {
		e.Attempts++
		e.LastError = reason
		e.ClaimedUntil = nil

		if e.Attempts >= maxAttempts {
			e.Status = models.EventStatusFailed
		}
	})
}
