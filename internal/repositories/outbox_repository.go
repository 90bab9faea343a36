package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

// OutboxRepository stores domain events next to the rows they describe.
type OutboxRepository interface {
	Append(ctx context.Context, event *models.OutboxEvent) error
	// ClaimPending hands out up to limit pending events that no other relay
	// holds, oldest first, and keeps them for lease. The claim is a single
	// statement so no lock outlives the call.
	ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*models.OutboxEvent, error)
	// MarkPublished and MarkFailed release the claim.
	MarkPublished(ctx context.Context, id uuid.UUID) error
	// MarkFailed records the error and moves the event to failed once maxAttempts is reached.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) error
}

type outboxRepository struct {
	DB DBTX
}

func NewOutboxRepo(db DBTX) OutboxRepository {
	return &outboxRepository{DB: db}
}

func (r *outboxRepository) Append(ctx context.Context, event *models.OutboxEvent) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW())
		RETURNING created_at
	`

	event.Status = models.EventStatusPending

	if err := r.DB.QueryRowContext(dbCtx, query, event.ID, event.AggregateID, event.EventType, []byte(event.Payload), event.Status).Scan(&event.CreatedAt); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return nil
}

func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*models.OutboxEvent, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE outbox_events
		SET claimed_until = NOW() + make_interval(secs => $2)
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = 'pending' AND (claimed_until IS NULL OR claimed_until <= NOW())
			ORDER BY created_at, id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, aggregate_id, event_type, payload, status, attempts, COALESCE(last_error, ''), created_at, claimed_until
	`

	rows, err := r.DB.QueryContext(dbCtx, query, limit, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim pending events: %w", err)
	}

	defer rows.Close()

	var events []*models.OutboxEvent

	for rows.Next() {
		event := &models.OutboxEvent{}

		var (
			payload      []byte
			claimedUntil time.Time
		)

		if err := rows.Scan(&event.ID, &event.AggregateID, &event.EventType, &payload, &event.Status, &event.Attempts, &event.LastError, &event.CreatedAt, &claimedUntil); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}

		event.Payload = payload
		event.ClaimedUntil = &claimedUntil
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RETURNING does not keep the subquery order.
	slices.SortFunc(events, func(a, b *models.OutboxEvent) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})

	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE outbox_events SET status = 'published', published_at = NOW(), claimed_until = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}

	return expectAffected(result)
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1,
		    last_error = $1,
		    status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE status END,
		    claimed_until = NULL
		WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, reason, maxAttempts, id)
	if err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}

	return expectAffected(result)
}
