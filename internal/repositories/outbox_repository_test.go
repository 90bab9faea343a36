package repository_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewOutboxRepo(db)
	ctx := t.Context()
	now := time.Now()

	t.Run("Append marks the event pending", func(t *testing.T) {
		event := &models.OutboxEvent{ID: uuid.New(), AggregateID: uuid.New(), EventType: models.EventOrderPlaced, Payload: []byte(`{"ok":true}`)}

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO outbox_events`)).
			WithArgs(event.ID, event.AggregateID, event.EventType, []byte(`{"ok":true}`), models.EventStatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

		require.NoError(t, repo.Append(ctx, event))
		assert.Equal(t, models.EventStatusPending, event.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ClaimPending leases unclaimed rows oldest first", func(t *testing.T) {
		older, newer := uuid.New(), uuid.New()
		lease := now.Add(30 * time.Second)

		mock.ExpectQuery(regexp.QuoteMeta(`SET claimed_until = NOW() + make_interval(secs => $2)`)).
			WithArgs(50, float64(30)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_id", "event_type", "payload", "status", "attempts", "last_error", "created_at", "claimed_until"}).
				AddRow(newer.String(), uuid.NewString(), models.EventOrderPlaced, []byte(`{}`), "pending", 0, "", now, lease).
				AddRow(older.String(), uuid.NewString(), models.EventOrderPlaced, []byte(`{}`), "pending", 1, "timeout", now.Add(-time.Minute), lease))

		events, err := repo.ClaimPending(ctx, 50, 30*time.Second)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, older, events[0].ID)
		assert.Equal(t, 1, events[0].Attempts)
		assert.Equal(t, "timeout", events[0].LastError)
		assert.Equal(t, newer, events[1].ID)
		require.NotNil(t, events[1].ClaimedUntil)
		assert.True(t, lease.Equal(*events[1].ClaimedUntil))
		assert.JSONEq(t, `{}`, string(events[1].Payload))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ClaimPending query skips locked and leased rows", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'pending' AND (claimed_until IS NULL OR claimed_until <= NOW())`) + `(?s).*` + regexp.QuoteMeta(`FOR UPDATE SKIP LOCKED`)).
			WithArgs(10, float64(60)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_id", "event_type", "payload", "status", "attempts", "last_error", "created_at", "claimed_until"}))

		events, err := repo.ClaimPending(ctx, 10, time.Minute)

		require.NoError(t, err)
		assert.Empty(t, events)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MarkPublished", func(t *testing.T) {
		eventID := uuid.New()

		mock.ExpectExec(regexp.QuoteMeta(`SET status = 'published', published_at = NOW(), claimed_until = NULL`)).
			WithArgs(eventID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkPublished(ctx, eventID))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MarkFailed", func(t *testing.T) {
		eventID := uuid.New()

		mock.ExpectExec(regexp.QuoteMeta(`SET attempts = attempts + 1`)).
			WithArgs("broker unavailable", 5, eventID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.MarkFailed(ctx, eventID, "broker unavailable", 5), repository.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
