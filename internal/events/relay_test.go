package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/repositories/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name     string
	err      error
	received []uuid.UUID
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, event *models.OutboxEvent) error {
	s.received = append(s.received, event.ID)
	return s.err
}

func newTestRelay(store *memory.Store, maxAttempts int, sinks ...Sink) *Relay {
	cfg := config.Kafka{PollInterval: 10 * time.Millisecond, BatchSize: 10, MaxAttempts: maxAttempts}
	return NewRelay(store, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), sinks...)
}

func appendEvent(t *testing.T, store *memory.Store, eventType string) *models.OutboxEvent {
	t.Helper()

	event := &models.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: uuid.New(),
		EventType:   eventType,
		Payload:     []byte(`{}`),
	}
	require.NoError(t, store.Repositories().Outbox.Append(t.Context(), event))

	return event
}

// pendingEvents lists what a relay would pick up next. A zero lease leaves
// the events claimable.
func pendingEvents(t *testing.T, store *memory.Store) []*models.OutboxEvent {
	t.Helper()

	events, err := store.Repositories().Outbox.ClaimPending(t.Context(), 10, 0)
	require.NoError(t, err)

	return events
}

// blockingSink parks every Publish until released.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Name() string { return "slow" }

func (s *blockingSink) Publish(ctx context.Context, _ *models.OutboxEvent) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}

	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRelay_ProcessBatch(t *testing.T) {
	t.Run("Success - Every Sink Receives Event", func(t *testing.T) {
		// Arrange
		store := memory.NewStore()
		first := appendEvent(t, store, models.EventOrderPlaced)
		second := appendEvent(t, store, models.EventOrderStatusChanged)
		kafkaSink := &recordingSink{name: "kafka"}
		emailSink := &recordingSink{name: "email"}
		relay := newTestRelay(store, 3, kafkaSink, emailSink)

		// Act
		published, err := relay.ProcessBatch(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, published)
		assert.Equal(t, []uuid.UUID{first.ID, second.ID}, kafkaSink.received)
		assert.Equal(t, []uuid.UUID{first.ID, second.ID}, emailSink.received)

		assert.Empty(t, pendingEvents(t, store))
	})

	t.Run("Failure - Failed Event Stays Pending Until Attempts Run Out", func(t *testing.T) {
		// Arrange
		store := memory.NewStore()
		appendEvent(t, store, models.EventOrderPlaced)
		sink := &recordingSink{name: "kafka", err: errors.New("broker unavailable")}
		relay := newTestRelay(store, 2, sink)

		// Act
		published, err := relay.ProcessBatch(t.Context())
		require.NoError(t, err)

		// Assert
		assert.Zero(t, published)

		pending := pendingEvents(t, store)
		require.Len(t, pending, 1)
		assert.Equal(t, 1, pending[0].Attempts)
		assert.Contains(t, pending[0].LastError, "broker unavailable")

		_, err = relay.ProcessBatch(t.Context())
		require.NoError(t, err)

		assert.Empty(t, pendingEvents(t, store))
		assert.Len(t, sink.received, 2)
	})

	t.Run("Success - Store Stays Writable While Sinks Publish", func(t *testing.T) {
		// Arrange
		store := memory.NewStore()
		for range 5 {
			appendEvent(t, store, models.EventOrderPlaced)
		}
		sink := &blockingSink{entered: make(chan struct{}, 1), release: make(chan struct{})}
		relay := newTestRelay(store, 3, sink)

		type result struct {
			published int
			err       error
		}
		done := make(chan result, 1)

		go func() {
			published, err := relay.ProcessBatch(t.Context())
			done <- result{published, err}
		}()

		<-sink.entered

		// Act
		written := make(chan error, 1)
		go func() {
			written <- store.WithinTransaction(t.Context(), func(ctx context.Context, repos *repository.Repositories) error {
				return repos.Products.CreateProduct(ctx, &models.Product{
					ID:            uuid.New(),
					CategoryName:  "General",
					Name:          "Kettle",
					Price:         decimal.RequireFromString("20.00"),
					StockQuantity: 1,
				})
			})
		}()

		// Assert
		select {
		case err := <-written:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("store transaction blocked while a sink was publishing")
		}

		close(sink.release)

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 5, res.published)
		assert.Empty(t, pendingEvents(t, store))
	})

	t.Run("Success - Claimed Events Are Not Delivered Twice", func(t *testing.T) {
		store := memory.NewStore()
		appendEvent(t, store, models.EventOrderPlaced)

		_, err := store.Repositories().Outbox.ClaimPending(t.Context(), 10, time.Minute)
		require.NoError(t, err)

		sink := &recordingSink{name: "kafka"}
		published, err := newTestRelay(store, 3, sink).ProcessBatch(t.Context())

		require.NoError(t, err)
		assert.Zero(t, published)
		assert.Empty(t, sink.received)
	})

	t.Run("Success - Nothing Pending", func(t *testing.T) {
		relay := newTestRelay(memory.NewStore(), 3, &recordingSink{name: "kafka"})

		published, err := relay.ProcessBatch(t.Context())

		require.NoError(t, err)
		assert.Zero(t, published)
	})
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	store := memory.NewStore()
	appendEvent(t, store, models.EventOrderPlaced)
	relay := newTestRelay(store, 3, &recordingSink{name: "kafka"})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})

	go func() {
		relay.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		pending, err := store.Repositories().Outbox.ClaimPending(t.Context(), 10, 0)
		return err == nil && len(pending) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}
