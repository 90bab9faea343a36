package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}

	w.messages = append(w.messages, msgs...)

	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink_Publish(t *testing.T) {
	t.Run("Success - Keyed By Aggregate", func(t *testing.T) {
		// Arrange
		writer := &fakeWriter{}
		sink := &KafkaSink{writer: writer}
		event := &models.OutboxEvent{
			ID:          uuid.New(),
			AggregateID: uuid.New(),
			EventType:   models.EventOrderPlaced,
			Payload:     []byte(`{"order_id":"x"}`),
		}

		// Act
		err := sink.Publish(t.Context(), event)

		// Assert
		require.NoError(t, err)
		require.Len(t, writer.messages, 1)

		msg := writer.messages[0]
		assert.Equal(t, event.AggregateID.String(), string(msg.Key))
		assert.JSONEq(t, `{"order_id":"x"}`, string(msg.Value))
		assert.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte(models.EventOrderPlaced)})
	})

	t.Run("Failure - Writer Error", func(t *testing.T) {
		sink := &KafkaSink{writer: &fakeWriter{err: errors.New("leader not available")}}

		err := sink.Publish(t.Context(), &models.OutboxEvent{ID: uuid.New(), AggregateID: uuid.New()})

		assert.ErrorContains(t, err, "leader not available")
	})
}

func TestNewKafkaSink(t *testing.T) {
	sink := NewKafkaSink(config.Kafka{Brokers: []string{"localhost:9092"}, Topic: "orders"})

	writer, ok := sink.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "orders", writer.Topic)
	assert.Equal(t, writeBatchTimeout, writer.BatchTimeout)
	assert.Less(t, writer.BatchTimeout, time.Second)
	assert.Equal(t, "kafka", sink.Name())
}
