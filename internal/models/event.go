package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusPublished EventStatus = "published"
	EventStatusFailed    EventStatus = "failed"
)

// OutboxEvent is written in the same transaction as the state change it describes.
type OutboxEvent struct {
	ID           uuid.UUID       `json:"id"`
	AggregateID  uuid.UUID       `json:"aggregate_id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       EventStatus     `json:"status"`
	Attempts     int             `json:"attempts"`
	LastError    string          `json:"last_error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	PublishedAt  *time.Time      `json:"published_at,omitempty"`
	ClaimedUntil *time.Time      `json:"claimed_until,omitempty"` // set while a relay is delivering the event
}

type OrderPlacedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	Email       string          `json:"email"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
	Items       []OrderItem     `json:"items"`
}

type OrderStatusChangedEvent struct {
	OrderID uuid.UUID   `json:"order_id"`
	Email   string      `json:"email"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}
