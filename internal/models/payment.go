package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPaymentMethod     = "Cash on Delivery"
	DefaultPGName            = "None"
	DefaultPGPaymentID       = "N/A"
	DefaultPGStatus          = "Pending"
	DefaultPGResponseMessage = "Order placed successfully"
)

// Payment is a receipt of a payment decision taken outside this service.
type Payment struct {
	ID                uuid.UUID `json:"id"`
	OrderID           uuid.UUID `json:"order_id"`
	PaymentMethod     string    `json:"payment_method"`
	PGName            string    `json:"pg_name"`
	PGPaymentID       string    `json:"pg_payment_id"`
	PGStatus          string    `json:"pg_status"`
	PGResponseMessage string    `json:"pg_response_message"`
	CreatedAt         time.Time `json:"created_at"`
}

type PaymentDetails struct {
	PaymentMethod     string `json:"payment_method,omitempty" validate:"omitempty,max=50"`
	PGName            string `json:"pg_name,omitempty" validate:"omitempty,max=100"`
	PGPaymentID       string `json:"pg_payment_id,omitempty" validate:"omitempty,max=255"`
	PGStatus          string `json:"pg_status,omitempty" validate:"omitempty,max=50"`
	PGResponseMessage string `json:"pg_response_message,omitempty" validate:"omitempty,max=500"`
}

// WithDefaults fills every omitted field with its placeholder value.
func (d PaymentDetails) WithDefaults() PaymentDetails {
	d.PaymentMethod = orDefault(d.PaymentMethod, DefaultPaymentMethod)
	d.PGName = orDefault(d.PGName, DefaultPGName)
	d.PGPaymentID = orDefault(d.PGPaymentID, DefaultPGPaymentID)
	d.PGStatus = orDefault(d.PGStatus, DefaultPGStatus)
	d.PGResponseMessage = orDefault(d.PGResponseMessage, DefaultPGResponseMessage)

	return d
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
