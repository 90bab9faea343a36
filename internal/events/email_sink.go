package events

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/pkg/sendgrid"
)

// EmailSink mails the customer when an order is placed or changes status.
type EmailSink struct {
	email sendgrid.EmailService
}

func NewEmailSink(email sendgrid.EmailService) *EmailSink {
	return &EmailSink{email: email}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Publish(ctx context.Context, event *models.OutboxEvent) error {
	var (
		msg *sendgrid.Message
		err error
	)

	switch event.EventType {
	case models.EventOrderPlaced:
		msg, err = orderPlacedMessage(event.Payload)
	case models.EventOrderStatusChanged:
		msg, err = statusChangedMessage(event.Payload)
	default:
		return nil
	}

	if err != nil {
		return err
	}

	return s.email.Send(ctx, msg)
}

func orderPlacedMessage(payload []byte) (*sendgrid.Message, error) {
	var placed models.OrderPlacedEvent
	if err := json.Unmarshal(payload, &placed); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", models.EventOrderPlaced, err)
	}

	var text, rows strings.Builder

	fmt.Fprintf(&text, "Thanks for your order %s.\n\n", placed.OrderID)

	for _, item := range placed.Items {
		fmt.Fprintf(&text, "%d x %s @ %s\n", item.Quantity, item.ProductName, item.Price.StringFixed(2))
		fmt.Fprintf(&rows, "<tr><td>%d</td><td>%s</td><td>%s</td></tr>", item.Quantity, html.EscapeString(item.ProductName), item.Price.StringFixed(2))
	}

	total := placed.TotalAmount.StringFixed(2)
	fmt.Fprintf(&text, "\nTotal: %s\n", total)

	return &sendgrid.Message{
		To:          placed.Email,
		Subject:     fmt.Sprintf("Order %s confirmed", placed.OrderID),
		Content:     text.String(),
		HTMLContent: fmt.Sprintf("<p>Thanks for your order %s.</p><table>%s</table><p><strong>Total: %s</strong></p>", placed.OrderID, rows.String(), total),
	}, nil
}

func statusChangedMessage(payload []byte) (*sendgrid.Message, error) {
	var changed models.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &changed); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", models.EventOrderStatusChanged, err)
	}

	return &sendgrid.Message{
		To:      changed.Email,
		Subject: fmt.Sprintf("Order %s is %s", changed.OrderID, strings.ToLower(string(changed.To))),
		Content: fmt.Sprintf("Your order %s moved from %s to %s.", changed.OrderID, changed.From, changed.To),
	}, nil
}
