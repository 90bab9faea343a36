package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderService is the checkout coordinator plus the order ledger queries.
type OrderService interface {
	// PlaceOrder converts the caller's cart into an order. A non-empty
	// idempotencyKey makes retries with the same key return the first order.
	PlaceOrder(ctx context.Context, identity models.Identity, req *models.PlaceOrderRequest, idempotencyKey string) (*models.PlaceOrderResult, error)
	GetOrder(ctx context.Context, identity models.Identity, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, identity models.Identity, page models.PageRequest) ([]*models.Order, int, models.PageRequest, error)
	ListAllOrders(ctx context.Context, email string, page models.PageRequest) ([]*models.Order, int, models.PageRequest, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	store    repository.Store
	sanitize *bluemonday.Policy
	now      func() time.Time
}

func NewOrderService(store repository.Store) OrderService {
	return &orderService{
		store:    store,
		sanitize: bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, identity models.Identity, req *models.PlaceOrderRequest, idempotencyKey string) (*models.PlaceOrderResult, error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.String("user.id", identity.UserID.String()),
		attribute.String("address.id", req.AddressID.String()),
		attribute.Bool("idempotent", idempotencyKey != ""),
	))
	defer span.End()

	logger := middleware.LoggerFromContext(ctx).With(slog.String("userId", identity.UserID.String()))
	start := s.now()

	if idempotencyKey != "" {
		existing, err := s.store.Repositories().Orders.GetOrderByIdempotencyKey(ctx, identity.Email, idempotencyKey)
		if err == nil {
			logger.Info("Replaying order for idempotency key", slog.String("orderId", existing.ID.String()))
			metrics.ObserveCheckout(metrics.OutcomeReplayed, time.Since(start))

			return &models.PlaceOrderResult{Order: existing, Replayed: true}, nil
		}

		if !errors.Is(err, repository.ErrNotFound) {
			return nil, s.failCheckout(span, start, appErrors.DatabaseError("Failed to look up previous order").WithError(err))
		}
	}

	var (
		order    *models.Order
		replayed bool
	)

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		var err error

		order, replayed, err = s.checkout(ctx, repos, identity, req, idempotencyKey)

		return err
	})

	if err == nil && replayed {
		logger.Info("Replaying order for idempotency key", slog.String("orderId", order.ID.String()))
		metrics.ObserveCheckout(metrics.OutcomeReplayed, time.Since(start))

		return &models.PlaceOrderResult{Order: order, Replayed: true}, nil
	}

	if errors.Is(err, repository.ErrDuplicate) && idempotencyKey != "" {
		// Another request with the same key committed first.
		existing, lookupErr := s.store.Repositories().Orders.GetOrderByIdempotencyKey(ctx, identity.Email, idempotencyKey)
		if lookupErr == nil {
			metrics.ObserveCheckout(metrics.OutcomeReplayed, time.Since(start))
			return &models.PlaceOrderResult{Order: existing, Replayed: true}, nil
		}
	}

	if err != nil {
		logger.Warn("Checkout rejected", slog.Any("error", err))
		return nil, s.failCheckout(span, start, storeError(err, "Failed to place order"))
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()), attribute.Int("order.items", len(order.Items)))
	metrics.ObserveCheckout(metrics.OutcomeSuccess, time.Since(start))

	logger.Info("Order placed",
		slog.String("orderId", order.ID.String()),
		slog.String("total", order.TotalAmount.StringFixed(2)),
		slog.Int("items", len(order.Items)))

	return &models.PlaceOrderResult{Order: order}, nil
}

func (s *orderService) failCheckout(span trace.Span, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.ObserveCheckout(outcomeOf(err), time.Since(start))

	return err
}

// checkout runs inside one transaction. Validation happens after the cart row
// is locked so nothing can change between the checks and the writes. The
// idempotency key is looked up again under the cart lock: a request that
// raced past the first lookup finds the order its twin just committed.
func (s *orderService) checkout(ctx context.Context, repos *repository.Repositories, identity models.Identity, req *models.PlaceOrderRequest, idempotencyKey string) (*models.Order, bool, error) {
	cart, err := repos.Carts.GetCartByUserIDForUpdate(ctx, identity.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, appErrors.EntityNotFoundError("Cart", "userId", identity.UserID)
	}

	if err != nil {
		return nil, false, err
	}

	if idempotencyKey != "" {
		existing, err := repos.Orders.GetOrderByIdempotencyKey(ctx, identity.Email, idempotencyKey)
		if err == nil {
			return existing, true, nil
		}

		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	}

	address, err := repos.Addresses.GetAddressByID(ctx, req.AddressID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && address.UserID != identity.UserID) {
		return nil, false, appErrors.EntityNotFoundError("Address", "addressId", req.AddressID)
	}

	if err != nil {
		return nil, false, err
	}

	if len(cart.Items) == 0 {
		return nil, false, appErrors.EmptyCartError(fmt.Sprintf("Cart %s has no items", cart.ID))
	}

	now := s.now().UTC()
	details := s.sanitizePayment(req.PaymentDetails.WithDefaults())

	order := &models.Order{
		ID:             uuid.New(),
		Email:          identity.Email,
		OrderDate:      now,
		AddressID:      address.ID,
		TotalAmount:    cart.ItemTotal(),
		Status:         models.OrderStatusAccepted,
		IdempotencyKey: idempotencyKey,
		Payment: &models.Payment{
			ID:                uuid.New(),
			PaymentMethod:     details.PaymentMethod,
			PGName:            details.PGName,
			PGPaymentID:       details.PGPaymentID,
			PGStatus:          details.PGStatus,
			PGResponseMessage: details.PGResponseMessage,
		},
		Items: make([]models.OrderItem, 0, len(cart.Items)),
	}

	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	if err := repos.Orders.CreateOrder(ctx, order); err != nil {
		return nil, false, err
	}

	if err := decrementStock(ctx, repos, cart.Items); err != nil {
		return nil, false, err
	}

	if err := repos.Carts.ClearItems(ctx, cart.ID); err != nil {
		return nil, false, err
	}

	if err := repos.Carts.UpdateTotal(ctx, cart.ID, decimal.Zero); err != nil {
		return nil, false, err
	}

	payload := models.OrderPlacedEvent{
		OrderID:     order.ID,
		Email:       order.Email,
		TotalAmount: order.TotalAmount,
		OrderDate:   order.OrderDate,
		Items:       order.Items,
	}

	if err := appendEvent(ctx, repos, order.ID, models.EventOrderPlaced, payload); err != nil {
		return nil, false, err
	}

	return order, false, nil
}

// decrementStock takes product locks in ascending id order. The conditional
// decrement re-validates stock under the row lock.
func decrementStock(ctx context.Context, repos *repository.Repositories, items []models.CartItem) error {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b models.CartItem) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})

	for _, item := range sorted {
		_, err := repos.Inventory.Decrement(ctx, item.ProductID, item.Quantity)

		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			return appErrors.InsufficientStockError(fmt.Sprintf("Insufficient stock for product %s (%s): %d requested", item.ProductName, item.ProductID, item.Quantity))
		case errors.Is(err, repository.ErrNotFound):
			return appErrors.EntityNotFoundError("Product", "productId", item.ProductID)
		case err != nil:
			return err
		}
	}

	return nil
}

func (s *orderService) sanitizePayment(d models.PaymentDetails) models.PaymentDetails {
	d.PaymentMethod = s.sanitize.Sanitize(d.PaymentMethod)
	d.PGName = s.sanitize.Sanitize(d.PGName)
	d.PGPaymentID = s.sanitize.Sanitize(d.PGPaymentID)
	d.PGStatus = s.sanitize.Sanitize(d.PGStatus)
	d.PGResponseMessage = s.sanitize.Sanitize(d.PGResponseMessage)

	return d
}

func appendEvent(ctx context.Context, repos *repository.Repositories, aggregateID uuid.UUID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	return repos.Outbox.Append(ctx, &models.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     data,
	})
}

// GetOrder returns NotFound, not Forbidden, for another user's order so that
// order ids cannot be probed.
func (s *orderService) GetOrder(ctx context.Context, identity models.Identity, id uuid.UUID) (*models.Order, error) {
	order, err := s.store.Repositories().Orders.GetOrderByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.EntityNotFoundError("Order", "orderId", id)
	}

	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if !identity.IsAdmin() && order.Email != identity.Email {
		middleware.LoggerFromContext(ctx).Warn("Attempted to access another user's order", slog.String("orderId", id.String()))
		return nil, appErrors.EntityNotFoundError("Order", "orderId", id)
	}

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, identity models.Identity, page models.PageRequest) ([]*models.Order, int, models.PageRequest, error) {
	return s.listOrders(ctx, identity.Email, page)
}

// ListAllOrders lists every order, or only those of email when it is set.
func (s *orderService) ListAllOrders(ctx context.Context, email string, page models.PageRequest) ([]*models.Order, int, models.PageRequest, error) {
	return s.listOrders(ctx, email, page)
}

func (s *orderService) listOrders(ctx context.Context, email string, page models.PageRequest) ([]*models.Order, int, models.PageRequest, error) {
	page, err := normalizePage(page, models.OrderSortTotalAmount, orderSortFields)
	if err != nil {
		return nil, 0, page, err
	}

	orders := s.store.Repositories().Orders

	var (
		list  []*models.Order
		total int
	)

	if email == "" {
		list, total, err = orders.ListOrders(ctx, page)
	} else {
		list, total, err = orders.ListOrdersByEmail(ctx, email, page)
	}

	if err != nil {
		return nil, 0, page, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return list, total, page, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	logger := middleware.LoggerFromContext(ctx)

	if !status.Valid() {
		return nil, appErrors.BadRequestError(fmt.Sprintf("Unknown order status: %s", status))
	}

	var order *models.Order

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		current, err := repos.Orders.GetOrderByIDForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.EntityNotFoundError("Order", "orderId", id)
		}

		if err != nil {
			return err
		}

		if !current.Status.CanTransitionTo(status) {
			return appErrors.InvalidStateError(fmt.Sprintf("Order %s cannot move from %s to %s", id, current.Status, status))
		}

		if err := repos.Orders.UpdateOrderStatus(ctx, id, status); err != nil {
			return err
		}

		event := models.OrderStatusChangedEvent{OrderID: id, Email: current.Email, From: current.Status, To: status}
		if err := appendEvent(ctx, repos, id, models.EventOrderStatusChanged, event); err != nil {
			return err
		}

		order, err = repos.Orders.GetOrderByID(ctx, id)

		return err
	})
	if err != nil {
		logger.Warn("Order status update failed", slog.String("orderId", id.String()), slog.Any("error", err))
		return nil, storeError(err, "Failed to update order status")
	}

	logger.Info("Order status updated", slog.String("orderId", id.String()), slog.String("status", string(status)))

	return order, nil
}
