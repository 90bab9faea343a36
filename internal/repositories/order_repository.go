package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderRepository is the append-only order ledger. Only the status column
// of an order is ever updated.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, email, key string) (*models.Order, error)
	ListOrdersByEmail(ctx context.Context, email string, page models.PageRequest) ([]*models.Order, int, error)
	ListOrders(ctx context.Context, page models.PageRequest) ([]*models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	CountOrders(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
}

var orderSortColumns = map[string]string{
	models.OrderSortTotalAmount: "o.total_amount",
	models.OrderSortOrderDate:   "o.order_date",
	models.OrderSortStatus:      "o.status",
	models.OrderSortEmail:       "o.email",
}

const orderSelect = `
	SELECT o.id, o.email, o.order_date, o.address_id, o.total_amount, o.status, COALESCE(o.idempotency_key, ''), o.created_at, o.updated_at,
	       p.id, p.payment_method, p.pg_name, p.pg_payment_id, p.pg_status, p.pg_response_message, p.created_at
	FROM orders o
	JOIN payments p ON p.order_id = o.id
`

type orderRepository struct {
	DB DBTX
}

func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{DB: db}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{Payment: &models.Payment{}}
	payment := order.Payment

	err := row.Scan(
		&order.ID, &order.Email, &order.OrderDate, &order.AddressID, &order.TotalAmount, &order.Status, &order.IdempotencyKey, &order.CreatedAt, &order.UpdatedAt,
		&payment.ID, &payment.PaymentMethod, &payment.PGName, &payment.PGPaymentID, &payment.PGStatus, &payment.PGResponseMessage, &payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.OrderID = order.ID
	order.Items = []models.OrderItem{}

	return order, nil
}

// CreateOrder writes the order, its payment and its items. Run it inside a
// transaction so the three land together.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO orders (id, email, order_date, address_id, total_amount, status, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, order.ID, order.Email, order.OrderDate, order.AddressID, order.TotalAmount, order.Status, nullString(order.IdempotencyKey)).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}

	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if order.Payment != nil {
		payment := order.Payment

		query = `
			INSERT INTO payments (id, order_id, payment_method, pg_name, pg_payment_id, pg_status, pg_response_message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING created_at
		`

		err = r.DB.QueryRowContext(dbCtx, query, payment.ID, order.ID, payment.PaymentMethod, payment.PGName, payment.PGPaymentID, payment.PGStatus, payment.PGResponseMessage).
			Scan(&payment.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}

	query = `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	for i := range order.Items {
		item := &order.Items[i]

		err = r.DB.QueryRowContext(dbCtx, query, item.ID, order.ID, item.ProductID, item.ProductName, item.Quantity, item.Price).Scan(&item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

func (r *orderRepository) getOrder(ctx context.Context, query string, args ...any) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}

	if err := r.attachItems(dbCtx, []*models.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.getOrder(ctx, orderSelect+` WHERE o.id = $1`, id)
}

func (r *orderRepository) GetOrderByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.getOrder(ctx, orderSelect+` WHERE o.id = $1 FOR UPDATE OF o`, id)
}

func (r *orderRepository) GetOrderByIdempotencyKey(ctx context.Context, email, key string) (*models.Order, error) {
	return r.getOrder(ctx, orderSelect+` WHERE o.email = $1 AND o.idempotency_key = $2`, email, key)
}

func (r *orderRepository) ListOrdersByEmail(ctx context.Context, email string, page models.PageRequest) ([]*models.Order, int, error) {
	return r.listOrders(ctx, page, `WHERE o.email = $1`, email)
}

func (r *orderRepository) ListOrders(ctx context.Context, page models.PageRequest) ([]*models.Order, int, error) {
	return r.listOrders(ctx, page, "")
}

func (r *orderRepository) listOrders(ctx context.Context, page models.PageRequest, where string, args ...any) ([]*models.Order, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders o `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	column, ok := orderSortColumns[page.SortBy]
	if !ok {
		column = orderSortColumns[models.OrderSortTotalAmount]
	}

	n := len(args)
	query := fmt.Sprintf(`%s %s ORDER BY %s %s, o.id LIMIT $%d OFFSET $%d`, orderSelect, where, column, sortDirection(page.SortOrder), n+1, n+2)

	rows, err := r.DB.QueryContext(dbCtx, query, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	orders := []*models.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}

		orders = append(orders, order)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachItems(dbCtx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// attachItems loads the items of all given orders in one query.
func (r *orderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*models.Order, len(orders))

	for i, order := range orders {
		ids[i] = order.ID.String()
		byID[order.ID] = order
	}

	query := `
		SELECT id, order_id, product_id, product_name, quantity, price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id
	`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("querying order items: %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem

		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.CreatedAt); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}

		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	return rows.Err()
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	return expectAffected(result)
}

func (r *orderRepository) CountOrders(ctx context.Context) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var count int64

	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}

	return count, nil
}

func (r *orderRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var revenue decimal.Decimal

	if err := r.DB.QueryRowContext(dbCtx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders`).Scan(&revenue); err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}

	return revenue, nil
}
