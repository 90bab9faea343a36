package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartRepository is the cart store. The ForUpdate variants lock the cart
// row until the surrounding transaction ends and must run inside one.
type CartRepository interface {
	GetOrCreateCartForUpdate(ctx context.Context, userID uuid.UUID, email string) (*models.Cart, error)
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetCartByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetCartByIDForUpdate(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	ListCarts(ctx context.Context) ([]*models.Cart, error)
	ListCartIDsByProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
	AddItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	UpdateTotal(ctx context.Context, cartID uuid.UUID, total decimal.Decimal) error
}

const cartColumns = `id, user_id, email, total_price, created_at, updated_at`

type cartRepository struct {
	DB DBTX
}

func NewCartRepo(db DBTX) CartRepository {
	return &cartRepository{DB: db}
}

func scanCart(row rowScanner) (*models.Cart, error) {
	cart := &models.Cart{}

	if err := row.Scan(&cart.ID, &cart.UserID, &cart.Email, &cart.TotalPrice, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, err
	}

	return cart, nil
}

// getCart loads one cart header by query and then its items.
func (r *cartRepository) getCart(ctx context.Context, query string, arg any) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	cart, err := scanCart(r.DB.QueryRowContext(dbCtx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("querying cart: %w", err)
	}

	if cart.Items, err = r.loadItems(dbCtx, cart.ID); err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *cartRepository) loadItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, product_name, quantity, price, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, id
	`

	rows, err := r.DB.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("querying cart items: %w", err)
	}

	defer rows.Close()

	items := []models.CartItem{}

	for rows.Next() {
		var item models.CartItem

		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *cartRepository) GetOrCreateCartForUpdate(ctx context.Context, userID uuid.UUID, email string) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	insert := `
		INSERT INTO carts (id, user_id, email, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.DB.ExecContext(dbCtx, insert, uuid.New(), userID, email); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return r.GetCartByUserIDForUpdate(ctx, userID)
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.getCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
}

func (r *cartRepository) GetCartByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.getCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *cartRepository) GetCartByIDForUpdate(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	return r.getCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1 FOR UPDATE`, cartID)
}

func (r *cartRepository) ListCarts(ctx context.Context) ([]*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.DB.QueryContext(dbCtx, `SELECT `+cartColumns+` FROM carts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}

	var carts []*models.Cart

	for rows.Next() {
		cart, err := scanCart(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart: %w", err)
		}

		carts = append(carts, cart)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, cart := range carts {
		if cart.Items, err = r.loadItems(dbCtx, cart.ID); err != nil {
			return nil, err
		}
	}

	return carts, nil
}

func (r *cartRepository) ListCartIDsByProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.DB.QueryContext(dbCtx, `SELECT cart_id FROM cart_items WHERE product_id = $1 ORDER BY cart_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list carts by product: %w", err)
	}

	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID

		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cart id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *cartRepository) AddItem(ctx context.Context, item *models.CartItem) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_items (id, cart_id, product_id, product_name, quantity, price, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING added_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, item.ID, item.CartID, item.ProductID, item.ProductName, item.Quantity, item.Price).Scan(&item.AddedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}

	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE cart_items SET quantity = $1, price = $2, product_name = $3 WHERE cart_id = $4 AND product_id = $5`

	result, err := r.DB.ExecContext(dbCtx, query, item.Quantity, item.Price, item.ProductName, item.CartID, item.ProductID)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}

	return expectAffected(result)
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	return expectAffected(result)
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := r.DB.ExecContext(dbCtx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	return nil
}

func (r *cartRepository) UpdateTotal(ctx context.Context, cartID uuid.UUID, total decimal.Decimal) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE carts SET total_price = $1, updated_at = NOW() WHERE id = $2`, total, cartID)
	if err != nil {
		return fmt.Errorf("update cart total: %w", err)
	}

	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
