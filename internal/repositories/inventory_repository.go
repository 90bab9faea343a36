package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

// InventoryLedger owns product stock counts. Stock never goes below zero.
type InventoryLedger interface {
	// Decrement subtracts quantity and returns the remaining stock.
	// It fails with ErrInsufficientStock instead of going negative.
	Decrement(ctx context.Context, productID uuid.UUID, quantity int) (int, error)
	CheckAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
}

type inventoryLedger struct {
	DB DBTX
}

func NewInventoryLedger(db DBTX) InventoryLedger {
	return &inventoryLedger{DB: db}
}

func (r *inventoryLedger) Decrement(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	// The row lock taken by UPDATE makes concurrent decrements re-check the predicate.
	query := `
		UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1
		RETURNING stock_quantity
	`

	var remaining int

	err := r.DB.QueryRowContext(dbCtx, query, quantity, productID).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	var exists bool

	if err := r.DB.QueryRowContext(dbCtx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check product existence: %w", err)
	}

	if !exists {
		return 0, ErrNotFound
	}

	return 0, ErrInsufficientStock
}

func (r *inventoryLedger) CheckAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var stock int

	err := r.DB.QueryRowContext(dbCtx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}

	if err != nil {
		return false, fmt.Errorf("read stock: %w", err)
	}

	return quantity > 0 && quantity <= stock, nil
}
