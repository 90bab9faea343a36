package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem holds the unit price captured when the product was put in the cart.
// Only an explicit catalog resync rewrites Price.
type CartItem struct {
	ID          uuid.UUID       `json:"id"`
	CartID      uuid.UUID       `json:"cart_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	AddedAt     time.Time       `json:"added_at"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Email      string          `json:"email"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []CartItem      `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ItemTotal sums the line totals of the loaded items.
func (c *Cart) ItemTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}

	return total
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// AdjustQuantityRequest accepts either an explicit delta or the
// operation shorthand ("add" is +1, "delete" is -1).
type AdjustQuantityRequest struct {
	Delta     int    `json:"delta"`
	Operation string `json:"operation,omitempty" validate:"omitempty,oneof=add delete"`
}

func (r AdjustQuantityRequest) ResolvedDelta() int {
	if r.Delta != 0 {
		return r.Delta
	}

	switch r.Operation {
	case "add":
		return 1
	case "delete":
		return -1
	}

	return 0
}

type SyncCartItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type SyncCartRequest struct {
	Items []SyncCartItem `json:"items" validate:"dive"`
}

type RemoveItemResponse struct {
	Message string `json:"message"`
}
