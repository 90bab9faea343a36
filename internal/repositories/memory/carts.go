package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// cartRepo ignores the ForUpdate distinction: the store mutex already
// serializes every transaction.
type cartRepo struct {
	access accessor
	now    func() time.Time
}

func (s *state) loadCart(id uuid.UUID) (*models.Cart, bool) {
	cart, ok := s.carts[id]
	if !ok {
		return nil, false
	}

	cart.Items = slices.Clone(s.cartItems[id])
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	return &cart, true
}

func (r *cartRepo) byUser(userID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart

	err := r.access(func(s *state) error {
		id, ok := s.cartByUser[userID]
		if !ok {
			return repository.ErrNotFound
		}

		cart, _ = s.loadCart(id)

		return nil
	})

	return cart, err
}

func (r *cartRepo) GetOrCreateCartForUpdate(_ context.Context, userID uuid.UUID, email string) (*models.Cart, error) {
	var cart *models.Cart

	err := r.access(func(s *state) error {
		id, ok := s.cartByUser[userID]
		if !ok {
			now := r.now()
			id = uuid.New()
			s.carts[id] = models.Cart{ID: id, UserID: userID, Email: email, TotalPrice: decimal.Zero, CreatedAt: now, UpdatedAt: now}
			s.cartByUser[userID] = id
		}

		cart, _ = s.loadCart(id)

		return nil
	})

	return cart, err
}

func (r *cartRepo) GetCartByUserID(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.byUser(userID)
}

func (r *cartRepo) GetCartByUserIDForUpdate(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.byUser(userID)
}

func (r *cartRepo) GetCartByIDForUpdate(_ context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart

	err := r.access(func(s *state) error {
		c, ok := s.loadCart(cartID)
		if !ok {
			return repository.ErrNotFound
		}

		cart = c

		return nil
	})

	return cart, err
}

func (r *cartRepo) ListCarts(_ context.Context) ([]*models.Cart, error) {
	var carts []*models.Cart

	err := r.access(func(s *state) error {
		for id := range s.carts {
			cart, _ := s.loadCart(id)
			carts = append(carts, cart)
		}

		return nil
	})

	slices.SortFunc(carts, func(a, b *models.Cart) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})

	return carts, err
}

func (r *cartRepo) ListCartIDsByProduct(_ context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	err := r.access(func(s *state) error {
		for cartID, items := range s.cartItems {
			if slices.ContainsFunc(items, func(i models.CartItem) bool { return i.ProductID == productID }) {
				ids = append(ids, cartID)
			}
		}

		return nil
	})

	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	return ids, err
}

func (r *cartRepo) AddItem(_ context.Context, item *models.CartItem) error {
	return r.access(func(s *state) error {
		if _, ok := s.carts[item.CartID]; !ok {
			return repository.ErrNotFound
		}

		if indexOfProduct(s.cartItems[item.CartID], item.ProductID) >= 0 {
			return repository.ErrDuplicate
		}

		item.AddedAt = r.now()
		s.cartItems[item.CartID] = append(s.cartItems[item.CartID], *item)

		return nil
	})
}

func (r *cartRepo) UpdateItem(_ context.Context, item *models.CartItem) error {
	return r.access(func(s *state) error {
		items := s.cartItems[item.CartID]

		i := indexOfProduct(items, item.ProductID)
		if i < 0 {
			return repository.ErrNotFound
		}

		items[i].Quantity = item.Quantity
		items[i].Price = item.Price
		items[i].ProductName = item.ProductName

		return nil
	})
}

func (r *cartRepo) DeleteItem(_ context.Context, cartID, productID uuid.UUID) error {
	return r.access(func(s *state) error {
		items := s.cartItems[cartID]

		i := indexOfProduct(items, productID)
		if i < 0 {
			return repository.ErrNotFound
		}

		s.cartItems[cartID] = slices.Delete(items, i, i+1)

		return nil
	})
}

func (r *cartRepo) ClearItems(_ context.Context, cartID uuid.UUID) error {
	return r.access(func(s *state) error {
		delete(s.cartItems, cartID)

		return nil
	})
}

func (r *cartRepo) UpdateTotal(_ context.Context, cartID uuid.UUID, total decimal.Decimal) error {
	return r.access(func(s *state) error {
		cart, ok := s.carts[cartID]
		if !ok {
			return repository.ErrNotFound
		}

		cart.TotalPrice = total
		cart.UpdatedAt = r.now()
		s.carts[cartID] = cart

		return nil
	})
}

func indexOfProduct(items []models.CartItem, productID uuid.UUID) int {
	return slices.IndexFunc(items, func(i models.CartItem) bool { return i.ProductID == productID })
}
