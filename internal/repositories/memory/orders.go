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

type orderRepo struct {
	access accessor
	now    func() time.Time
}

// copyOrder detaches the returned order from the stored one.
func copyOrder(o models.Order) *models.Order {
	o.Items = slices.Clone(o.Items)

	if o.Payment != nil {
		payment := *o.Payment
		o.Payment = &payment
	}

	return &o
}

func (r *orderRepo) CreateOrder(_ context.Context, order *models.Order) error {
	return r.access(func(s *state) error {
		if _, exists := s.orders[order.ID]; exists {
			return repository.ErrDuplicate
		}

		if order.IdempotencyKey != "" {
			for _, o := range s.orders {
				if o.Email == order.Email && o.IdempotencyKey == order.IdempotencyKey {
					return repository.ErrDuplicate
				}
			}
		}

		now := r.now()
		order.CreatedAt, order.UpdatedAt = now, now

		if order.Payment != nil {
			order.Payment.OrderID = order.ID
			order.Payment.CreatedAt = now
		}

		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			order.Items[i].CreatedAt = now
		}

		s.orders[order.ID] = *copyOrder(*order)

		return nil
	})
}

func (r *orderRepo) get(match func(models.Order) bool) (*models.Order, error) {
	var order *models.Order

	err := r.access(func(s *state) error {
		for _, o := range s.orders {
			if match(o) {
				order = copyOrder(o)

				return nil
			}
		}

		return repository.ErrNotFound
	})

	return order, err
}

func (r *orderRepo) GetOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(func(o models.Order) bool { return o.ID == id })
}

func (r *orderRepo) GetOrderByIDForUpdate(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(func(o models.Order) bool { return o.ID == id })
}

func (r *orderRepo) GetOrderByIdempotencyKey(_ context.Context, email, key string) (*models.Order, error) {
	return r.get(func(o models.Order) bool { return o.Email == email && o.IdempotencyKey == key })
}

func (r *orderRepo) ListOrdersByEmail(_ context.Context, email string, page models.PageRequest) ([]*models.Order, int, error) {
	return r.list(page, func(o models.Order) bool { return o.Email == email })
}

func (r *orderRepo) ListOrders(_ context.Context, page models.PageRequest) ([]*models.Order, int, error) {
	return r.list(page, func(models.Order) bool { return true })
}

func (r *orderRepo) list(page models.PageRequest, match func(models.Order) bool) ([]*models.Order, int, error) {
	var (
		result []*models.Order
		total  int
	)

	err := r.access(func(s *state) error {
		var matched []models.Order

		for _, o := range s.orders {
			if match(o) {
				matched = append(matched, o)
			}
		}

		slices.SortFunc(matched, func(a, b models.Order) int {
			c := compareOrders(a, b, page.SortBy)
			if sortDesc(page.SortOrder) {
				c = -c
			}

			return cmp.Or(c, strings.Compare(a.ID.String(), b.ID.String()))
		})

		total = len(matched)
		start, end := pageBounds(total, page)

		result = make([]*models.Order, 0, end-start)
		for i := start; i < end; i++ {
			result = append(result, copyOrder(matched[i]))
		}

		return nil
	})

	return result, total, err
}

func compareOrders(a, b models.Order, field string) int {
	switch field {
	case models.OrderSortOrderDate:
		return a.OrderDate.Compare(b.OrderDate)
	case models.OrderSortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case models.OrderSortEmail:
		return strings.Compare(a.Email, b.Email)
	default:
		return a.TotalAmount.Cmp(b.TotalAmount)
	}
}

func (r *orderRepo) UpdateOrderStatus(_ context.Context, id uuid.UUID, status models.OrderStatus) error {
	return r.access(func(s *state) error {
		order, ok := s.orders[id]
		if !ok {
			return repository.ErrNotFound
		}

		order.Status = status
		order.UpdatedAt = r.now()
		s.orders[id] = order

		return nil
	})
}

func (r *orderRepo) CountOrders(_ context.Context) (int64, error) {
	var count int64

	err := r.access(func(s *state) error {
		count = int64(len(s.orders))

		return nil
	})

	return count, err
}

func (r *orderRepo) TotalRevenue(_ context.Context) (decimal.Decimal, error) {
	revenue := decimal.Zero

	err := r.access(func(s *state) error {
		for _, o := range s.orders {
			revenue = revenue.Add(o.TotalAmount)
		}

		return nil
	})

	return revenue, err
}
