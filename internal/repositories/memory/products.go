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
)

type productRepo struct {
	access accessor
	now    func() time.Time
}

func (r *productRepo) CreateProduct(_ context.Context, product *models.Product) error {
	return r.access(func(s *state) error {
		if _, exists := s.products[product.ID]; exists {
			return repository.ErrDuplicate
		}

		now := r.now()
		product.CreatedAt, product.UpdatedAt = now, now
		s.products[product.ID] = *product

		return nil
	})
}

// Transactions are serialized, so the locking reads are plain reads.
func (r *productRepo) GetProductByIDForShare(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.GetProductByID(ctx, id)
}

func (r *productRepo) GetProductByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.GetProductByID(ctx, id)
}

func (r *productRepo) GetProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product

	err := r.access(func(s *state) error {
		p, ok := s.products[id]
		if !ok {
			return repository.ErrNotFound
		}

		product = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepo) UpdateProduct(_ context.Context, product *models.Product) error {
	return r.access(func(s *state) error {
		existing, ok := s.products[product.ID]
		if !ok {
			return repository.ErrNotFound
		}

		product.CreatedAt = existing.CreatedAt
		product.UpdatedAt = r.now()
		s.products[product.ID] = *product

		return nil
	})
}

func (r *productRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	return r.access(func(s *state) error {
		if _, ok := s.products[id]; !ok {
			return repository.ErrNotFound
		}

		delete(s.products, id)

		return nil
	})
}

func (r *productRepo) ListProducts(_ context.Context, page models.PageRequest) ([]*models.Product, int, error) {
	var (
		result []*models.Product
		total  int
	)

	err := r.access(func(s *state) error {
		all := make([]models.Product, 0, len(s.products))
		for _, p := range s.products {
			all = append(all, p)
		}

		slices.SortFunc(all, func(a, b models.Product) int {
			c := compareProducts(a, b, page.SortBy)
			if sortDesc(page.SortOrder) {
				c = -c
			}

			return cmp.Or(c, strings.Compare(a.ID.String(), b.ID.String()))
		})

		total = len(all)
		start, end := pageBounds(total, page)

		result = make([]*models.Product, 0, end-start)
		for i := start; i < end; i++ {
			p := all[i]
			result = append(result, &p)
		}

		return nil
	})

	return result, total, err
}

func compareProducts(a, b models.Product, field string) int {
	switch field {
	case models.ProductSortPrice:
		return a.Price.Cmp(b.Price)
	case models.ProductSortStock:
		return cmp.Compare(a.StockQuantity, b.StockQuantity)
	case models.ProductSortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

func (r *productRepo) CountProducts(_ context.Context) (int64, error) {
	var count int64

	err := r.access(func(s *state) error {
		count = int64(len(s.products))

		return nil
	})

	return count, err
}

type inventoryLedger struct {
	access accessor
	now    func() time.Time
}

func (l *inventoryLedger) Decrement(_ context.Context, productID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, repository.ErrInvalidQuantity
	}

	var remaining int

	err := l.access(func(s *state) error {
		product, ok := s.products[productID]
		if !ok {
			return repository.ErrNotFound
		}

		if product.StockQuantity < quantity {
			return repository.ErrInsufficientStock
		}

		product.StockQuantity -= quantity
		product.UpdatedAt = l.now()
		s.products[productID] = product
		remaining = product.StockQuantity

		return nil
	})

	return remaining, err
}

func (l *inventoryLedger) CheckAvailable(_ context.Context, productID uuid.UUID, quantity int) (bool, error) {
	var available bool

	err := l.access(func(s *state) error {
		product, ok := s.products[productID]
		if !ok {
			return repository.ErrNotFound
		}

		available = product.HasStock(quantity)

		return nil
	})

	return available, err
}
