package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, page models.PageRequest) ([]*models.Product, int, models.PageRequest, error)
}

type productService struct {
	store repository.Store
	cache cache.Cache
}

func NewProductService(store repository.Store, c cache.Cache) ProductService {
	return &productService{store: store, cache: c}
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if req.Price.IsNegative() {
		return nil, appErrors.AddValidationError("price", "must not be negative")
	}

	product := &models.Product{
		ID:            uuid.New(),
		CategoryName:  req.CategoryName,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}

	if err := s.store.Repositories().Products.CreateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to create product").WithError(err)
	}

	s.invalidate(ctx, cache.AnalyticsKey)

	return product, nil
}

// GetProductByID reads through the cache. Cache failures fall back to the store.
func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	logger := middleware.LoggerFromContext(ctx)
	key := cache.ProductKey(id)

	var cached models.Product

	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Product cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	if found {
		return &cached, nil
	}

	product, err := s.store.Repositories().Products.GetProductByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.EntityNotFoundError("Product", "productId", id)
	}

	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if err := s.cache.Set(ctx, key, product, 0); err != nil {
		logger.Warn("Product cache write failed", slog.String("key", key), slog.Any("error", err))
	}

	return product, nil
}

// UpdateProduct applies the patch and resyncs the snapshot in every cart
// holding the product, in one transaction.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	if req.Price != nil && req.Price.IsNegative() {
		return nil, appErrors.AddValidationError("price", "must not be negative")
	}

	var product *models.Product

	err := s.withCatalogLock(ctx, id, func(ctx context.Context, repos *repository.Repositories, carts []*models.Cart, locked *models.Product) error {
		if req.CategoryName != nil {
			locked.CategoryName = *req.CategoryName
		}
		if req.Name != nil {
			locked.Name = *req.Name
		}
		if req.Description != nil {
			locked.Description = *req.Description
		}
		if req.Price != nil {
			locked.Price = *req.Price
		}
		if req.StockQuantity != nil {
			locked.StockQuantity = *req.StockQuantity
		}

		if err := repos.Products.UpdateProduct(ctx, locked); err != nil {
			return err
		}

		product = locked

		return resyncCarts(ctx, repos, carts, locked)
	})
	if err != nil {
		return nil, storeError(err, "Failed to update product")
	}

	s.invalidate(ctx, cache.ProductKey(id))
	middleware.LoggerFromContext(ctx).Info("Product updated", slog.String("productId", id.String()))

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.withCatalogLock(ctx, id, func(ctx context.Context, repos *repository.Repositories, carts []*models.Cart, _ *models.Product) error {
		if err := removeFromCarts(ctx, repos, carts, id); err != nil {
			return err
		}

		err := repos.Products.DeleteProduct(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.EntityNotFoundError("Product", "productId", id)
		}

		return err
	})
	if err != nil {
		return storeError(err, "Failed to delete product")
	}

	s.invalidate(ctx, cache.ProductKey(id), cache.AnalyticsKey)
	middleware.LoggerFromContext(ctx).Info("Product deleted", slog.String("productId", id.String()))

	return nil
}

const catalogWriteAttempts = 3

var errCartSetChanged = errors.New("carts holding the product changed")

// withCatalogLock runs fn in a transaction holding the carts that contain
// the product and then the product row itself. Cart mutations read products
// with a share lock, so once the product lock is held no new cart can pick
// up the old price. A cart that did so while the lock was awaited cannot be
// locked now without taking a cart after a product; the transaction is
// rolled back and retried instead.
func (s *productService) withCatalogLock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, repos *repository.Repositories, carts []*models.Cart, product *models.Product) error) error {
	var err error

	for attempt := 1; attempt <= catalogWriteAttempts; attempt++ {
		err = s.store.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
			carts, err := lockCartsHolding(ctx, repos, id)
			if err != nil {
				return err
			}

			product, err := getProduct(ctx, repos.Products.GetProductByIDForUpdate, id)
			if err != nil {
				return err
			}

			if err := ensureCartsLocked(ctx, repos, id, carts); err != nil {
				return err
			}

			return fn(ctx, repos, carts, product)
		})
		if !errors.Is(err, errCartSetChanged) {
			return err
		}

		if attempt < catalogWriteAttempts {
			middleware.LoggerFromContext(ctx).Warn("Retrying catalog write", slog.String("productId", id.String()), slog.Int("attempt", attempt))
		}
	}

	return appErrors.ConflictError(fmt.Sprintf("Product %s is being added to carts, retry the request", id)).WithError(err)
}

func ensureCartsLocked(ctx context.Context, repos *repository.Repositories, productID uuid.UUID, locked []*models.Cart) error {
	ids, err := repos.Carts.ListCartIDsByProduct(ctx, productID)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if !slices.ContainsFunc(locked, func(c *models.Cart) bool { return c.ID == id }) {
			return errCartSetChanged
		}
	}

	return nil
}

func (s *productService) ListProducts(ctx context.Context, page models.PageRequest) ([]*models.Product, int, models.PageRequest, error) {
	page, err := normalizePage(page, models.ProductSortName, productSortFields)
	if err != nil {
		return nil, 0, page, err
	}

	products, total, err := s.store.Repositories().Products.ListProducts(ctx, page)
	if err != nil {
		return nil, 0, page, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, page, nil
}

func (s *productService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Cache invalidation failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}
