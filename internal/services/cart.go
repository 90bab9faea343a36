package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartService is the cart mutation engine. Every mutation locks the cart
// row and keeps TotalPrice equal to the sum of the item line totals.
type CartService interface {
	GetCart(ctx context.Context, identity models.Identity) (*models.Cart, error)
	AddItem(ctx context.Context, identity models.Identity, req *models.AddItemRequest) (*models.Cart, error)
	AdjustQuantity(ctx context.Context, identity models.Identity, productID uuid.UUID, req *models.AdjustQuantityRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, identity models.Identity, cartID, productID uuid.UUID) (*models.RemoveItemResponse, error)
	SyncCart(ctx context.Context, identity models.Identity, req *models.SyncCartRequest) (*models.Cart, error)
	ListCarts(ctx context.Context) ([]*models.Cart, error)
}

type cartService struct {
	store repository.Store
}

func NewCartService(store repository.Store) CartService {
	return &cartService{store: store}
}

func (s *cartService) GetCart(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	cart, err := s.store.Repositories().Carts.GetCartByUserID(ctx, identity.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.EntityNotFoundError("Cart", "userId", identity.UserID)
	}

	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, identity models.Identity, req *models.AddItemRequest) (*models.Cart, error) {
	logger := middleware.LoggerFromContext(ctx)

	var cart *models.Cart

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		locked, err := repos.Carts.GetOrCreateCartForUpdate(ctx, identity.UserID, identity.Email)
		if err != nil {
			return err
		}

		product, err := getProduct(ctx, repos.Products.GetProductByIDForShare, req.ProductID)
		if err != nil {
			return err
		}

		if findItem(locked.Items, product.ID) >= 0 {
			return appErrors.ConflictError(fmt.Sprintf("Product %s already exists in the cart", product.Name))
		}

		available, err := repos.Inventory.CheckAvailable(ctx, product.ID, req.Quantity)
		if err != nil {
			return err
		}

		if !available {
			return outOfStock(product, req.Quantity)
		}

		item := &models.CartItem{
			ID:          uuid.New(),
			CartID:      locked.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			Price:       product.Price,
		}

		if err := repos.Carts.AddItem(ctx, item); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.ConflictError(fmt.Sprintf("Product %s already exists in the cart", product.Name))
			}

			return err
		}

		if err := repos.Carts.UpdateTotal(ctx, locked.ID, locked.TotalPrice.Add(item.LineTotal())); err != nil {
			return err
		}

		cart, err = repos.Carts.GetCartByIDForUpdate(ctx, locked.ID)

		return err
	})

	metrics.CartMutation("add", outcomeOf(err))

	if err != nil {
		logger.Warn("Add to cart failed", slog.String("productId", req.ProductID.String()), slog.Any("error", err))
		return nil, storeError(err, "Failed to add item to cart")
	}

	logger.Info("Item added to cart", slog.String("cartId", cart.ID.String()), slog.String("productId", req.ProductID.String()), slog.Int("quantity", req.Quantity))

	return cart, nil
}

// AdjustQuantity applies delta to an existing line. The stock check compares
// the magnitude of delta, not the resulting quantity, with current stock.
func (s *cartService) AdjustQuantity(ctx context.Context, identity models.Identity, productID uuid.UUID, req *models.AdjustQuantityRequest) (*models.Cart, error) {
	logger := middleware.LoggerFromContext(ctx)

	delta := req.ResolvedDelta()
	if delta == 0 {
		return nil, appErrors.BadRequestError("Either a non-zero delta or an operation is required")
	}

	var cart *models.Cart

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		locked, err := repos.Carts.GetCartByUserIDForUpdate(ctx, identity.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.EntityNotFoundError("Cart", "userId", identity.UserID)
		}

		if err != nil {
			return err
		}

		idx := findItem(locked.Items, productID)
		if idx < 0 {
			return appErrors.EntityNotFoundError("Cart item", "productId", productID)
		}

		product, err := getProduct(ctx, repos.Products.GetProductByIDForShare, productID)
		if err != nil {
			return err
		}

		if abs(delta) > product.StockQuantity {
			return outOfStock(product, abs(delta))
		}

		item := locked.Items[idx]

		newQuantity := item.Quantity + delta
		if newQuantity < 0 {
			return appErrors.InvalidStateError(fmt.Sprintf("Quantity of product %s cannot go below zero (have %d, delta %d)", product.Name, item.Quantity, delta))
		}

		total := locked.TotalPrice.Sub(item.LineTotal())

		if newQuantity == 0 {
			if err := repos.Carts.DeleteItem(ctx, locked.ID, productID); err != nil {
				return err
			}
		} else {
			item.Quantity = newQuantity
			item.Price = product.Price
			item.ProductName = product.Name

			if err := repos.Carts.UpdateItem(ctx, &item); err != nil {
				return err
			}

			total = total.Add(item.LineTotal())
		}

		if err := repos.Carts.UpdateTotal(ctx, locked.ID, total); err != nil {
			return err
		}

		cart, err = repos.Carts.GetCartByIDForUpdate(ctx, locked.ID)

		return err
	})

	metrics.CartMutation("adjust", outcomeOf(err))

	if err != nil {
		logger.Warn("Adjust cart item failed", slog.String("productId", productID.String()), slog.Int("delta", delta), slog.Any("error", err))
		return nil, storeError(err, "Failed to update cart item")
	}

	logger.Info("Cart item adjusted", slog.String("cartId", cart.ID.String()), slog.String("productId", productID.String()), slog.Int("delta", delta))

	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, identity models.Identity, cartID, productID uuid.UUID) (*models.RemoveItemResponse, error) {
	logger := middleware.LoggerFromContext(ctx)

	var removed models.CartItem

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		locked, err := repos.Carts.GetCartByIDForUpdate(ctx, cartID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && locked.UserID != identity.UserID) {
			return appErrors.EntityNotFoundError("Cart", "cartId", cartID)
		}

		if err != nil {
			return err
		}

		idx := findItem(locked.Items, productID)
		if idx < 0 {
			return appErrors.ConflictError(fmt.Sprintf("Product %s is not in cart %s", productID, cartID))
		}

		removed = locked.Items[idx]

		return deleteCartItem(ctx, repos, locked, removed)
	})

	metrics.CartMutation("remove", outcomeOf(err))

	if err != nil {
		logger.Warn("Remove cart item failed", slog.String("cartId", cartID.String()), slog.String("productId", productID.String()), slog.Any("error", err))
		return nil, storeError(err, "Failed to remove item from cart")
	}

	logger.Info("Cart item removed", slog.String("cartId", cartID.String()), slog.String("productId", productID.String()))

	return &models.RemoveItemResponse{
		Message: fmt.Sprintf("Product %s removed from the cart", removed.ProductName),
	}, nil
}

// SyncCart replaces every line of the caller's cart with req.Items at current
// catalog prices. Repeated product ids are merged.
func (s *cartService) SyncCart(ctx context.Context, identity models.Identity, req *models.SyncCartRequest) (*models.Cart, error) {
	logger := middleware.LoggerFromContext(ctx)

	wanted := mergeSyncItems(req.Items)

	var cart *models.Cart

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		locked, err := repos.Carts.GetOrCreateCartForUpdate(ctx, identity.UserID, identity.Email)
		if err != nil {
			return err
		}

		products := make([]*models.Product, len(wanted))

		// Products are locked in ascending id order, as checkout does.
		order := make([]int, len(wanted))
		for i := range order {
			order[i] = i
		}
		slices.SortFunc(order, func(a, b int) int {
			return bytes.Compare(wanted[a].ProductID[:], wanted[b].ProductID[:])
		})

		for _, i := range order {
			line := wanted[i]

			product, err := getProduct(ctx, repos.Products.GetProductByIDForShare, line.ProductID)
			if err != nil {
				return err
			}

			if !product.HasStock(line.Quantity) {
				return outOfStock(product, line.Quantity)
			}

			products[i] = product
		}

		if err := repos.Carts.ClearItems(ctx, locked.ID); err != nil {
			return err
		}

		total := decimal.Zero

		for i, line := range wanted {
			item := &models.CartItem{
				ID:          uuid.New(),
				CartID:      locked.ID,
				ProductID:   line.ProductID,
				ProductName: products[i].Name,
				Quantity:    line.Quantity,
				Price:       products[i].Price,
			}

			if err := repos.Carts.AddItem(ctx, item); err != nil {
				return err
			}

			total = total.Add(item.LineTotal())
		}

		if err := repos.Carts.UpdateTotal(ctx, locked.ID, total); err != nil {
			return err
		}

		cart, err = repos.Carts.GetCartByIDForUpdate(ctx, locked.ID)

		return err
	})

	metrics.CartMutation("sync", outcomeOf(err))

	if err != nil {
		logger.Warn("Cart sync failed", slog.Any("error", err))
		return nil, storeError(err, "Failed to sync cart")
	}

	logger.Info("Cart synced", slog.String("cartId", cart.ID.String()), slog.Int("items", len(cart.Items)))

	return cart, nil
}

func (s *cartService) ListCarts(ctx context.Context) ([]*models.Cart, error) {
	carts, err := s.store.Repositories().Carts.ListCarts(ctx)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch carts").WithError(err)
	}

	if len(carts) == 0 {
		return nil, appErrors.NotFoundError("No cart exists")
	}

	return carts, nil
}

// lockCartsHolding locks every cart that holds productID, in ascending id
// order, so that catalog writes take cart locks before the product row.
func lockCartsHolding(ctx context.Context, repos *repository.Repositories, productID uuid.UUID) ([]*models.Cart, error) {
	ids, err := repos.Carts.ListCartIDsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	carts := make([]*models.Cart, 0, len(ids))

	for _, id := range ids {
		cart, err := repos.Carts.GetCartByIDForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		carts = append(carts, cart)
	}

	return carts, nil
}

// resyncCarts rewrites the snapshot of product in each cart and corrects the
// cart total by the difference between the new and old line totals.
func resyncCarts(ctx context.Context, repos *repository.Repositories, carts []*models.Cart, product *models.Product) error {
	for _, cart := range carts {
		idx := findItem(cart.Items, product.ID)
		if idx < 0 {
			continue
		}

		item := cart.Items[idx]
		old := item.LineTotal()

		item.Price = product.Price
		item.ProductName = product.Name

		if err := repos.Carts.UpdateItem(ctx, &item); err != nil {
			return err
		}

		if err := repos.Carts.UpdateTotal(ctx, cart.ID, cart.TotalPrice.Sub(old).Add(item.LineTotal())); err != nil {
			return err
		}
	}

	return nil
}

func removeFromCarts(ctx context.Context, repos *repository.Repositories, carts []*models.Cart, productID uuid.UUID) error {
	for _, cart := range carts {
		idx := findItem(cart.Items, productID)
		if idx < 0 {
			continue
		}

		if err := deleteCartItem(ctx, repos, cart, cart.Items[idx]); err != nil {
			return err
		}
	}

	return nil
}

func deleteCartItem(ctx context.Context, repos *repository.Repositories, cart *models.Cart, item models.CartItem) error {
	if err := repos.Carts.DeleteItem(ctx, cart.ID, item.ProductID); err != nil {
		return err
	}

	return repos.Carts.UpdateTotal(ctx, cart.ID, cart.TotalPrice.Sub(item.LineTotal()))
}

type productGetter func(ctx context.Context, id uuid.UUID) (*models.Product, error)

// getProduct reads through one of the locking getters of ProductRepository.
func getProduct(ctx context.Context, get productGetter, id uuid.UUID) (*models.Product, error) {
	product, err := get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.EntityNotFoundError("Product", "productId", id)
	}

	return product, err
}

func outOfStock(product *models.Product, requested int) error {
	return appErrors.OutOfStockError(fmt.Sprintf("Product %s (%s) has %d in stock, %d requested", product.Name, product.ID, product.StockQuantity, requested))
}

func findItem(items []models.CartItem, productID uuid.UUID) int {
	return slices.IndexFunc(items, func(item models.CartItem) bool { return item.ProductID == productID })
}

func mergeSyncItems(items []models.SyncCartItem) []models.SyncCartItem {
	merged := make([]models.SyncCartItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))

	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}

		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}

	return merged
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
