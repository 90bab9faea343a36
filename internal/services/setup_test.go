package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/repositories/memory"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *memory.Store
	carts     service.CartService
	orders    service.OrderService
	products  service.ProductService
	addresses service.AddressService
}

func newFixture() *fixture {
	store := memory.NewStore()

	return &fixture{
		store:     store,
		carts:     service.NewCartService(store),
		orders:    service.NewOrderService(store),
		products:  service.NewProductService(store, cache.NewNoop()),
		addresses: service.NewAddressService(store.Repositories().Addresses),
	}
}

func newCustomer() models.Identity {
	id := uuid.New()

	return models.Identity{
		UserID: id,
		Email:  fmt.Sprintf("%s@example.com", id.String()[:8]),
		Role:   models.RoleCustomer,
	}
}

func (f *fixture) seedProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:            uuid.New(),
		CategoryName:  "General",
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	require.NoError(t, f.store.Repositories().Products.CreateProduct(t.Context(), product))

	return product
}

func (f *fixture) seedAddress(t *testing.T, identity models.Identity) *models.Address {
	t.Helper()

	address, err := f.addresses.CreateAddress(t.Context(), identity, &models.CreateAddressRequest{
		Street:     "1 Main Street",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	})
	require.NoError(t, err)

	return address
}

func (f *fixture) addToCart(t *testing.T, identity models.Identity, product *models.Product, quantity int) *models.Cart {
	t.Helper()

	cart, err := f.carts.AddItem(t.Context(), identity, &models.AddItemRequest{ProductID: product.ID, Quantity: quantity})
	require.NoError(t, err)

	return cart
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()

	product, err := f.store.Repositories().Products.GetProductByID(t.Context(), id)
	require.NoError(t, err)

	return product.StockQuantity
}

func requireTotal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// mapCache keeps JSON copies in a map, like the Redis cache does.
type mapCache struct {
	entries map[string][]byte
	gets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string, value any) (bool, error) {
	c.gets++

	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}

	return true, json.Unmarshal(data, value)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.entries[key] = data

	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}

	return nil
}

func (c *mapCache) Close() error { return nil }
