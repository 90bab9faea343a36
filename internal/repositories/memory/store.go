// Package memory implements the repository interfaces in process memory.
// It backs the "memory" storage driver and the service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
)

type state struct {
	products   map[uuid.UUID]models.Product
	addresses  map[uuid.UUID]models.Address
	carts      map[uuid.UUID]models.Cart
	cartByUser map[uuid.UUID]uuid.UUID
	cartItems  map[uuid.UUID][]models.CartItem
	orders     map[uuid.UUID]models.Order
	outbox     []models.OutboxEvent
}

func newState() *state {
	return &state{
		products:   make(map[uuid.UUID]models.Product),
		addresses:  make(map[uuid.UUID]models.Address),
		carts:      make(map[uuid.UUID]models.Cart),
		cartByUser: make(map[uuid.UUID]uuid.UUID),
		cartItems:  make(map[uuid.UUID][]models.CartItem),
		orders:     make(map[uuid.UUID]models.Order),
	}
}

// clone copies everything a transaction may mutate in place. Order items
// and payments are immutable and stay shared.
func (s *state) clone() *state {
	c := &state{
		products:   maps.Clone(s.products),
		addresses:  maps.Clone(s.addresses),
		carts:      maps.Clone(s.carts),
		cartByUser: maps.Clone(s.cartByUser),
		cartItems:  make(map[uuid.UUID][]models.CartItem, len(s.cartItems)),
		orders:     maps.Clone(s.orders),
		outbox:     slices.Clone(s.outbox),
	}

	for id, items := range s.cartItems {
		c.cartItems[id] = slices.Clone(items)
	}

	return c
}

// Store serializes every transaction behind one mutex and applies a
// transaction's writes only when it commits.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

// Repositories returns stores that lock per call. Do not use them from
// inside WithinTransaction; use the repositories handed to fn instead.
func (s *Store) Repositories() *repository.Repositories {
	return s.bind(func(fn func(*state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		return fn(s.state)
	})
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.state.clone()

	repos := s.bind(func(apply func(*state) error) error {
		return apply(tx)
	})

	if err := fn(ctx, repos); err != nil {
		return err
	}

	s.state = tx

	return nil
}

type accessor func(fn func(*state) error) error

func (s *Store) bind(access accessor) *repository.Repositories {
	return &repository.Repositories{
		Products:  &productRepo{access: access, now: s.now},
		Inventory: &inventoryLedger{access: access, now: s.now},
		Carts:     &cartRepo{access: access, now: s.now},
		Orders:    &orderRepo{access: access, now: s.now},
		Addresses: &addressRepo{access: access, now: s.now},
		Outbox:    &outboxRepo{access: access, now: s.now},
	}
}

func sortDesc(order string) bool {
	return strings.EqualFold(order, models.SortDesc)
}

func pageBounds(total int, page models.PageRequest) (int, int) {
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	return start, end
}
