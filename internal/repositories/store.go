package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/lib/pq"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories groups the stores that share one connection or transaction.
type Repositories struct {
	Products  ProductRepository
	Inventory InventoryLedger
	Carts     CartRepository
	Orders    OrderRepository
	Addresses AddressRepository
	Outbox    OutboxRepository
}

type Store interface {
	// Repositories returns stores bound to the pool, outside of any transaction.
	Repositories() *Repositories
	// WithinTransaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

type postgresStore struct {
	db    *sql.DB
	repos *Repositories
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db, repos: newRepositories(db)}
}

func newRepositories(db DBTX) *Repositories {
	return &Repositories{
		Products:  NewProductRepo(db),
		Inventory: NewInventoryLedger(db),
		Carts:     NewCartRepo(db),
		Orders:    NewOrderRepository(db),
		Addresses: NewAddressRepo(db),
		Outbox:    NewOutboxRepo(db),
	}
}

func (s *postgresStore) Repositories() *Repositories {
	return s.repos
}

func (s *postgresStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false

	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	committed = true

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func sortDirection(order string) string {
	if strings.EqualFold(order, models.SortDesc) {
		return "DESC"
	}

	return "ASC"
}
