package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type AddressRepository interface {
	CreateAddress(ctx context.Context, address *models.Address) error
	GetAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListAddressesByUser(ctx context.Context, userID uuid.UUID) ([]*models.Address, error)
}

const addressColumns = `id, user_id, street, city, state, postal_code, country, created_at`

type addressRepository struct {
	DB DBTX
}

func NewAddressRepo(db DBTX) AddressRepository {
	return &addressRepository{DB: db}
}

func scanAddress(row rowScanner) (*models.Address, error) {
	address := &models.Address{}

	if err := row.Scan(&address.ID, &address.UserID, &address.Street, &address.City, &address.State, &address.PostalCode, &address.Country, &address.CreatedAt); err != nil {
		return nil, err
	}

	return address, nil
}

func (r *addressRepository) CreateAddress(ctx context.Context, address *models.Address) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO addresses (id, user_id, street, city, state, postal_code, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, address.ID, address.UserID, address.Street, address.City, address.State, address.PostalCode, address.Country).Scan(&address.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return nil
}

func (r *addressRepository) GetAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	address, err := scanAddress(r.DB.QueryRowContext(dbCtx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("querying address: %w", err)
	}

	return address, nil
}

func (r *addressRepository) ListAddressesByUser(ctx context.Context, userID uuid.UUID) ([]*models.Address, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.DB.QueryContext(dbCtx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	defer rows.Close()

	addresses := []*models.Address{}

	for rows.Next() {
		address, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}

		addresses = append(addresses, address)
	}

	return addresses, rows.Err()
}
