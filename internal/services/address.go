package service

import (
	"context"
	"errors"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
)

type AddressService interface {
	CreateAddress(ctx context.Context, identity models.Identity, req *models.CreateAddressRequest) (*models.Address, error)
	GetAddress(ctx context.Context, identity models.Identity, id uuid.UUID) (*models.Address, error)
	ListAddresses(ctx context.Context, identity models.Identity) ([]*models.Address, error)
}

type addressService struct {
	repo repository.AddressRepository
}

func NewAddressService(repo repository.AddressRepository) AddressService {
	return &addressService{repo: repo}
}

func (s *addressService) CreateAddress(ctx context.Context, identity models.Identity, req *models.CreateAddressRequest) (*models.Address, error) {
	address := &models.Address{
		ID:         uuid.New(),
		UserID:     identity.UserID,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}

	if err := s.repo.CreateAddress(ctx, address); err != nil {
		return nil, appErrors.DatabaseError("Failed to create address").WithError(err)
	}

	return address, nil
}

func (s *addressService) GetAddress(ctx context.Context, identity models.Identity, id uuid.UUID) (*models.Address, error) {
	address, err := s.repo.GetAddressByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && address.UserID != identity.UserID) {
		return nil, appErrors.EntityNotFoundError("Address", "addressId", id)
	}

	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch address").WithError(err)
	}

	return address, nil
}

func (s *addressService) ListAddresses(ctx context.Context, identity models.Identity) ([]*models.Address, error) {
	addresses, err := s.repo.ListAddressesByUser(ctx, identity.UserID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch addresses").WithError(err)
	}

	return addresses, nil
}
