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

type addressRepo struct {
	access accessor
	now    func() time.Time
}

func (r *addressRepo) CreateAddress(_ context.Context, address *models.Address) error {
	return r.access(func(s *state) error {
		if _, exists := s.addresses[address.ID]; exists {
			return repository.ErrDuplicate
		}

		address.CreatedAt = r.now()
		s.addresses[address.ID] = *address

		return nil
	})
}

func (r *addressRepo) GetAddressByID(_ context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address

	err := r.access(func(s *state) error {
		a, ok := s.addresses[id]
		if !ok {
			return repository.ErrNotFound
		}

		address = a

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &address, nil
}

func (r *addressRepo) ListAddressesByUser(_ context.Context, userID uuid.UUID) ([]*models.Address, error) {
	addresses := []*models.Address{}

	err := r.access(func(s *state) error {
		for _, a := range s.addresses {
			if a.UserID == userID {
				address := a
				addresses = append(addresses, &address)
			}
		}

		return nil
	})

	slices.SortFunc(addresses, func(a, b *models.Address) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})

	return addresses, err
}
