package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

// Service manages the customer profile, kept apart from credentials and cart.
type Service interface {
	Get(ctx context.Context, actor pkgAuth.Actor, customerID uuid.UUID) (*CustomerDTO, error)
	UpdateAddress(ctx context.Context, actor pkgAuth.Actor, req UpdateAddressRequest) (*CustomerDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a customers service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, actor pkgAuth.Actor, customerID uuid.UUID) (*CustomerDTO, error) {
	if !actor.IsSelfOrAdmin(customerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot view another customer")
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	return FromModel(customer), nil
}

func (s *service) UpdateAddress(ctx context.Context, actor pkgAuth.Actor, req UpdateAddressRequest) (*CustomerDTO, error) {
	if req.Address.IsZero() {
		return nil, pkgerrors.Invalid("address", "is required")
	}
	if strings.TrimSpace(req.Address.PostalCode) == "" {
		return nil, pkgerrors.Invalid("address.postalCode", "is required")
	}
	affected, err := s.repo.UpdateAddress(ctx, actor.AccountID, req.Address, req.Phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return s.Get(ctx, actor, actor.AccountID)
}
