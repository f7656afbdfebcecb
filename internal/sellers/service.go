package sellers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox/payloads"
)

// Service exposes seller administration and shop settings.
type Service interface {
	ListPending(ctx context.Context) ([]SellerDTO, error)
	Approve(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID) (*SellerDTO, error)
	SetCustomization(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID, enabled *bool) (*SellerDTO, error)
	ListCustomizable(ctx context.Context) ([]SellerDTO, error)
	Stats(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID) (*Stats, error)
}

// ServiceParams bundles the dependencies required to build a sellers service.
type ServiceParams struct {
	DB     *db.Client
	Repo   *Repository
	Outbox outbox.Emitter
}

type service struct {
	db     *db.Client
	repo   *Repository
	outbox outbox.Emitter
}

// NewService constructs a sellers service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{db: params.DB, repo: params.Repo, outbox: params.Outbox}, nil
}

func (s *service) ListPending(ctx context.Context) ([]SellerDTO, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending sellers")
	}
	return FromModels(rows), nil
}

func (s *service) Approve(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID) (*SellerDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	var out *SellerDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		seller, err := txRepo.FindByID(ctx, sellerID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
		}
		if seller.Approved {
			out = FromModel(seller)
			return nil
		}
		if _, err := txRepo.SetApproved(ctx, sellerID, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve seller")
		}
		seller.Approved = true

		event := outbox.DomainEvent{
			EventType:     enums.EventSellerApproved,
			AggregateType: enums.AggregateSeller,
			AggregateID:   seller.ID,
			Actor:         &outbox.ActorRef{AccountID: actor.AccountID, Role: actor.Role},
			Data:          payloads.SellerApprovedEvent{SellerID: seller.ID, ShopName: seller.ShopName},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit seller approved")
		}
		out = FromModel(seller)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) SetCustomization(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID, enabled *bool) (*SellerDTO, error) {
	if !actor.IsSelfOrAdmin(sellerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot change another seller's settings")
	}
	seller, err := s.repo.FindByID(ctx, sellerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}

	next := !seller.CustomizationEnabled
	if enabled != nil {
		next = *enabled
	}
	if _, err := s.repo.SetCustomization(ctx, sellerID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update customization")
	}
	seller.CustomizationEnabled = next
	return FromModel(seller), nil
}

func (s *service) ListCustomizable(ctx context.Context) ([]SellerDTO, error) {
	rows, err := s.repo.ListCustomizable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customizable sellers")
	}
	return FromModels(rows), nil
}

func (s *service) Stats(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID) (*Stats, error) {
	if !actor.IsSelfOrAdmin(sellerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot view another seller's stats")
	}
	if _, err := s.repo.FindByID(ctx, sellerID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}
	stats, err := s.repo.Stats(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seller stats")
	}
	return stats, nil
}
