package customorders

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/internal/media"
	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type sellerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
}

type imageUploader interface {
	UploadImage(ctx context.Context, actor pkgAuth.Actor, kind media.Kind, body io.Reader) (*media.Upload, error)
	Discard(ctx context.Context, object string) error
}

// Service manages bespoke pottery requests between customers and sellers.
type Service interface {
	Submit(ctx context.Context, actor pkgAuth.Actor, req SubmitRequest, image io.Reader) (*RequestDTO, error)
	Decide(ctx context.Context, actor pkgAuth.Actor, requestID uuid.UUID, req DecideRequest) (*DecisionDTO, error)
	ListPending(ctx context.Context, actor pkgAuth.Actor) ([]RequestDTO, error)
	ListPriced(ctx context.Context, actor pkgAuth.Actor) ([]RequestDTO, error)
}

// ServiceParams bundles the custom request service dependencies.
type ServiceParams struct {
	DB      txRunner
	Repo    *Repository
	Sellers sellerLoader
	Media   imageUploader
	Outbox  outboxPublisher
	Logger  *logger.Logger
}

type service struct {
	tx      txRunner
	repo    *Repository
	sellers sellerLoader
	media   imageUploader
	outbox  outboxPublisher
	logg    *logger.Logger
}

// NewService constructs the custom request service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("custom request repository required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("seller loader required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:      params.DB,
		repo:    params.Repo,
		sellers: params.Sellers,
		media:   params.Media,
		outbox:  params.Outbox,
		logg:    logg,
	}, nil
}

func (s *service) Submit(ctx context.Context, actor pkgAuth.Actor, req SubmitRequest, image io.Reader) (*RequestDTO, error) {
	if actor.Role != enums.AccountRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can request custom pottery")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, pkgerrors.Invalid("description", "is required")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, pkgerrors.Invalid("email", "is required")
	}
	if req.SellerID == uuid.Nil {
		return nil, pkgerrors.Invalid("sellerId", "is required")
	}

	vendor, err := s.sellers.FindByID(ctx, req.SellerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor")
	}
	if vendor.Role != enums.AccountRoleSeller || !vendor.Approved || !vendor.CustomizationEnabled {
		return nil, pkgerrors.Invalid("sellerId", "vendor is not accepting custom requests")
	}

	request := &models.CustomPotteryRequest{
		ID:             uuid.New(),
		CustomerID:     actor.AccountID,
		RequesterEmail: email,
		Description:    description,
		SellerID:       vendor.ID,
		Status:         enums.CustomRequestStatusPending,
		Price:          decimal.Zero,
	}
	var uploaded string
	if image != nil {
		upload, err := s.media.UploadImage(ctx, actor, media.KindCustomRequestImage, image)
		if err != nil {
			return nil, err
		}
		uploaded = upload.Object
		request.ImageURL = &upload.URL
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create custom request")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCustomRequestSubmitted,
			AggregateType: enums.AggregateCustomRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{AccountID: actor.AccountID, Role: actor.Role},
			Data: payloads.CustomRequestSubmittedEvent{
				RequestID:  request.ID,
				SellerID:   request.SellerID,
				CustomerID: request.CustomerID,
				HasImage:   request.ImageURL != nil,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit custom request submitted")
		}
		return nil
	})
	if err != nil {
		if uploaded != "" {
			s.discard(ctx, uploaded)
		}
		return nil, err
	}
	out := FromModel(request)
	return &out, nil
}

func (s *service) discard(ctx context.Context, object string) {
	if err := s.media.Discard(context.WithoutCancel(ctx), object); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "object", object), "custom_request.image_discard_failed", err)
	}
}

// resolveDecision maps the requested status onto priced or rejected.
func resolveDecision(req DecideRequest) (enums.CustomRequestStatus, decimal.Decimal, error) {
	if strings.EqualFold(strings.TrimSpace(req.Status), string(enums.CustomRequestStatusPriced)) {
		if !req.Price.IsPositive() {
			return "", decimal.Zero, pkgerrors.Invalid("price", "must be greater than 0")
		}
		return enums.CustomRequestStatusPriced, req.Price.Round(2), nil
	}
	return enums.CustomRequestStatusRejected, decimal.Zero, nil
}

func (s *service) Decide(ctx context.Context, actor pkgAuth.Actor, requestID uuid.UUID, req DecideRequest) (*DecisionDTO, error) {
	status, price, err := resolveDecision(req)
	if err != nil {
		return nil, err
	}

	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "custom request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load custom request")
	}
	vendor, err := s.sellers.FindByID(ctx, request.SellerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor")
	}
	if !actor.Is(vendor.ID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the addressed vendor can decide this request")
	}
	if request.Status != enums.CustomRequestStatusPending {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "custom request is already %s", request.Status)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).Decide(ctx, request.ID, status, price)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decide custom request")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "custom request was decided concurrently")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCustomRequestDecided,
			AggregateType: enums.AggregateCustomRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{AccountID: actor.AccountID, Role: actor.Role},
			Data: payloads.CustomRequestDecidedEvent{
				RequestID:  request.ID,
				SellerID:   request.SellerID,
				CustomerID: request.CustomerID,
				Status:     status,
				Price:      price,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit custom request decided")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = status
	request.Price = price
	request.UpdatedAt = time.Now().UTC()
	return &DecisionDTO{Request: FromModel(request), VendorName: vendorName(vendor)}, nil
}

func vendorName(vendor *models.Seller) string {
	if name := strings.TrimSpace(vendor.ShopName); name != "" {
		return name
	}
	return vendor.Name
}

func (s *service) ListPending(ctx context.Context, actor pkgAuth.Actor) ([]RequestDTO, error) {
	if actor.Role != enums.AccountRoleSeller {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller role required")
	}
	rows, err := s.repo.ListBySeller(ctx, actor.AccountID, enums.CustomRequestStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending custom requests")
	}
	return fromModels(rows), nil
}

func (s *service) ListPriced(ctx context.Context, actor pkgAuth.Actor) ([]RequestDTO, error) {
	if actor.Role != enums.AccountRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer role required")
	}
	rows, err := s.repo.ListByCustomer(ctx, actor.AccountID, enums.CustomRequestStatusPriced)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list priced custom requests")
	}
	return fromModels(rows), nil
}
