package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/pagination"
)

var hundred = decimal.NewFromInt(100)

// Service exposes catalog management and browsing.
type Service interface {
	Create(ctx context.Context, actor pkgAuth.Actor, req CreateProductRequest) (*ProductDTO, error)
	Update(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	Delete(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID) error
	DeleteBySeller(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID) (int64, error)
	List(ctx context.Context, params *pagination.Params) (*ProductPage, error)
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error)
	Search(ctx context.Context, key string) ([]ProductDTO, error)
	AddReview(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID, req ReviewRequest) (*ProductDTO, error)
	RemoveReview(ctx context.Context, actor pkgAuth.Actor, productID, reviewID uuid.UUID) error
	ClearReviews(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID) (int64, error)
}

type sellerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type purchaseChecker interface {
	HasPurchased(ctx context.Context, customerID, productID uuid.UUID) (bool, error)
}

// ServiceParams bundles the product service dependencies.
type ServiceParams struct {
	DB        *db.Client
	Repo      *Repository
	Sellers   sellerLoader
	Customers customerLoader
	Purchases purchaseChecker
}

type service struct {
	db        *db.Client
	repo      *Repository
	sellers   sellerLoader
	customers customerLoader
	purchases purchaseChecker
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("seller loader required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchase checker required")
	}
	return &service{
		db:        params.DB,
		repo:      params.Repo,
		sellers:   params.Sellers,
		customers: params.Customers,
		purchases: params.Purchases,
	}, nil
}

func (s *service) Create(ctx context.Context, actor pkgAuth.Actor, req CreateProductRequest) (*ProductDTO, error) {
	if err := s.ensureApprovedSeller(ctx, actor); err != nil {
		return nil, err
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.Invalid("name", "is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, pkgerrors.Invalid("category", "is required")
	}
	if req.ShippingCost.IsNegative() {
		return nil, pkgerrors.Invalid("shippingCost", "must not be negative")
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, pkgerrors.Invalid("quantity", "must not be negative")
	}

	product := req.toModel(actor.AccountID)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return NewProductDTO(product), nil
}

func (s *service) Update(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	if _, err := s.loadOwned(ctx, actor, productID); err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, pkgerrors.Invalid("name", "is required")
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, pkgerrors.Invalid("quantity", "must not be negative")
	}
	if req.ShippingCost != nil && req.ShippingCost.IsNegative() {
		return nil, pkgerrors.Invalid("shippingCost", "must not be negative")
	}

	if cols := updateColumns(req); len(cols) > 0 {
		if err := s.repo.UpdateFields(ctx, productID, cols); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
	}
	return NewProductDTO(product), nil
}

func (s *service) Delete(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, actor, productID); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.DeleteReviews(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete reviews")
		}
		affected, err := txRepo.Delete(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil
	})
}

func (s *service) DeleteBySeller(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID) (int64, error) {
	if sellerID == uuid.Nil {
		return 0, pkgerrors.Invalid("sellerId", "is required")
	}
	if !actor.IsSelfOrAdmin(sellerID) {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete another seller's products")
	}
	var deleted int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).DeleteBySeller(ctx, sellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete seller products")
		}
		deleted = n
		return nil
	})
	return deleted, err
}

func (s *service) List(ctx context.Context, params *pagination.Params) (*ProductPage, error) {
	if params == nil {
		rows, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
		}
		return &ProductPage{Items: newProductDTOs(rows)}, nil
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Invalid("cursor", "is malformed")
	}
	rows, next, err := s.repo.ListPage(ctx, *params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return &ProductPage{Items: newProductDTOs(rows), NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetDetail(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) Search(ctx context.Context, key string) ([]ProductDTO, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return []ProductDTO{}, nil
	}
	rows, err := s.repo.Search(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) AddReview(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID, req ReviewRequest) (*ProductDTO, error) {
	if actor.Role != enums.AccountRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can review products")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.Invalid("rating", "must be between 1 and 5")
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, notFoundOr(err, "load product")
	}
	customer, err := s.customers.FindByID(ctx, actor.AccountID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	bought, err := s.purchases.HasPurchased(ctx, customer.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check purchase")
	}
	if !bought {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers of this product can review it")
	}

	review := &models.ProductReview{
		ProductID:    productID,
		CustomerID:   customer.ID,
		ReviewerName: customer.Name,
		Rating:       req.Rating,
		Comment:      strings.TrimSpace(req.Comment),
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return s.Get(ctx, productID)
}

func (s *service) RemoveReview(ctx context.Context, actor pkgAuth.Actor, productID, reviewID uuid.UUID) error {
	review, err := s.repo.FindReview(ctx, productID, reviewID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
	}
	if !actor.IsSelfOrAdmin(review.CustomerID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot remove another customer's review")
	}
	if err := s.repo.DeleteReview(ctx, review.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
	}
	return nil
}

func (s *service) ClearReviews(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID) (int64, error) {
	if _, err := s.loadOwned(ctx, actor, productID); err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteReviews(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear reviews")
	}
	return n, nil
}

func (s *service) ensureApprovedSeller(ctx context.Context, actor pkgAuth.Actor) error {
	if !actor.Role.IsSellerAccount() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "seller role required")
	}
	seller, err := s.sellers.FindByID(ctx, actor.AccountID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "seller account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}
	if !seller.Approved {
		return pkgerrors.New(pkgerrors.CodeForbidden, "seller account is awaiting admin approval")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, actor pkgAuth.Actor, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	if !actor.IsSelfOrAdmin(product.SellerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}
	return product, nil
}

func validatePrice(p Price) error {
	if !p.MRP.IsPositive() {
		return pkgerrors.Invalid("price.mrp", "must be greater than 0")
	}
	if p.Cost.IsNegative() {
		return pkgerrors.Invalid("price.cost", "must not be negative")
	}
	if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) {
		return pkgerrors.Invalid("price.discountPercent", "must be between 0 and 100")
	}
	return nil
}

func notFoundOr(err error, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
