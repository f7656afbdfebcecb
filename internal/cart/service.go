package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clayhaus/clayhaus-backend/internal/orders"
	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/checkout"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type customRequestLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CustomPotteryRequest, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, actor pkgAuth.Actor, req orders.PlaceOrderRequest) (*orders.OrderDTO, error)
}

// Service exposes the customer cart.
type Service interface {
	Get(ctx context.Context, actor pkgAuth.Actor) (*CartDTO, error)
	AddProduct(ctx context.Context, actor pkgAuth.Actor, req AddProductRequest) (*CartDTO, error)
	AddCustomRequest(ctx context.Context, actor pkgAuth.Actor, req AddCustomRequest) (*CartDTO, error)
	RemoveOne(ctx context.Context, actor pkgAuth.Actor, itemID uuid.UUID) (*CartDTO, error)
	Remove(ctx context.Context, actor pkgAuth.Actor, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, actor pkgAuth.Actor) (*CartDTO, error)
	Checkout(ctx context.Context, actor pkgAuth.Actor, req CheckoutRequest) (*orders.OrderDTO, error)
}

// ServiceParams bundles the cart service dependencies.
type ServiceParams struct {
	Store          Store
	Products       productLoader
	CustomRequests customRequestLoader
	Orders         orderPlacer
	Logger         *logger.Logger
}

type service struct {
	store          Store
	products       productLoader
	customRequests customRequestLoader
	orders         orderPlacer
	logg           *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.CustomRequests == nil {
		return nil, fmt.Errorf("custom request loader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order placer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:          params.Store,
		products:       params.Products,
		customRequests: params.CustomRequests,
		orders:         params.Orders,
		logg:           logg,
	}, nil
}

func (s *service) Get(ctx context.Context, actor pkgAuth.Actor) (*CartDTO, error) {
	cart, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return NewCartDTO(cart), nil
}

func (s *service) AddProduct(ctx context.Context, actor pkgAuth.Actor, req AddProductRequest) (*CartDTO, error) {
	if req.ProductID == uuid.Nil {
		return nil, pkgerrors.Invalid("productId", "is required")
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.Invalid("quantity", "must be at least 1")
	}
	cart, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.InStock || product.Quantity <= 0 {
		return nil, pkgerrors.Invalid("productId", "product is out of stock")
	}
	inCart := 0
	if existing, ok := cart.Find(product.ID); ok {
		inCart = existing.Quantity
	}
	if err := checkout.ValidateStock([]checkout.StockValidationInput{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   product.Quantity,
		Requested:   inCart + qty,
	}}); err != nil {
		return nil, err
	}

	cart = cart.Add(Item{
		ID:        product.ID,
		Kind:      ItemKindProduct,
		SellerID:  product.SellerID,
		Name:      product.Name,
		ImageURL:  product.ImageURL,
		UnitPrice: product.Cost,
		MRP:       product.MRP,
	}, qty)
	return s.save(ctx, actor, cart)
}

func (s *service) AddCustomRequest(ctx context.Context, actor pkgAuth.Actor, req AddCustomRequest) (*CartDTO, error) {
	if req.CustomRequestID == uuid.Nil {
		return nil, pkgerrors.Invalid("customRequestId", "is required")
	}
	cart, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, ok := cart.Find(req.CustomRequestID); ok {
		return NewCartDTO(cart), nil
	}

	request, err := s.customRequests.FindByID(ctx, req.CustomRequestID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "custom request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load custom request")
	}
	if request.CustomerID != actor.AccountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "custom request belongs to another customer")
	}
	if request.Status != enums.CustomRequestStatusPriced {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "custom request is %s, not priced", request.Status)
	}

	image := ""
	if request.ImageURL != nil {
		image = *request.ImageURL
	}
	cart = cart.Add(Item{
		ID:        request.ID,
		Kind:      ItemKindCustom,
		SellerID:  request.SellerID,
		Name:      request.Description,
		ImageURL:  image,
		UnitPrice: request.Price,
		MRP:       request.Price,
	}, 1)
	return s.save(ctx, actor, cart)
}

func (s *service) RemoveOne(ctx context.Context, actor pkgAuth.Actor, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, actor, cart.RemoveOne(itemID))
}

func (s *service) Remove(ctx context.Context, actor pkgAuth.Actor, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, actor, cart.Remove(itemID))
}

func (s *service) Clear(ctx context.Context, actor pkgAuth.Actor) (*CartDTO, error) {
	if err := s.requireCustomer(actor); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, actor.AccountID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return NewCartDTO(Cart{}.Clear()), nil
}

func (s *service) Checkout(ctx context.Context, actor pkgAuth.Actor, req CheckoutRequest) (*orders.OrderDTO, error) {
	cart, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.Invalid("items", "cart is empty")
	}

	lines := make([]orders.LineRequest, 0, len(cart.Items))
	for _, item := range cart.Items {
		id := item.ID
		switch item.Kind {
		case ItemKindCustom:
			lines = append(lines, orders.LineRequest{CustomRequestID: &id, Quantity: 1})
		default:
			lines = append(lines, orders.LineRequest{ProductID: &id, Quantity: item.Quantity})
		}
	}
	order, err := s.orders.PlaceOrder(ctx, actor, orders.PlaceOrderRequest{
		Items:    lines,
		Shipping: req.Shipping,
		Payment:  req.Payment,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, actor.AccountID); err != nil {
		// order is already committed
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"customer_id": actor.AccountID.String(),
			"order_id":    order.ID.String(),
		}), "cart.clear_after_checkout_failed", err)
	}
	return order, nil
}

func (s *service) requireCustomer(actor pkgAuth.Actor) error {
	if actor.Role != enums.AccountRoleCustomer || actor.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "customer role required")
	}
	return nil
}

func (s *service) load(ctx context.Context, actor pkgAuth.Actor) (Cart, error) {
	if err := s.requireCustomer(actor); err != nil {
		return Cart{}, err
	}
	cart, err := s.store.Load(ctx, actor.AccountID)
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) save(ctx context.Context, actor pkgAuth.Actor, cart Cart) (*CartDTO, error) {
	cart.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, actor.AccountID, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return NewCartDTO(cart), nil
}
