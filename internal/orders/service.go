package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/internal/products"
	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/checkout"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox/payloads"
	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

const (
	unknownBuyerName   = "Unknown Customer"
	customLineNameSize = 60
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type customerDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// CustomRequestOrderer claims priced custom requests for an order.
type CustomRequestOrderer interface {
	FindForOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.CustomPotteryRequest, error)
	MarkOrdered(ctx context.Context, tx *gorm.DB, id, customerID uuid.UUID) (bool, error)
}

// Service defines order placement and fulfilment operations.
type Service interface {
	PlaceOrder(ctx context.Context, actor pkgAuth.Actor, req PlaceOrderRequest) (*OrderDTO, error)
	ListForCustomer(ctx context.Context, actor pkgAuth.Actor, customerID uuid.UUID) ([]CustomerLineDTO, error)
	ListForSeller(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID) ([]SellerLineDTO, error)
	GetStatus(ctx context.Context, orderID uuid.UUID) (*StatusDTO, error)
	UpdateStatus(ctx context.Context, actor pkgAuth.Actor, orderID uuid.UUID, req UpdateStatusRequest) (*StatusDTO, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	DB             txRunner
	Repo           *Repository
	Customers      customerDirectory
	CustomRequests CustomRequestOrderer
	Outbox         outboxPublisher
	Now            func() time.Time
}

type service struct {
	tx             txRunner
	repo           *Repository
	customers      customerDirectory
	customRequests CustomRequestOrderer
	outbox         outboxPublisher
	now            func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer directory required")
	}
	if params.CustomRequests == nil {
		return nil, fmt.Errorf("custom request orderer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:             params.DB,
		repo:           params.Repo,
		customers:      params.Customers,
		customRequests: params.CustomRequests,
		outbox:         params.Outbox,
		now:            now,
	}, nil
}

// plannedLines is the order request after merging duplicate products.
type plannedLines struct {
	productIDs []uuid.UUID
	quantities map[uuid.UUID]int
	customIDs  []uuid.UUID
}

func planLines(items []LineRequest) (*plannedLines, error) {
	if len(items) == 0 {
		return nil, pkgerrors.Invalid("items", "must contain at least one line")
	}
	plan := &plannedLines{quantities: map[uuid.UUID]int{}}
	seenCustom := map[uuid.UUID]struct{}{}
	for _, item := range items {
		hasProduct := item.ProductID != nil && *item.ProductID != uuid.Nil
		hasCustom := item.CustomRequestID != nil && *item.CustomRequestID != uuid.Nil
		if hasProduct == hasCustom {
			return nil, pkgerrors.Invalid("items", "each line needs exactly one of productId or customRequestId")
		}
		if hasCustom {
			id := *item.CustomRequestID
			if _, dup := seenCustom[id]; dup {
				return nil, pkgerrors.Invalid("items", fmt.Sprintf("custom request %s listed twice", id))
			}
			seenCustom[id] = struct{}{}
			plan.customIDs = append(plan.customIDs, id)
			continue
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, pkgerrors.Invalid("quantity", "must be at least 1")
		}
		id := *item.ProductID
		if _, ok := plan.quantities[id]; !ok {
			plan.productIDs = append(plan.productIDs, id)
		}
		plan.quantities[id] += qty
	}
	return plan, nil
}

func (s *service) PlaceOrder(ctx context.Context, actor pkgAuth.Actor, req PlaceOrderRequest) (*OrderDTO, error) {
	if actor.Role != enums.AccountRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can place orders")
	}
	plan, err := planLines(req.Items)
	if err != nil {
		return nil, err
	}
	shipping, err := s.resolveShipping(ctx, actor.AccountID, req.Shipping)
	if err != nil {
		return nil, err
	}

	paidAt := s.now().UTC()
	order := &models.Order{
		ID:       uuid.New(),
		BuyerID:  actor.AccountID,
		Shipping: shipping,
		Payment: types.PaymentRecord{
			ID:     strings.TrimSpace(req.Payment.ID),
			Status: strings.TrimSpace(req.Payment.Status),
			PaidAt: &paidAt,
		},
		Status: enums.OrderStatusProcessing,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productLines, depleted, err := s.reserveProducts(ctx, tx, order.ID, plan)
		if err != nil {
			return err
		}
		customLines, err := s.claimCustomRequests(ctx, tx, actor.AccountID, plan.customIDs)
		if err != nil {
			return err
		}
		order.Lines = append(productLines, customLines...)
		order.TotalQuantity, order.TotalPrice = totals(order.Lines)

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		if err := s.emitOrderCreated(ctx, tx, actor, order); err != nil {
			return err
		}
		for _, event := range depleted {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventProductStockDepleted,
				AggregateType: enums.AggregateProduct,
				AggregateID:   event.ProductID,
				Actor:         &outbox.ActorRef{AccountID: actor.AccountID, Role: actor.Role},
				Data:          event,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit stock depleted")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

func (s *service) resolveShipping(ctx context.Context, customerID uuid.UUID, provided *types.ShippingAddress) (types.ShippingAddress, error) {
	if provided != nil && !provided.IsZero() {
		if strings.TrimSpace(provided.PostalCode) == "" {
			return types.ShippingAddress{}, pkgerrors.Invalid("shipping.postalCode", "is required")
		}
		return *provided, nil
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if db.IsNotFound(err) {
			return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer account not found")
		}
		return types.ShippingAddress{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if customer.Address.IsZero() {
		return types.ShippingAddress{}, pkgerrors.Invalid("shipping", "is required when no address is saved")
	}
	return customer.Address, nil
}

// reserveProducts checks stock for every product line and decrements it with a
// guarded update. Lines are built from the products as read inside tx.
func (s *service) reserveProducts(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, plan *plannedLines) ([]models.OrderLine, []payloads.ProductStockDepletedEvent, error) {
	if len(plan.productIDs) == 0 {
		return nil, nil, nil
	}
	inventory := products.NewRepository(tx)
	found, err := inventory.FindByIDs(ctx, plan.productIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	inputs := make([]checkout.StockValidationInput, 0, len(plan.productIDs))
	for _, id := range plan.productIDs {
		product, ok := found[id]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"productId": id})
		}
		inputs = append(inputs, checkout.StockValidationInput{
			ProductID:   id,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   plan.quantities[id],
		})
	}
	if err := checkout.ValidateQuantities(inputs); err != nil {
		return nil, nil, err
	}
	if err := checkout.ValidateStock(inputs); err != nil {
		return nil, nil, err
	}

	lines := make([]models.OrderLine, 0, len(plan.productIDs))
	var depleted []payloads.ProductStockDepletedEvent
	for _, id := range plan.productIDs {
		product := found[id]
		qty := plan.quantities[id]
		changed, remaining, err := inventory.DecrementStock(ctx, id, qty)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
		}
		if !changed {
			available := 0
			if current, err := inventory.FindByID(ctx, id); err == nil {
				available = current.Quantity
			}
			return nil, nil, checkout.InsufficientStock(checkout.StockViolationDetail{
				ProductID:    id,
				ProductName:  product.Name,
				AvailableQty: available,
				RequestedQty: qty,
			})
		}
		if remaining == 0 {
			depleted = append(depleted, payloads.ProductStockDepletedEvent{
				ProductID: id,
				SellerID:  product.SellerID,
				OrderID:   orderID,
			})
		}
		productID := id
		lines = append(lines, models.OrderLine{
			OrderID:   orderID,
			ProductID: &productID,
			SellerID:  product.SellerID,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			Quantity:  qty,
			UnitPrice: product.Cost,
		})
	}
	return lines, depleted, nil
}

// claimCustomRequests turns priced requests into single-unit lines. Custom
// pieces are one-off and never touch catalog inventory.
func (s *service) claimCustomRequests(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, ids []uuid.UUID) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0, len(ids))
	for _, id := range ids {
		request, err := s.customRequests.FindForOrder(ctx, tx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "custom request not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load custom request")
		}
		if request.CustomerID != customerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "custom request belongs to another customer")
		}
		if request.Status != enums.CustomRequestStatusPriced {
			return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "custom request is %s, not priced", request.Status)
		}
		claimed, err := s.customRequests.MarkOrdered(ctx, tx, id, customerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim custom request")
		}
		if !claimed {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "custom request was already ordered")
		}
		requestID := request.ID
		image := ""
		if request.ImageURL != nil {
			image = *request.ImageURL
		}
		lines = append(lines, models.OrderLine{
			CustomRequestID: &requestID,
			SellerID:        request.SellerID,
			Name:            customLineName(request.Description),
			ImageURL:        image,
			Quantity:        1,
			UnitPrice:       request.Price,
		})
	}
	return lines, nil
}

func customLineName(description string) string {
	name := strings.TrimSpace(description)
	if utf8.RuneCountInString(name) > customLineNameSize {
		name = string([]rune(name)[:customLineNameSize])
	}
	if name == "" {
		return "Custom pottery"
	}
	return "Custom: " + name
}

func totals(lines []models.OrderLine) (int, decimal.Decimal) {
	qty := 0
	total := decimal.Zero
	for _, line := range lines {
		qty += line.Quantity
		total = total.Add(line.LineTotal())
	}
	return qty, total
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, actor pkgAuth.Actor, order *models.Order) error {
	sellerSet := map[uuid.UUID]struct{}{}
	sellerIDs := make([]uuid.UUID, 0, len(order.Lines))
	lines := make([]payloads.OrderLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		if _, ok := sellerSet[line.SellerID]; !ok {
			sellerSet[line.SellerID] = struct{}{}
			sellerIDs = append(sellerIDs, line.SellerID)
		}
		lines = append(lines, payloads.OrderLine{
			ProductID:       line.ProductID,
			CustomRequestID: line.CustomRequestID,
			SellerID:        line.SellerID,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
		})
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{AccountID: actor.AccountID, Role: actor.Role},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			BuyerID:       order.BuyerID,
			TotalQuantity: order.TotalQuantity,
			TotalPrice:    order.TotalPrice,
			SellerIDs:     sellerIDs,
			Lines:         lines,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
	}
	return nil
}

func (s *service) ListForCustomer(ctx context.Context, actor pkgAuth.Actor, customerID uuid.UUID) ([]CustomerLineDTO, error) {
	if !actor.IsSelfOrAdmin(customerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot list another customer's orders")
	}
	rows, err := s.repo.ListByBuyer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customer orders")
	}
	out := make([]CustomerLineDTO, 0, len(rows))
	for _, order := range rows {
		for _, line := range order.Lines {
			out = append(out, CustomerLineDTO{
				LineDTO:   newLineDTO(line),
				OrderID:   order.ID,
				Status:    order.Status,
				OrderedAt: order.CreatedAt,
			})
		}
	}
	return out, nil
}

func (s *service) ListForSeller(ctx context.Context, actor pkgAuth.Actor, sellerID uuid.UUID) ([]SellerLineDTO, error) {
	if !actor.IsSelfOrAdmin(sellerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot list another seller's orders")
	}
	rows, err := s.repo.ListForSeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller orders")
	}
	buyerIDs := make([]uuid.UUID, 0, len(rows))
	for _, order := range rows {
		buyerIDs = append(buyerIDs, order.BuyerID)
	}
	names, err := s.customers.Names(ctx, buyerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer names")
	}

	out := make([]SellerLineDTO, 0, len(rows))
	for _, order := range rows {
		name, ok := names[order.BuyerID]
		if !ok {
			name = unknownBuyerName
		}
		for _, line := range order.Lines {
			out = append(out, SellerLineDTO{
				LineDTO:   newLineDTO(line),
				OrderID:   order.ID,
				BuyerID:   order.BuyerID,
				BuyerName: name,
				Status:    order.Status,
				Shipping:  order.Shipping,
				OrderedAt: order.CreatedAt,
			})
		}
	}
	SortDeliveredLast(out)
	return out, nil
}

// SortDeliveredLast moves delivered lines after every other line, keeping
// relative order otherwise.
func SortDeliveredLast(lines []SellerLineDTO) {
	sort.SliceStable(lines, func(i, j int) bool {
		return !isDelivered(lines[i].Status) && isDelivered(lines[j].Status)
	})
}

func isDelivered(status enums.OrderStatus) bool {
	return strings.EqualFold(string(status), string(enums.OrderStatusDelivered))
}

func (s *service) GetStatus(ctx context.Context, orderID uuid.UUID) (*StatusDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return &StatusDTO{OrderID: order.ID, Status: order.Status}, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor pkgAuth.Actor, orderID uuid.UUID, req UpdateStatusRequest) (*StatusDTO, error) {
	next, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.Invalid("status", err.Error())
	}

	var out *StatusDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if err := s.authorizeStatusChange(ctx, txRepo, actor, order.ID); err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, next).
				WithDetails(map[string]any{"allowed": order.Status.NextStatuses()})
		}
		affected, err := txRepo.UpdateStatus(ctx, order.ID, order.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{AccountID: actor.AccountID, Role: actor.Role},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				BuyerID:   order.BuyerID,
				From:      order.Status,
				To:        next,
				ChangedBy: actor.AccountID,
				ChangedAt: s.now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order status changed")
		}
		out = &StatusDTO{OrderID: order.ID, Status: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) authorizeStatusChange(ctx context.Context, repo *Repository, actor pkgAuth.Actor, orderID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != enums.AccountRoleSeller {
		return pkgerrors.New(pkgerrors.CodeForbidden, "seller role required")
	}
	ok, err := repo.SellerHasLine(ctx, orderID, actor.AccountID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check order ownership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order has no lines from this seller")
	}
	return nil
}
