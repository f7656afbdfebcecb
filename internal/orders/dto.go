package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

// LineRequest references either a catalog product or a priced custom request.
type LineRequest struct {
	ProductID       *uuid.UUID `json:"productId,omitempty"`
	CustomRequestID *uuid.UUID `json:"customRequestId,omitempty"`
	Quantity        int        `json:"quantity" validate:"omitempty,min=1,max=1000"`
}

// PaymentRequest is the client-reported confirmation for the checkout.
type PaymentRequest struct {
	ID     string `json:"id" validate:"omitempty,max=200"`
	Status string `json:"status" validate:"omitempty,max=64"`
}

// PlaceOrderRequest is the payload accepted by POST /newOrder.
type PlaceOrderRequest struct {
	Items    []LineRequest          `json:"items" validate:"required,min=1,max=100,dive"`
	Shipping *types.ShippingAddress `json:"shipping,omitempty"`
	Payment  PaymentRequest         `json:"payment"`
}

// UpdateStatusRequest is the payload accepted by PATCH /updateOrderStatus/{id}.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=32"`
}

// LineDTO is one ordered line.
type LineDTO struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       *uuid.UUID      `json:"productId,omitempty"`
	CustomRequestID *uuid.UUID      `json:"customRequestId,omitempty"`
	SellerID        uuid.UUID       `json:"sellerId"`
	Name            string          `json:"name"`
	ImageURL        string          `json:"imageUrl"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	LineTotal       decimal.Decimal `json:"lineTotal"`
}

// OrderDTO is the order returned after placement.
type OrderDTO struct {
	ID            uuid.UUID             `json:"id"`
	BuyerID       uuid.UUID             `json:"buyerId"`
	Shipping      types.ShippingAddress `json:"shipping"`
	Payment       types.PaymentRecord   `json:"payment"`
	TotalQuantity int                   `json:"totalQuantity"`
	TotalPrice    decimal.Decimal       `json:"totalPrice"`
	Status        enums.OrderStatus     `json:"orderStatus"`
	Lines         []LineDTO             `json:"orderedProducts"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// CustomerLineDTO is a flattened line tagged with its parent order.
type CustomerLineDTO struct {
	LineDTO
	OrderID   uuid.UUID         `json:"orderId"`
	Status    enums.OrderStatus `json:"orderStatus"`
	OrderedAt time.Time         `json:"orderedAt"`
}

// SellerLineDTO is a line sold by the seller, annotated with its buyer.
type SellerLineDTO struct {
	LineDTO
	OrderID   uuid.UUID             `json:"orderId"`
	BuyerID   uuid.UUID             `json:"buyerId"`
	BuyerName string                `json:"buyerName"`
	Status    enums.OrderStatus     `json:"orderStatus"`
	Shipping  types.ShippingAddress `json:"shipping"`
	OrderedAt time.Time             `json:"orderedAt"`
}

// StatusDTO is the status read/write response.
type StatusDTO struct {
	OrderID uuid.UUID         `json:"orderId"`
	Status  enums.OrderStatus `json:"orderStatus"`
}

func newLineDTO(line models.OrderLine) LineDTO {
	return LineDTO{
		ID:              line.ID,
		ProductID:       line.ProductID,
		CustomRequestID: line.CustomRequestID,
		SellerID:        line.SellerID,
		Name:            line.Name,
		ImageURL:        line.ImageURL,
		Quantity:        line.Quantity,
		UnitPrice:       line.UnitPrice,
		LineTotal:       line.LineTotal(),
	}
}

// NewOrderDTO maps an order with its lines.
func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	lines := make([]LineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, newLineDTO(line))
	}
	return &OrderDTO{
		ID:            order.ID,
		BuyerID:       order.BuyerID,
		Shipping:      order.Shipping,
		Payment:       order.Payment,
		TotalQuantity: order.TotalQuantity,
		TotalPrice:    order.TotalPrice,
		Status:        order.Status,
		Lines:         lines,
		CreatedAt:     order.CreatedAt,
	}
}
