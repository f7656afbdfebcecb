package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// OrderLine is the per-seller view of a purchased line.
type OrderLine struct {
	ProductID       *uuid.UUID      `json:"product_id,omitempty"`
	CustomRequestID *uuid.UUID      `json:"custom_request_id,omitempty"`
	SellerID        uuid.UUID       `json:"seller_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// OrderCreatedEvent is emitted once per successful checkout.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	SellerIDs     []uuid.UUID     `json:"seller_ids"`
	Lines         []OrderLine     `json:"lines"`
}

// OrderStatusChangedEvent records one lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	ChangedBy uuid.UUID         `json:"changed_by"`
	ChangedAt time.Time         `json:"changed_at"`
}

// ProductStockDepletedEvent fires when a purchase drives quantity to zero.
type ProductStockDepletedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	OrderID   uuid.UUID `json:"order_id"`
}

// CustomRequestSubmittedEvent notifies the addressed seller of a new request.
type CustomRequestSubmittedEvent struct {
	RequestID  uuid.UUID `json:"request_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	HasImage   bool      `json:"has_image"`
}

// CustomRequestDecidedEvent is emitted when a seller prices or rejects a request.
type CustomRequestDecidedEvent struct {
	RequestID  uuid.UUID                 `json:"request_id"`
	SellerID   uuid.UUID                 `json:"seller_id"`
	CustomerID uuid.UUID                 `json:"customer_id"`
	Status     enums.CustomRequestStatus `json:"status"`
	Price      decimal.Decimal           `json:"price"`
}

// SellerApprovedEvent is emitted when the admin approves a shop.
type SellerApprovedEvent struct {
	SellerID uuid.UUID `json:"seller_id"`
	ShopName string    `json:"shop_name"`
}

// VideoPublishedEvent is emitted after a clip is pinned and stored.
type VideoPublishedEvent struct {
	VideoID     uuid.UUID `json:"video_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	ContentHash string    `json:"content_hash"`
}
