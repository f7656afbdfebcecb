package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

// Order is one checkout by a customer. Totals are fixed at creation.
type Order struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID       uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null;index:ix_orders_buyer"`
	Shipping      types.ShippingAddress `gorm:"column:shipping;type:jsonb;not null"`
	Payment       types.PaymentRecord   `gorm:"column:payment;type:jsonb;not null"`
	TotalQuantity int                   `gorm:"column:total_quantity;not null"`
	TotalPrice    decimal.Decimal       `gorm:"column:total_price;type:numeric(12,2);not null"`
	Status        enums.OrderStatus     `gorm:"column:status;type:text;not null;default:Processing"`
	Lines         []OrderLine           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = enums.OrderStatusProcessing
	}
	return nil
}

// OrderLine snapshots one purchased product or custom request.
type OrderLine struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:ix_order_lines_order"`
	ProductID       *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	CustomRequestID *uuid.UUID      `gorm:"column:custom_request_id;type:uuid"`
	SellerID        uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index:ix_order_lines_seller"`
	Name            string          `gorm:"column:name;not null"`
	ImageURL        string          `gorm:"column:image_url;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// LineTotal is quantity times unit price.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
