package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// CustomPotteryRequest is a buyer's bespoke piece request addressed to one seller.
type CustomPotteryRequest struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID     uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null;index:ix_custom_requests_customer"`
	RequesterEmail string                    `gorm:"column:requester_email;not null"`
	Description    string                    `gorm:"column:description;not null"`
	ImageURL       *string                   `gorm:"column:image_url"`
	SellerID       uuid.UUID                 `gorm:"column:seller_id;type:uuid;not null;index:ix_custom_requests_seller"`
	Status         enums.CustomRequestStatus `gorm:"column:status;type:text;not null;default:pending"`
	Price          decimal.Decimal           `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (CustomPotteryRequest) TableName() string {
	return "custom_requests"
}

func (r *CustomPotteryRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = enums.CustomRequestStatusPending
	}
	return nil
}
