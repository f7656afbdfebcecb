package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

// Customer is a buyer account.
type Customer struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name         string                `gorm:"column:name;not null"`
	Email        string                `gorm:"column:email;not null;uniqueIndex:ux_customers_email"`
	PasswordHash string                `gorm:"column:password_hash;not null"`
	Phone        *string               `gorm:"column:phone"`
	Address      types.ShippingAddress `gorm:"column:address;type:jsonb;not null"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
