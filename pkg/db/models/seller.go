package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// Seller is a pottery shop account. The marketplace admin is stored here too.
type Seller struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string            `gorm:"column:name;not null"`
	Email                string            `gorm:"column:email;not null;uniqueIndex:ux_sellers_email"`
	PasswordHash         string            `gorm:"column:password_hash;not null"`
	Role                 enums.AccountRole `gorm:"column:role;type:text;not null;default:seller"`
	ShopName             string            `gorm:"column:shop_name;not null;uniqueIndex:ux_sellers_shop_name"`
	Approved             bool              `gorm:"column:approved;not null;default:false"`
	CustomizationEnabled bool              `gorm:"column:customization_enabled;not null;default:false"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Seller) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	if s.Role == "" {
		s.Role = enums.AccountRoleSeller
	}
	return nil
}
