package sellers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// SellerDTO is the transport shape that omits the password hash.
type SellerDTO struct {
	ID                   uuid.UUID         `json:"id"`
	Name                 string            `json:"name"`
	Email                string            `json:"email"`
	Role                 enums.AccountRole `json:"role"`
	ShopName             string            `json:"shopName"`
	Approved             bool              `json:"approved"`
	CustomizationEnabled bool              `json:"customizationEnabled"`
	CreatedAt            time.Time         `json:"createdAt"`
}

// CreateSellerDTO holds the data required by the repo to persist a seller.
type CreateSellerDTO struct {
	Name         string
	Email        string
	PasswordHash string
	ShopName     string
	Role         enums.AccountRole
	Approved     bool
}

// Stats summarises a seller's shop activity.
type Stats struct {
	SellerID              uuid.UUID       `json:"sellerId"`
	ProductCount          int64           `json:"productCount"`
	UnitsInStock          int64           `json:"unitsInStock"`
	OrderLines            int64           `json:"orderLines"`
	UnitsSold             int64           `json:"unitsSold"`
	Revenue               decimal.Decimal `json:"revenue"`
	PendingCustomRequests int64           `json:"pendingCustomRequests"`
	VideoCount            int64           `json:"videoCount"`
}

// FromModel strips credentials from a persisted seller.
func FromModel(s *models.Seller) *SellerDTO {
	if s == nil {
		return nil
	}
	return &SellerDTO{
		ID:                   s.ID,
		Name:                 s.Name,
		Email:                s.Email,
		Role:                 s.Role,
		ShopName:             s.ShopName,
		Approved:             s.Approved,
		CustomizationEnabled: s.CustomizationEnabled,
		CreatedAt:            s.CreatedAt,
	}
}

// FromModels maps a slice of sellers.
func FromModels(rows []models.Seller) []SellerDTO {
	out := make([]SellerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func (c CreateSellerDTO) ToModel() *models.Seller {
	role := c.Role
	if role == "" {
		role = enums.AccountRoleSeller
	}
	return &models.Seller{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		ShopName:     c.ShopName,
		Role:         role,
		Approved:     c.Approved,
	}
}
