package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

// CustomerDTO is the transport shape that omits the password hash.
type CustomerDTO struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	Email     string                 `json:"email"`
	Phone     *string                `json:"phone,omitempty"`
	Address   *types.ShippingAddress `json:"address,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// CreateCustomerDTO holds the data required by the repo to persist a customer.
type CreateCustomerDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
}

// UpdateAddressRequest replaces the saved shipping address.
type UpdateAddressRequest struct {
	Address types.ShippingAddress `json:"address" validate:"required"`
	Phone   *string               `json:"phone,omitempty" validate:"omitempty,max=32"`
}

func FromModel(c *models.Customer) *CustomerDTO {
	if c == nil {
		return nil
	}
	dto := &CustomerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
	if !c.Address.IsZero() {
		addr := c.Address
		dto.Address = &addr
	}
	return dto
}

func (c CreateCustomerDTO) ToModel() *models.Customer {
	return &models.Customer{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
	}
}
