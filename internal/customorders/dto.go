package customorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// SubmitRequest carries the multipart form fields of POST /CustomizePottery.
type SubmitRequest struct {
	Email       string    `form:"email" validate:"required,email,max=254"`
	Description string    `form:"description" validate:"required,max=2000"`
	SellerID    uuid.UUID `form:"sellerId" validate:"required"`
}

// DecideRequest is the payload of PUT /update-status/{id}.
type DecideRequest struct {
	Status string          `json:"status" validate:"required,max=32"`
	Price  decimal.Decimal `json:"price"`
}

// RequestDTO is the public view of a custom pottery request.
type RequestDTO struct {
	ID             uuid.UUID                 `json:"id"`
	CustomerID     uuid.UUID                 `json:"customerId"`
	RequesterEmail string                    `json:"email"`
	Description    string                    `json:"description"`
	ImageURL       *string                   `json:"imageUrl,omitempty"`
	SellerID       uuid.UUID                 `json:"sellerId"`
	Status         enums.CustomRequestStatus `json:"status"`
	Price          decimal.Decimal           `json:"price"`
	CreatedAt      time.Time                 `json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
}

// DecisionDTO is returned after a vendor prices or rejects a request.
type DecisionDTO struct {
	Request    RequestDTO `json:"request"`
	VendorName string     `json:"vendorName"`
}

// FromModel maps a persisted request.
func FromModel(m *models.CustomPotteryRequest) RequestDTO {
	return RequestDTO{
		ID:             m.ID,
		CustomerID:     m.CustomerID,
		RequesterEmail: m.RequesterEmail,
		Description:    m.Description,
		ImageURL:       m.ImageURL,
		SellerID:       m.SellerID,
		Status:         m.Status,
		Price:          m.Price,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromModels(rows []models.CustomPotteryRequest) []RequestDTO {
	out := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
