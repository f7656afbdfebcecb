package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clayhaus/clayhaus-backend/internal/orders"
	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

// AddProductRequest is the payload of POST /cart/items.
type AddProductRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1,max=1000"`
}

// AddCustomRequest is the payload of POST /cart/custom.
type AddCustomRequest struct {
	CustomRequestID uuid.UUID `json:"customRequestId" validate:"required"`
}

// CheckoutRequest is the payload of POST /cart/checkout.
type CheckoutRequest struct {
	Shipping *types.ShippingAddress `json:"shipping,omitempty"`
	Payment  orders.PaymentRequest  `json:"payment"`
}

// CartDTO is the cart response with derived totals.
type CartDTO struct {
	Items         []Item          `json:"items"`
	TotalQuantity int             `json:"totalQuantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// NewCartDTO maps a cart.
func NewCartDTO(c Cart) *CartDTO {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return &CartDTO{Items: items, TotalQuantity: c.TotalQuantity(), Subtotal: c.Subtotal()}
}
