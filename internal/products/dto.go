package products

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

// Price groups the listing's money fields.
type Price struct {
	MRP             decimal.Decimal `json:"mrp"`
	Cost            decimal.Decimal `json:"cost"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// ReviewDTO is one rating shown on a product page.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	Reviewer   string    `json:"reviewer"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID             uuid.UUID            `json:"id"`
	SellerID       uuid.UUID            `json:"sellerId"`
	Name           string               `json:"name"`
	Price          Price                `json:"price"`
	Category       string               `json:"category"`
	Subcategory    string               `json:"subcategory"`
	ImageURL       string               `json:"imageUrl"`
	Description    string               `json:"description"`
	Tagline        string               `json:"tagline"`
	Quantity       int                  `json:"quantity"`
	InStock        bool                 `json:"inStock"`
	Handmade       bool                 `json:"handmade"`
	ShippingCost   decimal.Decimal      `json:"shippingCost"`
	Specifications types.Specifications `json:"specifications"`
	Color          string               `json:"color"`
	Dimensions     string               `json:"dimensions"`
	Material       string               `json:"material"`
	Reviews        []ReviewDTO          `json:"reviews,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// ProductPage is a cursor page of products.
type ProductPage struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// CreateProductRequest is the payload for a new listing.
type CreateProductRequest struct {
	Name           string               `json:"name" validate:"required,max=200"`
	Price          Price                `json:"price"`
	Category       string               `json:"category" validate:"required,max=80"`
	Subcategory    string               `json:"subcategory" validate:"omitempty,max=80"`
	ImageURL       string               `json:"imageUrl" validate:"omitempty,url"`
	Description    string               `json:"description" validate:"omitempty,max=4000"`
	Tagline        string               `json:"tagline" validate:"omitempty,max=200"`
	Quantity       *int                 `json:"quantity,omitempty" validate:"omitempty,min=0"`
	InStock        *bool                `json:"inStock,omitempty"`
	Handmade       *bool                `json:"handmade,omitempty"`
	ShippingCost   decimal.Decimal      `json:"shippingCost"`
	Specifications types.Specifications `json:"specifications" validate:"omitempty,dive"`
	Color          string               `json:"color" validate:"omitempty,max=80"`
	Dimensions     string               `json:"dimensions" validate:"omitempty,max=120"`
	Material       string               `json:"material" validate:"omitempty,max=120"`
}

// UpdateProductRequest holds optional mutations for a listing.
type UpdateProductRequest struct {
	Name           *string               `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Price          *Price                `json:"price,omitempty"`
	Category       *string               `json:"category,omitempty" validate:"omitempty,min=1,max=80"`
	Subcategory    *string               `json:"subcategory,omitempty" validate:"omitempty,max=80"`
	ImageURL       *string               `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Description    *string               `json:"description,omitempty" validate:"omitempty,max=4000"`
	Tagline        *string               `json:"tagline,omitempty" validate:"omitempty,max=200"`
	Quantity       *int                  `json:"quantity,omitempty" validate:"omitempty,min=0"`
	InStock        *bool                 `json:"inStock,omitempty"`
	Handmade       *bool                 `json:"handmade,omitempty"`
	ShippingCost   *decimal.Decimal      `json:"shippingCost,omitempty"`
	Specifications *types.Specifications `json:"specifications,omitempty" validate:"omitempty,dive"`
	Color          *string               `json:"color,omitempty" validate:"omitempty,max=80"`
	Dimensions     *string               `json:"dimensions,omitempty" validate:"omitempty,max=120"`
	Material       *string               `json:"material,omitempty" validate:"omitempty,max=120"`
}

// ReviewRequest attaches a rating to a purchased product.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:       p.ID,
		SellerID: p.SellerID,
		Name:     p.Name,
		Price: Price{
			MRP:             p.MRP,
			Cost:            p.Cost,
			DiscountPercent: p.DiscountPercent,
		},
		Category:       p.Category,
		Subcategory:    p.Subcategory,
		ImageURL:       p.ImageURL,
		Description:    p.Description,
		Tagline:        p.Tagline,
		Quantity:       p.Quantity,
		InStock:        p.InStock,
		Handmade:       p.Handmade,
		ShippingCost:   p.ShippingCost,
		Specifications: p.Specifications,
		Color:          p.Color,
		Dimensions:     p.Dimensions,
		Material:       p.Material,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if dto.Specifications == nil {
		dto.Specifications = types.Specifications{}
	}
	for _, r := range p.Reviews {
		dto.Reviews = append(dto.Reviews, ReviewDTO{
			ID:         r.ID,
			CustomerID: r.CustomerID,
			Reviewer:   r.ReviewerName,
			Rating:     r.Rating,
			Comment:    r.Comment,
			CreatedAt:  r.CreatedAt,
		})
	}
	return dto
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out
}

func (r CreateProductRequest) toModel(sellerID uuid.UUID) *models.Product {
	quantity := models.DefaultProductQuantity
	if r.Quantity != nil {
		quantity = *r.Quantity
	}
	inStock := quantity > 0
	if r.InStock != nil {
		inStock = *r.InStock && quantity > 0
	}
	handmade := true
	if r.Handmade != nil {
		handmade = *r.Handmade
	}
	return &models.Product{
		SellerID:        sellerID,
		Name:            strings.TrimSpace(r.Name),
		MRP:             r.Price.MRP,
		Cost:            r.Price.Cost,
		DiscountPercent: r.Price.DiscountPercent,
		Category:        strings.TrimSpace(r.Category),
		Subcategory:     strings.TrimSpace(r.Subcategory),
		ImageURL:        strings.TrimSpace(r.ImageURL),
		Description:     r.Description,
		Tagline:         strings.TrimSpace(r.Tagline),
		Quantity:        quantity,
		InStock:         inStock,
		Handmade:        handmade,
		ShippingCost:    r.ShippingCost,
		Specifications:  r.Specifications.Normalize(),
		Color:           strings.TrimSpace(r.Color),
		Dimensions:      strings.TrimSpace(r.Dimensions),
		Material:        strings.TrimSpace(r.Material),
	}
}

// updateColumns maps the fields present on the request to their columns.
// quantity and in_stock are only written when the request names them so a
// concurrent stock decrement is never overwritten.
func updateColumns(in UpdateProductRequest) map[string]any {
	cols := map[string]any{}
	if in.Name != nil {
		cols["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		cols["mrp"] = in.Price.MRP
		cols["cost"] = in.Price.Cost
		cols["discount_percent"] = in.Price.DiscountPercent
	}
	if in.Category != nil {
		cols["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Subcategory != nil {
		cols["subcategory"] = strings.TrimSpace(*in.Subcategory)
	}
	if in.ImageURL != nil {
		cols["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.Description != nil {
		cols["description"] = *in.Description
	}
	if in.Tagline != nil {
		cols["tagline"] = strings.TrimSpace(*in.Tagline)
	}
	switch {
	case in.Quantity != nil:
		cols["quantity"] = *in.Quantity
		cols["in_stock"] = *in.Quantity > 0 && (in.InStock == nil || *in.InStock)
	case in.InStock != nil:
		cols["in_stock"] = gorm.Expr("CASE WHEN quantity > 0 THEN ? ELSE ? END", *in.InStock, false)
	}
	if in.Handmade != nil {
		cols["handmade"] = *in.Handmade
	}
	if in.ShippingCost != nil {
		cols["shipping_cost"] = *in.ShippingCost
	}
	if in.Specifications != nil {
		cols["specifications"] = in.Specifications.Normalize()
	}
	if in.Color != nil {
		cols["color"] = strings.TrimSpace(*in.Color)
	}
	if in.Dimensions != nil {
		cols["dimensions"] = strings.TrimSpace(*in.Dimensions)
	}
	if in.Material != nil {
		cols["material"] = strings.TrimSpace(*in.Material)
	}
	return cols
}
