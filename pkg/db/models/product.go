package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

// DefaultProductQuantity is the stock assigned when a listing omits quantity.
const DefaultProductQuantity = 100

// Product is a seller listing.
type Product struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	SellerID        uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index:ix_products_seller"`
	Name            string               `gorm:"column:name;not null"`
	MRP             decimal.Decimal      `gorm:"column:mrp;type:numeric(12,2);not null"`
	Cost            decimal.Decimal      `gorm:"column:cost;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal      `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Category        string               `gorm:"column:category;not null;index:ix_products_category"`
	Subcategory     string               `gorm:"column:subcategory;not null"`
	ImageURL        string               `gorm:"column:image_url;not null"`
	Description     string               `gorm:"column:description;not null"`
	Tagline         string               `gorm:"column:tagline;not null"`
	Quantity        int                  `gorm:"column:quantity;not null"`
	InStock         bool                 `gorm:"column:in_stock;not null"`
	Handmade        bool                 `gorm:"column:handmade;not null"`
	ShippingCost    decimal.Decimal      `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	Specifications  types.Specifications `gorm:"column:specifications;type:jsonb;not null"`
	Color           string               `gorm:"column:color;not null"`
	Dimensions      string               `gorm:"column:dimensions;not null"`
	Material        string               `gorm:"column:material;not null"`
	Reviews         []ProductReview      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductReview is a customer rating attached to a product.
type ProductReview struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_reviews_product_customer"`
	CustomerID   uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:ux_product_reviews_product_customer"`
	ReviewerName string    `gorm:"column:reviewer_name;not null"`
	Rating       int       `gorm:"column:rating;not null"`
	Comment      string    `gorm:"column:comment;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *ProductReview) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
