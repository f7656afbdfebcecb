package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/internal/repo"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// Repository persists orders and their lines.
type Repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Create inserts the order together with its lines.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

// FindByID loads the order header without lines.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetDetail loads the order with every line.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByBuyer returns the buyer's orders newest first with lines preloaded.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// ListForSeller returns orders holding at least one of the seller's lines.
// Only the seller's own lines are preloaded.
func (r *Repository) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	sub := r.DB(ctx).Model(&models.OrderLine{}).Select("order_id").Where("seller_id = ?", sellerID)
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Where("seller_id = ?", sellerID).Order("created_at ASC, id ASC")
		}).
		Where("id IN (?)", sub).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateStatus moves the order from one status to another. Zero rows means the
// stored status no longer matched from.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// HasPurchased reports whether the customer holds a non-cancelled order for the product.
func (r *Repository) HasPurchased(ctx context.Context, customerID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.OrderLine{}).
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Where("orders.buyer_id = ? AND order_lines.product_id = ? AND orders.status <> ?", customerID, productID, enums.OrderStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

// SellerHasLine reports whether the order contains a line sold by the seller.
func (r *Repository) SellerHasLine(ctx context.Context, orderID, sellerID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.OrderLine{}).
		Where("order_id = ? AND seller_id = ?", orderID, sellerID).
		Count(&count).Error
	return count > 0, err
}
