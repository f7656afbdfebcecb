package customorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/internal/repo"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// Repository persists custom pottery requests.
type Repository struct {
	repo.Base
}

// NewRepository binds a custom request repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, request *models.CustomPotteryRequest) error {
	return r.DB(ctx).Create(request).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CustomPotteryRequest, error) {
	var request models.CustomPotteryRequest
	if err := r.DB(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// ListBySeller returns the seller's requests in the given status, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status enums.CustomRequestStatus) ([]models.CustomPotteryRequest, error) {
	var rows []models.CustomPotteryRequest
	err := r.DB(ctx).
		Where("seller_id = ? AND status = ?", sellerID, status).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListByCustomer returns the customer's requests in the given status, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, status enums.CustomRequestStatus) ([]models.CustomPotteryRequest, error) {
	var rows []models.CustomPotteryRequest
	err := r.DB(ctx).
		Where("customer_id = ? AND status = ?", customerID, status).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Decide moves a pending request to its decided status. Zero rows means the
// request was no longer pending.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, status enums.CustomRequestStatus, price decimal.Decimal) (int64, error) {
	res := r.DB(ctx).Model(&models.CustomPotteryRequest{}).
		Where("id = ? AND status = ?", id, enums.CustomRequestStatusPending).
		Updates(map[string]any{
			"status":     status,
			"price":      price,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// FindForOrder loads a request inside the caller's transaction.
func (r *Repository) FindForOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.CustomPotteryRequest, error) {
	var request models.CustomPotteryRequest
	if err := r.Conn(ctx, tx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// MarkOrdered flips a priced request owned by the customer to ordered.
func (r *Repository) MarkOrdered(ctx context.Context, tx *gorm.DB, id, customerID uuid.UUID) (bool, error) {
	res := r.Conn(ctx, tx).Model(&models.CustomPotteryRequest{}).
		Where("id = ? AND customer_id = ? AND status = ?", id, customerID, enums.CustomRequestStatusPriced).
		Updates(map[string]any{
			"status":     enums.CustomRequestStatusOrdered,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
