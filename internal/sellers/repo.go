package sellers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/internal/repo"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// Repository exposes seller persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a sellers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// Create inserts a new seller and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateSellerDTO) (*models.Seller, error) {
	seller := dto.ToModel()
	if err := r.DB(ctx).Create(seller).Error; err != nil {
		return nil, err
	}
	return seller, nil
}

// FindByEmail retrieves the seller matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.DB(ctx).Where("email = ?", email).First(&seller).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// ExistsByShopName reports whether a shop already uses the name.
func (r *Repository) ExistsByShopName(ctx context.Context, shopName string) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Seller{}).Where("shop_name = ?", shopName).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByID loads a seller by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.DB(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// FindByRole returns the first seller row holding the role.
func (r *Repository) FindByRole(ctx context.Context, role enums.AccountRole) (*models.Seller, error) {
	var seller models.Seller
	if err := r.DB(ctx).Where("role = ?", role).Order("created_at ASC").First(&seller).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// ListPending returns sellers awaiting admin approval, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.Seller, error) {
	var rows []models.Seller
	err := r.DB(ctx).
		Where("approved = ? AND role = ?", false, enums.AccountRoleSeller).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListCustomizable returns approved sellers that accept custom requests.
func (r *Repository) ListCustomizable(ctx context.Context) ([]models.Seller, error) {
	var rows []models.Seller
	err := r.DB(ctx).
		Where("approved = ? AND customization_enabled = ? AND role = ?", true, true, enums.AccountRoleSeller).
		Order("shop_name ASC").
		Find(&rows).Error
	return rows, err
}

// ShopNames maps seller ids to shop names. Unknown ids are omitted.
func (r *Repository) ShopNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Seller
	if err := r.DB(ctx).Select("id", "shop_name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.ShopName
	}
	return out, nil
}

// SetApproved flips the approval flag and returns the affected row count.
func (r *Repository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) (int64, error) {
	res := r.DB(ctx).Model(&models.Seller{}).Where("id = ?", id).Update("approved", approved)
	return res.RowsAffected, res.Error
}

// SetCustomization stores the customization flag and returns the affected row count.
func (r *Repository) SetCustomization(ctx context.Context, id uuid.UUID, enabled bool) (int64, error) {
	res := r.DB(ctx).Model(&models.Seller{}).Where("id = ?", id).Update("customization_enabled", enabled)
	return res.RowsAffected, res.Error
}

type salesRow struct {
	LineCount int64
	UnitCount int64
	Revenue   decimal.Decimal
}

type stockRow struct {
	ProductCount int64
	UnitCount    int64
}

// Stats aggregates the seller's catalog, sales, requests and videos concurrently.
func (r *Repository) Stats(ctx context.Context, sellerID uuid.UUID) (*Stats, error) {
	stats := &Stats{SellerID: sellerID, Revenue: decimal.Zero}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var row stockRow
		err := r.DB(gctx).Model(&models.Product{}).
			Select("COUNT(*) AS product_count, COALESCE(SUM(quantity), 0) AS unit_count").
			Where("seller_id = ?", sellerID).
			Scan(&row).Error
		stats.ProductCount, stats.UnitsInStock = row.ProductCount, row.UnitCount
		return err
	})
	g.Go(func() error {
		var row salesRow
		err := r.DB(gctx).Table("order_lines AS ol").
			Select("COUNT(*) AS line_count, COALESCE(SUM(ol.quantity), 0) AS unit_count, COALESCE(SUM(ol.quantity * ol.unit_price), 0) AS revenue").
			Joins("JOIN orders o ON o.id = ol.order_id").
			Where("ol.seller_id = ? AND o.status <> ?", sellerID, enums.OrderStatusCancelled).
			Scan(&row).Error
		stats.OrderLines, stats.UnitsSold, stats.Revenue = row.LineCount, row.UnitCount, row.Revenue
		return err
	})
	g.Go(func() error {
		return r.DB(gctx).Model(&models.CustomPotteryRequest{}).
			Where("seller_id = ? AND status = ?", sellerID, enums.CustomRequestStatusPending).
			Count(&stats.PendingCustomRequests).Error
	})
	g.Go(func() error {
		return r.DB(gctx).Model(&models.Video{}).
			Where("seller_id = ?", sellerID).
			Count(&stats.VideoCount).Error
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
