package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/internal/repo"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/pagination"
)

const reviewUniqueIndex = "ux_product_reviews_product_customer"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository wires together product and review persistence helpers.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// UpdateFields writes only the given columns of a product row.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	return r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(cols).Error
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads products keyed by id. Missing ids are omitted.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// GetDetail fetches a product with its reviews, newest first.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListAll returns every product, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// ListPage returns one cursor page ordered by (created_at, id) descending.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.DB(ctx).Model(&models.Product{})
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Product
	if err := q.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	return rows, next, nil
}

// ListBySeller returns the seller's products, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// Search matches a case-insensitive substring of the name, or the exact
// category or subcategory.
func (r *Repository) Search(ctx context.Context, key string) ([]models.Product, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(key)) + "%"
	var rows []models.Product
	err := r.DB(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR category = ? OR subcategory = ?`, pattern, key, key).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Delete removes a product by id and returns the affected row count.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// DeleteBySeller removes all of a seller's products and their reviews.
func (r *Repository) DeleteBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	sub := r.DB(ctx).Model(&models.Product{}).Select("id").Where("seller_id = ?", sellerID)
	if err := r.DB(ctx).Where("product_id IN (?)", sub).Delete(&models.ProductReview{}).Error; err != nil {
		return 0, err
	}
	res := r.DB(ctx).Where("seller_id = ?", sellerID).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// DeleteReviews removes every review attached to the product.
func (r *Repository) DeleteReviews(ctx context.Context, productID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("product_id = ?", productID).Delete(&models.ProductReview{})
	return res.RowsAffected, res.Error
}

// CreateReview inserts a review row.
func (r *Repository) CreateReview(ctx context.Context, review *models.ProductReview) error {
	return r.DB(ctx).Create(review).Error
}

// FindReview loads one review of the product.
func (r *Repository) FindReview(ctx context.Context, productID, reviewID uuid.UUID) (*models.ProductReview, error) {
	var review models.ProductReview
	if err := r.DB(ctx).Where("id = ? AND product_id = ?", reviewID, productID).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReview removes one review by id.
func (r *Repository) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", reviewID).Delete(&models.ProductReview{}).Error
}

// DecrementStock subtracts qty only while enough units remain, clearing
// in_stock when the last unit goes. It reports whether a row changed and the
// quantity left afterwards.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, int, error) {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"in_stock":   gorm.Expr("CASE WHEN quantity - ? > 0 THEN in_stock ELSE ? END", qty, false),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return false, 0, nil
	}
	var remaining []int
	if err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Pluck("quantity", &remaining).Error; err != nil {
		return true, 0, err
	}
	if len(remaining) == 0 {
		return true, 0, nil
	}
	return true, remaining[0], nil
}

// MarkDepletedOutOfStock clears in_stock on listings whose quantity has run out.
func (r *Repository) MarkDepletedOutOfStock(ctx context.Context, tx *gorm.DB) (int64, error) {
	res := r.Conn(ctx, tx).Model(&models.Product{}).
		Where("quantity = 0 AND in_stock = ?", true).
		Updates(map[string]any{"in_stock": false, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}
