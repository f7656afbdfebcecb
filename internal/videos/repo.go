package videos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clayhaus/clayhaus-backend/internal/repo"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
)

// Repository persists videos and their liker sets.
type Repository struct {
	repo.Base
}

// NewRepository binds a video repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, video *models.Video) error {
	return r.DB(ctx).Create(video).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	if err := r.DB(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// ListAll returns every video newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Video, error) {
	var rows []models.Video
	err := r.DB(ctx).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Video, error) {
	var rows []models.Video
	err := r.DB(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

// UpdateOwned applies updates to a video only when the seller owns it.
func (r *Repository) UpdateOwned(ctx context.Context, id, sellerID uuid.UUID, updates map[string]any) (int64, error) {
	updates["updated_at"] = time.Now().UTC()
	res := r.DB(ctx).Model(&models.Video{}).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// DeleteOwned removes a video only when the seller owns it.
func (r *Repository) DeleteOwned(ctx context.Context, id, sellerID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ? AND seller_id = ?", id, sellerID).Delete(&models.Video{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteLikes(ctx context.Context, videoID uuid.UUID) error {
	return r.DB(ctx).Where("video_id = ?", videoID).Delete(&models.VideoLike{}).Error
}

// AddLike inserts the liker, ignoring an existing row. Zero rows means the
// user already liked the video.
func (r *Repository) AddLike(ctx context.Context, videoID, userID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.VideoLike{VideoID: videoID, UserID: userID})
	return res.RowsAffected, res.Error
}

func (r *Repository) RemoveLike(ctx context.Context, videoID, userID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("video_id = ? AND user_id = ?", videoID, userID).Delete(&models.VideoLike{})
	return res.RowsAffected, res.Error
}

func (r *Repository) HasLike(ctx context.Context, videoID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.VideoLike{}).
		Where("video_id = ? AND user_id = ?", videoID, userID).
		Count(&count).Error
	return count > 0, err
}

// SyncLikeCount stores the liker-set size on the video and returns it.
func (r *Repository) SyncLikeCount(ctx context.Context, videoID uuid.UUID) (int, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.VideoLike{}).Where("video_id = ?", videoID).Count(&count).Error; err != nil {
		return 0, err
	}
	err := r.DB(ctx).Model(&models.Video{}).
		Where("id = ?", videoID).
		UpdateColumn("likes", count).Error
	return int(count), err
}

// Likers maps each video id to the users that liked it.
func (r *Repository) Likers(ctx context.Context, videoIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(videoIDs))
	if len(videoIDs) == 0 {
		return out, nil
	}
	var rows []models.VideoLike
	err := r.DB(ctx).Where("video_id IN ?", videoIDs).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VideoID] = append(out[row.VideoID], row.UserID)
	}
	return out, nil
}
