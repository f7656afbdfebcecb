package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video is a short clip published by a seller and pinned to content storage.
type Video struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SellerID    uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index:ix_videos_seller"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null"`
	ContentHash string    `gorm:"column:content_hash;not null"`
	Likes       int       `gorm:"column:likes;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Video) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// VideoLike is one member of a video's liker set.
type VideoLike struct {
	VideoID   uuid.UUID `gorm:"column:video_id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
