package videos

import (
	"time"

	"github.com/google/uuid"

	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
)

// UnknownSellerName labels videos whose seller no longer resolves.
const UnknownSellerName = "Unknown Seller"

// UploadInput carries a spooled upload. TempPath is removed by the service.
type UploadInput struct {
	Title       string
	Description string
	SellerID    uuid.UUID
	Filename    string
	TempPath    string
}

// ListBySellerRequest is the payload of POST /video/User.
type ListBySellerRequest struct {
	SellerID uuid.UUID `json:"sellerId" validate:"required"`
}

// UpdateRequest is the payload of PUT /video/Update.
type UpdateRequest struct {
	VideoID     uuid.UUID `json:"videoId" validate:"required"`
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// VideoDTO is the public view of a video.
type VideoDTO struct {
	ID          uuid.UUID   `json:"id"`
	SellerID    uuid.UUID   `json:"sellerId"`
	SellerName  string      `json:"sellerName"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ContentHash string      `json:"contentHash"`
	URL         string      `json:"url"`
	Likes       int         `json:"likes"`
	LikedBy     []uuid.UUID `json:"likedBy"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// LikeDTO is returned by the toggle endpoint.
type LikeDTO struct {
	VideoID uuid.UUID `json:"videoId"`
	Liked   bool      `json:"liked"`
	Likes   int       `json:"likes"`
}

func newVideoDTO(m models.Video, sellerName, url string, likedBy []uuid.UUID) VideoDTO {
	if likedBy == nil {
		likedBy = []uuid.UUID{}
	}
	return VideoDTO{
		ID:          m.ID,
		SellerID:    m.SellerID,
		SellerName:  sellerName,
		Title:       m.Title,
		Description: m.Description,
		ContentHash: m.ContentHash,
		URL:         url,
		Likes:       m.Likes,
		LikedBy:     likedBy,
		CreatedAt:   m.CreatedAt,
	}
}
