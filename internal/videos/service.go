package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/internal/media"
	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type sellerDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	ShopNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type pinner interface {
	PinFile(ctx context.Context, filename string, body io.Reader) (string, error)
	GatewayURL(hash string) string
}

// Service manages seller videos and likes.
type Service interface {
	Upload(ctx context.Context, actor pkgAuth.Actor, input UploadInput) (*VideoDTO, error)
	List(ctx context.Context) ([]VideoDTO, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]VideoDTO, error)
	ToggleLike(ctx context.Context, actor pkgAuth.Actor, videoID uuid.UUID) (*LikeDTO, error)
	Delete(ctx context.Context, actor pkgAuth.Actor, sellerID, videoID uuid.UUID) error
	Update(ctx context.Context, actor pkgAuth.Actor, req UpdateRequest) (*VideoDTO, error)
}

// ServiceParams bundles the video service dependencies.
type ServiceParams struct {
	DB      txRunner
	Repo    *Repository
	Sellers sellerDirectory
	Pinner  pinner
	Outbox  outboxPublisher
	Logger  *logger.Logger
}

type service struct {
	tx      txRunner
	repo    *Repository
	sellers sellerDirectory
	pinner  pinner
	outbox  outboxPublisher
	logg    *logger.Logger
}

// NewService constructs the video service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("video repository required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("seller directory required")
	}
	if params.Pinner == nil {
		return nil, fmt.Errorf("pinning client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:      params.DB,
		repo:    params.Repo,
		sellers: params.Sellers,
		pinner:  params.Pinner,
		outbox:  params.Outbox,
		logg:    logg,
	}, nil
}

func (s *service) Upload(ctx context.Context, actor pkgAuth.Actor, input UploadInput) (*VideoDTO, error) {
	if input.TempPath != "" {
		defer s.removeTemp(ctx, input.TempPath)
	}
	if input.TempPath == "" {
		return nil, pkgerrors.Invalid("video", "is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.Invalid("title", "is required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.Invalid("sellerId", "is required")
	}
	if !actor.Is(input.SellerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot upload for another seller")
	}
	seller, err := s.sellers.FindByID(ctx, input.SellerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}
	if !seller.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller account is awaiting admin approval")
	}

	file, err := os.Open(input.TempPath)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open upload")
	}
	defer file.Close()

	_, stream, err := media.Sniff(media.KindVideo, file)
	if err != nil {
		return nil, pkgerrors.Invalid("video", err.Error())
	}
	filename := filepath.Base(strings.TrimSpace(input.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = filepath.Base(input.TempPath)
	}
	hash, err := s.pinner.PinFile(ctx, filename, stream)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pin video")
	}

	video := &models.Video{
		ID:          uuid.New(),
		SellerID:    seller.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		ContentHash: hash,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, video); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create video")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventVideoPublished,
			AggregateType: enums.AggregateVideo,
			AggregateID:   video.ID,
			Actor:         &outbox.ActorRef{AccountID: actor.AccountID, Role: actor.Role},
			Data:          payloads.VideoPublishedEvent{VideoID: video.ID, SellerID: video.SellerID, ContentHash: hash},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit video published")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := newVideoDTO(*video, seller.ShopName, s.pinner.GatewayURL(hash), nil)
	return &out, nil
}

func (s *service) removeTemp(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"path": path, "error": err.Error()}), "video.temp_remove_failed")
	}
}

func (s *service) List(ctx context.Context) ([]VideoDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list videos")
	}
	return s.decorate(ctx, rows)
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]VideoDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.Invalid("sellerId", "is required")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller videos")
	}
	return s.decorate(ctx, rows)
}

func (s *service) decorate(ctx context.Context, rows []models.Video) ([]VideoDTO, error) {
	sellerIDs := make([]uuid.UUID, 0, len(rows))
	videoIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		sellerIDs = append(sellerIDs, row.SellerID)
		videoIDs = append(videoIDs, row.ID)
	}
	names, err := s.sellers.ShopNames(ctx, sellerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller names")
	}
	likers, err := s.repo.Likers(ctx, videoIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load likers")
	}
	out := make([]VideoDTO, 0, len(rows))
	for _, row := range rows {
		name, ok := names[row.SellerID]
		if !ok {
			name = UnknownSellerName
		}
		out = append(out, newVideoDTO(row, name, s.pinner.GatewayURL(row.ContentHash), likers[row.ID]))
	}
	return out, nil
}

// ToggleLike flips the caller's membership in the liker set and recomputes the
// count in the same transaction.
func (s *service) ToggleLike(ctx context.Context, actor pkgAuth.Actor, videoID uuid.UUID) (*LikeDTO, error) {
	if actor.Role != enums.AccountRoleCustomer && actor.Role != enums.AccountRoleSeller {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer or seller role required")
	}
	var out *LikeDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindByID(ctx, videoID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load video")
		}
		liked, err := txRepo.HasLike(ctx, videoID, actor.AccountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check like")
		}
		if liked {
			if _, err := txRepo.RemoveLike(ctx, videoID, actor.AccountID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove like")
			}
		} else {
			if _, err := txRepo.AddLike(ctx, videoID, actor.AccountID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add like")
			}
		}
		count, err := txRepo.SyncLikeCount(ctx, videoID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sync like count")
		}
		out = &LikeDTO{VideoID: videoID, Liked: !liked, Likes: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the caller's own video. A wrong owner reads as not found.
func (s *service) Delete(ctx context.Context, actor pkgAuth.Actor, sellerID, videoID uuid.UUID) error {
	if !actor.Is(sellerID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		affected, err := txRepo.DeleteOwned(ctx, videoID, sellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete video")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
		}
		if err := txRepo.DeleteLikes(ctx, videoID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete likes")
		}
		return nil
	})
}

func (s *service) Update(ctx context.Context, actor pkgAuth.Actor, req UpdateRequest) (*VideoDTO, error) {
	updates := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, pkgerrors.Invalid("title", "must not be empty")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if len(updates) == 0 {
		return nil, pkgerrors.Invalid("body", "nothing to update")
	}
	affected, err := s.repo.UpdateOwned(ctx, req.VideoID, actor.AccountID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update video")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}
	video, err := s.repo.FindByID(ctx, req.VideoID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload video")
	}
	out, err := s.decorate(ctx, []models.Video{*video})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}
