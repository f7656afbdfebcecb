package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

type uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, object string) error
}

// Upload describes a stored object.
type Upload struct {
	Object      string `json:"object"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
}

// Service stores product and custom-request images in object storage.
type Service interface {
	UploadImage(ctx context.Context, actor pkgAuth.Actor, kind Kind, body io.Reader) (*Upload, error)
	// Discard removes an object whose owning row was never written.
	Discard(ctx context.Context, object string) error
}

type service struct {
	store uploader
}

// NewService constructs a media service backed by the provided object store.
func NewService(store uploader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	return &service{store: store}, nil
}

func (s *service) UploadImage(ctx context.Context, actor pkgAuth.Actor, kind Kind, body io.Reader) (*Upload, error) {
	if actor.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing")
	}
	if kind != KindProductImage && kind != KindCustomRequestImage {
		return nil, pkgerrors.Invalid("kind", "must be an image kind")
	}
	if body == nil {
		return nil, pkgerrors.Invalid("image", "is required")
	}

	contentType, stream, err := Sniff(kind, body)
	if err != nil {
		return nil, pkgerrors.Invalid("image", err.Error())
	}

	object := ObjectKey(kind, actor.AccountID, Extension(contentType))
	url, err := s.store.Upload(ctx, object, contentType, stream)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	return &Upload{Object: object, URL: url, ContentType: contentType}, nil
}

func (s *service) Discard(ctx context.Context, object string) error {
	if strings.TrimSpace(object) == "" {
		return nil
	}
	if err := s.store.Delete(ctx, object); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	return nil
}

// ObjectKey builds "<prefix>/<owner>/<uuid><ext>".
func ObjectKey(kind Kind, owner uuid.UUID, ext string) string {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(kind.Prefix(), owner.String(), uuid.NewString()+ext)
}
