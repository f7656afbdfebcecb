package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)

type recordingStore struct {
	object      string
	contentType string
	body        []byte
	deleted     []string
	err         error
}

func (r *recordingStore) Upload(_ context.Context, object, contentType string, body io.Reader) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.object = object
	r.contentType = contentType
	r.body, _ = io.ReadAll(body)
	return "https://storage.example/" + object, nil
}

func (r *recordingStore) Delete(_ context.Context, object string) error {
	if r.err != nil {
		return r.err
	}
	r.deleted = append(r.deleted, object)
	return nil
}

func TestUploadImageStreamsWholeBody(t *testing.T) {
	store := &recordingStore{}
	svc, err := NewService(store)
	require.NoError(t, err)
	owner := uuid.New()

	out, err := svc.UploadImage(context.Background(), pkgAuth.Actor{AccountID: owner, Role: enums.AccountRoleSeller}, KindProductImage, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
	assert.True(t, strings.HasPrefix(out.Object, "products/"+owner.String()+"/"))
	assert.True(t, strings.HasSuffix(out.Object, ".png"))
	assert.Equal(t, pngBytes, store.body)
	assert.Equal(t, "https://storage.example/"+out.Object, out.URL)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	svc, err := NewService(&recordingStore{})
	require.NoError(t, err)
	actor := pkgAuth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleCustomer}

	_, err = svc.UploadImage(context.Background(), actor, KindCustomRequestImage, strings.NewReader("just some text"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.UploadImage(context.Background(), actor, KindCustomRequestImage, bytes.NewReader(nil))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.UploadImage(context.Background(), actor, KindVideo, bytes.NewReader(pngBytes))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestUploadImageWrapsStoreFailure(t *testing.T) {
	svc, err := NewService(&recordingStore{err: errors.New("boom")})
	require.NoError(t, err)
	_, err = svc.UploadImage(context.Background(), pkgAuth.Actor{AccountID: uuid.New()}, KindProductImage, bytes.NewReader(pngBytes))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestSniffAcceptsVideoForVideoKind(t *testing.T) {
	// minimal ISO BMFF header with an mp4 brand
	mp4 := append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypmp42\x00\x00\x00\x00mp42isom")...)
	contentType, stream, err := Sniff(KindVideo, bytes.NewReader(mp4))
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", contentType)
	replayed, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, mp4, replayed)

	_, _, err = Sniff(KindVideo, bytes.NewReader(pngBytes))
	assert.Error(t, err)
}

func TestDiscardDeletesObject(t *testing.T) {
	store := &recordingStore{}
	svc, err := NewService(store)
	require.NoError(t, err)

	require.NoError(t, svc.Discard(context.Background(), "custom-requests/a/b.png"))
	require.NoError(t, svc.Discard(context.Background(), " "))
	assert.Equal(t, []string{"custom-requests/a/b.png"}, store.deleted)

	store.err = errors.New("gcs down")
	err = svc.Discard(context.Background(), "custom-requests/a/c.png")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}
