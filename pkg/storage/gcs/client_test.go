package gcs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/clayhaus/clayhaus-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, srv.Client())
	return &Client{
		httpClient:    oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})),
		defaultBucket: "clayhaus-media",
		publicBaseURL: "https://cdn.example.com",
		apiBase:       srv.URL,
	}
}

func TestUploadSendsMediaRequest(t *testing.T) {
	var gotBody, gotName, gotType, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/storage/v1/b/clayhaus-media/o", r.URL.Path)
		assert.Equal(t, "media", r.URL.Query().Get("uploadType"))
		gotName = r.URL.Query().Get("name")
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"name":"products/vase.png"}`))
	})

	u, err := client.Upload(context.Background(), "/products/vase.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/clayhaus-media/products/vase.png", u)
	assert.Equal(t, "products/vase.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "png-bytes", gotBody)
}

func TestUploadSurfacesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	})

	_, err := client.Upload(context.Background(), "x.png", "", strings.NewReader("x"))
	require.Error(t, err)
	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
	assert.Contains(t, err.Error(), "denied")

	_, err = client.Upload(context.Background(), "  ", "", strings.NewReader("x"))
	require.Error(t, err)
}

func TestDeleteToleratesMissingObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/storage/v1/b/clayhaus-media/o/requests/a.jpg", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})
	require.NoError(t, client.Delete(context.Background(), "requests/a.jpg"))
}

func TestDeleteReportsOtherFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	require.Error(t, client.Delete(context.Background(), "requests/a.jpg"))
}

func TestPingChecksBucket(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/b/clayhaus-media/o", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	require.NoError(t, client.Ping(context.Background()))

	var nilClient *Client
	require.Error(t, nilClient.Ping(context.Background()))
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil)
	require.Error(t, err)

	_, err = NewClient(context.Background(), config.GCSConfig{BucketName: "b"}, config.GCPConfig{CredentialsJSON: "{not json"}, nil)
	require.Error(t, err)
}
