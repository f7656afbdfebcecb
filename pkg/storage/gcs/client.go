// Package gcs talks to the Cloud Storage JSON API for the few object
// operations media uploads need.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"

	"github.com/clayhaus/clayhaus-backend/pkg/config"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
)

const (
	readWriteScope = "https://www.googleapis.com/auth/devstorage.read_write"
	defaultAPIBase = "https://storage.googleapis.com"
	requestTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
	uploadTimeout  = time.Minute
)

var errNotInitialized = errors.New("gcs client not initialized")

// Client is bound to one bucket. httpClient must attach credentials.
type Client struct {
	httpClient    *http.Client
	defaultBucket string
	publicBaseURL string
	apiBase       string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Uploader stores an object and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, object string) error
}

// NewClient resolves credentials (inline JSON, a key file, or the ambient
// default chain) and checks the bucket is listable before returning.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("gcs bucket name is required")
	}
	creds, err := credentials(gcp)
	if err != nil {
		return nil, err
	}
	// The token source outlives ctx, so it gets a background context.
	httpClient := oauth2.NewClient(context.Background(), creds.TokenSource)
	httpClient.Timeout = requestTimeout

	c := &Client{
		httpClient:    httpClient,
		defaultBucket: strings.TrimSpace(cfg.BucketName),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		apiBase:       defaultAPIBase,
	}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", c.defaultBucket), "gcs ready")
	}
	return c, nil
}

func credentials(gcp config.GCPConfig) (*google.Credentials, error) {
	ctx := context.Background()
	raw := []byte(gcp.CredentialsJSON)
	if len(raw) == 0 && gcp.ApplicationCredentials != "" {
		var err error
		if raw, err = os.ReadFile(gcp.ApplicationCredentials); err != nil {
			return nil, fmt.Errorf("read gcp credentials file: %w", err)
		}
	}
	if len(raw) == 0 {
		creds, err := google.FindDefaultCredentials(ctx, readWriteScope)
		if err != nil {
			return nil, fmt.Errorf("find default gcp credentials: %w", err)
		}
		return creds, nil
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, readWriteScope)
	if err != nil {
		return nil, fmt.Errorf("parse gcp credentials: %w", err)
	}
	return creds, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Close is a no-op; the HTTP transport is shared.
func (c *Client) Close() error { return nil }

// Ping lists at most one object, which needs storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.do(ctx, http.MethodGet, c.objectsURL("/storage/v1", "", url.Values{"maxResults": {"1"}}), nil, "")
}

// Upload writes body with a single media request and returns the public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	if c == nil || c.httpClient == nil {
		return "", errNotInitialized
	}
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errors.New("object name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	query := url.Values{"uploadType": {"media"}, "name": {object}}
	if err := c.do(ctx, http.MethodPost, c.objectsURL("/upload/storage/v1", "", query), body, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return c.PublicURL(object), nil
}

// Delete removes an object; a missing object is not an error.
func (c *Client) Delete(ctx context.Context, object string) error {
	if c == nil || c.httpClient == nil {
		return errNotInitialized
	}
	err := c.do(ctx, http.MethodDelete, c.objectsURL("/storage/v1", object, nil), nil, "")
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return nil
	}
	return err
}

// PublicURL is the browser-facing location of an object in the default bucket.
func (c *Client) PublicURL(object string) string {
	base := c.publicBaseURL
	if base == "" {
		base = defaultAPIBase
	}
	return base + "/" + c.defaultBucket + "/" + object
}

func (c *Client) objectsURL(prefix, object string, query url.Values) string {
	u := c.apiBase + prefix + "/b/" + url.PathEscape(c.defaultBucket) + "/o"
	if object != "" {
		u += "/" + url.PathEscape(object)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := googleapi.CheckResponse(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
