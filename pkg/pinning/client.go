package pinning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/clayhaus/clayhaus-backend/pkg/config"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.pinata.cloud"
	pinFilePath                 = "/pinning/pinFileToIPFS"
	responseBodyReadLimit int64 = 1024
)

var errJWTRequired = errors.New("pinning service jwt is required")

// Pinner uploads a file to content-addressed storage and returns its hash.
type Pinner interface {
	PinFile(ctx context.Context, filename string, body io.Reader) (string, error)
}

// Client talks to a Pinata-compatible pinning API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	jwt        string
	gatewayURL string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the client from config. The JWT is mandatory.
func NewClient(cfg config.PinningConfig, opts ...Option) (*Client, error) {
	jwt := strings.TrimSpace(cfg.JWT)
	if jwt == "" {
		return nil, errJWTRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		jwt:        jwt,
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PinFile streams body as a multipart upload. Any non-2xx status or an empty
// hash in the response is a failure.
func (c *Client) PinFile(ctx context.Context, filename string, body io.Reader) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "pinning client not configured")
	}
	if body == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if strings.TrimSpace(filename) == "" {
		filename = "upload"
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if err == nil {
			err = form.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	url := strings.TrimRight(c.baseURL, "/") + pinFilePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build pin request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute pin request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "pin request failed")
	}

	var apiResp struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode pin response")
	}
	hash := strings.TrimSpace(apiResp.IpfsHash)
	if hash == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "pin response missing content hash")
	}
	return hash, nil
}

// GatewayURL returns the public URL for a pinned hash, or "" when no gateway is configured.
func (c *Client) GatewayURL(hash string) string {
	if c == nil || c.gatewayURL == "" || hash == "" {
		return ""
	}
	return c.gatewayURL + "/" + hash
}
