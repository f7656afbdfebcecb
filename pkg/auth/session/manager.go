package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clayhaus/clayhaus-backend/pkg/config"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	redisclient "github.com/clayhaus/clayhaus-backend/pkg/redis"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Principal is the account a refresh session belongs to.
type Principal struct {
	AccountID uuid.UUID         `json:"accountId"`
	Role      enums.AccountRole `json:"role"`
	Email     string            `json:"email"`
}

type record struct {
	Principal
	RefreshToken string `json:"refreshToken"`
}

// Manager handles refresh token creation, storage, and rotation.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, client, cfg)
}

func newManager(store sessionStore, keyer sessionKeyer, cfg config.JWTConfig) (*Manager, error) {
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: store, keyer: keyer, ttl: ttl}, nil
}

var errNoAccessID = errors.New("access id is required")

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func (m *Manager) key(accessID string) string { return m.keyer.AccessSessionKey(accessID) }

// Generate issues a refresh token bound to accessID. The session lives in
// Redis for the refresh TTL and carries the principal for later rotation.
func (m *Manager) Generate(ctx context.Context, accessID string, principal Principal) (string, error) {
	switch {
	case blank(accessID):
		return "", errNoAccessID
	case principal.AccountID == uuid.Nil:
		return "", errors.New("account id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	return token, m.save(ctx, accessID, record{Principal: principal, RefreshToken: token})
}

// Rotate swaps the session under oldAccessID for a fresh one when provided
// matches its refresh token. It returns the new access id, the new refresh
// token and the stored principal. The old session is gone on success.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, Principal, error) {
	if blank(oldAccessID) || blank(provided) {
		return "", "", Principal{}, ErrInvalidRefreshToken
	}
	current, err := m.load(ctx, oldAccessID)
	if err != nil {
		return "", "", Principal{}, err
	}
	if subtle.ConstantTimeCompare([]byte(current.RefreshToken), []byte(provided)) != 1 {
		return "", "", Principal{}, ErrInvalidRefreshToken
	}

	nextID := NewAccessID()
	nextToken, err := m.Generate(ctx, nextID, current.Principal)
	if err != nil {
		return "", "", Principal{}, err
	}
	if err := m.store.Del(ctx, m.key(oldAccessID)); err != nil {
		return "", "", Principal{}, fmt.Errorf("drop rotated session: %w", err)
	}
	return nextID, nextToken, current.Principal, nil
}

// Revoke ends the session for accessID. Revoking a missing session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return errNoAccessID
	}
	return m.store.Del(ctx, m.key(accessID))
}

// HasSession reports whether accessID still maps to a live refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if blank(accessID) {
		return false, errNoAccessID
	}
	_, err := m.store.Get(ctx, m.key(accessID))
	switch {
	case redisclient.IsNil(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) save(ctx context.Context, accessID string, rec record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return m.store.Set(ctx, m.key(accessID), string(payload), m.ttl)
}

// load treats a missing or unreadable session as an invalid refresh token.
func (m *Manager) load(ctx context.Context, accessID string) (record, error) {
	var rec record
	raw, err := m.store.Get(ctx, m.key(accessID))
	switch {
	case redisclient.IsNil(err):
		return rec, ErrInvalidRefreshToken
	case err != nil:
		return rec, err
	}
	if json.Unmarshal([]byte(raw), &rec) != nil {
		return rec, ErrInvalidRefreshToken
	}
	return rec, nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
