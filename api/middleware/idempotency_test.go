package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

// memoryReplayStore keeps idempotency records in a map keyed like Redis.
type memoryReplayStore map[string]string

func (m memoryReplayStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m memoryReplayStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, taken := m[key]; taken {
		return false, nil
	}
	m[key], _ = value.(string)
	return true, nil
}

func (m memoryReplayStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m, key)
	}
	return nil
}

func (memoryReplayStore) IdempotencyKey(scope, id string) string { return "test:" + scope + ":" + id }

type replayCall struct {
	pattern string
	key     string
	body    string
	actor   *pkgAuth.Actor
}

func (c replayCall) request() *http.Request {
	req := httptest.NewRequest(http.MethodPost, c.pattern, strings.NewReader(c.body))
	if c.key != "" {
		req.Header.Set(idempotencyHeader, c.key)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{c.pattern}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	if c.actor != nil {
		ctx = WithActor(ctx, *c.actor)
	}
	return req.WithContext(ctx)
}

func serve(h http.Handler, call replayCall) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, call.request())
	return rec
}

func TestRouteTTL(t *testing.T) {
	cases := []struct {
		method, pattern string
		ok              bool
	}{
		{http.MethodPost, "/newOrder", true},
		{http.MethodPost, "/cart/checkout", true},
		{http.MethodGet, "/cart/checkout", false},
		{http.MethodPost, "/CustomerLogin", false},
	}
	for _, tc := range cases {
		ttl, ok := routeTTL(tc.method, tc.pattern)
		assert.Equal(t, tc.ok, ok, "%s %s", tc.method, tc.pattern)
		if ok {
			assert.Equal(t, criticalIdempotencyTTL, ttl)
		}
	}
}

func TestIdempotencyRequiresKeyOnReplayableRoutes(t *testing.T) {
	reached := false
	h := Idempotency(memoryReplayStore{}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))

	rec := serve(h, replayCall{pattern: "/newOrder", body: `{}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, reached)
}

func TestIdempotencyIgnoresOtherRoutes(t *testing.T) {
	store := memoryReplayStore{}
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := serve(h, replayCall{pattern: "/CustomerLogin", body: `{}`})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	calls := 0
	h := Idempotency(memoryReplayStore{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"orderId":"o-1"}`))
	}))
	call := replayCall{pattern: "/newOrder", key: "abc", body: `{"items":1}`}

	first := serve(h, call)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	again := serve(h, call)
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "application/json", again.Header().Get("Content-Type"))
	assert.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, `{"orderId":"o-1"}`, again.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyRejectsKeyReuseWithNewBody(t *testing.T) {
	h := Idempotency(memoryReplayStore{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve(h, replayCall{pattern: "/newOrder", key: "xyz", body: `{"qty":1}`})
	rec := serve(h, replayCall{pattern: "/newOrder", key: "xyz", body: `{"qty":2}`})
	require.Equal(t, http.StatusConflict, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeIdempotency), envelope.Error.Code)
}

func TestIdempotencyKeysAreScopedPerCustomer(t *testing.T) {
	calls := 0
	h := Idempotency(memoryReplayStore{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for range 2 {
		actor := pkgAuth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleCustomer}
		serve(h, replayCall{pattern: "/cart/checkout", key: "same-key", body: `{}`, actor: &actor})
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencySkipsStoringServerErrors(t *testing.T) {
	store := memoryReplayStore{}
	statuses := []int{http.StatusInternalServerError, http.StatusCreated}
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(statuses[calls])
		calls++
	}))

	call := replayCall{pattern: "/newOrder", key: "retry-me", body: `{}`}
	for _, want := range statuses {
		assert.Equal(t, want, serve(h, call).Code)
	}
	assert.Equal(t, 2, calls)
	assert.Len(t, store, 1)
}
