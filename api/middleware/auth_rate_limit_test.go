package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

func TestAuthRateLimitThresholds(t *testing.T) {
	cases := []struct {
		name       string
		policy     AuthRateLimitPolicy
		remoteAddr string
		body       string
		wantStatus []int
	}{
		{
			name:       "under both limits",
			policy:     NewAuthRateLimitPolicy("login", time.Minute, 2, 2),
			remoteAddr: "1.2.3.4:5678",
			body:       `{"email":"tester@example.com","password":"secret"}`,
			wantStatus: []int{http.StatusOK, http.StatusOK},
		},
		{
			name:       "email limit",
			policy:     NewAuthRateLimitPolicy("login", time.Minute, 0, 2),
			remoteAddr: "1.2.3.4:5678",
			body:       `{"email":"blocked@example.com","password":"secret"}`,
			wantStatus: []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		},
		{
			name:       "ip limit",
			policy:     NewAuthRateLimitPolicy("register", time.Minute, 1, 0),
			remoteAddr: "5.6.7.8:1234",
			body:       `{"email":"foo@example.com","password":"secret"}`,
			wantStatus: []int{http.StatusOK, http.StatusTooManyRequests},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthRateLimit(tc.policy, newFakeRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.JSONEq(t, tc.body, string(body), "handler must see the original body")
				w.WriteHeader(http.StatusOK)
			}))

			for i, want := range tc.wantStatus {
				req := httptest.NewRequest(http.MethodPost, "/CustomerLogin", strings.NewReader(tc.body))
				req.RemoteAddr = tc.remoteAddr
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				require.Equal(t, want, rec.Code, "request %d", i)

				if want == http.StatusTooManyRequests {
					var payload struct {
						Error struct {
							Code string `json:"code"`
						} `json:"error"`
					}
					require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
					assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)
				}
			}
		})
	}
}

func TestAuthRateLimit_SetsRetryAfterAndKeysByPolicy(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy(" Login ", 90*time.Second, 0, 1)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/SellerLogin", strings.NewReader(`{"email":"  Potter@Example.com "}`))
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "90" {
		t.Fatalf("unexpected Retry-After %q", got)
	}
	key := "rl:email:login:" + hashValue("potter@example.com")
	if store.counts[key] != 2 {
		t.Fatalf("expected normalized email key %s to be counted twice, got %v", key, store.counts)
	}
}

func TestAuthRateLimit_OversizedBodyIsPassedThrough(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("register", time.Minute, 0, 1)
	payload := `{"email":"big@example.com","bio":"` + strings.Repeat("a", maxAuthBodyBytes) + `"}`
	var got int
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = len(body)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/CustomerRegister", strings.NewReader(payload)))
	if got != len(payload) {
		t.Fatalf("expected full body to reach handler, got %d of %d bytes", got, len(payload))
	}
	if len(store.counts) != 0 {
		t.Fatalf("oversized body must not be counted: %v", store.counts)
	}
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}
