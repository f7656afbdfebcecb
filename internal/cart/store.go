package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clayhaus/clayhaus-backend/pkg/redis"
)

// Store persists one cart per customer.
type Store interface {
	Load(ctx context.Context, customerID uuid.UUID) (Cart, error)
	Save(ctx context.Context, customerID uuid.UUID, cart Cart) error
	Delete(ctx context.Context, customerID uuid.UUID) error
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(customerID string) string
}

// RedisStore keeps each cart as a JSON document under its own key, separate
// from session credentials and the saved address.
type RedisStore struct {
	kv  kvStore
	ttl time.Duration
}

// NewRedisStore builds a cart store. The TTL is refreshed on every save.
func NewRedisStore(kv kvStore, ttl time.Duration) (*RedisStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{kv: kv, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, customerID uuid.UUID) (Cart, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(customerID.String()))
	if err != nil {
		if redis.IsNil(err) {
			return Cart{Items: []Item{}}, nil
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []Item{}
	}
	return cart, nil
}

// Save re-serializes the whole cart.
func (s *RedisStore) Save(ctx context.Context, customerID uuid.UUID, cart Cart) error {
	if cart.Items == nil {
		cart.Items = []Item{}
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(customerID.String()), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, customerID uuid.UUID) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(customerID.String())); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
