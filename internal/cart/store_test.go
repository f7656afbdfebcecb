package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clayhaus/clayhaus-backend/pkg/redis"
)

type memoryKV struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return m.err
}

func (m *memoryKV) CartKey(customerID string) string {
	return "ch:cart:" + customerID
}

func TestRedisStoreRoundTrip(t *testing.T) {
	kv := newMemoryKV()
	store, err := NewRedisStore(kv, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	customerID := uuid.New()

	empty, err := store.Load(ctx, customerID)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)

	id := uuid.New()
	require.NoError(t, store.Save(ctx, customerID, Cart{}.Add(item(id, 12), 2)))
	assert.Equal(t, time.Hour, kv.ttls["ch:cart:"+customerID.String()])

	loaded, err := store.Load(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, id, loaded.Items[0].ID)
	assert.Equal(t, 2, loaded.Items[0].Quantity)

	require.NoError(t, store.Delete(ctx, customerID))
	loaded, err = store.Load(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestRedisStoreErrors(t *testing.T) {
	_, err := NewRedisStore(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewRedisStore(newMemoryKV(), 0)
	assert.Error(t, err)

	kv := newMemoryKV()
	store, err := NewRedisStore(kv, time.Hour)
	require.NoError(t, err)
	customerID := uuid.New()
	kv.data[kv.CartKey(customerID.String())] = "{not json"
	_, err = store.Load(context.Background(), customerID)
	assert.Error(t, err)

	kv.err = errors.New("connection refused")
	_, err = store.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, kv.err)
}
