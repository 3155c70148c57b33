package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"

	redisadapter "github.com/robertarktes/event-marketplace/internal/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu    sync.Mutex
	resp  map[string]redisadapter.IdempResponse
	locks map[string]bool
}

func newMemStore() *memStore {
	return &memStore{resp: map[string]redisadapter.IdempResponse{}, locks: map[string]bool{}}
}

func (m *memStore) Get(_ context.Context, key string) (*redisadapter.IdempResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resp[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) Set(_ context.Context, key string, resp redisadapter.IdempResponse, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resp[key] = resp
	return nil
}

func (m *memStore) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *memStore) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func TestBeginFinish(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	idemp := NewIdempotency(store, time.Hour)

	prev, err := idemp.Begin(ctx, "user:pay-1")
	require.NoError(t, err)
	assert.Nil(t, prev)

	_, err = idemp.Begin(ctx, "user:pay-1")
	assert.ErrorIs(t, err, ErrInFlight)

	require.NoError(t, idemp.Finish(ctx, "user:pay-1", &Response{Status: 201, ContentType: "application/json", Result: []byte(`{"id":1}`)}))

	prev, err = idemp.Begin(ctx, "user:pay-1")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, 201, prev.Status)
	assert.Equal(t, `{"id":1}`, string(prev.Result))
	assert.False(t, store.locks["user:pay-1"])
}

func TestFinishWithoutResponseReleasesKey(t *testing.T) {
	ctx := context.Background()
	idemp := NewIdempotency(newMemStore(), time.Hour)

	_, err := idemp.Begin(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, idemp.Finish(ctx, "k", nil))

	prev, err := idemp.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, prev)
}

// racingStore runs beforeLock once, after Begin's first read and before its lock.
type racingStore struct {
	*memStore
	beforeLock func()
}

func (r *racingStore) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.beforeLock != nil {
		hook := r.beforeLock
		r.beforeLock = nil
		hook()
	}
	return r.memStore.Lock(ctx, key, ttl)
}

func TestBegin_ResponseStoredWhileClaiming(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{memStore: newMemStore()}
	first := NewIdempotency(store.memStore, time.Hour)
	second := NewIdempotency(store, time.Hour)

	prev, err := first.Begin(ctx, "user:pay-2")
	require.NoError(t, err)
	require.Nil(t, prev)

	store.beforeLock = func() {
		require.NoError(t, first.Finish(ctx, "user:pay-2", &Response{Status: 201, Result: []byte("paid")}))
	}

	prev, err = second.Begin(ctx, "user:pay-2")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "paid", string(prev.Result))
	assert.False(t, store.locks["user:pay-2"])
}
