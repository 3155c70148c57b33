package idempotency

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	redisadapter "github.com/robertarktes/event-marketplace/internal/adapters/redis"
)

var ErrInFlight = errors.New("request with this idempotency key is in progress")

type Store interface {
	Get(ctx context.Context, key string) (*redisadapter.IdempResponse, error)
	Set(ctx context.Context, key string, resp redisadapter.IdempResponse, ttl time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type Idempotency struct {
	store Store
	ttl   time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

type Response struct {
	Status      int
	ContentType string
	Result      []byte
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	stored, err := i.store.Get(ctx, key)
	if err != nil || stored == nil {
		return nil, err
	}
	return &Response{Status: stored.Status, ContentType: stored.ContentType, Result: stored.Result}, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	return i.store.Set(ctx, key, redisadapter.IdempResponse{Status: resp.Status, ContentType: resp.ContentType, Result: resp.Result}, i.ttl)
}

// Begin claims key for one request. It returns the stored response when the
// key was already completed, and ErrInFlight while another request holds it.
// A nil response means the caller owns the key and must call Finish.
func (i *Idempotency) Begin(ctx context.Context, key string) (*Response, error) {
	if prev, err := i.Get(ctx, key); err != nil || prev != nil {
		return prev, err
	}
	ok, err := i.store.Lock(ctx, key, time.Minute)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInFlight
	}
	// Another request may have finished between the first read and the lock.
	prev, err := i.Get(ctx, key)
	if err != nil || prev != nil {
		_ = i.store.Unlock(ctx, key)
		return prev, err
	}
	return nil, nil
}

// Finish stores resp (when non-nil) and releases the claim taken by Begin.
func (i *Idempotency) Finish(ctx context.Context, key string, resp *Response) error {
	if resp != nil {
		if err := i.Set(ctx, key, *resp); err != nil {
			_ = i.store.Unlock(ctx, key)
			return err
		}
	}
	return i.store.Unlock(ctx, key)
}
