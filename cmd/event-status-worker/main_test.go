package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-marketplace/internal/observability"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) CompleteEndedEvents(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateTrending(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newWorker(repo EventCompleter, cache TrendingInvalidator) *StatusWorker {
	log := logrus.New()
	log.SetOutput(io.Discard)
	w := NewStatusWorker(repo, cache, observability.NewLoggerWith(log))
	w.backoff = time.Millisecond
	return w
}

func TestSweep_RetriesThenInvalidates(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo, cache := new(MockRepo), new(MockCache)
	repo.On("CompleteEndedEvents", ctx, now).Return(int64(0), errors.New("restart")).Once()
	repo.On("CompleteEndedEvents", ctx, now).Return(int64(2), nil).Once()
	cache.On("InvalidateTrending", ctx).Return(nil)

	n, err := newWorker(repo, cache).sweepWithRetry(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	cache.AssertExpectations(t)
}

func TestSweep_NothingEndedKeepsCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo, cache := new(MockRepo), new(MockCache)
	repo.On("CompleteEndedEvents", ctx, now).Return(int64(0), nil)

	_, err := newWorker(repo, cache).sweepWithRetry(ctx, now)
	require.NoError(t, err)
	cache.AssertNotCalled(t, "InvalidateTrending", mock.Anything)
}

func TestSweep_GivesUp(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := new(MockRepo)
	repo.On("CompleteEndedEvents", ctx, now).Return(int64(0), errors.New("db down"))

	_, err := newWorker(repo, new(MockCache)).sweepWithRetry(ctx, now)
	assert.ErrorContains(t, err, "failed after 3 retries")
	repo.AssertNumberOfCalls(t, "CompleteEndedEvents", 3)
}
