package event

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSocialStore struct {
	mock.Mock
}

func (m *MockSocialStore) AddFavorite(ctx context.Context, userID, eventID uuid.UUID) error {
	return m.Called(ctx, userID, eventID).Error(0)
}

func (m *MockSocialStore) RemoveFavorite(ctx context.Context, userID, eventID uuid.UUID) error {
	return m.Called(ctx, userID, eventID).Error(0)
}

func (m *MockSocialStore) ListFavorites(ctx context.Context, userID uuid.UUID) ([]domain.EventSummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.EventSummary), args.Error(1)
}

func (m *MockSocialStore) IsFavorite(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSocialStore) InsertReview(ctx context.Context, rv *domain.Review) error {
	return m.Called(ctx, rv).Error(0)
}

func (m *MockSocialStore) ListReviews(ctx context.Context, eventID uuid.UUID) ([]domain.Review, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func TestAddReview(t *testing.T) {
	ctx := context.Background()
	userID, eventID := uuid.New(), uuid.New()

	_, err := NewSocial(new(MockSocialStore)).AddReview(ctx, userID, eventID, 6, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	store := new(MockSocialStore)
	store.On("InsertReview", ctx, mock.AnythingOfType("*domain.Review")).Return(nil).Once()
	rv, err := NewSocial(store).AddReview(ctx, userID, eventID, 5, "  great  ")
	require.NoError(t, err)
	assert.Equal(t, "great", rv.Comment)

	store.On("InsertReview", ctx, mock.AnythingOfType("*domain.Review")).Return(errors.Mark(errors.New("dup"), domain.ErrConflict))
	_, err = NewSocial(store).AddReview(ctx, userID, eventID, 4, "")
	assert.Equal(t, "You have already reviewed this event", domain.Message(err, ""))
}

func TestAddFavorite_UnknownEvent(t *testing.T) {
	ctx := context.Background()
	store := new(MockSocialStore)
	userID, eventID := uuid.New(), uuid.New()
	store.On("AddFavorite", ctx, userID, eventID).Return(errors.Mark(errors.New("fk"), domain.ErrNotFound))

	err := NewSocial(store).AddFavorite(ctx, userID, eventID)
	assert.Equal(t, "Event not found", domain.Message(err, ""))
}
