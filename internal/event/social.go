package event

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

type SocialStore interface {
	AddFavorite(ctx context.Context, userID, eventID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, eventID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]domain.EventSummary, error)
	IsFavorite(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	InsertReview(ctx context.Context, rv *domain.Review) error
	ListReviews(ctx context.Context, eventID uuid.UUID) ([]domain.Review, error)
}

// Social manages favorites and reviews.
type Social struct {
	store SocialStore
}

func NewSocial(store SocialStore) *Social {
	return &Social{store: store}
}

func (s *Social) AddFavorite(ctx context.Context, userID, eventID uuid.UUID) error {
	err := s.store.AddFavorite(ctx, userID, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Event not found")
	}
	return err
}

func (s *Social) RemoveFavorite(ctx context.Context, userID, eventID uuid.UUID) error {
	err := s.store.RemoveFavorite(ctx, userID, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Favorite not found")
	}
	return err
}

func (s *Social) ListFavorites(ctx context.Context, userID uuid.UUID) ([]domain.EventSummary, error) {
	return s.store.ListFavorites(ctx, userID)
}

func (s *Social) IsFavorite(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	return s.store.IsFavorite(ctx, userID, eventID)
}

func (s *Social) AddReview(ctx context.Context, userID, eventID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.Invalid("Rating must be between 1 and 5")
	}
	rv := &domain.Review{
		ID:      uuid.New(),
		UserID:  userID,
		EventID: eventID,
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
	}
	err := s.store.InsertReview(ctx, rv)
	switch {
	case errors.Is(err, domain.ErrConflict):
		return nil, domain.Conflict("You have already reviewed this event")
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.NotFound("Event not found")
	case err != nil:
		return nil, err
	}
	return rv, nil
}

func (s *Social) ListReviews(ctx context.Context, eventID uuid.UUID) ([]domain.Review, error) {
	return s.store.ListReviews(ctx, eventID)
}
