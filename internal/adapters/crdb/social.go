package crdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

func (r *Repository) AddFavorite(ctx context.Context, userID, eventID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_favorites (user_id, event_id) VALUES ($1, $2)
		ON CONFLICT (user_id, event_id) DO NOTHING
	`, userID, eventID)
	return mapErr(err, "add favorite")
}

func (r *Repository) RemoveFavorite(ctx context.Context, userID, eventID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM event_favorites WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return mapErr(err, "remove favorite")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) IsFavorite(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM event_favorites WHERE user_id = $1 AND event_id = $2)
	`, userID, eventID).Scan(&ok)
	if err != nil {
		return false, mapErr(err, "check favorite")
	}
	return ok, nil
}

func (r *Repository) ListFavorites(ctx context.Context, userID uuid.UUID) ([]domain.EventSummary, error) {
	rows, err := r.pool.Query(ctx, summarySelect+`
		JOIN event_favorites f ON f.event_id = e.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, mapErr(err, "list favorites")
	}
	events, err := collectSummaries(rows)
	return events, mapErr(err, "scan favorites")
}

func (r *Repository) InsertReview(ctx context.Context, rv *domain.Review) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO event_reviews (id, user_id, event_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, rv.ID, rv.UserID, rv.EventID, rv.Rating, rv.Comment).Scan(&rv.CreatedAt)
	return mapErr(err, "insert review")
}

func (r *Repository) ListReviews(ctx context.Context, eventID uuid.UUID) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rv.id, rv.user_id, u.name, rv.event_id, rv.rating, rv.comment, rv.created_at
		FROM event_reviews rv JOIN users u ON u.id = rv.user_id
		WHERE rv.event_id = $1
		ORDER BY rv.created_at DESC
	`, eventID)
	if err != nil {
		return nil, mapErr(err, "list reviews")
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.UserName, &rv.EventID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, mapErr(err, "scan review")
		}
		reviews = append(reviews, rv)
	}
	return reviews, mapErr(rows.Err(), "list reviews")
}

// RatingSummary returns the average rating and number of reviews for an event.
func (r *Repository) RatingSummary(ctx context.Context, eventID uuid.UUID) (float64, int, error) {
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::FLOAT8, count(*) FROM event_reviews WHERE event_id = $1
	`, eventID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, mapErr(err, "rating summary")
	}
	return avg, count, nil
}
