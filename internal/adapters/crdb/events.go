package crdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

const eventColumns = `e.id, e.title, e.description, e.start_date, e.end_date, e.event_time, e.location,
	e.category, e.organizer_id, e.status, e.image, e.created_at, e.updated_at`

// summarySelect joins every event with its ticket and the confirmed quantity sold.
const summarySelect = `
	SELECT ` + eventColumns + `, t.id, COALESCE(t.price, 0)::FLOAT8, COALESCE(t.max_quantity, 0), COALESCE(s.sold, 0)::INT8
	FROM events e
	LEFT JOIN tickets t ON t.event_id = e.id
	LEFT JOIN (
		SELECT ticket_id, SUM(quantity) AS sold FROM ticket_purchases
		WHERE status = 'confirmed' GROUP BY ticket_id
	) s ON s.ticket_id = t.id`

func scanEventSummary(row rowScanner) (*domain.EventSummary, error) {
	var s domain.EventSummary
	e := &s.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.EventTime, &e.Location,
		&e.Category, &e.OrganizerID, &e.Status, &e.Image, &e.CreatedAt, &e.UpdatedAt,
		&s.TicketID, &s.TicketPrice, &s.MaxQuantity, &s.Sold)
	if err != nil {
		return nil, err
	}
	s.Remaining = s.MaxQuantity - s.Sold
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	return &s, nil
}

func collectSummaries(rows pgx.Rows) ([]domain.EventSummary, error) {
	defer rows.Close()
	events := []domain.EventSummary{}
	for rows.Next() {
		s, err := scanEventSummary(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *s)
	}
	return events, rows.Err()
}

func (r *Repository) InsertEvent(ctx context.Context, tx pgx.Tx, e *domain.Event) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO events (id, title, description, start_date, end_date, event_time, location, category, organizer_id, status, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, e.ID, e.Title, e.Description, e.StartDate, e.EndDate, e.EventTime, e.Location, e.Category, e.OrganizerID, e.Status, e.Image).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	return mapErr(err, "insert event")
}

func (r *Repository) InsertTicket(ctx context.Context, tx pgx.Tx, t domain.Ticket) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO tickets (id, event_id, price, max_quantity) VALUES ($1, $2, $3, $4)
	`, t.ID, t.EventID, t.Price, t.MaxQuantity)
	return mapErr(err, "insert ticket")
}

// LockEvent reads an event row with FOR UPDATE so ownership checks and the
// following write see the same row.
func (r *Repository) LockEvent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Event, error) {
	var e domain.Event
	err := tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE`, id).
		Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.EventTime, &e.Location,
			&e.Category, &e.OrganizerID, &e.Status, &e.Image, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "lock event")
	}
	return &e, nil
}

func (r *Repository) GetEventOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT organizer_id FROM events WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		return uuid.Nil, mapErr(err, "get event owner")
	}
	return owner, nil
}

func (r *Repository) UpdateEvent(ctx context.Context, tx pgx.Tx, e *domain.Event) error {
	err := tx.QueryRow(ctx, `
		UPDATE events SET title = $2, description = $3, start_date = $4, end_date = $5, event_time = $6,
			location = $7, category = $8, status = $9, image = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, e.ID, e.Title, e.Description, e.StartDate, e.EndDate, e.EventTime, e.Location, e.Category, e.Status, e.Image).
		Scan(&e.UpdatedAt)
	return mapErr(err, "update event")
}

func (r *Repository) UpdateTicket(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, price *float64, maxQuantity *int) error {
	result, err := tx.Exec(ctx, `
		UPDATE tickets SET price = COALESCE($2, price), max_quantity = COALESCE($3, max_quantity)
		WHERE event_id = $1
	`, eventID, price, maxQuantity)
	if err != nil {
		return mapErr(err, "update ticket")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteEvent removes the event; tickets, stalls and their bookings go with it
// through ON DELETE CASCADE.
func (r *Repository) DeleteEvent(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	result, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "delete event")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) GetEventSummary(ctx context.Context, id uuid.UUID) (*domain.EventSummary, error) {
	s, err := scanEventSummary(r.pool.QueryRow(ctx, summarySelect+` WHERE e.id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get event")
	}
	return s, nil
}

func (r *Repository) ListEvents(ctx context.Context, f domain.EventFilter) ([]domain.EventSummary, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Category != "" {
		conds = append(conds, "e.category = "+arg(f.Category))
	}
	if f.Status != "" {
		conds = append(conds, "e.status = "+arg(string(f.Status)))
	}
	if f.Query != "" {
		p := arg("%" + escapeLike(f.Query) + "%")
		conds = append(conds, "(e.title ILIKE "+p+" OR e.location ILIKE "+p+")")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM events e`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err, "count events")
	}

	query := summarySelect + where + ` ORDER BY e.start_date ASC, e.id LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg((f.Page-1)*f.Limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapErr(err, "list events")
	}
	events, err := collectSummaries(rows)
	if err != nil {
		return nil, 0, mapErr(err, "scan events")
	}
	return events, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes q match literally inside an ILIKE pattern.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}

func (r *Repository) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.EventSummary, error) {
	rows, err := r.pool.Query(ctx, summarySelect+` WHERE e.organizer_id = $1 ORDER BY e.created_at DESC`, organizerID)
	if err != nil {
		return nil, mapErr(err, "list organizer events")
	}
	events, err := collectSummaries(rows)
	return events, mapErr(err, "scan organizer events")
}

// TrendingEvents ranks events by confirmed tickets sold. Events without any
// sale are left out, so an empty result means nothing has sold yet.
func (r *Repository) TrendingEvents(ctx context.Context, limit int) ([]domain.EventSummary, error) {
	rows, err := r.pool.Query(ctx, summarySelect+` WHERE s.sold > 0 ORDER BY s.sold DESC, e.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapErr(err, "trending events")
	}
	events, err := collectSummaries(rows)
	return events, mapErr(err, "scan trending events")
}

func (r *Repository) NewestEvents(ctx context.Context, limit int) ([]domain.EventSummary, error) {
	rows, err := r.pool.Query(ctx, summarySelect+` ORDER BY e.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapErr(err, "newest events")
	}
	events, err := collectSummaries(rows)
	return events, mapErr(err, "scan newest events")
}

// CompleteEndedEvents marks upcoming events whose end date is before now as completed.
func (r *Repository) CompleteEndedEvents(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE events SET status = 'completed', updated_at = now()
		WHERE status = 'upcoming' AND end_date < $1
	`, now)
	if err != nil {
		return 0, mapErr(err, "complete ended events")
	}
	return result.RowsAffected(), nil
}
