package crdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

// LockTicketForEvent reads the event's ticket row with FOR UPDATE. Every
// writer of ticket_purchases takes this lock first, which serializes the
// capacity check against concurrent purchases of the same ticket.
func (r *Repository) LockTicketForEvent(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*domain.Ticket, error) {
	var t domain.Ticket
	err := tx.QueryRow(ctx, `
		SELECT id, event_id, price::FLOAT8, max_quantity FROM tickets WHERE event_id = $1 FOR UPDATE
	`, eventID).Scan(&t.ID, &t.EventID, &t.Price, &t.MaxQuantity)
	if err != nil {
		return nil, mapErr(err, "lock ticket")
	}
	return &t, nil
}

func (r *Repository) SoldTickets(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (int, error) {
	var sold int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)::INT8 FROM ticket_purchases WHERE ticket_id = $1 AND status = 'confirmed'
	`, ticketID).Scan(&sold)
	if err != nil {
		return 0, mapErr(err, "sum ticket purchases")
	}
	return sold, nil
}

func (r *Repository) InsertTicketPurchase(ctx context.Context, tx pgx.Tx, p *domain.TicketPurchase) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO ticket_purchases (id, user_id, ticket_id, quantity, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, p.ID, p.UserID, p.TicketID, p.Quantity, p.Status).Scan(&p.CreatedAt)
	return mapErr(err, "insert ticket purchase")
}

func (r *Repository) ListPurchasesByUser(ctx context.Context, userID uuid.UUID) ([]domain.PurchaseView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.user_id, p.ticket_id, p.quantity, p.status, p.created_at,
			e.id, e.title, e.start_date, e.location, t.price::FLOAT8
		FROM ticket_purchases p
		JOIN tickets t ON t.id = p.ticket_id
		JOIN events e ON e.id = t.event_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, mapErr(err, "list purchases")
	}
	defer rows.Close()

	purchases := []domain.PurchaseView{}
	for rows.Next() {
		var v domain.PurchaseView
		if err := rows.Scan(&v.ID, &v.UserID, &v.TicketID, &v.Quantity, &v.Status, &v.CreatedAt,
			&v.EventID, &v.EventTitle, &v.StartDate, &v.Location, &v.UnitPrice); err != nil {
			return nil, mapErr(err, "scan purchase")
		}
		purchases = append(purchases, v)
	}
	return purchases, mapErr(rows.Err(), "list purchases")
}

func (r *Repository) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.PurchaseView, error) {
	var v domain.PurchaseView
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.user_id, p.ticket_id, p.quantity, p.status, p.created_at,
			e.id, e.title, e.start_date, e.location, t.price::FLOAT8
		FROM ticket_purchases p
		JOIN tickets t ON t.id = p.ticket_id
		JOIN events e ON e.id = t.event_id
		WHERE p.id = $1
	`, id).Scan(&v.ID, &v.UserID, &v.TicketID, &v.Quantity, &v.Status, &v.CreatedAt,
		&v.EventID, &v.EventTitle, &v.StartDate, &v.Location, &v.UnitPrice)
	if err != nil {
		return nil, mapErr(err, "get purchase")
	}
	return &v, nil
}
