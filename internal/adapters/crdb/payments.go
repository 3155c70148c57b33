package crdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"golang.org/x/sync/errgroup"
)

func (r *Repository) InsertPayment(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (id, user_id, amount, currency, payment_method, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, p.ID, p.UserID, p.Amount, p.Currency, p.Method, p.Status, p.Description).Scan(&p.CreatedAt)
	return mapErr(err, "insert payment")
}

func (r *Repository) LinkTicketPayment(ctx context.Context, tx pgx.Tx, paymentID, purchaseID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ticket_payments (payment_id, ticket_purchase_id) VALUES ($1, $2)
	`, paymentID, purchaseID)
	return mapErr(err, "link ticket payment")
}

func (r *Repository) LinkStallPayment(ctx context.Context, tx pgx.Tx, paymentID, bookingID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stall_payments (payment_id, stall_booking_id) VALUES ($1, $2)
	`, paymentID, bookingID)
	return mapErr(err, "link stall payment")
}

const paymentColumns = `id, user_id, amount::FLOAT8, currency, payment_method, status, description, created_at`

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.Method, &p.Status, &p.Description, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPayment loads a payment with the ticket purchase and stall booking it paid for.
func (r *Repository) GetPayment(ctx context.Context, id uuid.UUID) (*domain.PaymentDetail, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get payment")
	}
	detail := &domain.PaymentDetail{Payment: *p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var item domain.PaymentTicketItem
		err := r.pool.QueryRow(gctx, `
			SELECT tp.id, e.id, e.title, tp.quantity
			FROM ticket_payments x
			JOIN ticket_purchases tp ON tp.id = x.ticket_purchase_id
			JOIN tickets t ON t.id = tp.ticket_id
			JOIN events e ON e.id = t.event_id
			WHERE x.payment_id = $1
		`, id).Scan(&item.PurchaseID, &item.EventID, &item.EventTitle, &item.Quantity)
		if err == pgx.ErrNoRows {
			return nil
		}
		if err != nil {
			return mapErr(err, "get payment ticket")
		}
		detail.Ticket = &item
		return nil
	})
	g.Go(func() error {
		var item domain.PaymentStallItem
		err := r.pool.QueryRow(gctx, `
			SELECT b.id, b.event_id, s.stall_number, b.status
			FROM stall_payments x
			JOIN stall_bookings b ON b.id = x.stall_booking_id
			JOIN stalls s ON s.id = b.stall_id
			WHERE x.payment_id = $1
		`, id).Scan(&item.BookingID, &item.EventID, &item.StallNumber, &item.Status)
		if err == pgx.ErrNoRows {
			return nil
		}
		if err != nil {
			return mapErr(err, "get payment stall")
		}
		detail.Stall = &item
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *Repository) ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, mapErr(err, "list payments")
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, mapErr(err, "scan payment")
		}
		payments = append(payments, *p)
	}
	return payments, mapErr(rows.Err(), "list payments")
}
