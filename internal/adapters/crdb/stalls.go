package crdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

// activeBookings counts the bookings still holding a stall.
const activeBookings = `(SELECT count(*) FROM stall_bookings b WHERE b.stall_id = s.id AND b.status IN ('pending', 'confirmed'))`

func scanStall(row rowScanner) (*domain.Stall, error) {
	var s domain.Stall
	err := row.Scan(&s.ID, &s.EventID, &s.StallNumber, &s.Price, &s.MaxQuantity, &s.IsAvailable, &s.CreatedAt, &s.Booked)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) InsertStall(ctx context.Context, tx pgx.Tx, s *domain.Stall) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO stalls (id, event_id, stall_number, price, max_quantity, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, s.ID, s.EventID, s.StallNumber, s.Price, s.MaxQuantity, s.IsAvailable).Scan(&s.CreatedAt)
	return mapErr(err, "insert stall")
}

func (r *Repository) ListStallsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Stall, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.event_id, s.stall_number, s.price::FLOAT8, s.max_quantity, s.is_available, s.created_at, `+activeBookings+`
		FROM stalls s WHERE s.event_id = $1 ORDER BY s.stall_number
	`, eventID)
	if err != nil {
		return nil, mapErr(err, "list stalls")
	}
	defer rows.Close()

	stalls := []domain.Stall{}
	for rows.Next() {
		s, err := scanStall(rows)
		if err != nil {
			return nil, mapErr(err, "scan stall")
		}
		stalls = append(stalls, *s)
	}
	return stalls, mapErr(rows.Err(), "list stalls")
}

// LockStall returns the stall and the organizer owning its event, locking the stall row.
func (r *Repository) LockStall(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Stall, uuid.UUID, error) {
	var organizerID uuid.UUID
	var s domain.Stall
	err := tx.QueryRow(ctx, `
		SELECT s.id, s.event_id, s.stall_number, s.price::FLOAT8, s.max_quantity, s.is_available, s.created_at, `+activeBookings+`, e.organizer_id
		FROM stalls s JOIN events e ON e.id = s.event_id
		WHERE s.id = $1 FOR UPDATE
	`, id).Scan(&s.ID, &s.EventID, &s.StallNumber, &s.Price, &s.MaxQuantity, &s.IsAvailable, &s.CreatedAt, &s.Booked, &organizerID)
	if err != nil {
		return nil, uuid.Nil, mapErr(err, "lock stall")
	}
	return &s, organizerID, nil
}

func (r *Repository) UpdateStall(ctx context.Context, tx pgx.Tx, s *domain.Stall) error {
	_, err := tx.Exec(ctx, `
		UPDATE stalls SET stall_number = $2, price = $3, max_quantity = $4, is_available = $5 WHERE id = $1
	`, s.ID, s.StallNumber, s.Price, s.MaxQuantity, s.IsAvailable)
	return mapErr(err, "update stall")
}

func (r *Repository) DeleteStall(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	result, err := tx.Exec(ctx, `DELETE FROM stalls WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "delete stall")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// HasActiveBooking reports whether the vendor holds a pending or confirmed booking for the event.
func (r *Repository) HasActiveBooking(ctx context.Context, tx pgx.Tx, vendorID, eventID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM stall_bookings
			WHERE vendor_id = $1 AND event_id = $2 AND status IN ('pending', 'confirmed')
		)
	`, vendorID, eventID).Scan(&exists)
	if err != nil {
		return false, mapErr(err, "check active booking")
	}
	return exists, nil
}

// LockFirstFreeStall picks the lowest-numbered available stall of the event
// that still has room and locks it for the rest of the transaction.
func (r *Repository) LockFirstFreeStall(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*domain.Stall, error) {
	s, err := scanStall(tx.QueryRow(ctx, `
		SELECT s.id, s.event_id, s.stall_number, s.price::FLOAT8, s.max_quantity, s.is_available, s.created_at, `+activeBookings+`
		FROM stalls s
		WHERE s.event_id = $1 AND s.is_available AND `+activeBookings+` < s.max_quantity
		ORDER BY s.stall_number
		LIMIT 1
		FOR UPDATE
	`, eventID))
	if err != nil {
		return nil, mapErr(err, "lock free stall")
	}
	return s, nil
}

func (r *Repository) InsertStallBooking(ctx context.Context, tx pgx.Tx, b *domain.StallBooking) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO stall_bookings (id, stall_id, event_id, vendor_id, size, description, products, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, b.ID, b.StallID, b.EventID, b.VendorID, b.Size, b.Description, b.Products, b.Status).Scan(&b.CreatedAt, &b.UpdatedAt)
	return mapErr(err, "insert stall booking")
}

// LockBookingForOrganizer reads a booking together with the organizer of its event, locking the booking row.
func (r *Repository) LockBookingForOrganizer(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*domain.StallBooking, uuid.UUID, error) {
	var b domain.StallBooking
	var organizerID uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT b.id, b.stall_id, b.event_id, b.vendor_id, b.size, b.description, b.products, b.status, b.created_at, b.updated_at, e.organizer_id
		FROM stall_bookings b JOIN events e ON e.id = b.event_id
		WHERE b.id = $1 FOR UPDATE
	`, bookingID).Scan(&b.ID, &b.StallID, &b.EventID, &b.VendorID, &b.Size, &b.Description, &b.Products, &b.Status,
		&b.CreatedAt, &b.UpdatedAt, &organizerID)
	if err != nil {
		return nil, uuid.Nil, mapErr(err, "lock booking")
	}
	return &b, organizerID, nil
}

// LockPendingStallBooking reads a pending booking owned by vendorID joined to
// its stall price, locking it. A booking that is missing, owned by someone
// else or no longer pending yields domain.ErrNotFound.
func (r *Repository) LockPendingStallBooking(ctx context.Context, tx pgx.Tx, bookingID, vendorID uuid.UUID) (*domain.StallBooking, float64, error) {
	var b domain.StallBooking
	var price float64
	err := tx.QueryRow(ctx, `
		SELECT b.id, b.stall_id, b.event_id, b.vendor_id, b.status, s.price::FLOAT8
		FROM stall_bookings b JOIN stalls s ON s.id = b.stall_id
		WHERE b.id = $1 AND b.vendor_id = $2 AND b.status = 'pending'
		FOR UPDATE
	`, bookingID, vendorID).Scan(&b.ID, &b.StallID, &b.EventID, &b.VendorID, &b.Status, &price)
	if err != nil {
		return nil, 0, mapErr(err, "lock pending booking")
	}
	return &b, price, nil
}

func (r *Repository) UpdateStallBookingStatus(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status domain.BookingStatus) error {
	result, err := tx.Exec(ctx, `
		UPDATE stall_bookings SET status = $2, updated_at = now() WHERE id = $1
	`, bookingID, status)
	if err != nil {
		return mapErr(err, "update booking status")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const bookingViewSelect = `
	SELECT b.id, b.stall_id, b.event_id, b.vendor_id, b.size, b.description, b.products, b.status, b.created_at, b.updated_at,
		s.stall_number, s.price::FLOAT8, e.title, u.name
	FROM stall_bookings b
	JOIN stalls s ON s.id = b.stall_id
	JOIN events e ON e.id = b.event_id
	JOIN users u ON u.id = b.vendor_id`

func (r *Repository) queryBookings(ctx context.Context, op, query string, args ...any) ([]domain.BookingView, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, op)
	}
	defer rows.Close()

	bookings := []domain.BookingView{}
	for rows.Next() {
		var v domain.BookingView
		if err := rows.Scan(&v.ID, &v.StallID, &v.EventID, &v.VendorID, &v.Size, &v.Description, &v.Products, &v.Status,
			&v.CreatedAt, &v.UpdatedAt, &v.StallNumber, &v.StallPrice, &v.EventTitle, &v.VendorName); err != nil {
			return nil, mapErr(err, op)
		}
		bookings = append(bookings, v)
	}
	return bookings, mapErr(rows.Err(), op)
}

func (r *Repository) ListBookingsByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.BookingView, error) {
	return r.queryBookings(ctx, "list vendor bookings", bookingViewSelect+` WHERE b.vendor_id = $1 ORDER BY b.created_at DESC`, vendorID)
}

// ListBookingsByOrganizer lists bookings on the organizer's events, optionally filtered by status.
func (r *Repository) ListBookingsByOrganizer(ctx context.Context, organizerID uuid.UUID, status domain.BookingStatus) ([]domain.BookingView, error) {
	if status == "" {
		return r.queryBookings(ctx, "list organizer bookings", bookingViewSelect+` WHERE e.organizer_id = $1 ORDER BY b.created_at DESC`, organizerID)
	}
	return r.queryBookings(ctx, "list organizer bookings",
		bookingViewSelect+` WHERE e.organizer_id = $1 AND b.status = $2 ORDER BY b.created_at DESC`, organizerID, status)
}

// VendorHoldsStall reports whether the vendor has a booking on the stall that is not cancelled.
func (r *Repository) VendorHoldsStall(ctx context.Context, vendorID, stallID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM stall_bookings WHERE vendor_id = $1 AND stall_id = $2 AND status IN ('pending', 'confirmed')
		)
	`, vendorID, stallID).Scan(&ok)
	if err != nil {
		return false, mapErr(err, "check stall holder")
	}
	return ok, nil
}
