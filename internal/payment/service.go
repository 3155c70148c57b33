// Package payment runs the booking/payment transaction: reserving tickets,
// confirming a pending stall booking, and recording one payment for both.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/observability"
)

type Store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	LockTicketForEvent(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*domain.Ticket, error)
	SoldTickets(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (int, error)
	InsertTicketPurchase(ctx context.Context, tx pgx.Tx, p *domain.TicketPurchase) error
	LockPendingStallBooking(ctx context.Context, tx pgx.Tx, bookingID, vendorID uuid.UUID) (*domain.StallBooking, float64, error)
	UpdateStallBookingStatus(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status domain.BookingStatus) error
	InsertPayment(ctx context.Context, tx pgx.Tx, p *domain.Payment) error
	LinkTicketPayment(ctx context.Context, tx pgx.Tx, paymentID, purchaseID uuid.UUID) error
	LinkStallPayment(ctx context.Context, tx pgx.Tx, paymentID, bookingID uuid.UUID) error
	InsertOutbox(ctx context.Context, tx pgx.Tx, record domain.OutboxRecord) error
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.PaymentDetail, error)
	ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error)
}

// TrendingInvalidator drops cached rankings that a new sale makes stale.
type TrendingInvalidator interface {
	InvalidateTrending(ctx context.Context) error
}

type Service struct {
	store    Store
	trending TrendingInvalidator
	currency string
}

func NewService(store Store, trending TrendingInvalidator, currency string) *Service {
	return &Service{store: store, trending: trending, currency: currency}
}

type Request struct {
	UserID         uuid.UUID
	EventID        *uuid.UUID
	TicketQuantity int
	StallBookingID *uuid.UUID
	PaymentMethod  domain.PaymentMethod
}

const (
	ItemTicket = "ticket"
	ItemStall  = "stall"
)

type Item struct {
	Type     string    `json:"type"`
	ID       uuid.UUID `json:"id"`
	Quantity int       `json:"quantity"`
	Amount   float64   `json:"amount"`
}

type Result struct {
	PaymentID uuid.UUID            `json:"payment_id"`
	Amount    float64              `json:"amount"`
	Currency  string               `json:"currency"`
	Status    domain.PaymentStatus `json:"status"`
	Items     []Item               `json:"items"`
}

// ProcessPayment reserves the requested tickets and/or confirms the caller's
// pending stall booking, then records a single payment covering both. All
// writes happen in one transaction; on any error none of them is visible.
func (s *Service) ProcessPayment(ctx context.Context, req Request) (*Result, error) {
	if !req.PaymentMethod.Valid() {
		return nil, domain.ErrInvalidPaymentMethod
	}
	if req.TicketQuantity == 0 {
		req.TicketQuantity = 1
	}
	if req.EventID != nil && req.TicketQuantity < 1 {
		return nil, domain.Invalid("Ticket quantity must be at least 1")
	}

	var result *Result
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		res, err := s.processInTx(ctx, tx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		observability.PaymentsTotal.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	observability.PaymentsTotal.WithLabelValues("completed").Inc()
	for _, it := range result.Items {
		if it.Type == ItemTicket {
			observability.TicketsSold.Add(float64(it.Quantity))
			if s.trending != nil {
				if err := s.trending.InvalidateTrending(ctx); err != nil {
					observability.LoggerFrom(ctx).WithError(err).Warn("failed to invalidate trending cache")
				}
			}
		}
	}
	return result, nil
}

func (s *Service) processInTx(ctx context.Context, tx pgx.Tx, req Request) (*Result, error) {
	paymentID := uuid.New()
	var (
		totalCents  int64
		items       []Item
		purchaseID  *uuid.UUID
		descriptors []string
	)

	if req.EventID != nil {
		ticket, err := s.store.LockTicketForEvent(ctx, tx, *req.EventID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Ticket not found for this event")
		}
		if err != nil {
			return nil, err
		}

		sold, err := s.store.SoldTickets(ctx, tx, ticket.ID)
		if err != nil {
			return nil, err
		}
		remaining := ticket.MaxQuantity - sold
		if remaining < 0 {
			remaining = 0
		}
		if req.TicketQuantity > remaining {
			return nil, &domain.InsufficientCapacityError{Remaining: remaining}
		}

		purchase := &domain.TicketPurchase{
			ID:       uuid.New(),
			UserID:   req.UserID,
			TicketID: ticket.ID,
			Quantity: req.TicketQuantity,
			Status:   domain.PurchaseConfirmed,
		}
		if err := s.store.InsertTicketPurchase(ctx, tx, purchase); err != nil {
			return nil, err
		}

		amountCents := toCents(ticket.Price) * int64(req.TicketQuantity)
		amount := fromCents(amountCents)
		totalCents += amountCents
		purchaseID = &purchase.ID
		items = append(items, Item{Type: ItemTicket, ID: purchase.ID, Quantity: req.TicketQuantity, Amount: amount})
		descriptors = append(descriptors, fmt.Sprintf("%d ticket(s)", req.TicketQuantity))
	}

	var bookingID *uuid.UUID
	if req.StallBookingID != nil {
		booking, price, err := s.store.LockPendingStallBooking(ctx, tx, *req.StallBookingID, req.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrBookingNotPending
		}
		if err != nil {
			return nil, err
		}
		if !booking.Status.CanTransition(domain.BookingConfirmed) {
			return nil, domain.ErrBookingNotPending
		}
		if err := s.store.UpdateStallBookingStatus(ctx, tx, booking.ID, domain.BookingConfirmed); err != nil {
			return nil, err
		}

		price = fromCents(toCents(price))
		totalCents += toCents(price)
		bookingID = &booking.ID
		items = append(items, Item{Type: ItemStall, ID: booking.ID, Quantity: 1, Amount: price})
		descriptors = append(descriptors, "stall booking")
	}

	if totalCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	total := fromCents(totalCents)

	payment := &domain.Payment{
		ID:          paymentID,
		UserID:      req.UserID,
		Amount:      total,
		Currency:    s.currency,
		Method:      req.PaymentMethod,
		Status:      domain.PaymentCompleted,
		Description: describe(descriptors),
	}
	if err := s.store.InsertPayment(ctx, tx, payment); err != nil {
		return nil, err
	}
	if purchaseID != nil {
		if err := s.store.LinkTicketPayment(ctx, tx, paymentID, *purchaseID); err != nil {
			return nil, err
		}
	}
	if bookingID != nil {
		if err := s.store.LinkStallPayment(ctx, tx, paymentID, *bookingID); err != nil {
			return nil, err
		}
	}

	result := &Result{
		PaymentID: paymentID,
		Amount:    total,
		Currency:  s.currency,
		Status:    payment.Status,
		Items:     items,
	}
	payload, err := json.Marshal(map[string]interface{}{
		"payment_id": paymentID,
		"user_id":    req.UserID,
		"event_id":   req.EventID,
		"amount":     total,
		"currency":   s.currency,
		"method":     req.PaymentMethod,
		"items":      items,
	})
	if err != nil {
		return nil, err
	}
	err = s.store.InsertOutbox(ctx, tx, domain.OutboxRecord{
		ID:            uuid.New(),
		AggregateType: "payment",
		AggregateID:   paymentID,
		EventType:     "payment.completed",
		Payload:       payload,
		DedupeKey:     "payment.completed:" + paymentID.String(),
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Prices are summed in whole cents so amounts match the DECIMAL columns.
func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

func describe(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return "Payment for " + parts[0]
	default:
		return "Payment for " + parts[0] + " and " + parts[1]
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientCapacity):
		return "sold_out"
	case errors.Is(err, domain.ErrSerializationFailure):
		return "contention"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound):
		return "rejected"
	}
	return "error"
}

// GetPayment returns a payment with its linked items. Only the payer may read it.
func (s *Service) GetPayment(ctx context.Context, userID, paymentID uuid.UUID) (*domain.PaymentDetail, error) {
	p, err := s.store.GetPayment(ctx, paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Payment not found")
	}
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.Forbidden("You are not allowed to view this payment")
	}
	return p, nil
}

func (s *Service) ListPayments(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	return s.store.ListPaymentsByUser(ctx, userID)
}
