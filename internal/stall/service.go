package stall

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

type Store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	GetEventOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	LockEvent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Event, error)
	InsertStall(ctx context.Context, tx pgx.Tx, s *domain.Stall) error
	LockStall(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Stall, uuid.UUID, error)
	UpdateStall(ctx context.Context, tx pgx.Tx, s *domain.Stall) error
	DeleteStall(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	ListStallsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Stall, error)
	HasActiveBooking(ctx context.Context, tx pgx.Tx, vendorID, eventID uuid.UUID) (bool, error)
	LockFirstFreeStall(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*domain.Stall, error)
	InsertStallBooking(ctx context.Context, tx pgx.Tx, b *domain.StallBooking) error
	LockBookingForOrganizer(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*domain.StallBooking, uuid.UUID, error)
	UpdateStallBookingStatus(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status domain.BookingStatus) error
	ListBookingsByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.BookingView, error)
	ListBookingsByOrganizer(ctx context.Context, organizerID uuid.UUID, status domain.BookingStatus) ([]domain.BookingView, error)
	InsertOutbox(ctx context.Context, tx pgx.Tx, record domain.OutboxRecord) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type BookingRequest struct {
	Size        string
	Description string
	Products    string
}

// RequestBooking creates a pending booking for the vendor on the first free
// stall of the event. A vendor holds at most one active booking per event.
func (s *Service) RequestBooking(ctx context.Context, vendorID, eventID uuid.UUID, req BookingRequest) (*domain.StallBooking, *domain.Stall, error) {
	var (
		booking *domain.StallBooking
		stall   *domain.Stall
	)
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.store.LockEvent(ctx, tx, eventID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Event not found")
			}
			return err
		}

		exists, err := s.store.HasActiveBooking(ctx, tx, vendorID, eventID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateBooking
		}

		free, err := s.store.LockFirstFreeStall(ctx, tx, eventID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("No stalls available for this event")
		}
		if err != nil {
			return err
		}

		b := &domain.StallBooking{
			ID:          uuid.New(),
			StallID:     free.ID,
			EventID:     eventID,
			VendorID:    vendorID,
			Size:        req.Size,
			Description: req.Description,
			Products:    req.Products,
			Status:      domain.BookingPending,
		}
		if err := s.store.InsertStallBooking(ctx, tx, b); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.ErrDuplicateBooking
			}
			return err
		}
		if err := s.emit(ctx, tx, "stall_booking.requested", b); err != nil {
			return err
		}
		booking, stall = b, free
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return booking, stall, nil
}

// ConfirmBooking approves a pending booking on one of the organizer's events.
func (s *Service) ConfirmBooking(ctx context.Context, organizerID, bookingID uuid.UUID) (*domain.StallBooking, error) {
	return s.transition(ctx, organizerID, bookingID, domain.BookingConfirmed)
}

// CancelBooking rejects a pending booking on one of the organizer's events.
func (s *Service) CancelBooking(ctx context.Context, organizerID, bookingID uuid.UUID) (*domain.StallBooking, error) {
	return s.transition(ctx, organizerID, bookingID, domain.BookingCancelled)
}

func (s *Service) transition(ctx context.Context, organizerID, bookingID uuid.UUID, next domain.BookingStatus) (*domain.StallBooking, error) {
	var booking *domain.StallBooking
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		b, owner, err := s.store.LockBookingForOrganizer(ctx, tx, bookingID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrBookingNotHandled
		}
		if err != nil {
			return err
		}
		if owner != organizerID || !b.Status.CanTransition(next) {
			return domain.ErrBookingNotHandled
		}
		if err := s.store.UpdateStallBookingStatus(ctx, tx, b.ID, next); err != nil {
			return err
		}
		b.Status = next
		if err := s.emit(ctx, tx, "stall_booking."+string(next), b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

type StallInput struct {
	StallNumber string
	Price       float64
	MaxQuantity int
	IsAvailable *bool
}

func (in StallInput) validate() error {
	if strings.TrimSpace(in.StallNumber) == "" {
		return domain.Invalid("Stall number is required")
	}
	if in.Price < 0 {
		return domain.Invalid("Stall price cannot be negative")
	}
	if in.MaxQuantity < 0 {
		return domain.Invalid("Stall max quantity must be at least 1")
	}
	return nil
}

// NewStall builds a stall for eventID from in, applying defaults.
func NewStall(eventID uuid.UUID, in StallInput) (*domain.Stall, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	st := &domain.Stall{
		ID:          uuid.New(),
		EventID:     eventID,
		StallNumber: strings.TrimSpace(in.StallNumber),
		Price:       in.Price,
		MaxQuantity: in.MaxQuantity,
		IsAvailable: true,
	}
	if st.MaxQuantity == 0 {
		st.MaxQuantity = 1
	}
	if in.IsAvailable != nil {
		st.IsAvailable = *in.IsAvailable
	}
	return st, nil
}

func (s *Service) CreateStall(ctx context.Context, organizerID, eventID uuid.UUID, in StallInput) (*domain.Stall, error) {
	st, err := NewStall(eventID, in)
	if err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		ev, err := s.store.LockEvent(ctx, tx, eventID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Event not found")
		}
		if err != nil {
			return err
		}
		if ev.OrganizerID != organizerID {
			return domain.Forbidden("You can only add stalls to your own events")
		}
		if err := s.store.InsertStall(ctx, tx, st); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.Conflict("Stall number already exists for this event")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) UpdateStall(ctx context.Context, organizerID, stallID uuid.UUID, in StallInput) (*domain.Stall, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated *domain.Stall
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		st, err := s.lockOwnedStall(ctx, tx, organizerID, stallID)
		if err != nil {
			return err
		}
		st.StallNumber = strings.TrimSpace(in.StallNumber)
		st.Price = in.Price
		if in.MaxQuantity > 0 {
			if in.MaxQuantity < st.Booked {
				return domain.Invalidf("Stall already has %d active bookings", st.Booked)
			}
			st.MaxQuantity = in.MaxQuantity
		}
		if in.IsAvailable != nil {
			st.IsAvailable = *in.IsAvailable
		}
		if err := s.store.UpdateStall(ctx, tx, st); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.Conflict("Stall number already exists for this event")
			}
			return err
		}
		updated = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteStall(ctx context.Context, organizerID, stallID uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.lockOwnedStall(ctx, tx, organizerID, stallID); err != nil {
			return err
		}
		return s.store.DeleteStall(ctx, tx, stallID)
	})
}

func (s *Service) lockOwnedStall(ctx context.Context, tx pgx.Tx, organizerID, stallID uuid.UUID) (*domain.Stall, error) {
	st, owner, err := s.store.LockStall(ctx, tx, stallID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Stall not found")
	}
	if err != nil {
		return nil, err
	}
	if owner != organizerID {
		return nil, domain.Forbidden("You can only manage stalls of your own events")
	}
	return st, nil
}

func (s *Service) ListStalls(ctx context.Context, eventID uuid.UUID) ([]domain.Stall, error) {
	if _, err := s.store.GetEventOwner(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Event not found")
		}
		return nil, err
	}
	return s.store.ListStallsByEvent(ctx, eventID)
}

func (s *Service) ListVendorBookings(ctx context.Context, vendorID uuid.UUID) ([]domain.BookingView, error) {
	return s.store.ListBookingsByVendor(ctx, vendorID)
}

func (s *Service) ListOrganizerBookings(ctx context.Context, organizerID uuid.UUID, status domain.BookingStatus) ([]domain.BookingView, error) {
	if status != "" && !status.Valid() {
		return nil, domain.Invalid("Unknown booking status")
	}
	return s.store.ListBookingsByOrganizer(ctx, organizerID, status)
}

func (s *Service) emit(ctx context.Context, tx pgx.Tx, eventType string, b *domain.StallBooking) error {
	payload, err := json.Marshal(map[string]interface{}{
		"booking_id": b.ID,
		"stall_id":   b.StallID,
		"event_id":   b.EventID,
		"user_id":    b.VendorID,
		"status":     b.Status,
	})
	if err != nil {
		return err
	}
	return s.store.InsertOutbox(ctx, tx, domain.OutboxRecord{
		ID:            uuid.New(),
		AggregateType: "stall_booking",
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
		DedupeKey:     eventType + ":" + b.ID.String(),
	})
}
