package event

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/observability"
	"github.com/robertarktes/event-marketplace/internal/stall"
	"golang.org/x/sync/errgroup"
)

const (
	trendingSize = 5
	defaultLimit = 20
	maxLimit     = 100
)

type Store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	InsertEvent(ctx context.Context, tx pgx.Tx, e *domain.Event) error
	InsertTicket(ctx context.Context, tx pgx.Tx, t domain.Ticket) error
	InsertStall(ctx context.Context, tx pgx.Tx, s *domain.Stall) error
	InsertOutbox(ctx context.Context, tx pgx.Tx, record domain.OutboxRecord) error
	LockEvent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Event, error)
	LockTicketForEvent(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*domain.Ticket, error)
	SoldTickets(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (int, error)
	UpdateEvent(ctx context.Context, tx pgx.Tx, e *domain.Event) error
	UpdateTicket(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, price *float64, maxQuantity *int) error
	DeleteEvent(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	GetEventSummary(ctx context.Context, id uuid.UUID) (*domain.EventSummary, error)
	ListEvents(ctx context.Context, f domain.EventFilter) ([]domain.EventSummary, int, error)
	ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.EventSummary, error)
	TrendingEvents(ctx context.Context, limit int) ([]domain.EventSummary, error)
	NewestEvents(ctx context.Context, limit int) ([]domain.EventSummary, error)
	ListStallsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Stall, error)
	RatingSummary(ctx context.Context, eventID uuid.UUID) (float64, int, error)
}

// Cache holds the trending ranking between sales.
type Cache interface {
	Trending(ctx context.Context) ([]domain.EventSummary, bool, error)
	SetTrending(ctx context.Context, events []domain.EventSummary, ttl time.Duration) error
	InvalidateTrending(ctx context.Context) error
}

type Service struct {
	store       Store
	cache       Cache
	trendingTTL time.Duration
}

func NewService(store Store, cache Cache, trendingTTL time.Duration) *Service {
	return &Service{store: store, cache: cache, trendingTTL: trendingTTL}
}

type TicketInput struct {
	Price       float64
	MaxQuantity int
}

type CreateInput struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	EventTime   string
	Location    string
	Category    string
	Image       string
	Ticket      TicketInput
	Stall       *stall.StallInput
}

// Create inserts the event, its ticket type and the optional first stall in one transaction.
func (s *Service) Create(ctx context.Context, organizerID uuid.UUID, in CreateInput) (*domain.EventDetail, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Invalid("Title is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, domain.Invalid("Start and end dates are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, domain.Invalid("End date must not be before start date")
	}
	if in.Ticket.Price < 0 {
		return nil, domain.Invalid("Ticket price cannot be negative")
	}
	if in.Ticket.MaxQuantity < 1 {
		return nil, domain.Invalid("Ticket max quantity must be at least 1")
	}

	ev := &domain.Event{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		EventTime:   in.EventTime,
		Location:    in.Location,
		Category:    in.Category,
		OrganizerID: organizerID,
		Status:      domain.EventUpcoming,
		Image:       in.Image,
	}
	ticket := domain.Ticket{ID: uuid.New(), EventID: ev.ID, Price: in.Ticket.Price, MaxQuantity: in.Ticket.MaxQuantity}

	var st *domain.Stall
	if in.Stall != nil {
		var err error
		if st, err = stall.NewStall(ev.ID, *in.Stall); err != nil {
			return nil, err
		}
	}

	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.store.InsertEvent(ctx, tx, ev); err != nil {
			return err
		}
		if err := s.store.InsertTicket(ctx, tx, ticket); err != nil {
			return err
		}
		if st != nil {
			if err := s.store.InsertStall(ctx, tx, st); err != nil {
				return err
			}
		}
		payload, err := json.Marshal(map[string]interface{}{
			"event_id": ev.ID,
			"user_id":  organizerID,
			"title":    ev.Title,
		})
		if err != nil {
			return err
		}
		return s.store.InsertOutbox(ctx, tx, domain.OutboxRecord{
			ID:            uuid.New(),
			AggregateType: "event",
			AggregateID:   ev.ID,
			EventType:     "event.created",
			Payload:       payload,
			DedupeKey:     "event.created:" + ev.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	detail := &domain.EventDetail{
		EventSummary: domain.EventSummary{
			Event:       *ev,
			TicketID:    &ticket.ID,
			TicketPrice: ticket.Price,
			MaxQuantity: ticket.MaxQuantity,
			Remaining:   ticket.MaxQuantity,
		},
		Stalls: []domain.Stall{},
	}
	if st != nil {
		detail.Stalls = append(detail.Stalls, *st)
	}
	return detail, nil
}

func (s *Service) List(ctx context.Context, f domain.EventFilter) (*domain.EventPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Invalid("Unknown event status")
	}

	events, total, err := s.store.ListEvents(ctx, f)
	if err != nil {
		return nil, err
	}
	return &domain.EventPage{
		Events:     events,
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

// Trending returns the top events by confirmed tickets sold, or the newest
// events when nothing has sold yet.
func (s *Service) Trending(ctx context.Context) ([]domain.EventSummary, error) {
	log := observability.LoggerFrom(ctx)
	if s.cache != nil {
		cached, ok, err := s.cache.Trending(ctx)
		if err != nil {
			log.WithError(err).Warn("trending cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	events, err := s.store.TrendingEvents(ctx, trendingSize)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		events, err = s.store.NewestEvents(ctx, trendingSize)
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.SetTrending(ctx, events, s.trendingTTL); err != nil {
			log.WithError(err).Warn("trending cache write failed")
		}
	}
	return events, nil
}

// Get loads the event with its ticket availability, stalls and rating.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.EventDetail, error) {
	var (
		summary *domain.EventSummary
		stalls  []domain.Stall
		avg     float64
		count   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.store.GetEventSummary(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		stalls, err = s.store.ListStallsByEvent(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		avg, count, err = s.store.RatingSummary(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Event not found")
		}
		return nil, err
	}
	return &domain.EventDetail{EventSummary: *summary, Stalls: stalls, AverageRating: avg, ReviewCount: count}, nil
}

func (s *Service) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.EventSummary, error) {
	return s.store.ListEventsByOrganizer(ctx, organizerID)
}

type UpdateInput struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	EventTime   *string
	Location    *string
	Category    *string
	Status      *domain.EventStatus
	Image       *string
	TicketPrice *float64
	MaxQuantity *int
}

// Update applies in to an event owned by organizerID.
func (s *Service) Update(ctx context.Context, organizerID, id uuid.UUID, in UpdateInput) (*domain.EventSummary, error) {
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		ev, err := s.lockOwned(ctx, tx, organizerID, id)
		if err != nil {
			return err
		}
		if err := applyUpdate(ev, in); err != nil {
			return err
		}
		if err := s.store.UpdateEvent(ctx, tx, ev); err != nil {
			return err
		}

		if in.TicketPrice == nil && in.MaxQuantity == nil {
			return nil
		}
		if in.TicketPrice != nil && *in.TicketPrice < 0 {
			return domain.Invalid("Ticket price cannot be negative")
		}
		if in.MaxQuantity != nil {
			ticket, err := s.store.LockTicketForEvent(ctx, tx, id)
			if err != nil {
				return err
			}
			sold, err := s.store.SoldTickets(ctx, tx, ticket.ID)
			if err != nil {
				return err
			}
			if *in.MaxQuantity < 1 || *in.MaxQuantity < sold {
				return domain.Invalidf("Max quantity cannot be below the %d tickets already sold", sold)
			}
		}
		return s.store.UpdateTicket(ctx, tx, id, in.TicketPrice, in.MaxQuantity)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateTrending(ctx)
	return s.store.GetEventSummary(ctx, id)
}

func applyUpdate(ev *domain.Event, in UpdateInput) error {
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return domain.Invalid("Title cannot be empty")
		}
		ev.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		ev.Description = *in.Description
	}
	if in.StartDate != nil {
		ev.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		ev.EndDate = *in.EndDate
	}
	if ev.EndDate.Before(ev.StartDate) {
		return domain.Invalid("End date must not be before start date")
	}
	if in.EventTime != nil {
		ev.EventTime = *in.EventTime
	}
	if in.Location != nil {
		ev.Location = *in.Location
	}
	if in.Category != nil {
		ev.Category = *in.Category
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return domain.Invalid("Unknown event status")
		}
		ev.Status = *in.Status
	}
	if in.Image != nil {
		ev.Image = *in.Image
	}
	return nil
}

// Delete removes an event owned by organizerID along with everything hanging off it.
func (s *Service) Delete(ctx context.Context, organizerID, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.lockOwned(ctx, tx, organizerID, id); err != nil {
			return err
		}
		return s.store.DeleteEvent(ctx, tx, id)
	})
	if err == nil {
		s.invalidateTrending(ctx)
	}
	return err
}

func (s *Service) invalidateTrending(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTrending(ctx); err != nil {
		observability.LoggerFrom(ctx).WithError(err).Warn("failed to invalidate trending cache")
	}
}

func (s *Service) lockOwned(ctx context.Context, tx pgx.Tx, organizerID, id uuid.UUID) (*domain.Event, error) {
	ev, err := s.store.LockEvent(ctx, tx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Event not found")
	}
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != organizerID {
		return nil, domain.Forbidden("You can only modify your own events")
	}
	return ev, nil
}
