package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/auth"
	"github.com/robertarktes/event-marketplace/internal/config"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/event"
	"github.com/robertarktes/event-marketplace/internal/observability"
	"github.com/robertarktes/event-marketplace/internal/payment"
	"github.com/robertarktes/event-marketplace/internal/product"
	"github.com/robertarktes/event-marketplace/internal/stall"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in auth.ProfileInput) (*domain.User, error)
}

type EventService interface {
	Create(ctx context.Context, organizerID uuid.UUID, in event.CreateInput) (*domain.EventDetail, error)
	List(ctx context.Context, f domain.EventFilter) (*domain.EventPage, error)
	Trending(ctx context.Context) ([]domain.EventSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.EventDetail, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.EventSummary, error)
	Update(ctx context.Context, organizerID, id uuid.UUID, in event.UpdateInput) (*domain.EventSummary, error)
	Delete(ctx context.Context, organizerID, id uuid.UUID) error
}

type SocialService interface {
	AddFavorite(ctx context.Context, userID, eventID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, eventID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]domain.EventSummary, error)
	IsFavorite(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	AddReview(ctx context.Context, userID, eventID uuid.UUID, rating int, comment string) (*domain.Review, error)
	ListReviews(ctx context.Context, eventID uuid.UUID) ([]domain.Review, error)
}

type TicketService interface {
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]domain.PurchaseView, error)
	QRCode(ctx context.Context, userID, purchaseID uuid.UUID) ([]byte, error)
	Verify(ctx context.Context, organizerID uuid.UUID, code string) (*domain.PurchaseView, error)
}

type StallService interface {
	RequestBooking(ctx context.Context, vendorID, eventID uuid.UUID, req stall.BookingRequest) (*domain.StallBooking, *domain.Stall, error)
	ConfirmBooking(ctx context.Context, organizerID, bookingID uuid.UUID) (*domain.StallBooking, error)
	CancelBooking(ctx context.Context, organizerID, bookingID uuid.UUID) (*domain.StallBooking, error)
	CreateStall(ctx context.Context, organizerID, eventID uuid.UUID, in stall.StallInput) (*domain.Stall, error)
	UpdateStall(ctx context.Context, organizerID, stallID uuid.UUID, in stall.StallInput) (*domain.Stall, error)
	DeleteStall(ctx context.Context, organizerID, stallID uuid.UUID) error
	ListStalls(ctx context.Context, eventID uuid.UUID) ([]domain.Stall, error)
	ListVendorBookings(ctx context.Context, vendorID uuid.UUID) ([]domain.BookingView, error)
	ListOrganizerBookings(ctx context.Context, organizerID uuid.UUID, status domain.BookingStatus) ([]domain.BookingView, error)
}

type PaymentService interface {
	ProcessPayment(ctx context.Context, req payment.Request) (*payment.Result, error)
	GetPayment(ctx context.Context, userID, paymentID uuid.UUID) (*domain.PaymentDetail, error)
	ListPayments(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error)
}

type ProductService interface {
	Create(ctx context.Context, vendorID uuid.UUID, in product.Input) (*domain.Product, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Product, error)
	ListByStall(ctx context.Context, stallID uuid.UUID) ([]domain.Product, error)
	Update(ctx context.Context, vendorID, id uuid.UUID, in product.Input) (*domain.Product, error)
	Delete(ctx context.Context, vendorID, id uuid.UUID) error
}

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	cfg      *config.Config
	auth     AuthService
	events   EventService
	social   SocialService
	tickets  TicketService
	stalls   StallService
	payments PaymentService
	products ProductService
	deps     map[string]Pinger
}

type Services struct {
	Auth     AuthService
	Events   EventService
	Social   SocialService
	Tickets  TicketService
	Stalls   StallService
	Payments PaymentService
	Products ProductService
}

func NewHandlers(cfg *config.Config, svc Services, deps map[string]Pinger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		auth:     svc.Auth,
		events:   svc.Events,
		social:   svc.Social,
		tickets:  svc.Tickets,
		stalls:   svc.Stalls,
		payments: svc.Payments,
		products: svc.Products,
		deps:     deps,
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, !h.cfg.IsProduction())
}

// principal is only called behind Authenticate, which guarantees one is present.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Readyz pings every backing store and reports the first one that is down.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			observability.LoggerFrom(r.Context()).WithError(err).WithField("dependency", name).Warn("readiness check failed")
			http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
