package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/observability"
)

type RouterDeps struct {
	Logger        observability.Logger
	Tokens        TokenVerifier
	Limiter       Limiter
	AuthRateLimit int
	Idempotency   IdempotencyStore
}

func SetupRouter(h *Handlers, d RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(d.Logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	authn := Authenticate(d.Tokens)
	organizer := RequireRole(domain.RoleOrganizer)
	vendor := RequireRole(domain.RoleVendor)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(RateLimitMiddleware(d.Limiter, d.AuthRateLimit, time.Minute))
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(authn)
		r.Get("/me", h.Profile)
		r.Put("/me", h.UpdateProfile)
	})

	r.Route("/api/event", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/trending", h.TrendingEvents)
		r.Get("/{eventid}", h.GetEvent)
		r.Get("/{eventid}/reviews", h.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/favorites", h.ListFavorites)
			r.Get("/{eventid}/favorite", h.IsFavorite)
			r.Post("/{eventid}/favorite", h.AddFavorite)
			r.Delete("/{eventid}/favorite", h.RemoveFavorite)
			r.Post("/{eventid}/reviews", h.AddReview)

			r.With(organizer).Get("/my", h.MyEvents)
			r.With(organizer).Post("/create", h.CreateEvent)
			r.With(organizer).Put("/{eventid}", h.UpdateEvent)
			r.With(organizer).Delete("/{eventid}", h.DeleteEvent)
		})
	})

	r.Route("/api/stall", func(r chi.Router) {
		r.Get("/event/{event_id}", h.ListStalls)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.With(organizer).Post("/create/{event_id}", h.CreateStall)
			r.With(organizer).Put("/{stall_id}", h.UpdateStall)
			r.With(organizer).Delete("/{stall_id}", h.DeleteStall)
			r.With(organizer).Patch("/confirmStalls/{booking_id}", h.ConfirmStall)
			r.With(organizer).Patch("/cancelStalls/{booking_id}", h.CancelStall)
			r.With(organizer).Get("/requests", h.OrganizerBookings)
			r.With(vendor).Post("/requestStallBooking/{event_id}", h.RequestStallBooking)
			r.With(vendor).Get("/myBookings", h.VendorBookings)
		})
	})

	r.Route("/api/payment", func(r chi.Router) {
		r.Use(authn)
		r.With(IdempotencyMiddleware(d.Idempotency)).Post("/", h.ProcessPayment)
		r.Get("/", h.ListPayments)
		r.Get("/{id}", h.GetPayment)
	})

	r.Route("/api/ticket", func(r chi.Router) {
		r.Use(authn)
		r.With(IdempotencyMiddleware(d.Idempotency)).Post("/purchaseTicket/{eventId}", h.PurchaseTicket)
		r.Get("/my", h.MyTickets)
		r.Get("/purchases/{id}/qr", h.TicketQR)
		r.With(organizer).Post("/verify", h.VerifyTicket)
	})

	r.Route("/api/product", func(r chi.Router) {
		r.Get("/stall/{stall_id}", h.StallProducts)

		r.Group(func(r chi.Router) {
			r.Use(authn, vendor)
			r.Post("/", h.CreateProduct)
			r.Get("/", h.MyProducts)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
