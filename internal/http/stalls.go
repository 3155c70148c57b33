package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/stall"
)

type bookingRequest struct {
	Size        string `json:"size"`
	Description string `json:"description"`
	Products    string `json:"products"`
}

func (h *Handlers) CreateStall(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "event_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req stallRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.stalls.CreateStall(r.Context(), principal(r).UserID, eventID, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Stall created successfully", st)
}

func (h *Handlers) ListStalls(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "event_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stalls, err := h.stalls.ListStalls(r.Context(), eventID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Stalls retrieved", stalls)
}

func (h *Handlers) UpdateStall(w http.ResponseWriter, r *http.Request) {
	stallID, err := pathID(r, "stall_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req stallRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.stalls.UpdateStall(r.Context(), principal(r).UserID, stallID, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Stall updated successfully", st)
}

func (h *Handlers) DeleteStall(w http.ResponseWriter, r *http.Request) {
	stallID, err := pathID(r, "stall_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.stalls.DeleteStall(r.Context(), principal(r).UserID, stallID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Stall deleted successfully", nil)
}

func (h *Handlers) RequestStallBooking(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "event_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req bookingRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	booking, st, err := h.stalls.RequestBooking(r.Context(), principal(r).UserID, eventID, stall.BookingRequest{
		Size:        req.Size,
		Description: req.Description,
		Products:    req.Products,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Stall booking requested", map[string]interface{}{
		"booking": booking,
		"stall":   st,
	})
}

func (h *Handlers) ConfirmStall(w http.ResponseWriter, r *http.Request) {
	h.decideBooking(w, r, h.stalls.ConfirmBooking, "Stall booking confirmed")
}

func (h *Handlers) CancelStall(w http.ResponseWriter, r *http.Request) {
	h.decideBooking(w, r, h.stalls.CancelBooking, "Stall booking cancelled")
}

func (h *Handlers) decideBooking(w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, organizerID, bookingID uuid.UUID) (*domain.StallBooking, error), message string) {
	bookingID, err := pathID(r, "booking_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	booking, err := decide(r.Context(), principal(r).UserID, bookingID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message, booking)
}

func (h *Handlers) VendorBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.stalls.ListVendorBookings(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Bookings retrieved", bookings)
}

func (h *Handlers) OrganizerBookings(w http.ResponseWriter, r *http.Request) {
	status := domain.BookingStatus(r.URL.Query().Get("status"))
	bookings, err := h.stalls.ListOrganizerBookings(r.Context(), principal(r).UserID, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Booking requests retrieved", bookings)
}
