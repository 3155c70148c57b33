package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/payment"
)

type paymentRequest struct {
	EventID        *uuid.UUID `json:"event_id"`
	TicketQuantity int        `json:"ticket_quantity" validate:"gte=0"`
	StallBookingID *uuid.UUID `json:"stall_booking_id"`
	PaymentMethod  string     `json:"payment_method"`
}

type purchaseTicketRequest struct {
	Quantity      int    `json:"quantity" validate:"gte=0"`
	PaymentMethod string `json:"payment_method"`
}

func (h *Handlers) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.payments.ProcessPayment(r.Context(), payment.Request{
		UserID:         principal(r).UserID,
		EventID:        req.EventID,
		TicketQuantity: req.TicketQuantity,
		StallBookingID: req.StallBookingID,
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Payment processed successfully", result)
}

// PurchaseTicket is a payment carrying only tickets for the event in the path.
func (h *Handlers) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req purchaseTicketRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	method := domain.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = domain.MethodCreditCard
	}
	result, err := h.payments.ProcessPayment(r.Context(), payment.Request{
		UserID:         principal(r).UserID,
		EventID:        &eventID,
		TicketQuantity: req.Quantity,
		PaymentMethod:  method,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Ticket purchased successfully", result)
}

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListPayments(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Payments retrieved", payments)
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	detail, err := h.payments.GetPayment(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Payment retrieved", detail)
}
