package http

import "net/http"

type verifyTicketRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handlers) MyTickets(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.tickets.ListPurchases(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Tickets retrieved", purchases)
}

func (h *Handlers) TicketQR(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	png, err := h.tickets.QRCode(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// VerifyTicket checks a scanned entry code at the gate.
func (h *Handlers) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	var req verifyTicketRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	purchase, err := h.tickets.Verify(r.Context(), principal(r).UserID, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Ticket is valid", purchase)
}
