package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/event"
	"github.com/robertarktes/event-marketplace/internal/stall"
)

type stallRequest struct {
	StallNumber string  `json:"stall_number" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	MaxQuantity int     `json:"max_quantity" validate:"gte=0"`
	IsAvailable *bool   `json:"is_available"`
}

func (s stallRequest) input() stall.StallInput {
	return stall.StallInput{StallNumber: s.StallNumber, Price: s.Price, MaxQuantity: s.MaxQuantity, IsAvailable: s.IsAvailable}
}

type createEventRequest struct {
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	StartDate   string        `json:"start_date" validate:"required"`
	EndDate     string        `json:"end_date" validate:"required"`
	EventTime   string        `json:"event_time"`
	Location    string        `json:"location" validate:"required"`
	Category    string        `json:"category"`
	Image       string        `json:"image"`
	TicketPrice float64       `json:"ticket_price" validate:"gte=0"`
	MaxQuantity int           `json:"max_quantity" validate:"required,gte=1"`
	Stall       *stallRequest `json:"stall"`
}

type updateEventRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
	EventTime   *string  `json:"event_time"`
	Location    *string  `json:"location"`
	Category    *string  `json:"category"`
	Status      *string  `json:"status" validate:"omitempty,oneof=upcoming completed cancelled"`
	Image       *string  `json:"image"`
	TicketPrice *float64 `json:"ticket_price" validate:"omitempty,gte=0"`
	MaxQuantity *int     `json:"max_quantity" validate:"omitempty,gte=1"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(field, v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, domain.Invalidf("%s must be YYYY-MM-DD or RFC 3339", field)
	}
	return t, nil
}

func parseDatePtr(field string, v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := parseDate(field, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	in := event.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		EventTime:   req.EventTime,
		Location:    req.Location,
		Category:    req.Category,
		Image:       req.Image,
		Ticket:      event.TicketInput{Price: req.TicketPrice, MaxQuantity: req.MaxQuantity},
	}
	if req.Stall != nil {
		if err := validate.Struct(req.Stall); err != nil {
			h.fail(w, r, domain.Invalid("Invalid stall"))
			return
		}
		st := req.Stall.input()
		in.Stall = &st
	}

	detail, err := h.events.Create(r.Context(), principal(r).UserID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Event created successfully", detail)
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	result, err := h.events.List(r.Context(), domain.EventFilter{
		Category: q.Get("category"),
		Status:   domain.EventStatus(q.Get("status")),
		Query:    q.Get("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Events retrieved", result)
}

func (h *Handlers) TrendingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.Trending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Trending events retrieved", events)
}

func (h *Handlers) MyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListByOrganizer(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Events retrieved", events)
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	detail, err := h.events.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Event retrieved", detail)
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateEventRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	start, err := parseDatePtr("start_date", req.StartDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := parseDatePtr("end_date", req.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in := event.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		EventTime:   req.EventTime,
		Location:    req.Location,
		Category:    req.Category,
		Image:       req.Image,
		TicketPrice: req.TicketPrice,
		MaxQuantity: req.MaxQuantity,
	}
	if req.Status != nil {
		status := domain.EventStatus(*req.Status)
		in.Status = &status
	}

	updated, err := h.events.Update(r.Context(), principal(r).UserID, id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Event updated successfully", updated)
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.events.Delete(r.Context(), principal(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Event deleted successfully", nil)
}

func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.social.AddFavorite(r.Context(), principal(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Event added to favorites", nil)
}

func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.social.RemoveFavorite(r.Context(), principal(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Event removed from favorites", nil)
}

// IsFavorite reports whether the caller has favorited the event.
func (h *Handlers) IsFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	found, err := h.social.IsFavorite(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Favorite status retrieved", map[string]bool{"favorite": found})
}

func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	events, err := h.social.ListFavorites(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Favorites retrieved", events)
}

func (h *Handlers) AddReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	review, err := h.social.AddReview(r.Context(), principal(r).UserID, id, req.Rating, req.Comment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Review added successfully", review)
}

func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	reviews, err := h.social.ListReviews(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Reviews retrieved", reviews)
}
