package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventSummary is an event joined with its ticket availability.
type EventSummary struct {
	Event
	TicketID    *uuid.UUID `json:"ticket_id,omitempty"`
	TicketPrice float64    `json:"ticket_price"`
	MaxQuantity int        `json:"max_quantity"`
	Sold        int        `json:"sold"`
	Remaining   int        `json:"remaining"`
}

type EventDetail struct {
	EventSummary
	Stalls        []Stall `json:"stalls"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

type EventFilter struct {
	Category string
	Status   EventStatus
	Query    string
	Page     int
	Limit    int
}

type EventPage struct {
	Events     []EventSummary `json:"events"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// PurchaseView is a ticket purchase with the event it admits to.
type PurchaseView struct {
	TicketPurchase
	EventID    uuid.UUID `json:"event_id"`
	EventTitle string    `json:"event_title"`
	StartDate  time.Time `json:"start_date"`
	Location   string    `json:"location"`
	UnitPrice  float64   `json:"unit_price"`
}

type BookingView struct {
	StallBooking
	StallNumber string  `json:"stall_number"`
	StallPrice  float64 `json:"stall_price"`
	EventTitle  string  `json:"event_title"`
	VendorName  string  `json:"vendor_name,omitempty"`
}

type PaymentTicketItem struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	EventID    uuid.UUID `json:"event_id"`
	EventTitle string    `json:"event_title"`
	Quantity   int       `json:"quantity"`
}

type PaymentStallItem struct {
	BookingID   uuid.UUID     `json:"booking_id"`
	EventID     uuid.UUID     `json:"event_id"`
	StallNumber string        `json:"stall_number"`
	Status      BookingStatus `json:"status"`
}

type PaymentDetail struct {
	Payment
	Ticket *PaymentTicketItem `json:"ticket,omitempty"`
	Stall  *PaymentStallItem  `json:"stall,omitempty"`
}

// OutboxRecord is a domain event written in the same transaction as the change it describes.
type OutboxRecord struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string // NEW, PUBLISHED
	DedupeKey     string
}
