package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Event struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	EventTime   string      `json:"event_time,omitempty"`
	Location    string      `json:"location"`
	Category    string      `json:"category,omitempty"`
	OrganizerID uuid.UUID   `json:"organizer_id"`
	Status      EventStatus `json:"status"`
	Image       string      `json:"image,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Ticket is the single ticket type sold for an event.
type Ticket struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	Price       float64   `json:"price"`
	MaxQuantity int       `json:"max_quantity"`
}

type TicketPurchase struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	TicketID  uuid.UUID      `json:"ticket_id"`
	Quantity  int            `json:"quantity"`
	Status    PurchaseStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

type Stall struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	StallNumber string    `json:"stall_number"`
	Price       float64   `json:"price"`
	MaxQuantity int       `json:"max_quantity"`
	IsAvailable bool      `json:"is_available"`
	Booked      int       `json:"booked"`
	CreatedAt   time.Time `json:"created_at"`
}

type StallBooking struct {
	ID          uuid.UUID     `json:"id"`
	StallID     uuid.UUID     `json:"stall_id"`
	EventID     uuid.UUID     `json:"event_id"`
	VendorID    uuid.UUID     `json:"vendor_id"`
	Size        string        `json:"size,omitempty"`
	Description string        `json:"description,omitempty"`
	Products    string        `json:"products,omitempty"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Payment struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	Method      PaymentMethod `json:"payment_method"`
	Status      PaymentStatus `json:"status"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Product struct {
	ID          uuid.UUID  `json:"id"`
	VendorID    uuid.UUID  `json:"vendor_id"`
	StallID     *uuid.UUID `json:"stall_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	Image       string     `json:"image,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Review struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	EventID   uuid.UUID `json:"event_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
