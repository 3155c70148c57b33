package domain

type Role string

const (
	RoleAttendee  Role = "attendee"
	RoleVendor    Role = "vendor"
	RoleOrganizer Role = "organizer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAttendee, RoleVendor, RoleOrganizer:
		return true
	}
	return false
}

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventCompleted, EventCancelled:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// Active reports whether the booking still holds its stall.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

// CanTransition reports whether a booking in state s may move to next.
// Only pending bookings move; confirmed and cancelled are final.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if s != BookingPending {
		return false
	}
	return next == BookingConfirmed || next == BookingCancelled
}

type PurchaseStatus string

const (
	PurchaseConfirmed PurchaseStatus = "confirmed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit-card"
	MethodPayPal     PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCreditCard || m == MethodPayPal
}

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)
