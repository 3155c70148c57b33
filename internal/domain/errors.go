package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("forbidden")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
)

// Error carries a client-facing message on top of one of the sentinel kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func NotFound(msg string) error     { return &Error{Kind: ErrNotFound, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: ErrConflict, Message: msg} }
func Invalid(msg string) error      { return &Error{Kind: ErrInvalidInput, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: ErrForbidden, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }

// Invalidf is Invalid with formatting.
func Invalidf(format string, args ...interface{}) error {
	return Invalid(fmt.Sprintf(format, args...))
}

type InsufficientCapacityError struct {
	Remaining int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("Only %d tickets available", e.Remaining)
}

func (e *InsufficientCapacityError) Unwrap() error { return ErrInsufficientCapacity }

var (
	ErrInvalidPaymentMethod = Invalid("Invalid payment method")
	ErrInvalidAmount        = Invalid("Invalid payment amount")
	ErrBookingNotPending    = NotFound("Stall booking not found or already processed")
	ErrBookingNotHandled    = NotFound("Booking not found or already handled")
	ErrDuplicateBooking     = Conflict("You already have a booking for this event")
	ErrInvalidCredentials   = Unauthorized("Invalid credentials")
)

// Message returns the client-facing text of err, falling back to def.
func Message(err error, def string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	var ce *InsufficientCapacityError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return def
}
