package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSeats is returned when a booking request names no seat.
	ErrNoSeats = errors.New("select at least one seat")
	// ErrInvalidPaymentMode is returned for modes other than Online/Offline.
	ErrInvalidPaymentMode = errors.New("payment mode must be Online or Offline")
	// ErrShowNotFound is returned when the show does not exist.
	ErrShowNotFound = errors.New("show not found")
	// ErrShowStarted is returned when booking or cancelling at or after show time.
	ErrShowStarted = errors.New("show has already started")
	// ErrBookingNotFound is returned for unknown bookings and bookings of other users.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrAlreadyCancelled is returned when cancelling a cancelled booking.
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	// ErrSeatsTaken matches every *SeatConflictError.
	ErrSeatsTaken = errors.New("seats already booked")
	// ErrInvalidSeats matches every *InvalidSeatsError.
	ErrInvalidSeats = errors.New("invalid seats")
)

// SeatConflictError names the requested seats held by another confirmed
// booking.
type SeatConflictError struct {
	Seats []string
}

// Messages returns one "Seat X already booked" line per seat.
func (e *SeatConflictError) Messages() []string {
	out := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		out[i] = fmt.Sprintf("Seat %s already booked", s)
	}
	return out
}

func (e *SeatConflictError) Error() string { return strings.Join(e.Messages(), "; ") }

func (e *SeatConflictError) Is(target error) bool { return target == ErrSeatsTaken }

// InvalidSeatsError names requested seats that do not exist on the screen.
type InvalidSeatsError struct {
	Seats []string
}

func (e *InvalidSeatsError) Error() string {
	return "invalid seats: " + strings.Join(e.Seats, ", ")
}

func (e *InvalidSeatsError) Is(target error) bool { return target == ErrInvalidSeats }
