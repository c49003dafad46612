// Package queue defines the booking events exchanged over RabbitMQ, the
// publisher used by the booking service and the consumer that appends
// every event to the audit file.
package queue

import (
    "time"

    "github.com/shopspring/decimal"
)

// Queue names.  Both queues are durable and carry persistent messages.
const (
    QueueBookingConfirmed = "booking.confirmed"
    QueueBookingCancelled = "booking.cancelled"
)

// BookingConfirmedEvent is published after a booking transaction commits.
// It carries enough for consumers to log or notify without querying the
// primary database.
type BookingConfirmedEvent struct {
    BookingID      uint64          `json:"booking_id"`
    UserID         uint64          `json:"user_id"`
    ShowID         uint64          `json:"show_id"`
    MovieTitle     string          `json:"movie_title"`
    TheaterName    string          `json:"theater_name"`
    ScreenName     string          `json:"screen_name"`
    ShowTime       time.Time       `json:"show_time"`
    Seats          []string        `json:"seats"`
    TotalAmount    decimal.Decimal `json:"total_amount"`
    PaymentMode    string          `json:"payment_mode"`
    TransactionRef string          `json:"transaction_ref"`
    ConfirmedAt    time.Time       `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a cancellation commits.
type BookingCancelledEvent struct {
    BookingID   uint64    `json:"booking_id"`
    UserID      uint64    `json:"user_id"`
    ShowID      uint64    `json:"show_id"`
    MovieTitle  string    `json:"movie_title"`
    Reason      string    `json:"reason"`
    CancelledAt time.Time `json:"cancelled_at"`
}
