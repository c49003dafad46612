package model

import (
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.  The only allowed
// transition is confirmed → cancelled.
type BookingStatus string

const (
    BookingConfirmed BookingStatus = "confirmed"
    BookingCancelled BookingStatus = "cancelled"
)

// CanTransitionTo reports whether moving from s to next is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
    return s == BookingConfirmed && next == BookingCancelled
}

// PaymentMode is how a booking was paid.
type PaymentMode string

const (
    PaymentOnline  PaymentMode = "online"
    PaymentOffline PaymentMode = "offline"
)

// ParsePaymentMode accepts "Online"/"Offline" in any case.
func ParsePaymentMode(s string) (PaymentMode, bool) {
    switch m := PaymentMode(strings.ToLower(strings.TrimSpace(s))); m {
    case PaymentOnline, PaymentOffline:
        return m, true
    }
    return "", false
}

// PaymentStatus records the outcome of a payment.
type PaymentStatus string

const PaymentSuccess PaymentStatus = "success"

// Booking records a user's purchase of one or more seats for a show.
// It is created together with its details and payment and is never
// deleted, only cancelled.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who made the booking.
//  ShowID      – show being booked.
//  TotalAmount – seat price multiplied by the number of seats.
//  Status      – confirmed or cancelled.
//  BookedAt    – creation timestamp.
//  Seats       – seat labels, filled when loaded with details.
type Booking struct {
    ID          uint64          // bookings.id
    UserID      uint64          // bookings.user_id
    ShowID      uint64          // bookings.show_id
    TotalAmount decimal.Decimal // bookings.total_amount
    Status      BookingStatus   // bookings.status
    BookedAt    time.Time       // bookings.booking_date
    Seats       []string
}

// Payment is the single payment row of a booking.
//
// Fields:
//  ID             – primary key identifier.
//  BookingID      – booking paid for; unique.
//  Amount         – amount charged.
//  Mode           – online or offline.
//  Status         – payment outcome.
//  TransactionRef – random reference handed to the customer.
//  PaidAt         – payment timestamp.
type Payment struct {
    ID             uint64          // payments.id
    BookingID      uint64          // payments.booking_id
    Amount         decimal.Decimal // payments.amount
    Mode           PaymentMode     // payments.payment_mode
    Status         PaymentStatus   // payments.payment_status
    TransactionRef string          // payments.transaction_ref
    PaidAt         time.Time       // payments.payment_date
}
