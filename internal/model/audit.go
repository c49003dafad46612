package model

import "time"

// Activity types written to activity_log.
const (
    ActivityBooked    = "BOOKED_TICKETS"
    ActivityCancelled = "CANCELLED_BOOKING"
)

// CancellationReasonUser is recorded when a customer cancels a booking.
const CancellationReasonUser = "User cancelled booking"

// ActivityLog is an append-only audit record of a user action.
type ActivityLog struct {
    ID        uint64    // activity_log.log_id
    LoggedAt  time.Time // activity_log.log_timestamp
    UserID    uint64    // activity_log.user_id
    BookingID uint64    // activity_log.booking_id
    Type      string    // activity_log.activity_type
    Details   string    // activity_log.details
}

// CancellationLog is an append-only record of a cancelled booking.
type CancellationLog struct {
    ID          uint64    // cancellations_log.id
    BookingID   uint64    // cancellations_log.booking_id
    UserID      uint64    // cancellations_log.user_id
    Reason      string    // cancellations_log.reason
    CancelledAt time.Time // cancellations_log.cancelled_at
}
