// Package ports declares the narrow interfaces the services depend on.
// Repositories, the transaction helper, the queue publisher and the
// metrics recorder satisfy them; tests substitute mocks.
package ports

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/bookyourshow/internal/database"
	"github.com/iliyamo/bookyourshow/internal/model"
	"github.com/iliyamo/bookyourshow/internal/queue"
	"github.com/iliyamo/bookyourshow/internal/repository"
)

// TxRunner runs a function inside one transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// ShowStore reads shows.
type ShowStore interface {
	GetInfo(ctx context.Context, id uint64) (model.ShowInfo, error)
	GetInfoForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ShowInfo, error)
}

// BookingStore reads and writes bookings with their seats and payments.
type BookingStore interface {
	OccupiedSeats(ctx context.Context, showID uint64) ([]string, error)
	OccupiedSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64) ([]string, error)
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	AddSeatsTx(ctx context.Context, tx *sql.Tx, bookingID, showID uint64, seats []string) error
	CreatePaymentTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error
	GetForCancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (repository.CancelTarget, error)
	MarkCancelledTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error
	ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error
	ListByUser(ctx context.Context, userID uint64, now time.Time) ([]repository.BookingSummary, error)
	GetForUser(ctx context.Context, bookingID, userID uint64, now time.Time) (repository.BookingSummary, error)
}

// AuditStore appends audit rows inside a transaction.
type AuditStore interface {
	InsertActivityTx(ctx context.Context, tx *sql.Tx, a model.ActivityLog) error
	InsertCancellationTx(ctx context.Context, tx *sql.Tx, c model.CancellationLog) error
}

// EventPublisher announces committed booking changes.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// Metrics records booking outcomes.
type Metrics interface {
	BookingOutcome(operation, status string)
	SeatsBooked(n int)
}
