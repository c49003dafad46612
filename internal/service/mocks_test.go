package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/bookyourshow/internal/model"
	"github.com/iliyamo/bookyourshow/internal/queue"
	"github.com/iliyamo/bookyourshow/internal/repository"
)

type mockShows struct{ mock.Mock }

func (m *mockShows) GetInfo(ctx context.Context, id uint64) (model.ShowInfo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.ShowInfo), args.Error(1)
}

func (m *mockShows) GetInfoForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ShowInfo, error) {
	args := m.Called(ctx, tx, id)
	return args.Get(0).(model.ShowInfo), args.Error(1)
}

type mockBookings struct{ mock.Mock }

func (m *mockBookings) OccupiedSeats(ctx context.Context, showID uint64) ([]string, error) {
	args := m.Called(ctx, showID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockBookings) OccupiedSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64) ([]string, error) {
	args := m.Called(ctx, tx, showID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockBookings) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	return m.Called(ctx, tx, b).Error(0)
}

func (m *mockBookings) AddSeatsTx(ctx context.Context, tx *sql.Tx, bookingID, showID uint64, seats []string) error {
	return m.Called(ctx, tx, bookingID, showID, seats).Error(0)
}

func (m *mockBookings) CreatePaymentTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	return m.Called(ctx, tx, p).Error(0)
}

func (m *mockBookings) GetForCancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (repository.CancelTarget, error) {
	args := m.Called(ctx, tx, bookingID)
	return args.Get(0).(repository.CancelTarget), args.Error(1)
}

func (m *mockBookings) MarkCancelledTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	return m.Called(ctx, tx, bookingID).Error(0)
}

func (m *mockBookings) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	return m.Called(ctx, tx, bookingID).Error(0)
}

func (m *mockBookings) ListByUser(ctx context.Context, userID uint64, now time.Time) ([]repository.BookingSummary, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).([]repository.BookingSummary), args.Error(1)
}

func (m *mockBookings) GetForUser(ctx context.Context, bookingID, userID uint64, now time.Time) (repository.BookingSummary, error) {
	args := m.Called(ctx, bookingID, userID, now)
	return args.Get(0).(repository.BookingSummary), args.Error(1)
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) InsertActivityTx(ctx context.Context, tx *sql.Tx, a model.ActivityLog) error {
	return m.Called(ctx, tx, a).Error(0)
}

func (m *mockAudit) InsertCancellationTx(ctx context.Context, tx *sql.Tx, c model.CancellationLog) error {
	return m.Called(ctx, tx, c).Error(0)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockEvents) PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type mockMetrics struct{ mock.Mock }

func (m *mockMetrics) BookingOutcome(operation, status string) { m.Called(operation, status) }

func (m *mockMetrics) SeatsBooked(n int) { m.Called(n) }
