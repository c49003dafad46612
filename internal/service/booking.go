// Package service holds the booking and cancellation workflows.  Each
// workflow runs in a single transaction; side effects such as events
// and metrics are scheduled as after-commit hooks so a rolled back
// request leaves no trace.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/bookyourshow/internal/database"
	"github.com/iliyamo/bookyourshow/internal/metrics"
	"github.com/iliyamo/bookyourshow/internal/model"
	"github.com/iliyamo/bookyourshow/internal/queue"
	"github.com/iliyamo/bookyourshow/internal/repository"
	"github.com/iliyamo/bookyourshow/internal/service/ports"
)

// BookingService books and cancels seats.
type BookingService struct {
	tx       ports.TxRunner
	shows    ports.ShowStore
	bookings ports.BookingStore
	audit    ports.AuditStore
	events   ports.EventPublisher
	metrics  ports.Metrics
	log      *zap.Logger

	now    func() time.Time
	newRef func() string
}

// NewBookingService wires a BookingService.  events and metrics may be nil.
func NewBookingService(tx ports.TxRunner, shows ports.ShowStore, bookings ports.BookingStore, audit ports.AuditStore,
	events ports.EventPublisher, m ports.Metrics, log *zap.Logger) *BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{
		tx:       tx,
		shows:    shows,
		bookings: bookings,
		audit:    audit,
		events:   events,
		metrics:  m,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newRef:   func() string { return uuid.NewString() },
	}
}

// SeatState is one seat of a seat map.
type SeatState struct {
	Label  string `json:"label"`
	Booked bool   `json:"booked"`
}

// SeatMapRow is one lettered row of a seat map.
type SeatMapRow struct {
	Label string      `json:"row"`
	Seats []SeatState `json:"seats"`
}

// SeatMap is the seat layout of a show with occupancy.
type SeatMap struct {
	Show      model.ShowInfo
	Rows      []SeatMapRow
	Occupied  []string
	Available int
	Started   bool
}

// SeatMap returns the layout of a show with every confirmed seat marked.
func (s *BookingService) SeatMap(ctx context.Context, showID uint64) (SeatMap, error) {
	show, err := s.shows.GetInfo(ctx, showID)
	if errors.Is(err, repository.ErrShowNotFound) {
		return SeatMap{}, ErrShowNotFound
	}
	if err != nil {
		return SeatMap{}, fmt.Errorf("load show: %w", err)
	}
	occupied, err := s.bookings.OccupiedSeats(ctx, showID)
	if err != nil {
		return SeatMap{}, fmt.Errorf("occupied seats: %w", err)
	}
	taken := make(map[string]bool, len(occupied))
	for _, seat := range occupied {
		taken[seat] = true
	}

	m := SeatMap{Show: show, Occupied: occupied, Started: show.Started(s.now())}
	for _, row := range model.Layout(show.TotalSeats) {
		r := SeatMapRow{Label: row.Label, Seats: make([]SeatState, 0, len(row.Seats))}
		for _, label := range row.Seats {
			r.Seats = append(r.Seats, SeatState{Label: label, Booked: taken[label]})
			if !taken[label] {
				m.Available++
			}
		}
		m.Rows = append(m.Rows, r)
	}
	return m, nil
}

// BookRequest is a customer's request for seats of one show.
type BookRequest struct {
	UserID      uint64
	ShowID      uint64
	Seats       []string
	PaymentMode string
}

// BookResult describes a committed booking.
type BookResult struct {
	BookingID      uint64
	ShowID         uint64
	MovieID        uint64
	MovieTitle     string
	TheaterName    string
	ScreenName     string
	ShowTime       time.Time
	Seats          []string
	TotalAmount    decimal.Decimal
	PaymentMode    model.PaymentMode
	TransactionRef string
	BookedAt       time.Time
}

// Book reserves seats for a user.  The show row is locked for the
// duration of the transaction, so the availability check and the inserts
// cannot interleave with another booking of the same show.  Booking,
// seats, payment and activity row are committed together or not at all.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	seats := NormalizeSeats(req.Seats)
	if len(seats) == 0 {
		return nil, ErrNoSeats
	}
	mode, ok := model.ParsePaymentMode(req.PaymentMode)
	if !ok {
		return nil, ErrInvalidPaymentMode
	}

	var res BookResult
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx, after func(database.AfterCommit)) error {
		show, err := s.shows.GetInfoForUpdateTx(ctx, tx, req.ShowID)
		if errors.Is(err, repository.ErrShowNotFound) {
			return ErrShowNotFound
		}
		if err != nil {
			return fmt.Errorf("lock show: %w", err)
		}
		now := s.now()
		if show.Started(now) {
			return ErrShowStarted
		}
		if bad := outOfRange(seats, show.TotalSeats); len(bad) > 0 {
			return &InvalidSeatsError{Seats: bad}
		}

		occupied, err := s.bookings.OccupiedSeatsTx(ctx, tx, show.ID)
		if err != nil {
			return fmt.Errorf("occupied seats: %w", err)
		}
		if taken := intersect(seats, occupied); len(taken) > 0 {
			return &SeatConflictError{Seats: taken}
		}

		total := show.Price.Mul(decimal.NewFromInt(int64(len(seats))))
		b := &model.Booking{
			UserID:      req.UserID,
			ShowID:      show.ID,
			TotalAmount: total,
			Status:      model.BookingConfirmed,
			BookedAt:    now,
			Seats:       seats,
		}
		if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if err := s.bookings.AddSeatsTx(ctx, tx, b.ID, show.ID, seats); err != nil {
			if errors.Is(err, repository.ErrSeatTaken) {
				return &SeatConflictError{Seats: seats}
			}
			return fmt.Errorf("insert seats: %w", err)
		}
		p := &model.Payment{
			BookingID:      b.ID,
			Amount:         total,
			Mode:           mode,
			Status:         model.PaymentSuccess,
			TransactionRef: s.newRef(),
			PaidAt:         now,
		}
		if err := s.bookings.CreatePaymentTx(ctx, tx, p); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if err := s.audit.InsertActivityTx(ctx, tx, model.ActivityLog{
			UserID:    req.UserID,
			BookingID: b.ID,
			Type:      model.ActivityBooked,
			Details:   fmt.Sprintf("Booked %d seat(s) for %s: %s", len(seats), show.MovieTitle, strings.Join(seats, ", ")),
		}); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}

		res = BookResult{
			BookingID:      b.ID,
			ShowID:         show.ID,
			MovieID:        show.MovieID,
			MovieTitle:     show.MovieTitle,
			TheaterName:    show.TheaterName,
			ScreenName:     show.ScreenName,
			ShowTime:       show.ShowTime,
			Seats:          seats,
			TotalAmount:    total,
			PaymentMode:    mode,
			TransactionRef: p.TransactionRef,
			BookedAt:       now,
		}
		after(func(ctx context.Context) { s.bookingCommitted(ctx, req.UserID, res) })
		return nil
	})
	if err != nil {
		s.outcome(metrics.OpBook, err)
		s.log.Info("booking rejected", zap.Uint64("user_id", req.UserID), zap.Uint64("show_id", req.ShowID),
			zap.Strings("seats", seats), zap.Error(err))
		return nil, err
	}
	return &res, nil
}

func (s *BookingService) bookingCommitted(ctx context.Context, userID uint64, res BookResult) {
	s.log.Info("booking confirmed",
		zap.Uint64("booking_id", res.BookingID),
		zap.Uint64("user_id", userID),
		zap.Uint64("show_id", res.ShowID),
		zap.Strings("seats", res.Seats),
		zap.String("total", res.TotalAmount.StringFixed(2)))
	if s.metrics != nil {
		s.metrics.BookingOutcome(metrics.OpBook, metrics.StatusSuccess)
		s.metrics.SeatsBooked(len(res.Seats))
	}
	if s.events != nil {
		_ = s.events.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
			BookingID:      res.BookingID,
			UserID:         userID,
			ShowID:         res.ShowID,
			MovieTitle:     res.MovieTitle,
			TheaterName:    res.TheaterName,
			ScreenName:     res.ScreenName,
			ShowTime:       res.ShowTime,
			Seats:          res.Seats,
			TotalAmount:    res.TotalAmount,
			PaymentMode:    string(res.PaymentMode),
			TransactionRef: res.TransactionRef,
			ConfirmedAt:    res.BookedAt,
		})
	}
}

// CancelResult describes a committed cancellation.
type CancelResult struct {
	BookingID   uint64
	MovieTitle  string
	Message     string
	CancelledAt time.Time
}

// Cancel cancels a confirmed booking owned by userID whose show has not
// started, releasing its seats and appending the cancellation and
// activity rows.  Nothing is written when any check fails.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID uint64) (*CancelResult, error) {
	var res CancelResult
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx, after func(database.AfterCommit)) error {
		t, err := s.bookings.GetForCancelTx(ctx, tx, bookingID)
		if errors.Is(err, repository.ErrBookingNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("load booking: %w", err)
		}
		if t.UserID != userID {
			return ErrBookingNotFound
		}
		if !t.Status.CanTransitionTo(model.BookingCancelled) {
			return ErrAlreadyCancelled
		}
		now := s.now()
		if !t.ShowTime.After(now) {
			return ErrShowStarted
		}

		if err := s.bookings.MarkCancelledTx(ctx, tx, bookingID); err != nil {
			if errors.Is(err, repository.ErrNoChange) {
				return ErrAlreadyCancelled
			}
			return fmt.Errorf("mark cancelled: %w", err)
		}
		if err := s.bookings.ReleaseSeatsTx(ctx, tx, bookingID); err != nil {
			return fmt.Errorf("release seats: %w", err)
		}
		if err := s.audit.InsertCancellationTx(ctx, tx, model.CancellationLog{
			BookingID: bookingID,
			UserID:    userID,
			Reason:    model.CancellationReasonUser,
		}); err != nil {
			return fmt.Errorf("insert cancellation: %w", err)
		}
		if err := s.audit.InsertActivityTx(ctx, tx, model.ActivityLog{
			UserID:    userID,
			BookingID: bookingID,
			Type:      model.ActivityCancelled,
			Details:   "Cancelled booking for " + t.MovieTitle,
		}); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}

		res = CancelResult{
			BookingID:   bookingID,
			MovieTitle:  t.MovieTitle,
			Message:     fmt.Sprintf("Booking #%d for %q has been successfully cancelled.", bookingID, t.MovieTitle),
			CancelledAt: now,
		}
		after(func(ctx context.Context) { s.cancellationCommitted(ctx, userID, t.ShowID, res) })
		return nil
	})
	if err != nil {
		s.outcome(metrics.OpCancel, err)
		s.log.Info("cancellation rejected", zap.Uint64("booking_id", bookingID), zap.Uint64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &res, nil
}

func (s *BookingService) cancellationCommitted(ctx context.Context, userID, showID uint64, res CancelResult) {
	s.log.Info("booking cancelled", zap.Uint64("booking_id", res.BookingID), zap.Uint64("user_id", userID))
	if s.metrics != nil {
		s.metrics.BookingOutcome(metrics.OpCancel, metrics.StatusSuccess)
	}
	if s.events != nil {
		_ = s.events.PublishBookingCancelled(ctx, queue.BookingCancelledEvent{
			BookingID:   res.BookingID,
			UserID:      userID,
			ShowID:      showID,
			MovieTitle:  res.MovieTitle,
			Reason:      model.CancellationReasonUser,
			CancelledAt: res.CancelledAt,
		})
	}
}

// ListForUser returns the bookings of a user, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID uint64) ([]repository.BookingSummary, error) {
	return s.bookings.ListByUser(ctx, userID, s.now())
}

// GetForUser returns one booking of a user.
func (s *BookingService) GetForUser(ctx context.Context, bookingID, userID uint64) (repository.BookingSummary, error) {
	b, err := s.bookings.GetForUser(ctx, bookingID, userID, s.now())
	if errors.Is(err, repository.ErrBookingNotFound) {
		return repository.BookingSummary{}, ErrBookingNotFound
	}
	return b, err
}

func (s *BookingService) outcome(op string, err error) {
	if s.metrics == nil {
		return
	}
	status := metrics.StatusError
	switch {
	case errors.Is(err, ErrSeatsTaken), errors.Is(err, ErrShowStarted), errors.Is(err, ErrAlreadyCancelled):
		status = metrics.StatusConflict
	case errors.Is(err, ErrNoSeats), errors.Is(err, ErrInvalidPaymentMode), errors.Is(err, ErrInvalidSeats),
		errors.Is(err, ErrShowNotFound), errors.Is(err, ErrBookingNotFound):
		status = metrics.StatusRejected
	}
	s.metrics.BookingOutcome(op, status)
}

// NormalizeSeats trims and upper-cases labels, dropping blanks and
// duplicates while keeping the first occurrence order.
func NormalizeSeats(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		s := model.NormalizeSeatLabel(raw)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func outOfRange(seats []string, total int) []string {
	var bad []string
	for _, s := range seats {
		if !model.SeatInRange(s, total) {
			bad = append(bad, s)
		}
	}
	return bad
}

func intersect(seats, occupied []string) []string {
	held := make(map[string]bool, len(occupied))
	for _, s := range occupied {
		held[s] = true
	}
	var out []string
	for _, s := range seats {
		if held[s] {
			out = append(out, s)
		}
	}
	return out
}
