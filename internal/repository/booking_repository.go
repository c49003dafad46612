package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookyourshow/internal/model"
)

// BookingRepo persists bookings together with their seat details and
// payments.  Occupancy is always derived from booking_details joined to
// confirmed bookings; nothing else stores it.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const occupiedSeatsQuery = `SELECT bd.seat_number
	FROM booking_details bd
	JOIN bookings b ON b.id = bd.booking_id
	WHERE b.show_id = ? AND b.status = 'confirmed'`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// OccupiedSeats returns the sorted seat labels held by confirmed bookings
// of a show.  The result is empty, not nil, when nothing is booked.
func (r *BookingRepo) OccupiedSeats(ctx context.Context, showID uint64) ([]string, error) {
	return occupiedSeats(ctx, r.db, showID)
}

// OccupiedSeatsTx is OccupiedSeats inside tx.
func (r *BookingRepo) OccupiedSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64) ([]string, error) {
	return occupiedSeats(ctx, tx, showID)
}

func occupiedSeats(ctx context.Context, q queryer, showID uint64) ([]string, error) {
	rows, err := q.QueryContext(ctx, occupiedSeatsQuery, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		out = append(out, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortSeats(out)
	return out, nil
}

// CreateTx inserts the booking row and assigns its generated ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, show_id, total_amount, status, booking_date) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.ShowID, b.TotalAmount, string(b.Status), b.BookedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// AddSeatsTx inserts one booking_details row per seat in a single
// statement.  A unique-index violation means another confirmed booking
// holds one of the seats and is reported as ErrSeatTaken.
func (r *BookingRepo) AddSeatsTx(ctx context.Context, tx *sql.Tx, bookingID, showID uint64, seats []string) error {
	if len(seats) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO booking_details (booking_id, show_id, seat_number) VALUES `)
	args := make([]any, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, bookingID, showID, s)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		if IsDuplicate(err) {
			return ErrSeatTaken
		}
		return err
	}
	return nil
}

// CreatePaymentTx inserts the payment row of a booking.
func (r *BookingRepo) CreatePaymentTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (booking_id, amount, payment_mode, payment_status, transaction_ref, payment_date)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.BookingID, p.Amount, string(p.Mode), string(p.Status), p.TransactionRef, p.PaidAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// CancelTarget is the state needed to decide whether a booking may be
// cancelled.
type CancelTarget struct {
	BookingID  uint64
	UserID     uint64
	ShowID     uint64
	Status     model.BookingStatus
	ShowTime   time.Time
	MovieTitle string
}

// GetForCancelTx loads a booking with its show time and locks the booking
// row for the rest of tx.
func (r *BookingRepo) GetForCancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (CancelTarget, error) {
	const q = `SELECT b.id, b.user_id, b.show_id, b.status, s.show_time, m.title
	           FROM bookings b
	           JOIN shows s  ON s.id = b.show_id
	           JOIN movies m ON m.id = s.movie_id
	           WHERE b.id = ?
	           FOR UPDATE OF b`
	var (
		t      CancelTarget
		status string
	)
	err := tx.QueryRowContext(ctx, q, bookingID).Scan(&t.BookingID, &t.UserID, &t.ShowID, &status, &t.ShowTime, &t.MovieTitle)
	if errors.Is(err, sql.ErrNoRows) {
		return CancelTarget{}, ErrBookingNotFound
	}
	if err != nil {
		return CancelTarget{}, err
	}
	t.Status = model.BookingStatus(status)
	return t, nil
}

// MarkCancelledTx moves a confirmed booking to cancelled.  It returns
// ErrNoChange when the booking was not confirmed.
func (r *BookingRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled' WHERE id = ? AND status = 'confirmed'`, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoChange
	}
	return nil
}

// ReleaseSeatsTx frees the seats of a cancelled booking for rebooking.
func (r *BookingRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE booking_details SET seat_lock = NULL WHERE booking_id = ?`, bookingID)
	return err
}

// BookingSummary is a booking as shown to its owner: show, venue, seats
// and payment in one record.
type BookingSummary struct {
	ID             uint64              `json:"booking_id"`
	ShowID         uint64              `json:"show_id"`
	MovieID        uint64              `json:"movie_id"`
	MovieTitle     string              `json:"movie_title"`
	TheaterName    string              `json:"theater_name"`
	ScreenName     string              `json:"screen_name"`
	ShowTime       time.Time           `json:"show_time"`
	Seats          []string            `json:"seats"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	Status         model.BookingStatus `json:"status"`
	BookedAt       time.Time           `json:"booking_date"`
	PaymentMode    string              `json:"payment_mode,omitempty"`
	PaymentStatus  string              `json:"payment_status,omitempty"`
	TransactionRef string              `json:"transaction_ref,omitempty"`
	CanCancel      bool                `json:"can_cancel"`
}

const bookingSummarySelect = `SELECT b.id, b.show_id, m.id, m.title, t.name, sc.screen_name, s.show_time,
		b.total_amount, b.status, b.booking_date,
		COALESCE(p.payment_mode, ''), COALESCE(p.payment_status, ''), COALESCE(p.transaction_ref, '')
	FROM bookings b
	JOIN shows s    ON s.id = b.show_id
	JOIN movies m   ON m.id = s.movie_id
	JOIN screens sc ON sc.id = s.screen_id
	JOIN theaters t ON t.id = sc.theater_id
	LEFT JOIN payments p ON p.booking_id = b.id`

func scanBookingSummary(sc interface{ Scan(...any) error }) (BookingSummary, error) {
	var (
		d      BookingSummary
		status string
	)
	err := sc.Scan(&d.ID, &d.ShowID, &d.MovieID, &d.MovieTitle, &d.TheaterName, &d.ScreenName, &d.ShowTime,
		&d.TotalAmount, &status, &d.BookedAt, &d.PaymentMode, &d.PaymentStatus, &d.TransactionRef)
	d.Status = model.BookingStatus(status)
	d.Seats = []string{}
	return d, err
}

// ListByUser returns every booking of a user, newest first, with seats.
// CanCancel is set for confirmed bookings whose show starts after now.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, now time.Time) ([]BookingSummary, error) {
	rows, err := r.db.QueryContext(ctx, bookingSummarySelect+` WHERE b.user_id = ? ORDER BY b.booking_date DESC, b.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingSummary, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		d, err := scanBookingSummary(rows)
		if err != nil {
			return nil, err
		}
		d.CanCancel = d.Status == model.BookingConfirmed && d.ShowTime.After(now)
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	if err := r.attachSeats(ctx, details, index); err != nil {
		return nil, err
	}
	return details, nil
}

// GetForUser returns one booking owned by userID.  Bookings of other
// users are reported as ErrBookingNotFound.
func (r *BookingRepo) GetForUser(ctx context.Context, bookingID, userID uint64, now time.Time) (BookingSummary, error) {
	d, err := scanBookingSummary(r.db.QueryRowContext(ctx, bookingSummarySelect+` WHERE b.id = ? AND b.user_id = ?`, bookingID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return BookingSummary{}, ErrBookingNotFound
	}
	if err != nil {
		return BookingSummary{}, err
	}
	d.CanCancel = d.Status == model.BookingConfirmed && d.ShowTime.After(now)
	details := []BookingSummary{d}
	if err := r.attachSeats(ctx, details, map[uint64]int{d.ID: 0}); err != nil {
		return BookingSummary{}, err
	}
	return details[0], nil
}

// attachSeats loads the seats of all bookings in one query.
func (r *BookingRepo) attachSeats(ctx context.Context, details []BookingSummary, index map[uint64]int) error {
	ids := make([]any, 0, len(details))
	marks := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		marks = append(marks, "?")
	}
	q := `SELECT booking_id, seat_number FROM booking_details
	      WHERE booking_id IN (` + strings.Join(marks, ",") + `)
	      ORDER BY booking_id, id`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			bookingID uint64
			seat      string
		)
		if err := rows.Scan(&bookingID, &seat); err != nil {
			return err
		}
		if i, ok := index[bookingID]; ok {
			details[i].Seats = append(details[i].Seats, seat)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range details {
		sortSeats(details[i].Seats)
	}
	return nil
}

// sortSeats orders labels by their seat-map position, unknown labels last.
func sortSeats(seats []string) {
	sort.SliceStable(seats, func(i, j int) bool {
		a, okA := model.SeatIndex(seats[i])
		b, okB := model.SeatIndex(seats[j])
		switch {
		case okA && okB:
			return a < b
		case okA != okB:
			return okA
		}
		return seats[i] < seats[j]
	})
}
