package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookyourshow/internal/database"
)

// ReportRepo serves the admin dashboard and reports.  Reports return
// generic rows so new columns in the views reach the client unchanged.
type ReportRepo struct{ h *database.Helper }

func NewReportRepo(h *database.Helper) *ReportRepo { return &ReportRepo{h: h} }

// Totals are the headline figures of the dashboard.
type Totals struct {
	Revenue  decimal.Decimal `json:"total_revenue"`
	Bookings int64           `json:"total_bookings"`
}

// Totals sums revenue over confirmed bookings and counts all bookings.
func (r *ReportRepo) Totals(ctx context.Context) (Totals, error) {
	const q = `SELECT COALESCE(SUM(CASE WHEN status = 'confirmed' THEN total_amount END), 0) AS revenue,
	                  COUNT(*) AS bookings
	           FROM bookings`
	var t Totals
	err := r.h.DB().QueryRowContext(ctx, q).Scan(&t.Revenue, &t.Bookings)
	return t, err
}

// TopMovies returns the n highest grossing movies via the
// top_movies_by_revenue procedure.
func (r *ReportRepo) TopMovies(ctx context.Context, n int) ([]database.Row, error) {
	return r.h.CallProcedure(ctx, "top_movies_by_revenue", n)
}

// Bookings returns every booking with customer, movie and venue.
func (r *ReportRepo) Bookings(ctx context.Context) ([]database.Row, error) {
	return r.h.Query(ctx, `SELECT b.id AS booking_id, u.name AS customer, u.email AS email,
		m.title AS movie, t.name AS theater, sc.screen_name AS screen, s.show_time AS show_time,
		b.total_amount AS total_amount, b.status AS status, b.booking_date AS booking_date
		FROM bookings b
		JOIN users u    ON u.id = b.user_id
		JOIN shows s    ON s.id = b.show_id
		JOIN movies m   ON m.id = s.movie_id
		JOIN screens sc ON sc.id = s.screen_id
		JOIN theaters t ON t.id = sc.theater_id
		ORDER BY b.booking_date DESC, b.id DESC`)
}

// MovieRevenue reads the movie_revenue view.
func (r *ReportRepo) MovieRevenue(ctx context.Context) ([]database.Row, error) {
	return r.h.Query(ctx, `SELECT movie_id, title, bookings, total_revenue FROM movie_revenue ORDER BY total_revenue DESC, movie_id`)
}

// TheaterRevenue reads the theater_revenue_summary view.
func (r *ReportRepo) TheaterRevenue(ctx context.Context) ([]database.Row, error) {
	return r.h.Query(ctx, `SELECT theater_id, theater_name, location, bookings, total_revenue
		FROM theater_revenue_summary ORDER BY total_revenue DESC, theater_id`)
}

// topCustomers caps the customer report.
const topCustomers = 20

// Customers reads the top spenders from the customer_booking_summary view.
func (r *ReportRepo) Customers(ctx context.Context) ([]database.Row, error) {
	return r.h.Query(ctx, `SELECT user_id, name, email, bookings, amount
		FROM customer_booking_summary ORDER BY amount DESC, user_id
		LIMIT ?`, topCustomers)
}

// Activity returns the full activity log, newest first.
func (r *ReportRepo) Activity(ctx context.Context) ([]database.Row, error) {
	return r.h.Query(ctx, `SELECT a.log_id, a.log_timestamp, a.user_id, u.name AS user_name,
		a.booking_id, a.activity_type, a.details
		FROM activity_log a
		LEFT JOIN users u ON u.id = a.user_id
		ORDER BY a.log_timestamp DESC, a.log_id DESC`)
}

// SeatsBooked returns the confirmed seat count of a show through the
// total_seats_booked function.
func (r *ReportRepo) SeatsBooked(ctx context.Context, showID uint64) (int64, error) {
	v, err := r.h.CallFunction(ctx, "total_seats_booked", showID)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return 0, err
		}
		return d.IntPart(), nil
	}
	return 0, nil
}
