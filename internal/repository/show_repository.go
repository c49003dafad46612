package repository

// A show is a scheduled screening of a movie on a screen; most reads join
// the movie, screen and theater so callers get display names in one trip.

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bookyourshow/internal/model"
)

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// DB exposes the underlying sql.DB.
func (r *ShowRepo) DB() *sql.DB { return r.db }

const (
	showInfoColumns = `s.id, s.movie_id, s.screen_id, s.show_time, s.price,
		m.title, sc.screen_name, t.id, t.name, sc.total_seats`
	showInfoFrom = `
	FROM shows s
	JOIN movies m   ON m.id = s.movie_id
	JOIN screens sc ON sc.id = s.screen_id
	JOIN theaters t ON t.id = sc.theater_id`
	showInfoSelect = `SELECT ` + showInfoColumns + showInfoFrom
	// booked counts confirmed seats through the total_seats_booked function
	showListingSelect = `SELECT ` + showInfoColumns + `, total_seats_booked(s.id) AS booked` + showInfoFrom
)

func scanShowInfo(sc interface{ Scan(...any) error }, extra ...any) (model.ShowInfo, error) {
	var si model.ShowInfo
	dest := []any{
		&si.ID, &si.MovieID, &si.ScreenID, &si.ShowTime, &si.Price,
		&si.MovieTitle, &si.ScreenName, &si.TheaterID, &si.TheaterName, &si.TotalSeats,
	}
	err := sc.Scan(append(dest, extra...)...)
	return si, err
}

// Create inserts a show.  An unknown movie or screen yields ErrReference.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	const q = `INSERT INTO shows (movie_id, screen_id, show_time, price) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.ScreenID, s.ShowTime.UTC(), s.Price)
	if err != nil {
		if IsMissingReference(err) {
			return ErrReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetInfo returns a show with display names, or ErrShowNotFound.
func (r *ShowRepo) GetInfo(ctx context.Context, id uint64) (model.ShowInfo, error) {
	si, err := scanShowInfo(r.db.QueryRowContext(ctx, showInfoSelect+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ShowInfo{}, ErrShowNotFound
	}
	return si, err
}

// GetInfoForUpdateTx loads a show inside tx and locks its row until the
// transaction ends, serializing concurrent bookings of the same show.
func (r *ShowRepo) GetInfoForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ShowInfo, error) {
	si, err := scanShowInfo(tx.QueryRowContext(ctx, showInfoSelect+` WHERE s.id = ? FOR UPDATE OF s`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ShowInfo{}, ErrShowNotFound
	}
	return si, err
}

// ShowListing is a show with the number of seats held by confirmed
// bookings.
type ShowListing struct {
	Info   model.ShowInfo
	Booked int
}

// Available returns the number of free seats.
func (l ShowListing) Available() int {
	if n := l.Info.TotalSeats - l.Booked; n > 0 {
		return n
	}
	return 0
}

// ListUpcomingByMovie returns the shows of a movie starting after now in
// chronological order.
func (r *ShowRepo) ListUpcomingByMovie(ctx context.Context, movieID uint64, now time.Time) ([]ShowListing, error) {
	q := showListingSelect + `
	WHERE s.movie_id = ? AND s.show_time > ?
	ORDER BY s.show_time, s.id`
	return r.listWithBooked(ctx, q, movieID, now)
}

// ListAll returns every show, most recent first.
func (r *ShowRepo) ListAll(ctx context.Context) ([]ShowListing, error) {
	return r.listWithBooked(ctx, showListingSelect+` ORDER BY s.show_time DESC, s.id DESC`)
}

func (r *ShowRepo) listWithBooked(ctx context.Context, q string, args ...any) ([]ShowListing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ShowListing, 0)
	for rows.Next() {
		var l ShowListing
		si, err := scanShowInfo(rows, &l.Booked)
		if err != nil {
			return nil, err
		}
		l.Info = si
		out = append(out, l)
	}
	return out, rows.Err()
}
