package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/bookyourshow/internal/model"
)

// TheaterRepo encapsulates all queries related to theaters and their
// screens.
type TheaterRepo struct {
	db *sql.DB
}

// NewTheaterRepo constructs a TheaterRepo with the provided DB handle.
func NewTheaterRepo(db *sql.DB) *TheaterRepo { return &TheaterRepo{db: db} }

// Create inserts a theater and populates its ID.
func (r *TheaterRepo) Create(ctx context.Context, t *model.Theater) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO theaters (name, location) VALUES (?, ?)",
		strings.TrimSpace(t.Name), strings.TrimSpace(t.Location))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches a theater or returns ErrTheaterNotFound.
func (r *TheaterRepo) GetByID(ctx context.Context, id uint64) (model.Theater, error) {
	var t model.Theater
	err := r.db.QueryRowContext(ctx, "SELECT id, name, location, created_at FROM theaters WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &t.Location, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Theater{}, ErrTheaterNotFound
	}
	return t, err
}

// TheaterListing is a theater with the number of screens it contains.
type TheaterListing struct {
	Theater     model.Theater
	ScreenCount int
}

// List returns all theaters with their screen counts ordered by name.
func (r *TheaterRepo) List(ctx context.Context) ([]TheaterListing, error) {
	const q = `SELECT t.id, t.name, t.location, t.created_at, COUNT(sc.id) AS screen_count
	           FROM theaters t
	           LEFT JOIN screens sc ON sc.theater_id = t.id
	           GROUP BY t.id
	           ORDER BY t.name, t.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TheaterListing, 0)
	for rows.Next() {
		var l TheaterListing
		if err := rows.Scan(&l.Theater.ID, &l.Theater.Name, &l.Theater.Location, &l.Theater.CreatedAt, &l.ScreenCount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateScreen adds a screen to a theater.  A duplicate name in the same
// theater yields ErrConflict and an unknown theater ErrTheaterNotFound.
func (r *TheaterRepo) CreateScreen(ctx context.Context, s *model.Screen) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO screens (theater_id, screen_name, total_seats) VALUES (?, ?, ?)",
		s.TheaterID, strings.TrimSpace(s.Name), s.TotalSeats)
	switch {
	case IsDuplicate(err):
		return ErrConflict
	case IsMissingReference(err):
		return ErrTheaterNotFound
	case err != nil:
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// ListScreens returns the screens of one theater.
func (r *TheaterRepo) ListScreens(ctx context.Context, theaterID uint64) ([]model.Screen, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, theater_id, screen_name, total_seats FROM screens WHERE theater_id = ? ORDER BY screen_name", theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screen, 0)
	for rows.Next() {
		var s model.Screen
		if err := rows.Scan(&s.ID, &s.TheaterID, &s.Name, &s.TotalSeats); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetScreen fetches a screen or returns ErrScreenNotFound.
func (r *TheaterRepo) GetScreen(ctx context.Context, id uint64) (model.Screen, error) {
	var s model.Screen
	err := r.db.QueryRowContext(ctx, "SELECT id, theater_id, screen_name, total_seats FROM screens WHERE id = ?", id).
		Scan(&s.ID, &s.TheaterID, &s.Name, &s.TotalSeats)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Screen{}, ErrScreenNotFound
	}
	return s, err
}
