package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookyourshow/internal/model"
)

// MovieRepo manages persistence for movies and the browse queries built
// on top of them.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `m.id, m.title, m.genre, m.duration_min, m.rating, m.release_date, COALESCE(m.description, ''), m.created_at`

func scanMovie(sc interface{ Scan(...any) error }, m *model.Movie) error {
	return sc.Scan(&m.ID, &m.Title, &m.Genre, &m.DurationMin, &m.Rating, &m.ReleaseDate, &m.Description, &m.CreatedAt)
}

// Create inserts a movie and assigns its generated ID.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, genre, duration_min, rating, release_date, description) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Genre, m.DurationMin, m.Rating, m.ReleaseDate, nullString(m.Description))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID returns one movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies m WHERE m.id = ?`, id), &m)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, err
}

// ListAll returns every movie, newest release first.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies m ORDER BY m.release_date DESC, m.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Movie, 0)
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MovieSearchQuery defines filters and pagination for searching movies.
// Text matches the title, Genre must match exactly and MinRating is an
// inclusive lower bound.
type MovieSearchQuery struct {
	Text      string
	Genre     string
	MinRating *decimal.Decimal
	Page      int
	PageSize  int
}

// Search returns one page of matching movies and the total match count.
func (r *MovieRepo) Search(ctx context.Context, q MovieSearchQuery) ([]model.Movie, int64, error) {
	where := []string{}
	args := []any{}

	if q.Text != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(q.Text))+"%")
	}
	if q.Genre != "" {
		where = append(where, "m.genre = ?")
		args = append(args, q.Genre)
	}
	if q.MinRating != nil {
		where = append(where, "m.rating >= ?")
		args = append(args, *q.MinRating)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies m WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT ` + movieColumns + `
		FROM movies m
		WHERE ` + cond + `
		ORDER BY m.release_date DESC, m.id DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0, q.PageSize)
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// NowShowing is a movie that has at least one upcoming show.
type NowShowing struct {
	Movie     model.Movie
	ShowCount int
}

// ListNowShowing returns movies with shows after now, newest release
// first, together with their number of upcoming shows.
func (r *MovieRepo) ListNowShowing(ctx context.Context, now time.Time) ([]NowShowing, error) {
	q := `SELECT ` + movieColumns + `, COUNT(s.id) AS show_count
		FROM movies m
		JOIN shows s ON s.movie_id = m.id
		WHERE s.show_time > ?
		GROUP BY m.id
		ORDER BY m.release_date DESC, m.id DESC`
	rows, err := r.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]NowShowing, 0)
	for rows.Next() {
		var n NowShowing
		m := &n.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Genre, &m.DurationMin, &m.Rating, &m.ReleaseDate, &m.Description, &m.CreatedAt, &n.ShowCount); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Genres returns the distinct genres in alphabetical order.
func (r *MovieRepo) Genres(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT genre FROM movies ORDER BY genre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CountReleased returns how many movies were released on or before day.
func (r *MovieRepo) CountReleased(ctx context.Context, day time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies WHERE release_date <= ?`, day.Format("2006-01-02")).Scan(&n)
	return n, err
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
