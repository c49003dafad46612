package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movieRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "genre", "duration_min", "rating", "release_date", "description", "created_at"})
}

func TestMovieRepo_Search_BuildsFiltersAndPage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)
	released := time.Date(2010, 7, 16, 0, 0, 0, 0, time.UTC)
	min := decimal.RequireFromString("8")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movies m WHERE LOWER(m.title) LIKE ? AND m.genre = ? AND m.rating >= ?")).
		WithArgs(`%100\%%`, "Sci-Fi", "8").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ? OFFSET ?")).
		WithArgs(`%100\%%`, "Sci-Fi", "8", 5, 5).
		WillReturnRows(movieRows().AddRow(1, "100% Inception", "Sci-Fi", 148, "8.8", released, "", released))

	movies, total, err := repo.Search(context.Background(), MovieSearchQuery{
		Text: "100%", Genre: "Sci-Fi", MinRating: &min, Page: 2, PageSize: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, movies, 1)
	assert.Equal(t, 148, movies[0].DurationMin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery("FROM movies m WHERE m.id = ?").WithArgs(5).WillReturnRows(movieRows())

	_, err := repo.GetByID(context.Background(), 5)

	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieRepo_CountReleased_UsesDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE release_date <= ?")).
		WithArgs("2026-10-19").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))

	n, err := repo.CountReleased(context.Background(), time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
