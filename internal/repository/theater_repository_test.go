package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookyourshow/internal/model"
)

func TestTheaterRepo_Create_TrimsInput(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTheaterRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO theaters (name, location) VALUES (?, ?)")).
		WithArgs("PVR", "Pune").
		WillReturnResult(sqlmock.NewResult(4, 1))

	th := &model.Theater{Name: "  PVR ", Location: "Pune  "}
	require.NoError(t, repo.Create(context.Background(), th))
	assert.Equal(t, uint64(4), th.ID)
}

func TestTheaterRepo_List_WithScreenCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTheaterRepo(db)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("COUNT\\(sc.id\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "location", "created_at", "screen_count"}).
			AddRow(1, "INOX", "Mumbai", created, 0).
			AddRow(4, "PVR", "Pune", created, 3))

	out, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[1].ScreenCount)
	assert.Equal(t, "PVR", out[1].Theater.Name)
}

func TestTheaterRepo_CreateScreen_Errors(t *testing.T) {
	cases := []struct {
		name string
		code uint16
		want error
	}{
		{"duplicate name", 1062, ErrConflict},
		{"unknown theater", 1452, ErrTheaterNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewTheaterRepo(db)

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO screens")).
				WithArgs(uint64(4), "Screen 1", 50).
				WillReturnError(&mysql.MySQLError{Number: tc.code})

			err := repo.CreateScreen(context.Background(), &model.Screen{TheaterID: 4, Name: " Screen 1 ", TotalSeats: 50})

			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTheaterRepo_GetScreen_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTheaterRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM screens WHERE id = ?")).WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "theater_id", "screen_name", "total_seats"}))

	_, err := repo.GetScreen(context.Background(), 9)

	assert.ErrorIs(t, err, ErrScreenNotFound)
}
