package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/bookyourshow/internal/model"
)

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("Asha", "asha@example.com", sqlmock.AnyArg(), "customer").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Create(context.Background(), " Asha ", " ASHA@example.com", "secret1", model.RoleCustomer, bcrypt.MinCost)

	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_EnsureAdmin_ExistingIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("FROM users WHERE email=?").
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(1, "Admin", "admin@example.com", "x", "admin", time.Now()))

	created, err := repo.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "secret1", bcrypt.MinCost)

	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_EnsureAdmin_Creates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("FROM users WHERE email=?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("Admin", "admin@example.com", sqlmock.AnyArg(), "admin").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := repo.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "secret1", bcrypt.MinCost)

	require.NoError(t, err)
	assert.True(t, created)
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("FROM users WHERE id=?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 7)

	assert.ErrorIs(t, err, ErrUserNotFound)
}
