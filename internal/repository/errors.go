// Package repository defines the data access layer.  Every repository
// wraps a *sql.DB and issues parameterized SQL; methods ending in Tx run
// on a caller-supplied transaction and never commit it.
//
// The sentinel errors below let higher layers such as services and
// handlers distinguish failure scenarios without inspecting SQL errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when registering an address twice.
	ErrEmailExists = errors.New("email already exists")
	// ErrMovieNotFound is returned when a movie id is unknown.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrTheaterNotFound is returned when a theater id is unknown.
	ErrTheaterNotFound = errors.New("theater not found")
	// ErrScreenNotFound is returned when a screen id is unknown.
	ErrScreenNotFound = errors.New("screen not found")
	// ErrShowNotFound is returned when a show id is unknown.
	ErrShowNotFound = errors.New("show not found")
	// ErrBookingNotFound is returned when a booking id is unknown.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrRefreshNotFound is returned for unknown, expired or revoked refresh tokens.
	ErrRefreshNotFound = errors.New("refresh token not found")
	// ErrSeatTaken is returned when the unique seat index rejects an insert.
	ErrSeatTaken = errors.New("seat already booked")
	// ErrConflict is returned when a write collides with existing state,
	// such as a duplicate screen name inside a theater.
	ErrConflict = errors.New("conflict")
	// ErrReference is returned when a foreign key points at a missing row.
	ErrReference = errors.New("referenced row does not exist")
	// ErrNoChange is returned when an UPDATE matched no row in the expected state.
	ErrNoChange = errors.New("no change")
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// IsDuplicate reports whether err is a MySQL unique-key violation.
func IsDuplicate(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }

// IsMissingReference reports whether err is a MySQL foreign-key violation.
func IsMissingReference(err error) bool { return mysqlErrNumber(err) == mysqlNoReferencedRow }
