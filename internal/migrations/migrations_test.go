package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(files, dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for _, e := range entries {
		body, err := fs.ReadFile(files, dir+"/"+e.Name())
		require.NoError(t, err)
		s := string(body)
		assert.Contains(t, s, "-- +goose Up", e.Name())
		assert.Contains(t, s, "-- +goose Down", e.Name())
		assert.Equal(t, strings.Count(s, "StatementBegin"), strings.Count(s, "StatementEnd"), e.Name())
	}
}

func TestSchemaGuardsConfirmedSeats(t *testing.T) {
	body, err := fs.ReadFile(files, dir+"/00001_schema.sql")
	require.NoError(t, err)

	assert.Contains(t, string(body), "UNIQUE KEY uq_booking_details_seat (show_id, seat_number, seat_lock)")
	assert.Contains(t, string(body), "UNIQUE KEY uq_payments_booking (booking_id)")
}
