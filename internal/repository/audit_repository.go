package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/bookyourshow/internal/model"
)

// AuditRepo appends to activity_log and cancellations_log.  Rows are
// never updated or deleted.
type AuditRepo struct{ db *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// InsertActivityTx records a user action inside tx.
func (r *AuditRepo) InsertActivityTx(ctx context.Context, tx *sql.Tx, a model.ActivityLog) error {
	const q = `INSERT INTO activity_log (user_id, booking_id, activity_type, details) VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, nullID(a.UserID), nullID(a.BookingID), a.Type, a.Details)
	return err
}

// InsertCancellationTx records a cancelled booking inside tx.
func (r *AuditRepo) InsertCancellationTx(ctx context.Context, tx *sql.Tx, c model.CancellationLog) error {
	const q = `INSERT INTO cancellations_log (booking_id, user_id, reason) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, c.BookingID, c.UserID, c.Reason)
	return err
}

// ActivityEntry is an activity row joined with the acting user.
type ActivityEntry struct {
	ID        uint64    `json:"log_id"`
	LoggedAt  time.Time `json:"log_timestamp"`
	UserID    uint64    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	BookingID uint64    `json:"booking_id,omitempty"`
	Type      string    `json:"activity_type"`
	Details   string    `json:"details"`
}

// RecentActivity returns the newest limit activity rows.
func (r *AuditRepo) RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	const q = `SELECT a.log_id, a.log_timestamp, COALESCE(a.user_id, 0), COALESCE(u.name, ''), COALESCE(u.email, ''),
	                  COALESCE(a.booking_id, 0), a.activity_type, a.details
	           FROM activity_log a
	           LEFT JOIN users u ON u.id = a.user_id
	           ORDER BY a.log_timestamp DESC, a.log_id DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ActivityEntry, 0, limit)
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.LoggedAt, &e.UserID, &e.UserName, &e.UserEmail, &e.BookingID, &e.Type, &e.Details); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullID(id uint64) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}
