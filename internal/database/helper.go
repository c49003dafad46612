package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Row is a single result row keyed by column name.  []byte values are
// converted to string so rows can be rendered as JSON directly.
type Row map[string]any

// AfterCommit is a hook scheduled inside a transaction that runs only
// once the transaction has been committed.
type AfterCommit func(ctx context.Context)

// TxFunc is the body of a transaction.  Returning an error rolls the
// transaction back; after registers hooks that run after a commit.
type TxFunc func(ctx context.Context, tx *sql.Tx, after func(AfterCommit)) error

// Helper executes statements against the store.  Every method ends in
// exactly one commit or one rollback, whichever path it exits through.
type Helper struct {
	db  *sql.DB
	log *zap.Logger
}

// NewHelper wraps db.  A nil logger is replaced by a no-op logger.
func NewHelper(db *sql.DB, log *zap.Logger) *Helper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Helper{db: db, log: log}
}

// DB exposes the underlying pool for callers that need plain queries.
func (h *Helper) DB() *sql.DB { return h.db }

// WithTx runs fn inside a transaction.  A panic in fn rolls back and is
// re-raised.  Hooks registered through after run in order once the
// commit succeeded and never run on rollback.
func (h *Helper) WithTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	var hooks []AfterCommit
	after := func(hook AfterCommit) { hooks = append(hooks, hook) }

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, tx, after); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			h.log.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	for _, hook := range hooks {
		hook(context.WithoutCancel(ctx))
	}
	return nil
}

// Query runs a read statement and returns every row.
func (h *Helper) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	var out []Row
	err := h.WithTx(ctx, func(ctx context.Context, tx *sql.Tx, _ func(AfterCommit)) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return out, nil
}

// Exec runs a write statement and returns the generated row id (zero
// when the statement does not generate one).
func (h *Helper) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := h.WithTx(ctx, func(ctx context.Context, tx *sql.Tx, _ func(AfterCommit)) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	return id, nil
}

// CallProcedure invokes a stored procedure and collects the rows of its
// first result set.  Any further result sets (including the status
// result MySQL appends to every CALL) are drained so the connection is
// returned clean.
func (h *Helper) CallProcedure(ctx context.Context, name string, args ...any) ([]Row, error) {
	if !validIdent(name) {
		return nil, fmt.Errorf("call %q: invalid procedure name", name)
	}
	stmt := fmt.Sprintf("CALL %s(%s)", name, placeholders(len(args)))

	var out []Row
	err := h.WithTx(ctx, func(ctx context.Context, tx *sql.Tx, _ func(AfterCommit)) error {
		rows, err := tx.QueryContext(ctx, stmt, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		if out, err = scanRows(rows); err != nil {
			return err
		}
		for rows.NextResultSet() {
			for rows.Next() {
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	return out, nil
}

// CallFunction evaluates a stored function and returns its scalar value.
func (h *Helper) CallFunction(ctx context.Context, name string, args ...any) (any, error) {
	if !validIdent(name) {
		return nil, fmt.Errorf("function %q: invalid name", name)
	}
	stmt := fmt.Sprintf("SELECT %s(%s) AS result", name, placeholders(len(args)))
	rows, err := h.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0]["result"], nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				r[c] = string(b)
				continue
			}
			r[c] = vals[i]
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// validIdent accepts plain SQL identifiers only; routine names cannot be
// bound as parameters.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
