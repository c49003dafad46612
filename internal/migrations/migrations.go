// Package migrations owns the relational schema: tables, report views, the
// seat-count function and the top-movies procedure.  The SQL files are
// embedded so the binary can migrate the database on start-up.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var files embed.FS

const dir = "sql"

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if err := configure(log); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func Version(ctx context.Context, db *sql.DB, log *zap.Logger) (int64, error) {
	if err := configure(log); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}

func configure(log *zap.Logger) error {
	goose.SetBaseFS(files)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if log != nil {
		goose.SetLogger(gooseLogger{log.Sugar()})
	}
	return nil
}

type gooseLogger struct{ s *zap.SugaredLogger }

func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.s.Fatalf(format, v...) }
func (l gooseLogger) Printf(format string, v ...interface{}) { l.s.Infof(format, v...) }
