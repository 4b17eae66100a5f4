// Package migrate применяет встроенные goose-миграции.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"advent_calendar/migrations"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const dialect = "postgres"

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Up накатывает все неприменённые миграции.
func Up(ctx context.Context, log *slog.Logger, dsn string) error {
	const op = "migrate.Up"

	db, err := open(dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("migrations applied", slog.String("op", op), slog.Int64("version", version))

	return nil
}

// Status печатает состояние миграций через логгер goose.
func Status(ctx context.Context, dsn string) error {
	const op = "migrate.Status"

	db, err := open(dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	if err := goose.StatusContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
