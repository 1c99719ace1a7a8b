package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/intakebot/core/logger"
)

// RunMigrations applies the up migrations from cfg.MigrationsDir on a
// connection borrowed from db.
func RunMigrations(ctx context.Context, db *sqlx.DB, cfg Config) error {
	dir := cfg.MigrationsDir
	if dir == "" {
		dir = "migrations"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrate conn: %w", err)
	}
	// Closing m closes conn only, which hands it back to the pool.
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{DatabaseName: cfg.Name})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+abs, cfg.Name, driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	to, dirty, _ := m.Version()
	attrs := []slog.Attr{
		slog.String("path", abs),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Bool("dirty", dirty),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, "db.migrate", "apply", append(attrs, logger.Err(upErr))...)
		return fmt.Errorf("migrate up: %w", upErr)
	}
	logger.Info(ctx, "db.migrate", "summary", attrs...)
	return nil
}
