package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/intakebot/core/logger"
)

const (
	defaultReadyTimeout = 30 * time.Second
	pingInterval        = 2 * time.Second
)

// Connect opens the pool and pings until Postgres answers or
// cfg.ReadyTimeoutSeconds elapses, which covers a database container that
// starts alongside the bot.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}

	timeout := defaultReadyTimeout
	if cfg.ReadyTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.ReadyTimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	attempts, err := pingUntilReady(ctx, db)
	attrs := []slog.Attr{
		slog.String("host", cfg.Host),
		slog.String("db", cfg.Name),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		_ = db.Close()
		logger.Error(ctx, "db", "connect", append(attrs, logger.Err(err))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}
	logger.Info(ctx, "db", "connect", append(attrs, slog.Int("pool_open", cfg.MaxConnections))...)
	return db, nil
}

func pingUntilReady(ctx context.Context, db *sqlx.DB) (int, error) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return attempt, nil
		}
		select {
		case <-ctx.Done():
			return attempt, err
		case <-ticker.C:
		}
	}
}
