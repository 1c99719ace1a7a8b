package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/intakebot/core/logger"
)

const upsertSession = `
INSERT INTO user_sessions (user_id, data, updated_at)
VALUES ($1, $2::jsonb, NOW())
ON CONFLICT (user_id) DO UPDATE
SET data = user_sessions.data || EXCLUDED.data,
    updated_at = NOW()`

// Postgres stores sessions as JSONB documents in user_sessions.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection. Closing the store leaves db open.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// UpdateSession merges patch into the stored document, creating it when missing.
func (p *Postgres) UpdateSession(ctx context.Context, userID int64, patch map[string]any) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("session: encode patch: %w", err)
	}
	start := time.Now()
	_, err = p.db.ExecContext(ctx, upsertSession, userID, string(body))
	logger.LogEvent(ctx, logger.DB, levelFor(err), "session.upsert",
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
		logger.Err(err),
	)
	if err != nil {
		return fmt.Errorf("session: upsert user %d: %w", userID, err)
	}
	return nil
}

// Close implements Store.
func (p *Postgres) Close() error { return nil }

func levelFor(err error) slog.Level {
	if err != nil {
		return slog.LevelError
	}
	return slog.LevelDebug
}
