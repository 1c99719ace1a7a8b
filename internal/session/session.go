// Package session keeps a small per-user record that outlives a single
// questionnaire, such as the last completed category.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Backend names.
const (
	BackendNone     = "none"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendFirebase = "firebase"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("session: unknown backend")

// Store merges patches into per-user session records.
type Store interface {
	UpdateSession(ctx context.Context, userID int64, patch map[string]any) error
	Close() error
}

// Config selects and configures the session backend.
type Config struct {
	Backend  string         `yaml:"backend" envconfig:"SESSION_BACKEND"`
	Redis    RedisConfig    `yaml:"redis"`
	Firebase FirebaseConfig `yaml:"firebase"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	URL          string        `yaml:"url" envconfig:"REDIS_URL"`
	TTL          time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"REDIS_WRITE_TIMEOUT"`
	DialTimeout  time.Duration `yaml:"dial_timeout" envconfig:"REDIS_DIAL_TIMEOUT"`
}

// FirebaseConfig configures the Realtime Database backend.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file" envconfig:"FIREBASE_CREDENTIALS_FILE"`
	DatabaseURL     string `yaml:"database_url" envconfig:"FIREBASE_DATABASE_URL"`
}

// Name returns the normalised backend name; empty means none.
func (c Config) Name() string {
	name := strings.ToLower(strings.TrimSpace(c.Backend))
	if name == "" {
		return BackendNone
	}
	return name
}

// Open builds the configured store. db is required only for the postgres backend.
func Open(ctx context.Context, cfg Config, db *sqlx.DB) (Store, error) {
	switch cfg.Name() {
	case BackendNone:
		return Nop{}, nil
	case BackendPostgres:
		if db == nil {
			return nil, errors.New("session: postgres backend needs a database connection")
		}
		return NewPostgres(db), nil
	case BackendRedis:
		return OpenRedis(ctx, cfg.Redis)
	case BackendFirebase:
		return OpenFirebase(ctx, cfg.Firebase)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Nop discards every update.
type Nop struct{}

// UpdateSession implements Store.
func (Nop) UpdateSession(context.Context, int64, map[string]any) error { return nil }

// Close implements Store.
func (Nop) Close() error { return nil }
