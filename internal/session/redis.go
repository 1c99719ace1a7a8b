package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores sessions as hashes under "session:<userID>".
type Redis struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	closer func() error
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("session: redis url is empty")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	r := NewRedis(client, cfg.TTL)
	r.closer = client.Close
	return r, nil
}

// NewRedis wraps an existing client. A zero ttl keeps records forever.
func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// UpdateSession writes patch fields into the user's hash and refreshes its TTL.
func (r *Redis) UpdateSession(ctx context.Context, userID int64, patch map[string]any) error {
	key := redisKey(userID)
	fields := flatten(patch)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: redis update user %d: %w", userID, err)
	}
	return nil
}

// Close releases the client when the store opened it.
func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

func redisKey(userID int64) string {
	return "session:" + strconv.FormatInt(userID, 10)
}

// flatten renders patch values as strings, since hash fields are untyped.
func flatten(patch map[string]any) map[string]any {
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		switch val := v.(type) {
		case string:
			out[k] = val
		case time.Time:
			out[k] = val.UTC().Format(time.RFC3339)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
