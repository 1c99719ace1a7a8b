// Package sender runs outbound Telegram API calls with retries and a cap on
// how many of them are in flight at once.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/core/telegram/netutil"
)

const component = "tg.sender"

// ErrClosed is returned by Do once the sender has been closed.
var ErrClosed = errors.New("telegram sender: closed")

// Options tune retries and concurrency. Zero values select the defaults.
type Options struct {
	// MaxInFlight caps concurrent API calls across all chats.
	MaxInFlight int
	// Retries is the number of extra attempts after the first; negative disables retries.
	Retries int
	// Backoff is multiplied by the attempt number between retries. A flood
	// response's retry_after wins when it is longer.
	Backoff time.Duration
	// MaxDuration bounds one call including its retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 8
	}
	switch {
	case o.Retries == 0:
		o.Retries = 2
	case o.Retries < 0:
		o.Retries = 0
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 15 * time.Second
	}
	return o
}

// Sender executes calls synchronously so callers learn whether a message
// was delivered.
type Sender struct {
	opts   Options
	slots  chan struct{}
	closed atomic.Bool
	once   sync.Once
	failed atomic.Uint64
}

// New builds a Sender.
func New(opts Options) *Sender {
	opts = opts.withDefaults()
	return &Sender{opts: opts, slots: make(chan struct{}, opts.MaxInFlight)}
}

// Do runs call, retrying transient network and flood errors, and returns the
// last error. action and endpoint only label the logs.
func (s *Sender) Do(ctx context.Context, action, endpoint string, call func() error) error {
	if call == nil {
		return errors.New("telegram sender: nil call")
	}
	if s.closed.Load() {
		return ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	op := operation{action: action, endpoint: endpoint, start: time.Now()}
	limited, cancel := context.WithTimeout(ctx, s.opts.MaxDuration)
	defer cancel()

	select {
	case s.slots <- struct{}{}:
	case <-limited.Done():
		return s.fail(ctx, op, limited.Err(), 0)
	}
	defer func() { <-s.slots }()

	attempts := s.opts.Retries + 1
	for attempt := 1; ; attempt++ {
		err := call()
		if err == nil {
			op.done(ctx, attempt)
			return nil
		}
		if attempt == attempts || !netutil.ShouldRetry(err) {
			return s.fail(ctx, op, err, attempt)
		}
		delay := s.delay(attempt, err)
		logger.Debug(ctx, component, "send.retry",
			append(op.attrs(ctx), slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("err_kind", classifyError(err)))...,
		)
		if werr := wait(limited, delay); werr != nil {
			return s.fail(ctx, op, werr, attempt)
		}
	}
}

// Failures returns how many calls ended in an error.
func (s *Sender) Failures() uint64 {
	return s.failed.Load()
}

// Close rejects new calls and waits for the ones in flight.
func (s *Sender) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		for i := 0; i < cap(s.slots); i++ {
			s.slots <- struct{}{}
		}
	})
}

func (s *Sender) delay(attempt int, err error) time.Duration {
	d := s.opts.Backoff * time.Duration(attempt)
	if hint, ok := netutil.RetryAfter(err); ok && hint > d {
		return hint
	}
	return d
}

func (s *Sender) fail(ctx context.Context, op operation, err error, attempts int) error {
	s.failed.Add(1)
	attrs := append(op.attrs(ctx),
		slog.String("status", "fail"),
		slog.String("err", redact(err)),
		slog.String("err_kind", classifyError(err)),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.RoundMS(time.Since(op.start))),
	)
	logger.Error(ctx, component, "send.fail", attrs...)
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type operation struct {
	action   string
	endpoint string
	start    time.Time
}

func (op operation) attrs(ctx context.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", op.action)}
	if op.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", op.endpoint))
	}
	if chatID := logger.ChatIDFrom(ctx); chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID))
	}
	return attrs
}

func (op operation) done(ctx context.Context, attempt int) {
	attrs := append(op.attrs(ctx),
		slog.String("status", "ok"),
		slog.Duration("duration", logger.RoundMS(time.Since(op.start))),
	)
	if attempt > 1 {
		attrs = append(attrs, slog.Int("attempts", attempt))
		logger.Info(ctx, component, "send.recovered", attrs...)
		return
	}
	logger.Debug(ctx, component, "send.ok", attrs...)
}
