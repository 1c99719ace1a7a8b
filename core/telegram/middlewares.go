package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// ChainHooks lets the application answer users the middleware chain turns away.
type ChainHooks struct {
	// OnPanic runs after a handler panic was recovered.
	OnPanic tele.HandlerFunc
	// OnLimited runs for updates dropped by the rate limiter.
	OnLimited tele.HandlerFunc
}

// DefaultMiddlewares builds the global chain: recover, the optional rate
// limiter from cfg.RateLimit, then request logging and send counters.
func DefaultMiddlewares(cfg *coreconfig.Config, hooks ChainHooks) []Middleware {
	chain := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware(hooks.OnPanic)}}
	if rl, ok := rateLimiter(cfg, hooks.OnLimited); ok {
		chain = append(chain, rl)
	}
	return append(chain,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}

func rateLimiter(cfg *coreconfig.Config, onLimited tele.HandlerFunc) (Middleware, bool) {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return Middleware{}, false
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		if kind != "" {
			exclude[kind] = struct{}{}
		}
	}
	return Middleware{
		Name: "rate_limit",
		Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:   exclude,
			OnLimited: onLimited,
		}),
	}, true
}
