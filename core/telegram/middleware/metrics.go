package middleware

import (
	"context"
	"sync/atomic"

	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "metrics"

// counters track what a handler delivered while serving one update.
type counters struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

type countersCtxKey struct{}

// CountSent records a delivered message against the update carried by ctx.
// Contexts without counters are ignored.
func CountSent(ctx context.Context, withKeyboard bool) {
	if ctx == nil {
		return
	}
	cnt, _ := ctx.Value(countersCtxKey{}).(*counters)
	if cnt == nil {
		return
	}
	cnt.messages.Add(1)
	if withKeyboard {
		cnt.keyboard.Store(true)
	}
}

// MessageMetricsMiddleware attaches per-update counters to the request context.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		cnt := &counters{}
		c.Set(countersKey, cnt)
		ctx := tghelpers.BuildContext(c)
		tghelpers.StoreContext(c, context.WithValue(ctx, countersCtxKey{}, cnt))
		return next(c)
	}
}

// GetCounters reads the message count and keyboard flag for the current update.
func GetCounters(c tele.Context) (int, bool) {
	cnt, _ := c.Get(countersKey).(*counters)
	if cnt == nil {
		return 0, false
	}
	return int(cnt.messages.Load()), cnt.keyboard.Load()
}
