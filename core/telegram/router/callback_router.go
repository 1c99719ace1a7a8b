package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/callbacks"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
// Handlers own the callback answer; only the not-found path answers on their behalf.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		data := callbacks.FromContext(c)
		key, cbHandler, ok := reg.MatchCallback(data)
		if !ok || cbHandler == nil {
			fallback := opts.NotFound
			if fallback == nil {
				fallback = reg.CallbackNotFound()
			}
			extras := []slog.Attr{
				slog.String("cb_data", logger.SanitizeLimit(data, 64)),
				slog.String("reason", "not_found"),
			}
			return begin(c, "callback.unknown", start, extras...).run(func() error {
				if fallback != nil {
					return fallback(c)
				}
				return c.Respond()
			})
		}

		name := "callback." + normalizeHandlerName(key)
		return begin(c, name, start, slog.String("cb_key", key)).run(func() error {
			return cbHandler(c)
		})
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.LoggerMiddleware(handler),
	}
}
