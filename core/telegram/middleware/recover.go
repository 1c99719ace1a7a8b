package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/intakebot/core/logger"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware catches handler panics, logs them with the stack and
// lets onPanic notify the user. A failing onPanic is logged and dropped.
func RecoverMiddleware(onPanic tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				ctx := tghelpers.BuildContext(c)
				logger.Error(ctx, "tg", "panic.recovered",
					slog.String("err", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
				err = nil
				if onPanic == nil {
					return
				}
				if nerr := onPanic(c); nerr != nil {
					logger.Warn(ctx, "tg", "panic.notify", logger.Err(nerr))
				}
			}()
			return next(c)
		}
	}
}
