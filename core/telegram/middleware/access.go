package middleware

import (
	"log/slog"

	"github.com/m3rciful/intakebot/core/logger"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// OperatorOptions lists the users allowed to run operator-only handlers.
// An empty list rejects everyone.
type OperatorOptions struct {
	Operators []int64
	OnReject  tele.HandlerFunc
}

// IsOperator reports whether id is among the configured operators.
func (o OperatorOptions) IsOperator(id int64) bool {
	for _, op := range o.Operators {
		if op == id {
			return true
		}
	}
	return false
}

// OperatorOnlyMiddleware lets only configured operators reach downstream handlers.
func OperatorOnlyMiddleware(opts OperatorOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			var id int64
			if u := c.Sender(); u != nil {
				id = u.ID
			}
			if !opts.IsOperator(id) {
				logger.Warn(tghelpers.BuildContext(c), "tg.access", "operator.reject",
					slog.Int64("user_id", id),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
