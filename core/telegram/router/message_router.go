package router

import (
	"time"

	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Flow is a multi-step conversation that claims free text while a user is inside it.
type Flow interface {
	Active(userID int64) bool
	HandleText(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the handler for plain text. An active flow claims the
// text before command lookup and fallbacks.
func TextRoutes(flow Flow, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if flow != nil && c.Sender() != nil && flow.Active(c.Sender().ID) {
			return begin(c, "flow", start).run(func() error {
				return flow.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && !cmd.OperatorOnly {
				name := normalizeHandlerName(key)
				return begin(c, name, start).run(func() error {
					return cmd.Handler(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return begin(c, "unknown_text", start).run(func() error {
				return opts.UnknownText(c)
			})
		}

		begin(c, "unknown_text", start).skip()
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.LoggerMiddleware(handler),
		},
	}
}
