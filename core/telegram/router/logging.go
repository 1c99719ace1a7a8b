package router

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary collects one handler.handled line per routed update.
type summary struct {
	c      tele.Context
	name   string
	start  time.Time
	extras []slog.Attr
}

func begin(c tele.Context, name string, start time.Time, extras ...slog.Attr) *summary {
	tghelpers.WithHandler(c, name)
	return &summary{c: c, name: name, start: start, extras: extras}
}

// run calls fn and logs its result.
func (s *summary) run(fn func() error) error {
	err := fn()
	status := "ok"
	if err != nil {
		status = "fail"
	}
	s.log(status, err)
	return err
}

// skip logs an update nobody handled.
func (s *summary) skip() { s.log("skip", nil) }

func (s *summary) log(status string, err error) {
	ctx := tghelpers.WithHandler(s.c, s.name)
	msgs, kb := middleware.GetCounters(s.c)
	attrs := make([]slog.Attr, 0, 8+len(s.extras))
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("handler", s.name),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(s.start)).Milliseconds()),
	)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, s.extras...)
	logger.LogEvent(ctx, logger.Component("tg"), level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// errorCode maps err to a short upper-case label for log filtering.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var (
		flood  tele.FloodError
		apiErr *tele.Error
	)
	type coder interface{ Code() string }
	var coded coder
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	case errors.As(err, &flood):
		return "FLOOD"
	case errors.As(err, &apiErr):
		return "TG_" + strconv.Itoa(apiErr.Code)
	case errors.As(err, &coded) && strings.TrimSpace(coded.Code()) != "":
		return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(coded.Code()), " ", "_"))
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
