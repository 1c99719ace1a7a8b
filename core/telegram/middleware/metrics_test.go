package middleware

import (
	"context"
	"testing"

	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func TestMessageMetricsMiddleware(t *testing.T) {
	c := tele.NewContext(nil, tele.Update{
		ID:      5,
		Message: &tele.Message{Sender: &tele.User{ID: 1}, Chat: &tele.Chat{ID: 1}},
	})
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		CountSent(ctx, false)
		CountSent(ctx, true)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	msgs, kb := GetCounters(c)
	if msgs != 2 || !kb {
		t.Fatalf("counters = %d, %v", msgs, kb)
	}
}

func TestCountSentWithoutCounters(t *testing.T) {
	CountSent(context.Background(), true)
	c := tele.NewContext(nil, tele.Update{ID: 1})
	if msgs, kb := GetCounters(c); msgs != 0 || kb {
		t.Fatalf("counters = %d, %v", msgs, kb)
	}
}
