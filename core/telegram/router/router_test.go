package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tg "github.com/m3rciful/intakebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

func callbackContext(data string) tele.Context {
	user := &tele.User{ID: 5}
	return tele.NewContext(nil, tele.Update{
		ID: 10,
		Callback: &tele.Callback{
			ID:      "cb",
			Sender:  user,
			Data:    data,
			Message: &tele.Message{ID: 1, Chat: &tele.Chat{ID: 5}},
		},
	})
}

func TestCallbackRouteDispatchesByPrefix(t *testing.T) {
	reg := tg.NewRegistry()
	var got string
	_ = reg.RegisterCallbackPrefix("category_", func(c tele.Context) error {
		got = c.Callback().Data
		return nil
	})
	unknown := 0
	route := CallbackRoute(reg, CallbackOptions{NotFound: func(tele.Context) error { unknown++; return nil }})

	if err := route.Handler(callbackContext("category_driver")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got != "category_driver" {
		t.Fatalf("prefix handler got %q", got)
	}
	if err := route.Handler(callbackContext("stale_button")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if unknown != 1 {
		t.Fatalf("not-found handler calls = %d", unknown)
	}
}

type fakeFlow struct {
	active map[int64]bool
	texts  []string
}

func (f *fakeFlow) Active(id int64) bool { return f.active[id] }

func (f *fakeFlow) HandleText(c tele.Context) error {
	f.texts = append(f.texts, c.Text())
	return nil
}

func textContext(userID int64, text string) tele.Context {
	return tele.NewContext(nil, tele.Update{
		ID: 11,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID},
			Text:   text,
		},
	})
}

func TestTextRoutesPreferActiveFlow(t *testing.T) {
	flow := &fakeFlow{active: map[int64]bool{1: true}}
	fallbacks := 0
	routes := TextRoutes(flow, tg.NewRegistry(), TextOptions{UnknownText: func(tele.Context) error { fallbacks++; return nil }})
	h := routes[0].Handler

	_ = h(textContext(1, "Іван"))
	_ = h(textContext(2, "hello"))
	if len(flow.texts) != 1 || flow.texts[0] != "Іван" {
		t.Fatalf("flow texts = %v", flow.texts)
	}
	if fallbacks != 1 {
		t.Fatalf("fallbacks = %d", fallbacks)
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "x" }
func (codedErr) Code() string  { return "sheet missing" }

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{codedErr{}, "SHEET_MISSING"},
		{errors.New("x"), "ERRORSTRING"},
		{fmt.Errorf("send: %w", context.DeadlineExceeded), "TIMEOUT"},
		{fmt.Errorf("send: %w", tele.ErrBlockedByUser), "TG_403"},
	}
	for _, tc := range cases {
		if got := errorCode(tc.err); got != tc.want {
			t.Fatalf("errorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if got := normalizeHandlerName(" /Start "); got != "start" {
		t.Fatalf("normalize = %q", got)
	}
}
