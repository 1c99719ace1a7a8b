package app

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/m3rciful/intakebot/core/telegram/sender"
	"github.com/m3rciful/intakebot/internal/chat"

	tele "gopkg.in/telebot.v4"
)

type sentCall struct {
	to   string
	what interface{}
	opts []interface{}
}

type fakeBot struct {
	sends    []sentCall
	edits    []*tele.ReplyMarkup
	edited   tele.Editable
	answered []*tele.CallbackResponse
	failures int
}

func (f *fakeBot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.failures > 0 {
		f.failures--
		return nil, &net.OpError{Op: "dial", Err: errors.New("refused")}
	}
	f.sends = append(f.sends, sentCall{to: to.Recipient(), what: what, opts: opts})
	return &tele.Message{}, nil
}

func (f *fakeBot) EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error) {
	f.edited = msg
	f.edits = append(f.edits, markup)
	return &tele.Message{}, nil
}

func (f *fakeBot) Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error {
	r := resp[0]
	r.CallbackID = c.ID
	f.answered = append(f.answered, r)
	return nil
}

func TestMessengerSendRetriesThroughSender(t *testing.T) {
	out := sender.New(sender.Options{Retries: 2, Backoff: time.Millisecond})
	defer out.Close()
	bot := &fakeBot{failures: 1}
	m := NewMessenger(bot, out)

	kb := chat.Column(chat.Button{Label: "Водій", Token: "category_driver"})
	if err := m.Send(context.Background(), 42, "Оберіть", kb); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(bot.sends) != 1 || bot.sends[0].to != "42" || bot.sends[0].what != "Оберіть" {
		t.Fatalf("sends = %+v", bot.sends)
	}
	opts, ok := bot.sends[0].opts[0].(*tele.SendOptions)
	if !ok || opts.ReplyMarkup.InlineKeyboard[0][0].Data != "category_driver" {
		t.Fatalf("send options = %+v", bot.sends[0].opts)
	}

	if err := m.Send(context.Background(), 42, "plain", nil); err != nil {
		t.Fatalf("Send plain: %v", err)
	}
	if len(bot.sends[1].opts) != 0 {
		t.Fatal("plain text must go without options")
	}
}

func TestMessengerEditAndAnswer(t *testing.T) {
	bot := &fakeBot{}
	m := NewMessenger(bot, nil)

	kb := chat.Column(chat.Button{Label: "»", Token: "calendar_next_2025-06"})
	if err := m.EditKeyboard(context.Background(), 5, 77, kb); err != nil {
		t.Fatalf("EditKeyboard: %v", err)
	}
	mid, cid := bot.edited.MessageSig()
	if mid != "77" || cid != 5 || bot.edits[0] == nil {
		t.Fatalf("edited %s/%d markup %+v", mid, cid, bot.edits)
	}

	if err := m.AnswerCallback(context.Background(), "cb-1", "✅ Відповідь збережено"); err != nil {
		t.Fatalf("AnswerCallback: %v", err)
	}
	if r := bot.answered[0]; r.CallbackID != "cb-1" || r.Text != "✅ Відповідь збережено" {
		t.Fatalf("answer = %+v", r)
	}
}

func TestMarkupKeepsURLButtons(t *testing.T) {
	kb := chat.Column(
		chat.Button{Label: "💼 Написати HR", URL: "https://t.me/CleanHR"},
		chat.Button{Label: "🏠 Головне меню", Token: "main_menu"},
	)
	m := Markup(kb)
	if m.InlineKeyboard[0][0].URL != "https://t.me/CleanHR" || m.InlineKeyboard[1][0].Data != "main_menu" {
		t.Fatalf("markup = %+v", m.InlineKeyboard)
	}
	if Markup(nil) != nil {
		t.Fatal("nil keyboard must yield nil markup")
	}
}
