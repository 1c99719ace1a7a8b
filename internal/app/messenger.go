package app

import (
	"context"
	"strconv"

	"github.com/m3rciful/intakebot/core/telegram/keyboard"
	"github.com/m3rciful/intakebot/core/telegram/middleware"
	"github.com/m3rciful/intakebot/core/telegram/sender"
	"github.com/m3rciful/intakebot/internal/chat"

	tele "gopkg.in/telebot.v4"
)

// botAPI is the part of *tele.Bot the messenger needs.
type botAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Messenger delivers chat.Messenger calls through telebot. Every call runs
// through the sender so callers see the final error after retries.
type Messenger struct {
	bot botAPI
	out *sender.Sender
}

// NewMessenger wraps bot. A nil sender calls the API once without retries.
func NewMessenger(bot botAPI, out *sender.Sender) *Messenger {
	return &Messenger{bot: bot, out: out}
}

func (m *Messenger) do(ctx context.Context, action, endpoint string, call func() error) error {
	if m.out == nil {
		return call()
	}
	return m.out.Do(ctx, action, endpoint, call)
}

// Send posts plain text to chatID with an optional inline keyboard.
func (m *Messenger) Send(ctx context.Context, chatID int64, text string, kb *chat.Keyboard) error {
	markup := Markup(kb)
	err := m.do(ctx, "send.text", "sendMessage", func() error {
		var err error
		if markup != nil {
			_, err = m.bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{ReplyMarkup: markup})
		} else {
			_, err = m.bot.Send(tele.ChatID(chatID), text)
		}
		return err
	})
	if err == nil {
		middleware.CountSent(ctx, markup != nil)
	}
	return err
}

// EditKeyboard replaces the inline keyboard of an existing message.
func (m *Messenger) EditKeyboard(ctx context.Context, chatID int64, messageID int, kb *chat.Keyboard) error {
	msg := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	markup := Markup(kb)
	return m.do(ctx, "edit.markup", "editMessageReplyMarkup", func() error {
		_, err := m.bot.EditReplyMarkup(msg, markup)
		return err
	})
}

// AnswerCallback acknowledges a callback query; an empty text shows nothing to the user.
func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return m.do(ctx, "callback.answer", "answerCallbackQuery", func() error {
		return m.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
	})
}

// Markup converts a transport-neutral keyboard to telebot inline markup.
func Markup(kb *chat.Keyboard) *tele.ReplyMarkup {
	if kb == nil {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Label, Data: b.Token, URL: b.URL})
		}
		rows = append(rows, r)
	}
	return keyboard.InlineButtonsRows(rows...)
}
