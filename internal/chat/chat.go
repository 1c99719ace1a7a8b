// Package chat describes outbound messaging independently of the Telegram client.
package chat

import "context"

// Button is an inline keyboard button. Exactly one of Token or URL is set.
type Button struct {
	Label string
	Token string
	URL   string
}

// Keyboard is an inline keyboard as ordered rows of buttons.
type Keyboard struct {
	Rows [][]Button
}

// Column returns a keyboard with one button per row.
func Column(buttons ...Button) *Keyboard {
	kb := &Keyboard{Rows: make([][]Button, 0, len(buttons))}
	for _, b := range buttons {
		kb.Rows = append(kb.Rows, []Button{b})
	}
	return kb
}

// Messenger delivers messages and callback acknowledgements.
type Messenger interface {
	// Send posts text to chatID with an optional inline keyboard.
	Send(ctx context.Context, chatID int64, text string, kb *Keyboard) error
	// EditKeyboard replaces the inline keyboard of an existing message.
	EditKeyboard(ctx context.Context, chatID int64, messageID int, kb *Keyboard) error
	// AnswerCallback acknowledges a button press, optionally with a toast text.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
