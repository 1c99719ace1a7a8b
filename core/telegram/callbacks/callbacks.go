// Package callbacks reads inline button payloads. Buttons in this bot carry
// plain prefixed tokens such as "category_driver" or "ans_3_Так" rather than
// telebot's "\f<unique>|<payload>" encoding.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Data returns the raw callback payload without telebot's unique marker.
func Data(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimPrefix(cb.Data, "\f"), "\\f")
}

// FromContext returns the raw payload of the callback carried by c.
func FromContext(c tele.Context) string {
	if c == nil {
		return ""
	}
	return Data(c.Callback())
}
