package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
// OperatorOnly commands are restricted to the configured operator chats and
// are never published in the command menu.
type Command struct {
	Handler      tele.HandlerFunc
	Description  string
	OperatorOnly bool
	Hidden       bool
	Aliases      []string
}
