// Package category lets a user pick the role they apply for and remembers the choice.
package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/intakebot/core/telegram/state"
	"github.com/m3rciful/intakebot/internal/catalog"
	"github.com/m3rciful/intakebot/internal/chat"
)

// TokenPrefix marks category menu callbacks: "category_<key>".
const TokenPrefix = "category_"

// MenuText introduces the category menu.
const MenuText = "👋 Вітаємо! Оберіть категорію, на яку бажаєте подати анкету:"

// ErrUnknownCategory is returned for a token naming no catalog category.
var ErrUnknownCategory = errors.New("category: unknown category")

// Choice is the category a user picked.
type Choice struct {
	Key   string
	Label string
}

// Selector renders the category menu and stores choices per user.
type Selector struct {
	catalog   *catalog.Catalog
	choices   state.Store[Choice]
	messenger chat.Messenger
}

// NewSelector builds a selector. A nil store falls back to memory.
func NewSelector(cat *catalog.Catalog, choices state.Store[Choice], messenger chat.Messenger) *Selector {
	if choices == nil {
		choices = state.NewMemoryStore[Choice]()
	}
	return &Selector{catalog: cat, choices: choices, messenger: messenger}
}

// Token returns the callback token for a category key.
func Token(key string) string {
	return TokenPrefix + key
}

// Menu returns one button per category in catalog order.
func (s *Selector) Menu() *chat.Keyboard {
	cats := s.catalog.Categories()
	buttons := make([]chat.Button, 0, len(cats))
	for _, c := range cats {
		label := c.Label
		if label == "" {
			label = c.Key
		}
		buttons = append(buttons, chat.Button{Label: label, Token: Token(c.Key)})
	}
	return chat.Column(buttons...)
}

// ShowMenu sends the category menu to chatID.
func (s *Selector) ShowMenu(ctx context.Context, chatID int64) error {
	return s.messenger.Send(ctx, chatID, MenuText, s.Menu())
}

// Choose records the category named by a menu token.
func (s *Selector) Choose(userID int64, token string) (Choice, error) {
	key, ok := strings.CutPrefix(token, TokenPrefix)
	if !ok {
		return Choice{}, fmt.Errorf("%w: %q", ErrUnknownCategory, token)
	}
	c, ok := s.catalog.Category(key)
	if !ok {
		return Choice{}, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}
	choice := Choice{Key: c.Key, Label: c.Label}
	s.choices.Set(userID, choice)
	return choice, nil
}

// Resolve returns the user's last choice.
func (s *Selector) Resolve(userID int64) (string, string, bool) {
	c, ok := s.choices.Get(userID)
	if !ok {
		return "", "", false
	}
	return c.Key, c.Label, true
}
