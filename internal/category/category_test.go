package category

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/intakebot/internal/catalog"
	"github.com/m3rciful/intakebot/internal/chat"
)

type recorder struct {
	text string
	kb   *chat.Keyboard
}

func (r *recorder) Send(_ context.Context, _ int64, text string, kb *chat.Keyboard) error {
	r.text, r.kb = text, kb
	return nil
}

func (r *recorder) EditKeyboard(context.Context, int64, int, *chat.Keyboard) error { return nil }

func (r *recorder) AnswerCallback(context.Context, string, string) error { return nil }

func newSelector(t *testing.T) (*Selector, *recorder) {
	t.Helper()
	cat, err := catalog.New(
		catalog.Category{Key: "driver", Label: "🚗 Водій"},
		catalog.Category{Key: "smm"},
	)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	r := &recorder{}
	return NewSelector(cat, nil, r), r
}

func TestShowMenu(t *testing.T) {
	s, r := newSelector(t)
	if err := s.ShowMenu(context.Background(), 1); err != nil {
		t.Fatalf("ShowMenu: %v", err)
	}
	if r.text != MenuText || r.kb == nil || len(r.kb.Rows) != 2 {
		t.Fatalf("menu = %q %+v", r.text, r.kb)
	}
	if b := r.kb.Rows[0][0]; b.Label != "🚗 Водій" || b.Token != "category_driver" {
		t.Fatalf("first button = %+v", b)
	}
	if b := r.kb.Rows[1][0]; b.Label != "smm" {
		t.Fatalf("label should fall back to key, got %+v", b)
	}
}

func TestChooseAndResolve(t *testing.T) {
	s, _ := newSelector(t)
	if _, _, ok := s.Resolve(5); ok {
		t.Fatal("no choice expected yet")
	}
	if _, err := s.Choose(5, "category_driver"); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	key, label, ok := s.Resolve(5)
	if !ok || key != "driver" || label != "🚗 Водій" {
		t.Fatalf("Resolve = %q %q %v", key, label, ok)
	}
	if _, err := s.Choose(5, "category_cook"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("unknown key err = %v", err)
	}
	if key, _, _ := s.Resolve(5); key != "driver" {
		t.Fatal("failed choice must keep the previous one")
	}
}
