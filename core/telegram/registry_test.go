package telegram

import (
	"testing"

	"github.com/m3rciful/intakebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryMatchCallback(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterCallback("main_menu", noop); err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	for _, p := range []string{"ans_", "answer_", "calendar_", "category_"} {
		if err := r.RegisterCallbackPrefix(p, noop); err != nil {
			t.Fatalf("RegisterCallbackPrefix(%s): %v", p, err)
		}
	}

	cases := map[string]string{
		"main_menu":             "main_menu",
		"ans_3_Так":             "ans_",
		"answer_Так":            "answer_",
		"calendar_day_2025-1-1": "calendar_",
		"category_driver":       "category_",
	}
	for data, want := range cases {
		key, h, ok := r.MatchCallback(data)
		if !ok || h == nil || key != want {
			t.Errorf("MatchCallback(%q) = %q, %v", data, key, ok)
		}
	}
	if _, _, ok := r.MatchCallback("unknown"); ok {
		t.Fatal("unknown data must not match")
	}
	if err := r.RegisterCallbackPrefix("ans_", noop); err == nil {
		t.Fatal("duplicate prefix must be rejected")
	}
	if got := r.ListCallbacks(); len(got) != 5 || got[0] != "ans_*" {
		t.Fatalf("ListCallbacks = %v", got)
	}
}

func TestRegistryCommands(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Почати"})
	r.RegisterCommand("/sheets", commands.Command{Handler: noop, Description: "Перевірка таблиці", OperatorOnly: true})
	r.RegisterCommand("nolead", commands.Command{Handler: noop, Description: "x"})
	r.RegisterCommand("/menu", commands.Command{Handler: noop, Description: "Меню", Aliases: []string{"меню"}})

	visible := r.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "/menu" || visible[1].Text != "/start" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if len(r.ListCommands(false)) != 3 {
		t.Fatal("operator commands should be listed when not filtering")
	}
	if key, _, ok := r.LookupCommand("меню"); !ok || key != "/menu" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
}
