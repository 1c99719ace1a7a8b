package keyboard

import "testing"

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "Водій", Data: "category_driver"}},
		nil,
		[]InlineBtn{{Text: "HR", URL: "https://t.me/hr", Data: "ignored"}, {Text: "Меню", Data: "main_menu"}},
	)
	if m == nil || len(m.InlineKeyboard) != 2 {
		t.Fatalf("markup = %+v", m)
	}
	if b := m.InlineKeyboard[0][0]; b.Data != "category_driver" || b.Unique != "" {
		t.Fatalf("data button = %+v", b)
	}
	if b := m.InlineKeyboard[1][0]; b.URL != "https://t.me/hr" || b.Data != "" {
		t.Fatalf("url button = %+v", b)
	}
	if InlineButtonsRows() != nil {
		t.Fatal("empty keyboard should be nil")
	}
}
