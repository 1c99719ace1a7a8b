package questionnaire

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/intakebot/core/telegram/state"
	"github.com/m3rciful/intakebot/internal/catalog"
	"github.com/m3rciful/intakebot/internal/chat"
)

var errUnreachable = errors.New("chat not found")

type sentMessage struct {
	chatID int64
	text   string
	kb     *chat.Keyboard
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	answers []string
	fail    map[int64]error
	panics  map[int64]bool
	// failText fails every send whose text contains it.
	failText string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{fail: map[int64]error{}, panics: map[int64]bool{}}
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, text string, kb *chat.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[chatID] {
		panic("transport exploded")
	}
	if err := f.fail[chatID]; err != nil {
		return err
	}
	if f.failText != "" && strings.Contains(text, f.failText) {
		return errUnreachable
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, kb: kb})
	return nil
}

func (f *fakeMessenger) EditKeyboard(context.Context, int64, int, *chat.Keyboard) error {
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) to(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.chatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMessenger) last(chatID int64) sentMessage {
	msgs := f.to(chatID)
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

func (f *fakeMessenger) received(chatID int64, substr string) bool {
	for _, m := range f.to(chatID) {
		if strings.Contains(m.text, substr) {
			return true
		}
	}
	return false
}

type fakeStorage struct {
	ok      bool
	calls   int
	answers []string
	cat     string
}

func (f *fakeStorage) SaveQuestionnaire(_ context.Context, _ int64, _ Respondent, category string, answers []string) bool {
	f.calls++
	f.cat = category
	f.answers = answers
	return f.ok
}

type fakeSessions struct {
	err     error
	patches []map[string]any
}

func (f *fakeSessions) UpdateSession(_ context.Context, _ int64, patch map[string]any) error {
	f.patches = append(f.patches, patch)
	return f.err
}

type fakeResolver map[int64][2]string

func (f fakeResolver) Resolve(userID int64) (string, string, bool) {
	v, ok := f[userID]
	return v[0], v[1], ok
}

type fakeCalendar struct {
	started []string
	date    time.Time
}

func (f *fakeCalendar) StartSelection(_ context.Context, _ int64, _ int64, prompt string) error {
	f.started = append(f.started, prompt)
	return nil
}

func (f *fakeCalendar) HandleCallback(_ context.Context, _ int64, _ int, data string) (time.Time, bool, error) {
	if strings.HasPrefix(data, "calendar_day_") {
		return f.date, true, nil
	}
	return time.Time{}, false, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		catalog.Category{
			Key:   "driver",
			Label: "Водій",
			Questions: []catalog.Question{
				{ID: 1, Kind: catalog.KindText, Prompt: "Як вас звати?", Short: "Ім'я"},
				{ID: 2, Kind: catalog.KindOptions, Prompt: "Чи є посвідчення категорії B?", Short: "Посвідчення", Options: []string{"Так", "Ні, але планую"}},
				{ID: 3, Kind: catalog.KindText, Prompt: "Ваш номер телефону?", Short: "Телефон"},
			},
		},
		catalog.Category{
			Key:   SMMCategory,
			Label: "SMM",
			Questions: []catalog.Question{
				{ID: 1, Kind: catalog.KindText, Prompt: "Посилання на портфоліо робіт", Short: "Портфоліо"},
				{ID: 2, Kind: catalog.KindCalendar, Prompt: "Коли зможете почати?"},
			},
		},
		catalog.Category{Key: "empty", Label: "Порожня"},
	)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testCatalog(t), state.NewMemoryStore[State]())
}
