package questionnaire

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type harness struct {
	orch  *Orchestrator
	eng   *Engine
	msg   *fakeMessenger
	store *fakeStorage
	cal   *fakeCalendar
}

func newHarness(t *testing.T, resolver fakeResolver, ops ...int64) *harness {
	t.Helper()
	h := &harness{
		eng:   newTestEngine(t),
		msg:   newFakeMessenger(),
		store: &fakeStorage{ok: true},
		cal:   &fakeCalendar{date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
	}
	completion := &CompletionHandler{Messenger: h.msg, Storage: h.store, Operators: ops, HRUsername: "CleanHR"}
	h.orch = NewOrchestrator(h.eng, resolver, h.cal, completion, h.msg)
	return h
}

func (h *harness) handle(t *testing.T, ev Event) {
	t.Helper()
	if err := h.orch.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle(%T): %v", ev, err)
	}
}

func TestOrchestratorDriverScenario(t *testing.T) {
	h := newHarness(t, fakeResolver{42: {"driver", "Водій"}}, 7)
	h.handle(t, CategoryChosen{UserID: 42, ChatID: 100, Respondent: Respondent{Username: "ivan"}})
	if got := h.msg.last(100).text; got != "Як вас звати?" {
		t.Fatalf("first prompt = %q", got)
	}

	h.handle(t, TextReceived{UserID: 42, ChatID: 100, Text: "Іван"})
	opts := h.msg.last(100)
	if opts.kb == nil || len(opts.kb.Rows) != 2 {
		t.Fatalf("options keyboard missing: %+v", opts)
	}

	h.handle(t, TextReceived{UserID: 42, ChatID: 100, Text: "stray text"})
	if st, _ := h.eng.State(42); st.Cursor != 1 {
		t.Fatalf("text during options question must be ignored, cursor = %d", st.Cursor)
	}

	h.handle(t, CallbackReceived{ID: "cb1", UserID: 42, ChatID: 100, Data: opts.kb.Rows[0][0].Token})
	if len(h.msg.answers) != 1 || h.msg.answers[0] != MsgAnswerSaved {
		t.Fatalf("callback answers = %v", h.msg.answers)
	}

	h.handle(t, TextReceived{UserID: 42, ChatID: 100, Text: "12345"})
	if got := h.msg.last(100).text; got != MsgInvalidPhone {
		t.Fatalf("expected phone hint, got %q", got)
	}
	if st, _ := h.eng.State(42); st.Cursor != 2 {
		t.Fatalf("rejected phone moved cursor to %d", st.Cursor)
	}

	h.handle(t, TextReceived{UserID: 42, ChatID: 100, Text: "+380991234567"})
	if h.eng.Active(42) {
		t.Fatal("state must be discarded after completion")
	}
	if strings.Join(h.store.answers, "|") != "Іван|Так|+380991234567" {
		t.Fatalf("stored answers = %v", h.store.answers)
	}
	if !h.msg.received(7, "📩 Нова анкета") {
		t.Fatal("operator did not receive the submission")
	}
}

func TestOrchestratorStorageFailureScenario(t *testing.T) {
	h := newHarness(t, fakeResolver{42: {"driver", "Водій"}}, 7, 8)
	h.store.ok = false
	h.msg.panics[7] = true

	h.handle(t, CategoryChosen{UserID: 42, ChatID: 100})
	h.handle(t, TextReceived{UserID: 42, ChatID: 100, Text: "Іван"})
	h.handle(t, CallbackReceived{ID: "cb", UserID: 42, ChatID: 100, Data: "answer_Так"})
	h.handle(t, TextReceived{UserID: 42, ChatID: 100, Text: "0991234567"})

	if !h.msg.received(100, "📋 Ваші відповіді") || !h.msg.received(100, "Дякуємо за заповнення анкети!") {
		t.Fatal("respondent must get transcript and closing")
	}
	if !h.msg.received(8, "Помилка збереження") || !h.msg.received(8, "📩 Нова анкета") {
		t.Fatal("operator 8 must get alert and submission despite operator 7 failing")
	}
	if h.eng.Active(42) {
		t.Fatal("state must be discarded even when storage fails")
	}
}

func TestOrchestratorSMMScenario(t *testing.T) {
	h := newHarness(t, fakeResolver{5: {SMMCategory, "SMM"}})
	h.handle(t, CategoryChosen{UserID: 5, ChatID: 5})

	h.handle(t, TextReceived{UserID: 5, ChatID: 5, Text: "random text"})
	if got := h.msg.last(5).text; got != MsgInvalidURL {
		t.Fatalf("expected url hint, got %q", got)
	}
	h.handle(t, TextReceived{UserID: 5, ChatID: 5, Text: "немає"})
	if len(h.cal.started) != 1 || h.cal.started[0] != "Коли зможете почати?" {
		t.Fatalf("calendar not started: %v", h.cal.started)
	}

	h.handle(t, CallbackReceived{ID: "nav", UserID: 5, ChatID: 5, Data: "calendar_next_2025-06"})
	if !h.eng.Active(5) {
		t.Fatal("navigation must not advance the flow")
	}
	h.handle(t, CallbackReceived{ID: "day", UserID: 5, ChatID: 5, Data: "calendar_day_2025-06-02"})
	if h.eng.Active(5) {
		t.Fatal("picking a day should complete the flow")
	}
	if strings.Join(h.store.answers, "|") != "немає|02.06.2025" {
		t.Fatalf("stored answers = %v", h.store.answers)
	}
	if len(h.msg.answers) != 2 {
		t.Fatalf("every callback must be answered once, got %v", h.msg.answers)
	}
}

func TestOrchestratorConfigurationGaps(t *testing.T) {
	h := newHarness(t, fakeResolver{2: {"empty", "Порожня"}})
	h.handle(t, CategoryChosen{UserID: 1, ChatID: 1})
	if got := h.msg.last(1).text; got != MsgChooseCategory {
		t.Fatalf("unresolved category notice = %q", got)
	}
	h.handle(t, CategoryChosen{UserID: 2, ChatID: 2})
	if got := h.msg.last(2).text; got != MsgNoQuestions {
		t.Fatalf("empty category notice = %q", got)
	}
	if h.orch.Active(1) || h.orch.Active(2) {
		t.Fatal("no state should be created")
	}
}

func TestOrchestratorRestartIntoEmptyCategory(t *testing.T) {
	resolver := fakeResolver{3: {"driver", "Водій"}}
	h := newHarness(t, resolver)
	h.handle(t, CategoryChosen{UserID: 3, ChatID: 3})
	h.handle(t, TextReceived{UserID: 3, ChatID: 3, Text: "Іван"})
	if !h.orch.Active(3) {
		t.Fatal("flow should be in progress")
	}

	resolver[3] = [2]string{"empty", "Порожня"}
	h.handle(t, CategoryChosen{UserID: 3, ChatID: 3})
	if got := h.msg.last(3).text; got != MsgNoQuestions {
		t.Fatalf("empty category notice = %q", got)
	}
	if h.orch.Active(3) {
		t.Fatal("old flow must not survive a restart into an empty category")
	}
	h.handle(t, TextReceived{UserID: 3, ChatID: 3, Text: "stray"})
	if st, ok := h.eng.State(3); ok {
		t.Fatalf("text after the failed restart revived state %+v", st)
	}
}

func TestOrchestratorReleasesUserLocks(t *testing.T) {
	h := newHarness(t, fakeResolver{42: {"driver", "Водій"}})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = h.orch.Handle(context.Background(), TextReceived{UserID: id, ChatID: id, Text: "x"})
		}(int64(i % 3))
	}
	wg.Wait()
	h.handle(t, CategoryChosen{UserID: 42, ChatID: 100})
	if n := h.orch.locks.size(); n != 0 {
		t.Fatalf("lock table holds %d entries after all events finished", n)
	}
}

func TestOrchestratorCallbackWithoutFlow(t *testing.T) {
	h := newHarness(t, fakeResolver{})
	h.handle(t, CallbackReceived{ID: "x", UserID: 9, ChatID: 9, Data: "ans_1_Так"})
	if len(h.msg.answers) != 1 || h.msg.answers[0] != "" {
		t.Fatalf("stale callback should be answered silently, got %v", h.msg.answers)
	}
	if len(h.msg.to(9)) != 0 {
		t.Fatal("no messages expected")
	}
}
