package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/chat"
)

const completeComponent = "questionnaire.complete"

// MainMenuToken reopens the category menu.
const MainMenuToken = "main_menu"

// SessionUpdater merges a patch into the user's session record.
type SessionUpdater interface {
	UpdateSession(ctx context.Context, userID int64, patch map[string]any) error
}

// Storage persists a finished questionnaire. It reports failure instead of erroring.
type Storage interface {
	SaveQuestionnaire(ctx context.Context, userID int64, who Respondent, category string, answers []string) bool
}

// Step is the outcome of one completion step. Err is nil on success.
type Step struct {
	Name string
	Err  error
}

// Report lists completion steps in execution order.
type Report struct {
	SubmissionID string
	Steps        []Step
}

// Failed reports whether any step failed.
func (r Report) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Step returns the outcome of the named step.
func (r Report) Step(name string) (Step, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// CompletionHandler finishes a flow: session update, storage, transcripts and
// operator notifications. Every step runs in its own fault boundary.
type CompletionHandler struct {
	Messenger  chat.Messenger
	Sessions   SessionUpdater
	Storage    Storage
	Operators  []int64
	HRUsername string
	HRURL      string

	Now   func() time.Time
	NewID func() string
}

// Complete runs every step for a finished flow and never returns an error.
// The respondent gets a short fallback acknowledgement when the closing message
// could not be delivered.
func (h *CompletionHandler) Complete(ctx context.Context, userID int64, st State) (report Report) {
	report.SubmissionID = h.newID()
	closed := false
	defer func() {
		if r := recover(); r != nil {
			report.Steps = append(report.Steps, Step{Name: "panic", Err: fmt.Errorf("panic: %v", r)})
			logger.Error(ctx, completeComponent, "complete.panic", slog.Any("panic", r))
		}
		if !closed {
			h.fallback(ctx, st, &report)
		}
		logger.Info(ctx, completeComponent, "complete.done",
			slog.String("category", st.Category),
			slog.String("submission_id", report.SubmissionID),
			slog.Int("answers", len(st.Answers)),
			slog.Bool("failed", report.Failed()),
		)
	}()

	h.run(ctx, &report, "session", func() error {
		if h.Sessions == nil {
			return nil
		}
		return h.Sessions.UpdateSession(ctx, userID, map[string]any{
			"category":                st.Category,
			"category_name":           st.CategoryLabel,
			"questionnaire_completed": true,
			"questionnaire_date":      h.now().UTC().Format(time.RFC3339),
			"submission_id":           report.SubmissionID,
		})
	})

	transcript := Transcript(st)

	h.run(ctx, &report, "storage", func() error {
		if h.Storage == nil {
			return nil
		}
		if !h.Storage.SaveQuestionnaire(ctx, userID, st.Respondent, st.Category, st.Values()) {
			return errStorageFailed
		}
		return nil
	})
	if s, _ := report.Step("storage"); s.Err != nil {
		alert := fmt.Sprintf("❌ Помилка збереження анкети користувача %d в Google Sheets", userID)
		for _, op := range h.Operators {
			h.run(ctx, &report, "operator_alert:"+strconv.FormatInt(op, 10), func() error {
				return h.Messenger.Send(ctx, op, alert, nil)
			})
		}
	}

	h.run(ctx, &report, "respondent_transcript", func() error {
		return h.Messenger.Send(ctx, st.ChatID, transcript, nil)
	})

	if len(h.Operators) == 0 {
		logger.Debug(ctx, completeComponent, "operators.none")
	}
	submission := operatorHeader(userID, st) + transcript
	for _, op := range h.Operators {
		h.run(ctx, &report, "operator_submission:"+strconv.FormatInt(op, 10), func() error {
			return h.Messenger.Send(ctx, op, submission, nil)
		})
	}

	h.run(ctx, &report, "closing", func() error {
		return h.Messenger.Send(ctx, st.ChatID, h.closingText(), h.closingKeyboard())
	})
	if s, _ := report.Step("closing"); s.Err == nil {
		closed = true
	}
	return report
}

var errStorageFailed = errors.New("questionnaire: storage reported failure")

// Transcript renders the numbered answers shown to the respondent.
func Transcript(st State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Анкету завершено! Категорія: %s\n\n📋 Ваші відповіді:\n\n", st.CategoryLabel)
	for i, a := range st.Answers {
		fmt.Fprintf(&b, "%d. %s\n   Відповідь: %s\n\n", i+1, a.Prompt, a.Value)
	}
	return b.String()
}

func operatorHeader(userID int64, st State) string {
	first := st.Respondent.FirstName
	if first == "" {
		first = "Не вказано"
	}
	username := st.Respondent.Username
	if username == "" {
		username = "Без username"
	}
	return fmt.Sprintf("📩 Нова анкета від користувача:\n👤 ID: %d\n📛 Ім'я: %s %s\n@%s\n📊 Категорія: %s\n\n",
		userID, first, st.Respondent.LastName, username, st.CategoryLabel)
}

func (h *CompletionHandler) closingText() string {
	return "🎉 Дякуємо за заповнення анкети!\n\nДля подальшого спілкування та узгодження деталей, будь ласка, звертайтеся до нашого HR:\n\n👤 @" + h.HRUsername
}

func (h *CompletionHandler) closingKeyboard() *chat.Keyboard {
	buttons := make([]chat.Button, 0, 2)
	if h.HRURL != "" {
		buttons = append(buttons, chat.Button{Label: "💼 Написати HR", URL: h.HRURL})
	}
	buttons = append(buttons, chat.Button{Label: "🏠 Головне меню", Token: MainMenuToken})
	return chat.Column(buttons...)
}

func (h *CompletionHandler) fallback(ctx context.Context, st State, report *Report) {
	text := "🎉 Дякуємо за заповнення анкети! Ваші дані обробляються.\n\nДля подальшого спілкування звертайтеся до нашого HR: @" + h.HRUsername
	h.run(ctx, report, "fallback", func() error {
		return h.Messenger.Send(ctx, st.ChatID, text, nil)
	})
}

func (h *CompletionHandler) run(ctx context.Context, report *Report, name string, fn func() error) {
	start := time.Now()
	err := guard(fn)
	report.Steps = append(report.Steps, Step{Name: name, Err: err})
	if err != nil {
		logger.Error(ctx, completeComponent, "complete.step",
			slog.String("step", name),
			slog.String("status", logger.Status(err)),
			slog.Duration("took", logger.Took(start)),
			logger.Err(err),
		)
		return
	}
	logger.Debug(ctx, completeComponent, "complete.step",
		slog.String("step", name),
		slog.String("status", logger.Status(nil)),
		slog.Duration("took", logger.Took(start)),
	)
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (h *CompletionHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *CompletionHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}
