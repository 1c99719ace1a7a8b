package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/chat"
)

const component = "questionnaire"

// User-facing notices.
const (
	MsgChooseCategory = "❌ Спочатку оберіть категорію!"
	MsgNoQuestions    = "❌ Для вашої категорії ще не налаштовані питання."
	MsgAnswerSaved    = "✅ Відповідь збережено"

	MsgInvalidPhone = "❌ Будь ласка, введіть коректний номер телефону у форматі:\n" +
		"• +380XXXXXXXXX\n" +
		"• 0XXXXXXXXX\n" +
		"• XXXXXXXXXX\n\n" +
		"Приклад: +380991234567 або 0991234567"

	MsgInvalidURL = "❌ Будь ласка, введіть коректне посилання (URL).\n\n" +
		"Приклади валідних посилань:\n" +
		"• https://www.instagram.com/your_profile\n" +
		"• http://example.com/portfolio\n" +
		"• t.me/your_channel\n\n" +
		"Введіть коректне посилання або напишіть \"немає\" якщо у вас немає портфоліо."
)

// CategoryResolver returns the category a user picked upstream.
type CategoryResolver interface {
	Resolve(userID int64) (key, label string, ok bool)
}

// Calendar is the date picking sub-dialog. HandleCallback returns ok=false
// while no day has been picked yet.
type Calendar interface {
	StartSelection(ctx context.Context, chatID, userID int64, prompt string) error
	HandleCallback(ctx context.Context, chatID int64, messageID int, data string) (date time.Time, ok bool, err error)
}

// Event is an inbound transport event.
type Event interface{ isEvent() }

// CategoryChosen starts a flow for the category the resolver reports.
type CategoryChosen struct {
	UserID     int64
	ChatID     int64
	Respondent Respondent
}

// TextReceived carries a plain text message.
type TextReceived struct {
	UserID int64
	ChatID int64
	Text   string
}

// CallbackReceived carries an inline button press.
type CallbackReceived struct {
	ID        string
	UserID    int64
	ChatID    int64
	MessageID int
	Data      string
}

func (CategoryChosen) isEvent()   {}
func (TextReceived) isEvent()     {}
func (CallbackReceived) isEvent() {}

// Orchestrator maps transport events onto the engine and finishes completed flows.
type Orchestrator struct {
	engine     *Engine
	categories CategoryResolver
	calendar   Calendar
	completion *CompletionHandler
	messenger  chat.Messenger

	locks userLocks
}

// NewOrchestrator wires the flow collaborators.
func NewOrchestrator(engine *Engine, categories CategoryResolver, cal Calendar, completion *CompletionHandler, messenger chat.Messenger) *Orchestrator {
	return &Orchestrator{
		engine:     engine,
		categories: categories,
		calendar:   cal,
		completion: completion,
		messenger:  messenger,
	}
}

// Active reports whether the user has a flow in progress.
func (o *Orchestrator) Active(userID int64) bool {
	return o.engine.Active(userID)
}

// Handle dispatches one event. Events of one user are processed one at a time.
// The returned error is a delivery failure worth logging; rejected answers and
// stale input are handled here and return nil.
func (o *Orchestrator) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case CategoryChosen:
		defer o.locks.acquire(e.UserID)()
		return o.start(ctx, e)
	case TextReceived:
		defer o.locks.acquire(e.UserID)()
		return o.text(ctx, e)
	case CallbackReceived:
		defer o.locks.acquire(e.UserID)()
		return o.callback(ctx, e)
	default:
		return fmt.Errorf("questionnaire: unsupported event %T", ev)
	}
}

func (o *Orchestrator) start(ctx context.Context, e CategoryChosen) error {
	key, label, ok := o.categories.Resolve(e.UserID)
	if !ok {
		return o.messenger.Send(ctx, e.ChatID, MsgChooseCategory, nil)
	}
	if _, err := o.engine.Start(e.UserID, key, label, e.Respondent, e.ChatID); err != nil {
		if errors.Is(err, ErrNoQuestions) {
			logger.Info(ctx, component, "flow.no_questions", slog.String("category", key))
			return o.messenger.Send(ctx, e.ChatID, MsgNoQuestions, nil)
		}
		return err
	}
	logger.Info(ctx, component, "flow.start", slog.String("category", key))
	return o.present(ctx, e.UserID)
}

func (o *Orchestrator) text(ctx context.Context, e TextReceived) error {
	if e.Text == "" {
		return nil
	}
	res, err := o.engine.AdvanceText(e.UserID, e.Text)
	switch {
	case errors.Is(err, ErrInvalidPhone):
		logger.Debug(ctx, component, "answer.rejected", slog.String("reason", "phone"))
		return o.messenger.Send(ctx, e.ChatID, MsgInvalidPhone, nil)
	case errors.Is(err, ErrInvalidURL):
		logger.Debug(ctx, component, "answer.rejected", slog.String("reason", "url"))
		return o.messenger.Send(ctx, e.ChatID, MsgInvalidURL, nil)
	case err != nil:
		// No flow or a non-text question pending: the text is dropped.
		return nil
	}
	return o.after(ctx, e.UserID, res)
}

func (o *Orchestrator) callback(ctx context.Context, e CallbackReceived) error {
	answered := false
	answer := func(text string) {
		answered = true
		if err := o.messenger.AnswerCallback(ctx, e.ID, text); err != nil {
			logger.Warn(ctx, component, "callback.answer", logger.Err(err))
		}
	}
	defer func() {
		if !answered {
			answer("")
		}
	}()
	if !o.engine.Active(e.UserID) {
		return nil
	}
	tok := ParseToken(e.Data)
	switch tok.Kind {
	case TokenCalendar:
		if o.calendar == nil {
			return nil
		}
		date, ok, err := o.calendar.HandleCallback(ctx, e.ChatID, e.MessageID, e.Data)
		if err != nil || !ok {
			return err
		}
		res, err := o.engine.AdvanceCalendar(e.UserID, date)
		if err != nil {
			logger.Debug(ctx, component, "answer.ignored", slog.String("kind", "calendar"), logger.Err(err))
			return nil
		}
		answer("")
		return o.after(ctx, e.UserID, res)
	case TokenOption, TokenLegacy:
		res, err := o.engine.AdvanceOption(e.UserID, tok)
		if err != nil {
			logger.Debug(ctx, component, "answer.ignored", slog.String("kind", "option"), logger.Err(err))
			return nil
		}
		answer(MsgAnswerSaved)
		return o.after(ctx, e.UserID, res)
	default:
		return nil
	}
}

func (o *Orchestrator) after(ctx context.Context, userID int64, res Result) error {
	if res != Completed {
		return o.present(ctx, userID)
	}
	st, ok := o.engine.State(userID)
	if ok {
		o.completion.Complete(ctx, userID, st)
	}
	o.engine.Discard(userID)
	return nil
}

func (o *Orchestrator) present(ctx context.Context, userID int64) error {
	d, ok := o.engine.Present(userID)
	if !ok {
		return nil
	}
	switch d.Kind {
	case ShowOptions:
		buttons := make([]chat.Button, 0, len(d.Options))
		for _, opt := range d.Options {
			buttons = append(buttons, chat.Button{Label: opt.Label, Token: opt.Token})
		}
		return o.messenger.Send(ctx, d.ChatID, d.Prompt, chat.Column(buttons...))
	case DelegateToCalendar:
		if o.calendar == nil {
			return errors.New("questionnaire: calendar question without calendar")
		}
		return o.calendar.StartSelection(ctx, d.ChatID, userID, d.Prompt)
	default:
		return o.messenger.Send(ctx, d.ChatID, d.Prompt, nil)
	}
}
