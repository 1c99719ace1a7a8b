// Package questionnaire runs the per-user intake flow: it presents the questions
// of the chosen category one at a time, records validated answers and hands a
// finished flow to the completion handler.
package questionnaire

import (
	"errors"
	"strings"
	"time"

	"github.com/m3rciful/intakebot/core/telegram/state"
	"github.com/m3rciful/intakebot/internal/catalog"
)

// DateLayout renders calendar answers in the uk-UA short date form.
const DateLayout = "02.01.2006"

var (
	// ErrNoState means the user has no active flow.
	ErrNoState = errors.New("questionnaire: no active flow")
	// ErrNoQuestions means the category has no configured questions.
	ErrNoQuestions = errors.New("questionnaire: no questions configured")
	// ErrUnexpectedKind means the answer does not fit the current question kind.
	ErrUnexpectedKind = errors.New("questionnaire: answer does not match question kind")
	// ErrFlowComplete means every question has already been answered.
	ErrFlowComplete = errors.New("questionnaire: flow already complete")
	// ErrInvalidPhone rejects a malformed phone number; the flow stays on the question.
	ErrInvalidPhone = errors.New("questionnaire: invalid phone number")
	// ErrInvalidURL rejects a malformed portfolio link; the flow stays on the question.
	ErrInvalidURL = errors.New("questionnaire: invalid url")
)

// Respondent is the identity captured when a flow starts.
type Respondent struct {
	FirstName string
	LastName  string
	Username  string
}

// Answer is one recorded reply.
type Answer struct {
	Short  string
	Prompt string
	Value  string
}

// State is the progress of one user's flow. len(Answers) == Cursor between calls.
type State struct {
	Category      string
	CategoryLabel string
	Cursor        int
	Answers       []Answer
	ChatID        int64
	Respondent    Respondent
}

// Values returns the recorded answer values in question order.
func (s State) Values() []string {
	out := make([]string, len(s.Answers))
	for i, a := range s.Answers {
		out[i] = a.Value
	}
	return out
}

// DirectiveKind tells the transport how to present a question.
type DirectiveKind int

const (
	// ShowText asks for a free-text reply.
	ShowText DirectiveKind = iota + 1
	// ShowOptions renders one button per option.
	ShowOptions
	// DelegateToCalendar hands the question to the calendar picker.
	DelegateToCalendar
)

// Option is an option button with its callback token.
type Option struct {
	Label string
	Token string
}

// Directive describes the next question to present.
type Directive struct {
	Kind    DirectiveKind
	ChatID  int64
	Prompt  string
	Options []Option
}

// Result reports whether an accepted answer finished the flow.
type Result int

const (
	// Continue means more questions remain.
	Continue Result = iota + 1
	// Completed means the last question was answered.
	Completed
)

// Engine owns the active flows. Mutations of one user's flow must not overlap.
type Engine struct {
	catalog *catalog.Catalog
	states  state.Store[State]
}

// NewEngine wires the engine to a catalog and a state store.
func NewEngine(cat *catalog.Catalog, states state.Store[State]) *Engine {
	if states == nil {
		states = state.NewMemoryStore[State]()
	}
	return &Engine{catalog: cat, states: states}
}

// Start installs a fresh flow for userID, replacing any flow in progress.
// A category without questions still ends the previous flow.
func (e *Engine) Start(userID int64, category, label string, who Respondent, chatID int64) (State, error) {
	if len(e.catalog.Questions(category)) == 0 {
		e.states.Delete(userID)
		return State{}, ErrNoQuestions
	}
	st := State{
		Category:      category,
		CategoryLabel: label,
		Answers:       []Answer{},
		ChatID:        chatID,
		Respondent:    who,
	}
	e.states.Set(userID, st)
	return st, nil
}

// Present returns how to show the current question. ok is false when the user
// has no flow or the flow is complete.
func (e *Engine) Present(userID int64) (Directive, bool) {
	st, q, err := e.current(userID)
	if err != nil {
		return Directive{}, false
	}
	d := Directive{ChatID: st.ChatID, Prompt: q.Prompt}
	switch q.Kind {
	case catalog.KindOptions:
		d.Kind = ShowOptions
		d.Options = make([]Option, 0, len(q.Options))
		for _, label := range q.Options {
			d.Options = append(d.Options, Option{Label: label, Token: EncodeOption(q.ID, label)})
		}
	case catalog.KindCalendar:
		d.Kind = DelegateToCalendar
	default:
		d.Kind = ShowText
	}
	return d, true
}

// AdvanceOption records a button answer. Option tokens are accepted only for
// options questions; legacy tokens are accepted for any question.
func (e *Engine) AdvanceOption(userID int64, tok Token) (Result, error) {
	st, q, err := e.current(userID)
	if err != nil {
		return 0, err
	}
	switch tok.Kind {
	case TokenLegacy:
	case TokenOption:
		if q.Kind != catalog.KindOptions {
			return 0, ErrUnexpectedKind
		}
	default:
		return 0, ErrUnexpectedKind
	}
	return e.record(userID, st, q, DecodeOption(tok, q)), nil
}

// AdvanceText records a free-text answer verbatim after keyword-gated validation.
// A rejected answer leaves the flow unchanged.
func (e *Engine) AdvanceText(userID int64, text string) (Result, error) {
	st, q, err := e.current(userID)
	if err != nil {
		return 0, err
	}
	if q.Kind != catalog.KindText {
		return 0, ErrUnexpectedKind
	}
	if isPhoneQuestion(q.Prompt) && !IsValidPhoneNumber(text) {
		return 0, ErrInvalidPhone
	}
	if isPortfolioQuestion(st.Category, q.Prompt) && !IsValidURL(text) && strings.ToLower(text) != NoPortfolio {
		return 0, ErrInvalidURL
	}
	return e.record(userID, st, q, text), nil
}

// AdvanceCalendar records the picked date.
func (e *Engine) AdvanceCalendar(userID int64, date time.Time) (Result, error) {
	st, q, err := e.current(userID)
	if err != nil {
		return 0, err
	}
	if q.Kind != catalog.KindCalendar {
		return 0, ErrUnexpectedKind
	}
	return e.record(userID, st, q, date.Format(DateLayout)), nil
}

// IsComplete reports whether every question of the user's flow is answered.
func (e *Engine) IsComplete(userID int64) bool {
	st, ok := e.states.Get(userID)
	if !ok {
		return false
	}
	return st.Cursor >= len(e.catalog.Questions(st.Category))
}

// State returns a copy of the user's flow.
func (e *Engine) State(userID int64) (State, bool) {
	st, ok := e.states.Get(userID)
	if !ok {
		return State{}, false
	}
	st.Answers = append([]Answer(nil), st.Answers...)
	return st, true
}

// Active reports whether the user has a flow, finished or not.
func (e *Engine) Active(userID int64) bool {
	_, ok := e.states.Get(userID)
	return ok
}

// Discard drops the user's flow. It is a no-op without one.
func (e *Engine) Discard(userID int64) {
	e.states.Delete(userID)
}

func (e *Engine) current(userID int64) (State, catalog.Question, error) {
	st, ok := e.states.Get(userID)
	if !ok {
		return State{}, catalog.Question{}, ErrNoState
	}
	questions := e.catalog.Questions(st.Category)
	if st.Cursor >= len(questions) {
		return st, catalog.Question{}, ErrFlowComplete
	}
	return st, questions[st.Cursor], nil
}

func (e *Engine) record(userID int64, st State, q catalog.Question, value string) Result {
	answers := make([]Answer, len(st.Answers), len(st.Answers)+1)
	copy(answers, st.Answers)
	st.Answers = append(answers, Answer{Short: q.Short, Prompt: q.Prompt, Value: value})
	st.Cursor++
	e.states.Set(userID, st)
	if st.Cursor >= len(e.catalog.Questions(st.Category)) {
		return Completed
	}
	return Continue
}
