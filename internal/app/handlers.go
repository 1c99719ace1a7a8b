package app

import (
	"context"
	"log/slog"

	"github.com/m3rciful/intakebot/core/logger"
	coretelegram "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/callbacks"
	"github.com/m3rciful/intakebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"
	"github.com/m3rciful/intakebot/internal/category"
	"github.com/m3rciful/intakebot/internal/chat"
	"github.com/m3rciful/intakebot/internal/questionnaire"

	tele "gopkg.in/telebot.v4"
)

const component = "app"

// Replies outside the questionnaire itself.
const (
	MsgStartHint      = "Щоб заповнити анкету, натисніть /start та оберіть категорію."
	MsgOperatorsOnly  = "⛔ Ця команда доступна лише операторам."
	MsgSheetsOK       = "✅ Підключення до Google Sheets працює. Таблиця: "
	MsgSheetsDisabled = "⚠️ Google Sheets не налаштовано: анкети не зберігаються в таблицю."
	MsgSheetsFailed   = "❌ Не вдалося підключитися до Google Sheets. Подробиці в журналі."
	MsgSlowDown       = "⏳ Занадто швидко. Зачекайте секунду та спробуйте ще раз."
	MsgInternalError  = "⚠️ Сталася помилка. Спробуйте ще раз або почніть спочатку: /start"
)

// SheetChecker verifies the storage backend for the operator command.
type SheetChecker interface {
	Configured() bool
	Check(ctx context.Context) (string, error)
}

// Handlers turns Telegram updates into category choices and questionnaire events.
type Handlers struct {
	selector  *category.Selector
	flow      *questionnaire.Orchestrator
	sheets    SheetChecker
	messenger chat.Messenger
}

// NewHandlers wires the handlers.
func NewHandlers(selector *category.Selector, flow *questionnaire.Orchestrator, sheets SheetChecker, messenger chat.Messenger) *Handlers {
	return &Handlers{selector: selector, flow: flow, sheets: sheets, messenger: messenger}
}

// Register adds the commands and callback routes to reg.
func (h *Handlers) Register(reg *coretelegram.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Обрати категорію та заповнити анкету",
		Aliases:     []string{"menu"},
	})
	reg.RegisterCommand("/sheets", commands.Command{
		Handler:      h.Sheets,
		Description:  "Перевірити підключення до Google Sheets",
		OperatorOnly: true,
	})
	if err := reg.RegisterCallback(questionnaire.MainMenuToken, h.MainMenu); err != nil {
		return err
	}
	if err := reg.RegisterCallbackPrefix(category.TokenPrefix, h.Category); err != nil {
		return err
	}
	for _, prefix := range questionnaire.CallbackPrefixes {
		if err := reg.RegisterCallbackPrefix(prefix, h.Answer); err != nil {
			return err
		}
	}
	return nil
}

// Start shows the category menu.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return h.selector.ShowMenu(ctx, chatID(c))
}

// MainMenu answers the closing-message button and shows the menu again.
func (h *Handlers) MainMenu(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	h.answer(ctx, c, "")
	return h.selector.ShowMenu(ctx, chatID(c))
}

// Category records the chosen category and starts its questionnaire.
func (h *Handlers) Category(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := senderID(c)
	choice, err := h.selector.Choose(userID, callbacks.FromContext(c))
	h.answer(ctx, c, "")
	if err != nil {
		logger.Warn(ctx, component, "category.unknown", logger.Err(err))
		return h.selector.ShowMenu(ctx, chatID(c))
	}
	logger.Info(ctx, component, "category.chosen", slog.String("category", choice.Key))
	return h.flow.Handle(ctx, questionnaire.CategoryChosen{
		UserID:     userID,
		ChatID:     chatID(c),
		Respondent: respondent(c.Sender()),
	})
}

// Answer forwards option, legacy and calendar callbacks; the flow answers them.
func (h *Handlers) Answer(c tele.Context) error {
	cb := c.Callback()
	ev := questionnaire.CallbackReceived{
		ID:     cb.ID,
		UserID: senderID(c),
		ChatID: chatID(c),
		Data:   callbacks.Data(cb),
	}
	if cb.Message != nil {
		ev.MessageID = cb.Message.ID
	}
	return h.flow.Handle(tghelpers.BuildContext(c), ev)
}

// Active reports whether the sender is inside a questionnaire.
func (h *Handlers) Active(userID int64) bool {
	return h.flow.Active(userID)
}

// HandleText passes free text to the active questionnaire.
func (h *Handlers) HandleText(c tele.Context) error {
	return h.flow.Handle(tghelpers.BuildContext(c), questionnaire.TextReceived{
		UserID: senderID(c),
		ChatID: chatID(c),
		Text:   c.Text(),
	})
}

// UnknownText points users without an active questionnaire to /start.
func (h *Handlers) UnknownText(c tele.Context) error {
	return h.messenger.Send(tghelpers.BuildContext(c), chatID(c), MsgStartHint, nil)
}

// Sheets reports the spreadsheet connection state to an operator.
func (h *Handlers) Sheets(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	text := MsgSheetsDisabled
	if h.sheets != nil && h.sheets.Configured() {
		title, err := h.sheets.Check(ctx)
		if err != nil {
			logger.Error(ctx, component, "sheets.check", logger.Err(err))
			text = MsgSheetsFailed
		} else {
			text = MsgSheetsOK + title
		}
	}
	return h.messenger.Send(ctx, chatID(c), text, nil)
}

// OperatorReject tells a non-operator the command is restricted.
func (h *Handlers) OperatorReject(c tele.Context) error {
	return h.messenger.Send(tghelpers.BuildContext(c), chatID(c), MsgOperatorsOnly, nil)
}

// SlowDown answers an update dropped by the rate limiter.
func (h *Handlers) SlowDown(c tele.Context) error {
	return h.messenger.Send(tghelpers.BuildContext(c), chatID(c), MsgSlowDown, nil)
}

// Failure apologises after a handler panic. A pending callback is
// answered first so the client stops its spinner.
func (h *Handlers) Failure(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	h.answer(ctx, c, "")
	id := chatID(c)
	if id == 0 {
		return nil
	}
	return h.messenger.Send(ctx, id, MsgInternalError, nil)
}

func (h *Handlers) answer(ctx context.Context, c tele.Context, text string) {
	cb := c.Callback()
	if cb == nil {
		return
	}
	if err := h.messenger.AnswerCallback(ctx, cb.ID, text); err != nil {
		logger.Warn(ctx, component, "callback.answer", logger.Err(err))
	}
}

func respondent(u *tele.User) questionnaire.Respondent {
	if u == nil {
		return questionnaire.Respondent{}
	}
	return questionnaire.Respondent{FirstName: u.FirstName, LastName: u.LastName, Username: u.Username}
}

func senderID(c tele.Context) int64 {
	id, _ := tghelpers.IDs(c)
	return id
}

func chatID(c tele.Context) int64 {
	_, id := tghelpers.IDs(c)
	return id
}
