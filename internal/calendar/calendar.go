// Package calendar renders a month grid as an inline keyboard and resolves day picks.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/chat"
)

const (
	// Prefix marks every calendar callback.
	Prefix = "calendar_"

	prevPrefix  = Prefix + "prev_"
	nextPrefix  = Prefix + "next_"
	dayPrefix   = Prefix + "day_"
	ignoreToken = Prefix + "ignore"

	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

var monthNames = [...]string{
	"Січень", "Лютий", "Березень", "Квітень", "Травень", "Червень",
	"Липень", "Серпень", "Вересень", "Жовтень", "Листопад", "Грудень",
}

var weekdays = [...]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Нд"}

// Picker sends month grids and turns day presses into dates.
type Picker struct {
	messenger chat.Messenger
	now       func() time.Time
}

// Option configures a Picker.
type Option func(*Picker)

// WithClock overrides the clock used to pick the initial month.
func WithClock(now func() time.Time) Option {
	return func(p *Picker) { p.now = now }
}

// New builds a picker that delivers grids through messenger.
func New(messenger chat.Messenger, opts ...Option) *Picker {
	p := &Picker{messenger: messenger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StartSelection sends prompt with the grid of the current month.
func (p *Picker) StartSelection(ctx context.Context, chatID, userID int64, prompt string) error {
	now := p.now()
	logger.Debug(ctx, "calendar", "calendar.start", slog.Int64("for_user", userID))
	return p.messenger.Send(ctx, chatID, prompt, Month(now.Year(), now.Month()))
}

// HandleCallback flips months in place or returns the picked day. ok is false
// until a day is pressed.
func (p *Picker) HandleCallback(ctx context.Context, chatID int64, messageID int, data string) (time.Time, bool, error) {
	switch {
	case strings.HasPrefix(data, prevPrefix), strings.HasPrefix(data, nextPrefix):
		raw := strings.TrimPrefix(strings.TrimPrefix(data, prevPrefix), nextPrefix)
		month, err := time.Parse(monthLayout, raw)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("calendar: bad month %q: %w", raw, err)
		}
		return time.Time{}, false, p.messenger.EditKeyboard(ctx, chatID, messageID, Month(month.Year(), month.Month()))
	case strings.HasPrefix(data, dayPrefix):
		day, err := time.Parse(dayLayout, strings.TrimPrefix(data, dayPrefix))
		if err != nil {
			return time.Time{}, false, fmt.Errorf("calendar: bad day %q: %w", data, err)
		}
		return day, true, nil
	default:
		return time.Time{}, false, nil
	}
}

// Month builds a Monday-first grid for the given month with navigation arrows.
func Month(year int, month time.Month) *chat.Keyboard {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	kb := &chat.Keyboard{}

	kb.Rows = append(kb.Rows, []chat.Button{noop(monthNames[month-1] + " " + strconv.Itoa(year))})

	header := make([]chat.Button, 0, len(weekdays))
	for _, d := range weekdays {
		header = append(header, noop(d))
	}
	kb.Rows = append(kb.Rows, header)

	offset := (int(first.Weekday()) + 6) % 7
	days := first.AddDate(0, 1, -1).Day()
	week := make([]chat.Button, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, noop(" "))
	}
	for d := 1; d <= days; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		week = append(week, chat.Button{Label: strconv.Itoa(d), Token: dayPrefix + date.Format(dayLayout)})
		if len(week) == 7 {
			kb.Rows = append(kb.Rows, week)
			week = make([]chat.Button, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, noop(" "))
		}
		kb.Rows = append(kb.Rows, week)
	}

	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)
	kb.Rows = append(kb.Rows, []chat.Button{
		{Label: "◀️", Token: prevPrefix + prev.Format(monthLayout)},
		noop(" "),
		{Label: "▶️", Token: nextPrefix + next.Format(monthLayout)},
	})
	return kb
}

func noop(label string) chat.Button {
	return chat.Button{Label: label, Token: ignoreToken}
}
