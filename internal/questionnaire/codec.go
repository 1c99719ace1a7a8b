package questionnaire

import (
	"strconv"
	"strings"

	"github.com/m3rciful/intakebot/internal/catalog"
)

const (
	optionPrefix   = "ans_"
	legacyPrefix   = "answer_"
	calendarPrefix = "calendar_"

	maxOptionRunes = 30
	// Telegram rejects callback data longer than 64 bytes.
	maxTokenBytes = 64
)

// CallbackPrefixes lists every callback data prefix the flow consumes.
var CallbackPrefixes = []string{optionPrefix, legacyPrefix, calendarPrefix}

// TokenKind classifies inbound callback data.
type TokenKind int

const (
	// TokenUnknown is callback data this package does not handle.
	TokenUnknown TokenKind = iota
	// TokenOption is "ans_<questionID>_<strippedText>".
	TokenOption
	// TokenLegacy is "answer_<rawText>", decoded by dropping the prefix.
	TokenLegacy
	// TokenCalendar belongs to the calendar picker.
	TokenCalendar
)

// Token is parsed callback data. QuestionID is -1 when the id field is not a number.
type Token struct {
	Kind       TokenKind
	Raw        string
	QuestionID int
	Text       string
}

// ParseToken classifies callback data. The option scheme is tried before the legacy one.
func ParseToken(data string) Token {
	tok := Token{Raw: data, QuestionID: -1}
	switch {
	case strings.HasPrefix(data, calendarPrefix):
		tok.Kind = TokenCalendar
	case strings.HasPrefix(data, optionPrefix):
		tok.Kind = TokenOption
		parts := strings.Split(data, "_")
		if len(parts) > 1 {
			if id, err := strconv.Atoi(parts[1]); err == nil {
				tok.QuestionID = id
			}
		}
		if len(parts) > 2 {
			tok.Text = strings.Join(parts[2:], "_")
		}
	case strings.HasPrefix(data, legacyPrefix):
		tok.Kind = TokenLegacy
		tok.Text = strings.TrimPrefix(data, legacyPrefix)
	}
	return tok
}

// EncodeOption builds the callback token for an option label of a question.
func EncodeOption(questionID int, label string) string {
	head := optionPrefix + strconv.Itoa(questionID) + "_"
	text := []rune(stripOption(label))
	if len(text) > maxOptionRunes {
		text = text[:maxOptionRunes]
	}
	for len(text) > 0 && len(head)+len(string(text)) > maxTokenBytes {
		text = text[:len(text)-1]
	}
	return head + string(text)
}

// DecodeOption recovers the option label a token refers to within q.
// When no option of q encodes to the token's text, the stripped text itself is
// returned; when two options strip to the same text, the first one wins.
// Uppercase Cyrillic outside ІЇЄҐ is stripped, so "Так" and "Мак" collide.
func DecodeOption(tok Token, q catalog.Question) string {
	if tok.Kind == TokenLegacy {
		return tok.Text
	}
	if q.Kind == catalog.KindOptions {
		for _, opt := range q.Options {
			if optionText(q.ID, opt) == tok.Text {
				return opt
			}
		}
	}
	return tok.Text
}

func optionText(questionID int, label string) string {
	return strings.TrimPrefix(EncodeOption(questionID, label), optionPrefix+strconv.Itoa(questionID)+"_")
}

// stripOption keeps ASCII letters, digits, lowercase а-я and іїєґ in both cases.
// Uppercase А-Я is dropped.
func stripOption(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r >= 'а' && r <= 'я':
		case strings.ContainsRune("іїєґІЇЄҐ", r):
		default:
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
