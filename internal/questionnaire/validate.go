package questionnaire

import (
	"regexp"
	"strings"
)

var (
	nonDigits = regexp.MustCompile(`\D`)

	phoneDigitPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^380\d{9}$`),
		regexp.MustCompile(`^0\d{9}$`),
		regexp.MustCompile(`^\d{10}$`),
	}
	phoneInternational = regexp.MustCompile(`^\+380\d{9}$`)

	urlPattern = regexp.MustCompile(`^(https?://)?([\w-]+\.)+[\w-]+(/[\w .\-/?%&=]*)?$`)

	phoneKeywords     = regexp.MustCompile(`телефон|Телефон|номер`)
	portfolioKeywords = regexp.MustCompile(`портфоліо|Портфоліо|посилання|робіт`)
)

// SMMCategory is the category whose portfolio questions require a link.
const SMMCategory = "smm"

// NoPortfolio is the answer accepted instead of a link when an applicant has no portfolio.
const NoPortfolio = "немає"

// IsValidPhoneNumber accepts Ukrainian phone shapes: 380XXXXXXXXX, 0XXXXXXXXX,
// any ten digits, or +380XXXXXXXXX. Separators are ignored.
func IsValidPhoneNumber(raw string) bool {
	if raw == "" {
		return false
	}
	digits := nonDigits.ReplaceAllString(raw, "")
	for _, p := range phoneDigitPatterns {
		if p.MatchString(digits) {
			return true
		}
	}
	return phoneInternational.MatchString(raw)
}

// IsValidURL accepts scheme-optional host[/path] links such as t.me/channel.
func IsValidURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	return urlPattern.MatchString(trimmed)
}

func isPhoneQuestion(prompt string) bool {
	return phoneKeywords.MatchString(prompt)
}

func isPortfolioQuestion(category, prompt string) bool {
	return category == SMMCategory && portfolioKeywords.MatchString(prompt)
}
