// Package sheets appends finished questionnaires to a Google spreadsheet,
// one tab per category.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/catalog"
	"github.com/m3rciful/intakebot/internal/questionnaire"
)

const (
	component = "sheets"

	// FallbackSheet receives categories without a configured tab.
	FallbackSheet = "Інші"

	timestampLayout = "02.01.2006, 15:04:05"

	inputRaw         = "RAW"
	inputUserEntered = "USER_ENTERED"
)

// ErrNotConfigured is returned by Check when no spreadsheet is configured.
var ErrNotConfigured = errors.New("sheets: not configured")

// identityHeaders precede the answer columns of every row.
var identityHeaders = []string{"Дата", "ID", "Username", "Ім'я", "Прізвище"}

// Config locates the spreadsheet and the service account key.
type Config struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"GOOGLE_SHEET_ID"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"GOOGLE_CREDENTIALS_FILE"`
	Timezone        string `yaml:"timezone" envconfig:"SHEETS_TIMEZONE"`
}

// Storage writes questionnaire rows. A Storage without an API skips writes
// and reports success.
type Storage struct {
	api     API
	catalog *catalog.Catalog
	loc     *time.Location
	now     func() time.Time
}

// Open builds the storage from cfg. Missing spreadsheet id or credentials
// yield an unconfigured storage rather than an error.
func Open(ctx context.Context, cfg Config, cat *catalog.Catalog) (*Storage, error) {
	loc := loadLocation(cfg.Timezone)
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		logger.Warn(ctx, component, "sheets.disabled", slog.String("reason", "GOOGLE_SHEET_ID not set"))
		return New(nil, cat, loc), nil
	}
	creds := cfg.CredentialsFile
	if creds == "" {
		creds = "credentials.json"
	}
	if _, err := os.Stat(creds); err != nil {
		logger.Warn(ctx, component, "sheets.disabled",
			slog.String("reason", "credentials file not found"),
			slog.String("path", creds),
		)
		return New(nil, cat, loc), nil
	}
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(creds),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets: init service: %w", err)
	}
	return New(&serviceAPI{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cat, loc), nil
}

// New wraps an API. A nil api makes every save a logged no-op.
func New(api API, cat *catalog.Catalog, loc *time.Location) *Storage {
	if loc == nil {
		loc = time.Local
	}
	return &Storage{api: api, catalog: cat, loc: loc, now: time.Now}
}

// Configured reports whether rows are actually written.
func (s *Storage) Configured() bool {
	return s != nil && s.api != nil
}

// SheetName returns the tab a category is stored in.
func (s *Storage) SheetName(category string) string {
	if c, ok := s.catalog.Category(category); ok && c.Sheet != "" {
		return c.Sheet
	}
	return FallbackSheet
}

// Headers returns the header row written to a new tab: the catalog headers
// or, when absent, identity columns followed by the short question labels.
func (s *Storage) Headers(category string) []string {
	c, ok := s.catalog.Category(category)
	if !ok {
		return nil
	}
	if len(c.Headers) > 0 {
		return c.Headers
	}
	out := append([]string(nil), identityHeaders...)
	for _, q := range c.Questions {
		out = append(out, q.Short)
	}
	return out
}

// SaveQuestionnaire appends one row for a finished questionnaire. Failures are
// logged and reported as false.
func (s *Storage) SaveQuestionnaire(ctx context.Context, userID int64, who questionnaire.Respondent, category string, answers []string) bool {
	if !s.Configured() {
		logger.Info(ctx, component, "sheets.skip",
			slog.String("category", category),
			slog.Int("answers", len(answers)),
		)
		return true
	}
	start := time.Now()
	sheet := s.SheetName(category)
	row, err := s.save(ctx, sheet, userID, who, category, answers)
	attrs := []slog.Attr{
		slog.String("sheet", sheet),
		slog.String("category", category),
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
	}
	if err != nil {
		logger.Error(ctx, component, "sheets.save", append(attrs, logger.Err(err))...)
		return false
	}
	logger.Info(ctx, component, "sheets.save", append(attrs, slog.Int("row", row))...)
	return true
}

func (s *Storage) save(ctx context.Context, sheet string, userID int64, who questionnaire.Respondent, category string, answers []string) (int, error) {
	if err := s.ensureSheet(ctx, sheet, category); err != nil {
		return 0, err
	}
	col, err := s.api.Values(ctx, quote(sheet)+"!A:A")
	if err != nil {
		return 0, fmt.Errorf("read column A: %w", err)
	}
	next := len(col) + 1

	header, err := s.api.Values(ctx, quote(sheet)+"!1:1")
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	width := 0
	if len(header) > 0 {
		width = len(header[0])
	}

	row := fitRow(s.buildRow(userID, who, answers), width)
	rng := quote(sheet) + "!A" + strconv.Itoa(next)
	if err := s.api.Write(ctx, rng, [][]any{row}, inputUserEntered); err != nil {
		return 0, fmt.Errorf("write row %d: %w", next, err)
	}
	return next, nil
}

func (s *Storage) ensureSheet(ctx context.Context, sheet, category string) error {
	if _, err := s.api.Values(ctx, quote(sheet)+"!A1:A1"); err == nil {
		return nil
	}
	logger.Info(ctx, component, "sheets.create", slog.String("sheet", sheet))
	if err := s.api.AddSheet(ctx, sheet); err != nil {
		return fmt.Errorf("add sheet %q: %w", sheet, err)
	}
	headers := s.Headers(category)
	if len(headers) == 0 {
		return nil
	}
	cells := make([]any, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	if err := s.api.Write(ctx, quote(sheet)+"!A1", [][]any{cells}, inputRaw); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	return nil
}

func (s *Storage) buildRow(userID int64, who questionnaire.Respondent, answers []string) []any {
	row := make([]any, 0, len(identityHeaders)+len(answers))
	row = append(row,
		s.now().In(s.loc).Format(timestampLayout),
		strconv.FormatInt(userID, 10),
		who.Username,
		who.FirstName,
		who.LastName,
	)
	for _, a := range answers {
		row = append(row, a)
	}
	return row
}

// Check returns the spreadsheet title, proving the credentials work.
func (s *Storage) Check(ctx context.Context) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	title, err := s.api.Title(ctx)
	if err != nil {
		return "", fmt.Errorf("sheets: read spreadsheet: %w", err)
	}
	return title, nil
}

// fitRow pads with empty cells or truncates to width; width 0 leaves row as is.
func fitRow(row []any, width int) []any {
	if width <= 0 {
		return row
	}
	for len(row) < width {
		row = append(row, "")
	}
	return row[:width]
}

func quote(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

func loadLocation(name string) *time.Location {
	if name == "" {
		name = "Europe/Kyiv"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
