package sheets

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/intakebot/internal/catalog"
	"github.com/m3rciful/intakebot/internal/questionnaire"
)

type write struct {
	rng   string
	rows  [][]any
	input string
}

type fakeAPI struct {
	tabs     map[string][][]any
	writes   []write
	added    []string
	failRead bool
	failAdd  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tabs: map[string][][]any{}}
}

func tabOf(rng string) string {
	name, _, _ := strings.Cut(rng, "!")
	return strings.ReplaceAll(strings.Trim(name, "'"), "''", "'")
}

func (f *fakeAPI) Values(_ context.Context, rng string) ([][]any, error) {
	rows, ok := f.tabs[tabOf(rng)]
	if !ok || (f.failRead && strings.HasSuffix(rng, "!A:A")) {
		return nil, errors.New("Unable to parse range")
	}
	switch {
	case strings.HasSuffix(rng, "!1:1"):
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[:1], nil
	default:
		return rows, nil
	}
}

func (f *fakeAPI) Write(_ context.Context, rng string, rows [][]any, input string) error {
	f.writes = append(f.writes, write{rng: rng, rows: rows, input: input})
	f.tabs[tabOf(rng)] = append(f.tabs[tabOf(rng)], rows...)
	return nil
}

func (f *fakeAPI) AddSheet(_ context.Context, title string) error {
	if f.failAdd {
		return errors.New("permission denied")
	}
	f.added = append(f.added, title)
	f.tabs[title] = nil
	return nil
}

func (f *fakeAPI) Title(context.Context) (string, error) { return "Анкети", nil }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		catalog.Category{
			Key:     "driver",
			Sheet:   "Водії",
			Headers: []string{"Дата", "ID", "Username", "Ім'я", "Прізвище", "Особисті дані", "Телефон"},
		},
		catalog.Category{
			Key:   "mall_worker",
			Sheet: "Працівники ТРЦ",
			Questions: []catalog.Question{
				{ID: 1, Kind: catalog.KindText, Prompt: "Ім'я?", Short: "Особисті дані"},
				{ID: 2, Kind: catalog.KindText, Prompt: "Телефон?", Short: "Телефон"},
			},
		},
	)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func newStorage(t *testing.T, api API) *Storage {
	t.Helper()
	s := New(api, testCatalog(t), time.UTC)
	s.now = func() time.Time { return time.Date(2025, 5, 1, 9, 5, 7, 0, time.UTC) }
	return s
}

var who = questionnaire.Respondent{FirstName: "Олена", LastName: "Коваль", Username: "olena"}

func TestSaveCreatesSheetWithHeaders(t *testing.T) {
	api := newFakeAPI()
	s := newStorage(t, api)
	if !s.SaveQuestionnaire(context.Background(), 42, who, "driver", []string{"Олена К.", "0991234567", "extra"}) {
		t.Fatal("save failed")
	}
	if len(api.added) != 1 || api.added[0] != "Водії" {
		t.Fatalf("added = %v", api.added)
	}
	if len(api.writes) != 2 {
		t.Fatalf("writes = %d", len(api.writes))
	}
	if h := api.writes[0]; h.input != inputRaw || h.rng != "'Водії'!A1" || len(h.rows[0]) != 7 {
		t.Fatalf("header write = %+v", h)
	}
	row := api.writes[1]
	if row.input != inputUserEntered || row.rng != "'Водії'!A2" {
		t.Fatalf("row write = %+v", row)
	}
	cells := row.rows[0]
	if len(cells) != 7 {
		t.Fatalf("row should be trimmed to header width, got %d", len(cells))
	}
	if cells[0] != "01.05.2025, 09:05:07" || cells[1] != "42" || cells[2] != "olena" || cells[6] != "0991234567" {
		t.Fatalf("row = %v", cells)
	}
}

func TestSavePadsToHeaderWidth(t *testing.T) {
	api := newFakeAPI()
	api.tabs["Водії"] = [][]any{{"Дата", "ID", "Username", "Ім'я", "Прізвище", "A", "B", "C"}, {"x"}}
	s := newStorage(t, api)
	if !s.SaveQuestionnaire(context.Background(), 1, who, "driver", []string{"a"}) {
		t.Fatal("save failed")
	}
	if len(api.added) != 0 {
		t.Fatal("existing sheet must not be recreated")
	}
	w := api.writes[0]
	if w.rng != "'Водії'!A3" || len(w.rows[0]) != 8 || w.rows[0][7] != "" {
		t.Fatalf("write = %+v", w)
	}
}

func TestSaveWithoutHeaderRowKeepsAllCells(t *testing.T) {
	api := newFakeAPI()
	api.tabs["Інші"] = nil
	s := newStorage(t, api)
	if !s.SaveQuestionnaire(context.Background(), 1, who, "unknown", []string{"a", "b"}) {
		t.Fatal("save failed")
	}
	w := api.writes[0]
	if w.rng != "'Інші'!A1" || len(w.rows[0]) != 7 {
		t.Fatalf("write = %+v", w)
	}
}

func TestDerivedHeaders(t *testing.T) {
	s := newStorage(t, newFakeAPI())
	got := strings.Join(s.Headers("mall_worker"), ",")
	if got != "Дата,ID,Username,Ім'я,Прізвище,Особисті дані,Телефон" {
		t.Fatalf("headers = %s", got)
	}
	if s.SheetName("mall_worker") != "Працівники ТРЦ" || s.SheetName("nope") != FallbackSheet {
		t.Fatal("unexpected sheet names")
	}
	if quote("Працівники ТРЦ") != "'Працівники ТРЦ'" || quote("O'Neil") != "'O''Neil'" {
		t.Fatal("quote mismatch")
	}
}

func TestSaveFailureReturnsFalse(t *testing.T) {
	api := newFakeAPI()
	api.failAdd = true
	if newStorage(t, api).SaveQuestionnaire(context.Background(), 1, who, "driver", nil) {
		t.Fatal("expected failure when the sheet cannot be created")
	}
}

func TestUnconfigured(t *testing.T) {
	s := New(nil, nil, nil)
	if !s.SaveQuestionnaire(context.Background(), 1, who, "driver", []string{"a"}) {
		t.Fatal("unconfigured storage reports success")
	}
	if _, err := s.Check(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Check err = %v", err)
	}
	s, err := Open(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/nonexistent/creds.json"}, nil)
	if err != nil || s.Configured() {
		t.Fatalf("Open without credentials = %v, %v", s.Configured(), err)
	}
}

func TestCheck(t *testing.T) {
	title, err := newStorage(t, newFakeAPI()).Check(context.Background())
	if err != nil || title != "Анкети" {
		t.Fatalf("Check = %q, %v", title, err)
	}
}
