package app

import (
	"fmt"
	"strconv"
	"strings"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	coredatabase "github.com/m3rciful/intakebot/core/database"
	"github.com/m3rciful/intakebot/internal/session"
	"github.com/m3rciful/intakebot/internal/sheets"
)

const (
	defaultCatalogPath = "catalog.yaml"
	defaultHRUsername  = "CleanHR"
)

// QuestionnaireConfig configures the intake flow and who hears about submissions.
// Admins is a comma-separated list of operator chat ids.
type QuestionnaireConfig struct {
	CatalogPath string `yaml:"catalog_path" envconfig:"CATALOG_PATH"`
	Admins      string `yaml:"admins" envconfig:"ADMINS"`
	HRUsername  string `yaml:"hr_username" envconfig:"HR_USERNAME"`
	HRURL       string `yaml:"hr_url" envconfig:"HR_URL"`
}

// Operators returns the parsed operator ids.
func (q QuestionnaireConfig) Operators() []int64 {
	return ParseOperators(q.Admins)
}

// Config is the full bot configuration: the shared core plus the intake sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database      coredatabase.Config `yaml:"database"`
	Questionnaire QuestionnaireConfig `yaml:"questionnaire"`
	Session       session.Config      `yaml:"session"`
	Sheets        sheets.Config       `yaml:"sheets"`
}

// CoreConfig exposes the embedded core section to the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads YAML at path, overlays .env and the environment, then validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	q := &c.Questionnaire
	q.CatalogPath = strings.TrimSpace(q.CatalogPath)
	if q.CatalogPath == "" {
		q.CatalogPath = defaultCatalogPath
	}
	q.HRUsername = strings.TrimPrefix(strings.TrimSpace(q.HRUsername), "@")
	if q.HRUsername == "" {
		q.HRUsername = defaultHRUsername
	}
	if strings.TrimSpace(q.HRURL) == "" {
		q.HRURL = "https://t.me/" + q.HRUsername
	}

	switch c.Session.Name() {
	case session.BackendNone, session.BackendRedis, session.BackendFirebase:
	case session.BackendPostgres:
		if !c.Database.Enabled() {
			return fmt.Errorf("session backend postgres requires database host and name")
		}
	default:
		return fmt.Errorf("%w: %q", session.ErrUnknownBackend, c.Session.Backend)
	}
	return nil
}

// ParseOperators parses comma-separated chat ids. Blank, malformed and zero
// entries are skipped; duplicates are kept once in input order.
func ParseOperators(raw string) []int64 {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
