// Package catalog loads the per-category question sequences from YAML.
//
// Each question carries both its full prompt and the short label used as a
// storage column, so the two never drift apart.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tells how a question is answered.
type Kind string

const (
	// KindText expects a free-text message.
	KindText Kind = "text"
	// KindOptions expects a press on one of the inline option buttons.
	KindOptions Kind = "options"
	// KindCalendar hands the answer to the calendar picker.
	KindCalendar Kind = "calendar"
)

// Question is a single step of a category's questionnaire.
type Question struct {
	ID      int      `yaml:"id"`
	Kind    Kind     `yaml:"kind"`
	Prompt  string   `yaml:"prompt"`
	Short   string   `yaml:"short"`
	Options []string `yaml:"options"`
}

// Category groups the ordered questions asked to applicants of one role.
type Category struct {
	Key       string     `yaml:"key"`
	Label     string     `yaml:"label"`
	Sheet     string     `yaml:"sheet"`
	Headers   []string   `yaml:"headers"`
	Questions []Question `yaml:"questions"`
}

// Catalog is the read-only set of categories. The zero value is empty.
type Catalog struct {
	categories []Category
	byKey      map[string]int
}

type document struct {
	Categories []Category `yaml:"categories"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return New(doc.Categories...)
}

// New builds a catalog from categories, keeping their order.
func New(categories ...Category) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]int, len(categories))}
	for _, cat := range categories {
		if err := validate(cat); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[cat.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", cat.Key)
		}
		c.byKey[cat.Key] = len(c.categories)
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

func validate(cat Category) error {
	if strings.TrimSpace(cat.Key) == "" {
		return fmt.Errorf("catalog: category without key")
	}
	ids := make(map[int]struct{}, len(cat.Questions))
	for i, q := range cat.Questions {
		if _, dup := ids[q.ID]; dup {
			return fmt.Errorf("catalog: category %q: duplicate question id %d", cat.Key, q.ID)
		}
		ids[q.ID] = struct{}{}
		switch q.Kind {
		case KindText, KindCalendar:
		case KindOptions:
			if len(q.Options) == 0 {
				return fmt.Errorf("catalog: category %q: question %d has no options", cat.Key, q.ID)
			}
		default:
			return fmt.Errorf("catalog: category %q: question #%d has unknown kind %q", cat.Key, i+1, q.Kind)
		}
	}
	return nil
}

// Categories returns all categories in file order.
func (c *Catalog) Categories() []Category {
	if c == nil {
		return nil
	}
	return c.categories
}

// Category looks a category up by key.
func (c *Catalog) Category(key string) (Category, bool) {
	if c == nil {
		return Category{}, false
	}
	i, ok := c.byKey[key]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Questions returns the ordered questions of a category; nil when the category is unknown.
func (c *Catalog) Questions(key string) []Question {
	cat, ok := c.Category(key)
	if !ok {
		return nil
	}
	return cat.Questions
}
