package tables

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embedded []byte

// SisterGroup is a set of paired releases within one series.
// Members are substituted for one another when a query names one of them.
type SisterGroup struct {
	Series  string   `yaml:"series"`
	Members []string `yaml:"members"`
}

// ProtectedFranchise maps a franchise keyword to the companies allowed to publish it.
type ProtectedFranchise struct {
	Keyword   string   `yaml:"keyword"`
	Companies []string `yaml:"companies"`
}

// Tables holds the declarative lookup data used by the detector, filter and builder.
type Tables struct {
	Version      int                  `yaml:"version"`
	Ordinals     []string             `yaml:"ordinals"`
	Categories   map[int]string       `yaml:"categories"`
	Franchises   []string             `yaml:"franchises"`
	SisterGroups []SisterGroup        `yaml:"sister_groups"`
	Protected    []ProtectedFranchise `yaml:"protected"`
}

// Default returns the tables compiled into the binary.
func Default() (*Tables, error) {
	return Parse(embedded)
}

// Load reads tables from a YAML file.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates tables. Entries are lower-cased.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks the tables are usable.
func (t *Tables) Validate() error {
	if t.Version <= 0 {
		return fmt.Errorf("tables: version must be positive")
	}
	if len(t.Ordinals) < 2 {
		return fmt.Errorf("tables: at least two ordinals required")
	}
	for i, g := range t.SisterGroups {
		if len(g.Members) < 2 {
			return fmt.Errorf("tables: sister group %d needs at least two members", i)
		}
	}
	for i, p := range t.Protected {
		if p.Keyword == "" {
			return fmt.Errorf("tables: protected entry %d has no keyword", i)
		}
		if len(p.Companies) == 0 {
			return fmt.Errorf("tables: protected keyword %q has no authorized companies", p.Keyword)
		}
	}
	return nil
}

// CategoryName returns the meaning of a category code, or "unknown".
func (t *Tables) CategoryName(code int) string {
	if name, ok := t.Categories[code]; ok {
		return name
	}
	return "unknown"
}

// OrdinalIndex returns the zero-based position of a roman numeral, or -1.
func (t *Tables) OrdinalIndex(token string) int {
	token = strings.ToLower(token)
	for i, o := range t.Ordinals {
		if o == token {
			return i
		}
	}
	return -1
}

func (t *Tables) normalize() {
	t.Ordinals = lowerAll(t.Ordinals)
	t.Franchises = lowerAll(t.Franchises)
	for i := range t.SisterGroups {
		t.SisterGroups[i].Series = strings.ToLower(strings.TrimSpace(t.SisterGroups[i].Series))
		t.SisterGroups[i].Members = lowerAll(t.SisterGroups[i].Members)
	}
	for i := range t.Protected {
		t.Protected[i].Keyword = strings.ToLower(strings.TrimSpace(t.Protected[i].Keyword))
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
