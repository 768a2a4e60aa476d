package creator

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Entry is one selectable category or difficulty.
type Entry struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Taxonomy lists the choices offered by the authoring UI.
type Taxonomy struct {
	Categories   []Entry `yaml:"categories"`
	Difficulties []Entry `yaml:"difficulties"`
}

// LoadTaxonomy reads path, or the built-in taxonomy when path is empty.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data := defaultTaxonomy
	source := "embedded taxonomy"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read taxonomy: %w", err)
		}
		data, source = raw, path
	}
	return ParseTaxonomy(data, source)
}

// ParseTaxonomy decodes a YAML taxonomy document.
func ParseTaxonomy(data []byte, source string) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	if err := checkEntries("categories", t.Categories); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if err := checkEntries("difficulties", t.Difficulties); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &t, nil
}

func checkEntries(section string, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%s must not be empty", section)
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.Name == "" {
			return fmt.Errorf("%s[%d] needs both id and name", section, i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%s: duplicate id %q", section, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}
