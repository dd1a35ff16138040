package pipeline

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed tags.yaml
var defaultTagsYAML []byte

// TagTable lists, per lead attribute, the raw tag keys to try in order.
type TagTable struct {
	Name        []string `yaml:"name"`
	Phone       []string `yaml:"phone"`
	Email       []string `yaml:"email"`
	Social      []string `yaml:"social"`
	OpeningDate []string `yaml:"opening_date"`
	// Address parts are all used, in order, joined with ", ".
	Address []string `yaml:"address"`
}

// ParseTagTable decodes a YAML tag table.
func ParseTagTable(data []byte) (TagTable, error) {
	var t TagTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return TagTable{}, eris.Wrap(err, "pipeline: parse tag table")
	}
	if len(t.Name) == 0 || len(t.Phone) == 0 || len(t.OpeningDate) == 0 {
		return TagTable{}, eris.New("pipeline: tag table needs name, phone and opening_date keys")
	}
	return t, nil
}

// DefaultTagTable returns the built-in tag table.
func DefaultTagTable() TagTable {
	t, err := ParseTagTable(defaultTagsYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// first returns the first non-blank value among keys.
func first(tags map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

// joinPresent joins the non-blank values of keys with ", ".
func joinPresent(tags map[string]string, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
