package classify

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultSchemeYAML []byte

// Category is one broad topical label and the terms that select it.
type Category struct {
	ID    string   `yaml:"id"`
	Terms []string `yaml:"terms"`
}

// Scheme is the classification configuration. It is loaded once and treated
// as read-only afterwards.
type Scheme struct {
	Categories   []Category `yaml:"categories"`
	Unclassified string     `yaml:"unclassified"`
	Exceptions   []string   `yaml:"exceptions"`
}

var errEmptyScheme = errors.New("scheme defines no categories")

// DefaultScheme returns the built-in 25 category scheme.
func DefaultScheme() Scheme {
	s, err := parseScheme(defaultSchemeYAML)
	if err != nil {
		// the embedded file is part of the build
		panic(fmt.Sprintf("classify: invalid embedded scheme: %v", err))
	}
	return s
}

// LoadScheme reads a scheme from a YAML file.
func LoadScheme(path string) (Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scheme{}, fmt.Errorf("failed to read category scheme %q: %w", path, err)
	}
	s, err := parseScheme(data)
	if err != nil {
		return Scheme{}, fmt.Errorf("invalid category scheme %q: %w", path, err)
	}
	return s, nil
}

func parseScheme(data []byte) (Scheme, error) {
	var s Scheme
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scheme{}, err
	}
	if len(s.Categories) == 0 {
		return Scheme{}, errEmptyScheme
	}
	if s.Unclassified == "" {
		s.Unclassified = "Z. Unclassified"
	}
	for i, c := range s.Categories {
		if c.ID == "" {
			return Scheme{}, fmt.Errorf("category %d has no id", i)
		}
	}
	return s, nil
}
