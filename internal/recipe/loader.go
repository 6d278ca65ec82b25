package recipe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a recipe description from path.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes raw YAML bytes into a validated Recipe.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid recipe YAML: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
