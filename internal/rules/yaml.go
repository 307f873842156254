package rules

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"budgetbook/internal/core"
)

// MappingKey is the top-level key holding the category rules.
const MappingKey = "category_mapping"

// LoadFile reads a rule set from a YAML file.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML decodes the category_mapping section of a YAML document. The
// order of categories in the document is their match priority.
func LoadYAML(r io.Reader) (*RuleSet, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty rules document", core.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: decode rules: %v", core.ErrConfiguration, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: rules document must be a mapping", core.ErrConfiguration)
	}

	mapping := lookup(doc.Content[0], MappingKey)
	if mapping == nil {
		return nil, fmt.Errorf("%w: missing %q section", core.ErrConfiguration, MappingKey)
	}
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %q must be a mapping", core.ErrConfiguration, MappingKey)
	}

	defs := make([]Definition, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name, body := mapping.Content[i].Value, mapping.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: rules of category %q must be a mapping (line %d)",
				core.ErrConfiguration, name, body.Line)
		}
		var tree map[string]any
		if err := body.Decode(&tree); err != nil {
			return nil, fmt.Errorf("%w: category %q: %v", core.ErrConfiguration, name, err)
		}
		defs = append(defs, Definition{Name: name, Tree: tree})
	}
	return NewRuleSet(defs)
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
