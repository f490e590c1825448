package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// NodeDefinition is one node of a tree definition file.
// Kind is mandatory; it is never inferred from Children or Ingredients.
type NodeDefinition struct {
	ID          string          `yaml:"id" json:"id"`
	Kind        domain.NodeKind `yaml:"kind" json:"kind"`
	Title       string          `yaml:"title" json:"title"`
	Description string          `yaml:"description" json:"description"`
	Icon        string          `yaml:"icon" json:"icon"`
	Children    []string        `yaml:"children" json:"children"`
	Ingredients []string        `yaml:"ingredients" json:"ingredients"`
}

// Definition represents the structure of a tree.yaml file.
type Definition struct {
	Root  string           `yaml:"root" json:"root"`
	Nodes []NodeDefinition `yaml:"nodes" json:"nodes"`
}

// Parse decodes a definition. format is "json" or anything else for YAML.
func Parse(data []byte, format string) (Definition, error) {
	var def Definition
	if strings.EqualFold(format, "json") {
		if err := json.Unmarshal(data, &def); err != nil {
			return def, fmt.Errorf("failed to parse tree json: %w", err)
		}
		return def, nil
	}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("failed to parse tree yaml: %w", err)
	}
	return def, nil
}

// LoadFile reads a definition file (YAML or JSON, by extension) and builds the tree.
func LoadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree definition: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return New(def)
}
