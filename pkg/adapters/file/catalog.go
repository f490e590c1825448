package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// catalogDocument is the raw shape of a catalog file before weak decoding.
type catalogDocument struct {
	Ingredients []map[string]any `yaml:"ingredients" json:"ingredients"`
	Recipes     []map[string]any `yaml:"recipes" json:"recipes"`
}

// Catalog implements ports.CatalogProvider over a YAML or JSON file.
// The file is read on every call so edits are picked up without a restart.
type Catalog struct {
	Path string
}

// NewCatalog creates a file-backed catalog.
func NewCatalog(path string) *Catalog {
	return &Catalog{Path: path}
}

// GetIngredients reads the ingredients from the file.
func (c *Catalog) GetIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	ingredients, _, err := c.load(ctx)
	return ingredients, err
}

// GetRecipes reads the recipes from the file.
func (c *Catalog) GetRecipes(ctx context.Context) ([]domain.Recipe, error) {
	_, recipes, err := c.load(ctx)
	return recipes, err
}

func (c *Catalog) load(ctx context.Context) ([]domain.Ingredient, []domain.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(c.Path)) == ".json" {
		format = "json"
	}
	return ParseCatalog(data, format)
}

// ParseCatalog decodes a catalog document. format is "json" or anything else for YAML.
//
// Records are decoded weakly: numbers may be given as strings and an ingredient
// list may be a single comma-separated string.
func ParseCatalog(data []byte, format string) ([]domain.Ingredient, []domain.Recipe, error) {
	var doc catalogDocument
	if strings.EqualFold(format, "json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	ingredients := make([]domain.Ingredient, 0, len(doc.Ingredients))
	for i, raw := range doc.Ingredients {
		var ing domain.Ingredient
		if err := decode(raw, &ing); err != nil {
			return nil, nil, fmt.Errorf("ingredient #%d: %w", i, err)
		}
		ingredients = append(ingredients, ing)
	}

	recipes := make([]domain.Recipe, 0, len(doc.Recipes))
	for i, raw := range doc.Recipes {
		var r domain.Recipe
		if err := decode(raw, &r); err != nil {
			return nil, nil, fmt.Errorf("recipe #%d: %w", i, err)
		}
		recipes = append(recipes, r)
	}
	return ingredients, recipes, nil
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
