package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/smartmeal/internal/seed"
	"github.com/aretw0/smartmeal/pkg/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog_WeakTypes(t *testing.T) {
	data := []byte(`
ingredients:
  - {id: rice, name: Rice, rating: "7"}
recipes:
  - id: 42
    name: Rice bowl
    ingredients: "rice, egg"
    price: "9.5"
`)
	ingredients, recipes, err := file.ParseCatalog(data, "yaml")
	require.NoError(t, err)

	require.Len(t, ingredients, 1)
	assert.Equal(t, 7, ingredients[0].Rating)

	require.Len(t, recipes, 1)
	assert.Equal(t, "42", recipes[0].ID)
	assert.Equal(t, 9.5, recipes[0].Price)
	assert.Len(t, recipes[0].Ingredients, 2)
	assert.Equal(t, "rice", recipes[0].Ingredients[0])
}

func TestParseCatalog_JSON(t *testing.T) {
	data := []byte(`{"recipes":[{"id":"1","name":"Toast","ingredients":["bread","butter"]}]}`)
	ingredients, recipes, err := file.ParseCatalog(data, "json")
	require.NoError(t, err)
	assert.Empty(t, ingredients)
	require.Len(t, recipes, 1)
	assert.Equal(t, []string{"bread", "butter"}, recipes[0].Ingredients)
}

func TestParseCatalog_Errors(t *testing.T) {
	_, _, err := file.ParseCatalog([]byte("recipes: [unterminated"), "yaml")
	assert.Error(t, err)

	_, _, err = file.ParseCatalog([]byte(`{"recipes":[{"price":{"nested":true}}]}`), "json")
	assert.ErrorContains(t, err, "recipe #0")
}

func TestParseCatalog_Seed(t *testing.T) {
	ingredients, recipes, err := file.ParseCatalog(seed.CatalogYAML, "yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, ingredients)
	assert.NotEmpty(t, recipes)
	for _, r := range recipes {
		assert.NoError(t, r.Validate(), r.ID)
	}
}

func TestCatalog_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ingredients":[{"id":"egg","name":"Egg"}],"recipes":[]}`), 0o644))

	c := file.NewCatalog(path)
	ings, err := c.GetIngredients(context.Background())
	require.NoError(t, err)
	require.Len(t, ings, 1)
	assert.Equal(t, "Egg", ings[0].Name)

	require.NoError(t, os.WriteFile(path, []byte(`{"ingredients":[],"recipes":[{"id":"1","name":"Omelette","ingredients":["egg"]}]}`), 0o644))
	recipes, err := c.GetRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Omelette", recipes[0].Name)
}

func TestCatalog_MissingFile(t *testing.T) {
	c := file.NewCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := c.GetRecipes(context.Background())
	assert.Error(t, err)
}
