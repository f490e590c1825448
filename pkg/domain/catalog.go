package domain

import (
	"fmt"
	"strings"
)

// Ingredient is an atomic pantry item a user can mark as available.
type Ingredient struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon,omitempty" yaml:"icon,omitempty"`
	// Rating is the user's preference (1-10). Zero means unrated.
	Rating   int  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Selected bool `json:"selected" yaml:"selected"`
}

// Recipe is a named dish with a fixed, ordered list of required ingredients.
type Recipe struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`

	// Optional media and menu metadata.
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string  `json:"image,omitempty" yaml:"image,omitempty"`
	Price       float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Rating      int     `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// NormalizeID canonicalizes an ingredient identifier: trimmed and lower-cased.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Validate reports whether the recipe can take part in matching.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("recipe %q: missing id", r.Name)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("recipe %s: missing name", r.ID)
	}
	for _, ing := range r.Ingredients {
		if NormalizeID(ing) != "" {
			return nil
		}
	}
	return fmt.Errorf("recipe %s: no required ingredients", r.ID)
}

// Normalized returns a copy whose requirement list is normalized and de-duplicated,
// keeping the first occurrence of each ingredient in declared order.
func (r Recipe) Normalized() Recipe {
	out := r
	seen := make(map[string]struct{}, len(r.Ingredients))
	out.Ingredients = make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		id := NormalizeID(ing)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out.Ingredients = append(out.Ingredients, id)
	}
	return out
}

// SanitizeRecipes normalizes a catalog at load time and drops invalid recipes.
// The dropped recipes are returned alongside their validation errors.
func SanitizeRecipes(recipes []Recipe) ([]Recipe, []error) {
	valid := make([]Recipe, 0, len(recipes))
	var rejected []error
	seen := make(map[string]struct{}, len(recipes))
	for _, r := range recipes {
		n := r.Normalized()
		if err := n.Validate(); err != nil {
			rejected = append(rejected, err)
			continue
		}
		if _, dup := seen[n.ID]; dup {
			rejected = append(rejected, fmt.Errorf("recipe %s: duplicate id", n.ID))
			continue
		}
		seen[n.ID] = struct{}{}
		valid = append(valid, n)
	}
	return valid, rejected
}
