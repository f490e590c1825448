package domain

import "sort"

// MinRating and MaxRating bound a user's ingredient rating.
const (
	MinRating = 1
	MaxRating = 10
)

// Pantry is the session-scoped view of the ingredient catalog: what the user
// selected and how they rated it. It is serializable and mutated only by
// explicit user actions.
type Pantry struct {
	Selected map[string]bool `json:"selected"`
	Ratings  map[string]int  `json:"ratings"`
}

// NewPantry returns an empty pantry.
func NewPantry() *Pantry {
	return &Pantry{
		Selected: make(map[string]bool),
		Ratings:  make(map[string]int),
	}
}

func (p *Pantry) ensure() {
	if p.Selected == nil {
		p.Selected = make(map[string]bool)
	}
	if p.Ratings == nil {
		p.Ratings = make(map[string]int)
	}
}

// Select marks an ingredient as available.
func (p *Pantry) Select(id string) error {
	id = NormalizeID(id)
	if id == "" {
		return Errorf(KindInvalidInput, "select", "empty ingredient id")
	}
	p.ensure()
	p.Selected[id] = true
	return nil
}

// Deselect removes an ingredient from the selection.
func (p *Pantry) Deselect(id string) {
	p.ensure()
	delete(p.Selected, NormalizeID(id))
}

// Toggle flips the selection flag and returns the new value.
func (p *Pantry) Toggle(id string) (bool, error) {
	id = NormalizeID(id)
	if id == "" {
		return false, Errorf(KindInvalidInput, "toggle", "empty ingredient id")
	}
	p.ensure()
	if p.Selected[id] {
		delete(p.Selected, id)
		return false, nil
	}
	p.Selected[id] = true
	return true, nil
}

// Rate records a rating between MinRating and MaxRating.
func (p *Pantry) Rate(id string, rating int) error {
	id = NormalizeID(id)
	if id == "" {
		return Errorf(KindInvalidInput, "rate", "empty ingredient id")
	}
	if rating < MinRating || rating > MaxRating {
		return Errorf(KindInvalidInput, "rate", "rating %d outside %d..%d", rating, MinRating, MaxRating)
	}
	p.ensure()
	p.Ratings[id] = rating
	return nil
}

// SelectedIDs returns the selection in ascending order.
func (p *Pantry) SelectedIDs() []string {
	ids := make([]string, 0, len(p.Selected))
	for id, ok := range p.Selected {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Apply projects the pantry onto catalog ingredients.
func (p *Pantry) Apply(ingredients []Ingredient) []Ingredient {
	out := make([]Ingredient, len(ingredients))
	for i, ing := range ingredients {
		id := NormalizeID(ing.ID)
		ing.Selected = p.Selected[id]
		if r, ok := p.Ratings[id]; ok {
			ing.Rating = r
		}
		out[i] = ing
	}
	return out
}

// Clone returns a deep copy.
func (p *Pantry) Clone() *Pantry {
	c := NewPantry()
	for k, v := range p.Selected {
		c.Selected[k] = v
	}
	for k, v := range p.Ratings {
		c.Ratings[k] = v
	}
	return c
}
