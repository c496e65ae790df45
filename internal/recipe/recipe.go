package recipe

import (
	"fmt"
	"math"
	"strconv"
)

// Ingredient is one line of a recipe. Amount is a display cache of
// Quantity+Unit and is regenerated when the recipe is scaled.
type Ingredient struct {
	Name     string  `json:"name"`
	Amount   string  `json:"amount"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category,omitempty"`
}

// Macros are per-recipe macronutrients in grams.
type Macros struct {
	Protein float64  `json:"protein"`
	Carbs   float64  `json:"carbs"`
	Fats    float64  `json:"fats"`
	Fiber   *float64 `json:"fiber,omitempty"`
}

// Recipe is a generated dinner recipe. All nutrition values are relative to Servings.
type Recipe struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Ingredients     []Ingredient `json:"ingredients"`
	Instructions    []string     `json:"instructions"`
	PrepTimeMinutes int          `json:"prepTimeMinutes"`
	CookTimeMinutes int          `json:"cookTimeMinutes"`
	Servings        int          `json:"servings"`
	Calories        float64      `json:"calories"`
	Macros          Macros       `json:"macros"`
	HealthTags      []string     `json:"healthTags"`
	Reasoning       string       `json:"reasoning"`
}

// TotalMinutes is prep plus cook time.
func (r Recipe) TotalMinutes() int {
	return r.PrepTimeMinutes + r.CookTimeMinutes
}

// Clone returns a deep copy so plan and favorites entries never share slices.
func Clone(r Recipe) Recipe {
	c := r
	if r.Ingredients != nil {
		c.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	}
	if r.Instructions != nil {
		c.Instructions = append([]string(nil), r.Instructions...)
	}
	if r.HealthTags != nil {
		c.HealthTags = append([]string(nil), r.HealthTags...)
	}
	if r.Macros.Fiber != nil {
		fiber := *r.Macros.Fiber
		c.Macros.Fiber = &fiber
	}
	return c
}

// CloneAll deep-copies a list of recipes.
func CloneAll(rs []Recipe) []Recipe {
	if rs == nil {
		return nil
	}
	out := make([]Recipe, len(rs))
	for i, r := range rs {
		out[i] = Clone(r)
	}
	return out
}

// Scale returns a copy of r sized for target servings. Calories, macros and
// ingredient quantities are multiplied by target/servings; r is untouched.
func Scale(r Recipe, target int) Recipe {
	scaled := Clone(r)
	if target <= 0 {
		return scaled
	}

	base := r.Servings
	if base <= 0 {
		base = 1
	}
	factor := float64(target) / float64(base)

	scaled.Servings = target
	scaled.Calories = r.Calories * factor
	scaled.Macros.Protein = r.Macros.Protein * factor
	scaled.Macros.Carbs = r.Macros.Carbs * factor
	scaled.Macros.Fats = r.Macros.Fats * factor
	if r.Macros.Fiber != nil {
		fiber := *r.Macros.Fiber * factor
		scaled.Macros.Fiber = &fiber
	}

	for i, ing := range scaled.Ingredients {
		if ing.Quantity == 0 {
			continue
		}
		qty := round2(ing.Quantity * factor)
		scaled.Ingredients[i].Quantity = qty
		scaled.Ingredients[i].Amount = FormatAmount(qty, ing.Unit)
	}
	return scaled
}

// FormatAmount renders a quantity and unit the way scaled amounts are displayed.
func FormatAmount(qty float64, unit string) string {
	if qty == 0 {
		return ""
	}
	s := strconv.FormatFloat(qty, 'f', -1, 64)
	if unit == "" {
		return s
	}
	return fmt.Sprintf("%s %s", s, unit)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
