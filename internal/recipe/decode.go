package recipe

import (
	"math"
	"strconv"
	"strings"
)

// Presence records which optional fields the model actually supplied.
type Presence struct {
	ID       bool
	Servings bool
}

// FromRaw converts a recovered JSON object into a Recipe field by field.
// Missing or mistyped fields fall back to zero values instead of failing.
func FromRaw(raw map[string]any) (Recipe, Presence) {
	var p Presence
	r := Recipe{
		ID:              String(raw["id"]),
		Title:           String(raw["title"]),
		Description:     String(raw["description"]),
		Ingredients:     ingredients(raw["ingredients"]),
		Instructions:    Strings(raw["instructions"]),
		PrepTimeMinutes: Int(raw["prepTimeMinutes"]),
		CookTimeMinutes: Int(raw["cookTimeMinutes"]),
		Calories:        Number(raw["calories"]),
		HealthTags:      Strings(raw["healthTags"]),
		Reasoning:       String(raw["reasoning"]),
	}
	p.ID = strings.TrimSpace(r.ID) != ""
	r.ID = strings.TrimSpace(r.ID)

	if servings := Int(raw["servings"]); servings > 0 {
		r.Servings = servings
		p.Servings = true
	}

	if m, ok := raw["macros"].(map[string]any); ok {
		r.Macros = Macros{
			Protein: Number(m["protein"]),
			Carbs:   Number(m["carbs"]),
			Fats:    Number(m["fats"]),
		}
		if _, has := m["fiber"]; has {
			fiber := Number(m["fiber"])
			r.Macros.Fiber = &fiber
		}
	}
	return r, p
}

func ingredients(v any) []Ingredient {
	items, _ := v.([]any)
	out := make([]Ingredient, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case map[string]any:
			out = append(out, Ingredient{
				Name:     String(it["name"]),
				Amount:   String(it["amount"]),
				Quantity: Number(it["quantity"]),
				Unit:     String(it["unit"]),
				Category: String(it["category"]),
			})
		case string:
			if strings.TrimSpace(it) != "" {
				out = append(out, Ingredient{Name: it, Amount: it})
			}
		}
	}
	return out
}

// String returns v when it is a JSON string, a formatted number when it is a
// number, and "" otherwise.
func String(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// Strings converts a JSON array into its string elements. Never nil.
func Strings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := String(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Number reads a JSON number, or the leading number of a string such as "4 servings".
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case string:
		return leadingNumber(n)
	default:
		return 0
	}
}

// Int is Number rounded to the nearest integer.
func Int(v any) int {
	return int(math.Round(Number(v)))
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}
