package shopping

import (
	"sort"
	"strings"

	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
)

// Category is a store aisle used to group shopping items.
type Category string

const (
	Produce       Category = "Produce"
	MeatSeafood   Category = "Meat & Seafood"
	Pantry        Category = "Pantry"
	Spices        Category = "Spices"
	DairyEggs     Category = "Dairy & Eggs"
	Frozen        Category = "Frozen"
	Bakery        Category = "Bakery"
	Other         Category = "Other"
	Uncategorized Category = "Uncategorized"
)

// Categories lists the fixed categories in display order.
var Categories = []Category{Produce, MeatSeafood, Pantry, Spices, DairyEggs, Frozen, Bakery, Other}

// Item is one line of the shopping list.
type Item struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Checked     bool   `json:"checked"`
	AlreadyHave bool   `json:"alreadyHave"`
	Note        string `json:"note,omitempty"`
}

// NormalizeCategory maps model text onto a fixed category, defaulting to Other.
func NormalizeCategory(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `."'`)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return string(c)
		}
	}
	return string(Other)
}

// FromRaw converts a recovered JSON object into a fresh, unchecked item.
func FromRaw(raw map[string]any) Item {
	item := Item{
		Name:     strings.TrimSpace(recipe.String(raw["name"])),
		Amount:   strings.TrimSpace(recipe.String(raw["amount"])),
		Category: strings.TrimSpace(recipe.String(raw["category"])),
		Note:     strings.TrimSpace(recipe.String(raw["note"])),
	}
	if item.Category == "" {
		item.Category = string(Other)
	}
	return item
}

// Fallback lists every ingredient of every recipe unmerged and uncategorized.
func Fallback(recipes []recipe.Recipe) []Item {
	items := []Item{}
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			items = append(items, Item{
				Name:     ing.Name,
				Amount:   ing.Amount,
				Category: string(Uncategorized),
			})
		}
	}
	return items
}

// GroupByCategory buckets items by category; an empty category counts as Other.
func GroupByCategory(items []Item) map[string][]Item {
	groups := make(map[string][]Item)
	for _, item := range items {
		cat := item.Category
		if cat == "" {
			cat = string(Other)
		}
		groups[cat] = append(groups[cat], item)
	}
	return groups
}

// SortedCategories orders group keys: fixed categories first, then the rest alphabetically.
func SortedCategories(groups map[string][]Item) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, c := range Categories {
		if _, ok := groups[string(c)]; ok {
			keys = append(keys, string(c))
			seen[string(c)] = true
		}
	}

	var extra []string
	for k := range groups {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
