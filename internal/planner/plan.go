package planner

import (
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
)

// WeeklyPlan maps each day name to the ordered recipes planned for it.
type WeeklyPlan map[string][]recipe.Recipe

// NewWeeklyPlan returns a plan with every day present and empty.
func NewWeeklyPlan() WeeklyPlan {
	plan := make(WeeklyPlan, len(DaysOfWeek))
	for _, d := range DaysOfWeek {
		plan[d] = []recipe.Recipe{}
	}
	return plan
}

// Normalize fills in missing days and drops unknown ones.
func (p WeeklyPlan) Normalize() WeeklyPlan {
	out := NewWeeklyPlan()
	for _, d := range DaysOfWeek {
		if rs, ok := p[d]; ok && rs != nil {
			out[d] = rs
		}
	}
	return out
}

// Clone deep-copies the plan.
func (p WeeklyPlan) Clone() WeeklyPlan {
	out := make(WeeklyPlan, len(p))
	for d, rs := range p {
		out[d] = recipe.CloneAll(rs)
	}
	return out
}

// Recipes lists every planned recipe in day order.
func (p WeeklyPlan) Recipes() []recipe.Recipe {
	var out []recipe.Recipe
	for _, d := range DaysOfWeek {
		out = append(out, p[d]...)
	}
	return out
}

// Find returns the first planned recipe with id.
func (p WeeklyPlan) Find(id string) (recipe.Recipe, bool) {
	for _, d := range DaysOfWeek {
		for _, r := range p[d] {
			if r.ID == id {
				return r, true
			}
		}
	}
	return recipe.Recipe{}, false
}

// Contains reports whether day has a recipe with id.
func (p WeeklyPlan) Contains(day, id string) bool {
	for _, r := range p[day] {
		if r.ID == id {
			return true
		}
	}
	return false
}

// AddRecipe appends a copy of r to day.
func (p WeeklyPlan) AddRecipe(day string, r recipe.Recipe) WeeklyPlan {
	out := p.Clone()
	out[day] = append(out[day], recipe.Clone(r))
	return out
}

// RemoveRecipe drops every recipe with id from day.
func (p WeeklyPlan) RemoveRecipe(day, id string) WeeklyPlan {
	out := p.Clone()
	kept := []recipe.Recipe{}
	for _, r := range out[day] {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	out[day] = kept
	return out
}

// MoveRecipe moves the recipe with id from one day to the end of another.
// It reports false when the source day does not contain it.
func (p WeeklyPlan) MoveRecipe(from, to, id string) (WeeklyPlan, bool) {
	r, ok := findIn(p[from], id)
	if !ok {
		return p, false
	}
	if from == to {
		return p.Clone(), true
	}
	return p.RemoveRecipe(from, id).AddRecipe(to, r), true
}

// ReplaceRecipe swaps the recipe with id on day for replacement.
func (p WeeklyPlan) ReplaceRecipe(day, id string, replacement recipe.Recipe) WeeklyPlan {
	out := p.Clone()
	for i, r := range out[day] {
		if r.ID == id {
			out[day][i] = recipe.Clone(replacement)
		}
	}
	return out
}

// ReplaceEverywhere swaps every occurrence of id on any day.
func (p WeeklyPlan) ReplaceEverywhere(id string, replacement recipe.Recipe) WeeklyPlan {
	out := p.Clone()
	for d := range out {
		for i, r := range out[d] {
			if r.ID == id {
				out[d][i] = recipe.Clone(replacement)
			}
		}
	}
	return out
}

func findIn(rs []recipe.Recipe, id string) (recipe.Recipe, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return recipe.Recipe{}, false
}
