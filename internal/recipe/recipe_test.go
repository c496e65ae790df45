package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiber(v float64) *float64 { return &v }

func sampleRecipe() Recipe {
	return Recipe{
		ID:          "r1",
		Title:       "Lemon Salmon",
		Servings:    2,
		Calories:    500,
		Macros:      Macros{Protein: 40, Carbs: 20, Fats: 30, Fiber: fiber(6)},
		Ingredients: []Ingredient{{Name: "salmon", Amount: "8 oz", Quantity: 8, Unit: "oz"}, {Name: "salt", Amount: "to taste"}},
		HealthTags:  []string{"Heart Health"},
	}
}

func TestScale(t *testing.T) {
	t.Run("ScalingLaw", func(t *testing.T) {
		original := sampleRecipe()
		scaled := Scale(original, 4)

		assert.Equal(t, 4, scaled.Servings)
		assert.Equal(t, 1000.0, scaled.Calories)
		assert.Equal(t, 80.0, scaled.Macros.Protein)
		assert.Equal(t, 40.0, scaled.Macros.Carbs)
		assert.Equal(t, 60.0, scaled.Macros.Fats)
		require.NotNil(t, scaled.Macros.Fiber)
		assert.Equal(t, 12.0, *scaled.Macros.Fiber)
		assert.Equal(t, 16.0, scaled.Ingredients[0].Quantity)
		assert.Equal(t, "16 oz", scaled.Ingredients[0].Amount)
	})

	t.Run("OriginalUnmodified", func(t *testing.T) {
		original := sampleRecipe()
		_ = Scale(original, 6)

		assert.Equal(t, sampleRecipe(), original)
	})

	t.Run("ZeroQuantityKeepsDisplayAmount", func(t *testing.T) {
		scaled := Scale(sampleRecipe(), 1)
		assert.Equal(t, "to taste", scaled.Ingredients[1].Amount)
		assert.Equal(t, 4.0, scaled.Ingredients[0].Quantity)
	})

	t.Run("RoundsToTwoDecimals", func(t *testing.T) {
		r := Recipe{Servings: 3, Ingredients: []Ingredient{{Name: "oil", Quantity: 1, Unit: "tbsp"}}}
		scaled := Scale(r, 1)
		assert.Equal(t, 0.33, scaled.Ingredients[0].Quantity)
		assert.Equal(t, "0.33 tbsp", scaled.Ingredients[0].Amount)
	})

	t.Run("ZeroServingsTreatedAsOne", func(t *testing.T) {
		r := Recipe{Calories: 100}
		assert.Equal(t, 300.0, Scale(r, 3).Calories)
	})

	t.Run("NonPositiveTargetIsCopy", func(t *testing.T) {
		original := sampleRecipe()
		assert.Equal(t, original, Scale(original, 0))
	})
}

func TestClone_IsDeep(t *testing.T) {
	original := sampleRecipe()
	c := Clone(original)

	c.Ingredients[0].Name = "trout"
	c.HealthTags[0] = "Longevity"
	*c.Macros.Fiber = 99

	assert.Equal(t, "salmon", original.Ingredients[0].Name)
	assert.Equal(t, "Heart Health", original.HealthTags[0])
	assert.Equal(t, 6.0, *original.Macros.Fiber)
}

func TestFromRaw(t *testing.T) {
	t.Run("FullObject", func(t *testing.T) {
		raw := map[string]any{
			"id":              "abc",
			"title":           "Tofu Bowl",
			"servings":        float64(2),
			"prepTimeMinutes": float64(10),
			"cookTimeMinutes": float64(15),
			"calories":        float64(420),
			"macros":          map[string]any{"protein": float64(25), "carbs": float64(40), "fats": float64(12)},
			"ingredients": []any{
				map[string]any{"name": "tofu", "amount": "14 oz", "quantity": float64(14), "unit": "oz"},
			},
			"instructions": []any{"Press tofu", "Bake"},
			"healthTags":   []any{"Muscle Gain"},
		}

		r, p := FromRaw(raw)
		assert.True(t, p.ID)
		assert.True(t, p.Servings)
		assert.Equal(t, "abc", r.ID)
		assert.Equal(t, 25, r.TotalMinutes())
		assert.Equal(t, 420.0, r.Calories)
		assert.Nil(t, r.Macros.Fiber)
		assert.Equal(t, []Ingredient{{Name: "tofu", Amount: "14 oz", Quantity: 14, Unit: "oz"}}, r.Ingredients)
		assert.Equal(t, []string{"Press tofu", "Bake"}, r.Instructions)
	})

	t.Run("SchemaDrift", func(t *testing.T) {
		raw := map[string]any{
			"title":       "Mystery",
			"servings":    "4 servings",
			"calories":    "350 kcal",
			"ingredients": []any{"2 eggs", float64(3), map[string]any{"name": "milk"}},
			"macros":      map[string]any{"protein": "12", "fiber": float64(3)},
		}

		r, p := FromRaw(raw)
		assert.False(t, p.ID)
		assert.True(t, p.Servings)
		assert.Equal(t, 4, r.Servings)
		assert.Equal(t, 350.0, r.Calories)
		assert.Equal(t, 12.0, r.Macros.Protein)
		require.NotNil(t, r.Macros.Fiber)
		assert.Equal(t, 3.0, *r.Macros.Fiber)
		require.Len(t, r.Ingredients, 2)
		assert.Equal(t, "2 eggs", r.Ingredients[0].Name)
		assert.Equal(t, "milk", r.Ingredients[1].Name)
		assert.NotNil(t, r.Instructions)
		assert.NotNil(t, r.HealthTags)
	})

	t.Run("MissingServings", func(t *testing.T) {
		_, p := FromRaw(map[string]any{"id": "  ", "servings": float64(0)})
		assert.False(t, p.ID)
		assert.False(t, p.Servings)
	})
}
