package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradenpan/whisk-ai-prototype/internal/profile"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
)

func intPtr(v int) *int { return &v }

func TestBuildRecipeGeneration(t *testing.T) {
	p := profile.Default()
	p.DietaryRestrictions = []string{"No Red Meat"}
	p.NutritionalFocus = []string{"High Fiber"}
	p.HealthGoals = []profile.HealthGoal{profile.HeartHealth}

	t.Run("ForbiddenTermsPresent", func(t *testing.T) {
		built, err := BuildRecipeGeneration(RecipeRequest{Profile: p, Count: 3, Servings: 2})
		require.NoError(t, err)

		assert.Contains(t, built.SystemInstruction, "No Red Meat")
		assert.Contains(t, built.SystemInstruction, "do NOT use beef, pork, lamb, or duck")
		assert.Contains(t, built.SystemInstruction, "exactly 2 servings")
		assert.Contains(t, built.SystemInstruction, "IMPERIAL")
		assert.Contains(t, built.Prompt, "Generate 3 distinct DINNER recipes")
		assert.Contains(t, built.Prompt, "Dietary Restrictions: No Red Meat (STRICT ADHERENCE REQUIRED)")
		assert.Contains(t, built.Prompt, "Health Goals: Heart Health")
		assert.Equal(t, TaskRecipeGeneration, built.Task)
		assert.Equal(t, MIMEJSON, built.MIMEType)
	})

	t.Run("Defaults", func(t *testing.T) {
		bare := profile.Default()
		bare.MaxCookingMinutes = nil
		built, err := BuildRecipeGeneration(RecipeRequest{Profile: bare, Count: 0, Servings: 0})
		require.NoError(t, err)

		assert.Contains(t, built.Prompt, "Generate 1 distinct")
		assert.Contains(t, built.Prompt, "Dietary Restrictions: None")
		assert.Contains(t, built.Prompt, "Health Goals: General Health")
		assert.Contains(t, built.Prompt, "Key Nutritional Focus: Balanced")
		assert.Contains(t, built.Prompt, "Standard Kitchen (Oven/Stove)")
		assert.NotContains(t, built.Prompt, "MAX COOKING TIME")
		assert.NotContains(t, built.Prompt, "INGREDIENTS TO USE UP")
	})

	t.Run("TimeLimitOverrideWins", func(t *testing.T) {
		built, err := BuildRecipeGeneration(RecipeRequest{Profile: p, Count: 1, Servings: 2, MaxMinutes: intPtr(30)})
		require.NoError(t, err)
		assert.Contains(t, built.Prompt, "MUST be under 30 minutes")
		assert.Contains(t, built.SystemInstruction, "MUST be under 30 minutes")
	})

	t.Run("TimeLimitFromProfile", func(t *testing.T) {
		built, err := BuildRecipeGeneration(RecipeRequest{Profile: p, Count: 1, Servings: 2})
		require.NoError(t, err)
		assert.Contains(t, built.Prompt, "MUST be under 60 minutes")
	})

	t.Run("UseUpDistribution", func(t *testing.T) {
		built, err := BuildRecipeGeneration(RecipeRequest{Profile: p, Count: 2, Servings: 2, UseUp: " kale, chicken "})
		require.NoError(t, err)
		assert.Contains(t, built.Prompt, `The user has these items to use: "kale, chicken"`)
		assert.Contains(t, built.Prompt, "Distribute these ingredients across the 2 recipes")
		assert.Contains(t, built.Prompt, "You do NOT need to use them in every recipe.")
	})

	t.Run("Deterministic", func(t *testing.T) {
		req := RecipeRequest{Profile: p, Count: 4, Servings: 3, UseUp: "rice"}
		a, err := BuildRecipeGeneration(req)
		require.NoError(t, err)
		b, err := BuildRecipeGeneration(req)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("Schema", func(t *testing.T) {
		built, err := BuildRecipeGeneration(RecipeRequest{Profile: p, Count: 1, Servings: 1})
		require.NoError(t, err)
		require.Equal(t, TypeArray, built.Schema.Type)
		item := built.Schema.Items
		require.Equal(t, TypeObject, item.Type)
		ing := item.Properties["ingredients"].Items
		assert.Equal(t, TypeString, ing.Properties["amount"].Type)
		assert.Equal(t, TypeNumber, ing.Properties["quantity"].Type)
		assert.Equal(t, TypeString, ing.Properties["unit"].Type)
		assert.Equal(t, "id", item.PropertyOrder[0])
	})
}

func TestBuildCustomization(t *testing.T) {
	p := profile.Default()
	p.DietaryRestrictions = []string{"Vegetarian"}
	r := recipe.Recipe{ID: "keep-me", Title: "Veggie Chili", Servings: 4}

	built, err := BuildCustomization(r, "make it spicier", p)
	require.NoError(t, err)

	assert.Equal(t, TaskCustomization, built.Task)
	assert.Contains(t, built.Prompt, `"id":"keep-me"`)
	assert.Contains(t, built.Prompt, `"make it spicier"`)
	assert.Contains(t, built.Prompt, "Vegetarian")
	assert.Contains(t, built.Prompt, `Keep the same ID ("keep-me")`)
	assert.Contains(t, built.Prompt, "remains 4 unless")
	assert.Contains(t, built.Prompt, "Return ONLY the valid JSON object")
	assert.Equal(t, TypeObject, built.Schema.Type)
}

func TestBuildShoppingList(t *testing.T) {
	recipes := []recipe.Recipe{
		{Ingredients: []recipe.Ingredient{{Name: "onion", Amount: "1"}}},
		{Ingredients: []recipe.Ingredient{{Name: "onions", Amount: "2"}, {Name: "salt", Amount: ""}}},
	}

	t.Run("SummationExample", func(t *testing.T) {
		built, err := BuildShoppingList(recipes, "")
		require.NoError(t, err)

		assert.Contains(t, built.Prompt, "1 onion, 2 onions, salt")
		assert.Contains(t, built.Prompt, `"2 onions" + "1 onion" = "3 onions"`)
		assert.Contains(t, built.Prompt, `"Produce", "Meat & Seafood", "Pantry", "Spices", "Dairy & Eggs", "Frozen", "Bakery", "Other"`)
		assert.Contains(t, built.Prompt, "IMPERIAL")
		assert.NotContains(t, built.Prompt, "USER PANTRY ITEMS")
		assert.Equal(t, TypeArray, built.Schema.Type)
		assert.Equal(t, TypeBoolean, built.Schema.Items.Properties["alreadyHave"].Type)
	})

	t.Run("PantryNote", func(t *testing.T) {
		built, err := BuildShoppingList(recipes, "olive oil, rice")
		require.NoError(t, err)
		assert.Contains(t, built.Prompt, `USER PANTRY ITEMS: "olive oil, rice"`)
		assert.Contains(t, built.Prompt, "Check pantry for existing amount")
	})
}

func TestBuildCategorization(t *testing.T) {
	built := BuildCategorization(" greek yogurt ")
	assert.Equal(t, TaskCategorization, built.Task)
	assert.Nil(t, built.Schema)
	assert.Equal(t,
		`Categorize this shopping item: "greek yogurt" into one of: Produce, Meat & Seafood, Pantry, Spices, Dairy & Eggs, Frozen, Bakery, Other. Return ONLY the category name.`,
		built.Prompt)
}

func TestBuildRecipeImport(t *testing.T) {
	page := strings.Repeat("a", maxPageRunes+50)
	built, err := BuildRecipeImport(page, "https://example.com/soup", 0)
	require.NoError(t, err)

	assert.Equal(t, TaskRecipeImport, built.Task)
	assert.Contains(t, built.Prompt, "Source URL: https://example.com/soup")
	assert.Contains(t, built.Prompt, "default to 2")
	assert.NotContains(t, built.Prompt, strings.Repeat("a", maxPageRunes+1))
}

func TestSchemaJSON(t *testing.T) {
	js := ShoppingListSchema().JSON()
	assert.Contains(t, js, `"type":"array"`)
	assert.Contains(t, js, `"alreadyHave"`)
}
