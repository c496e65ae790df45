// Package testutil provides seeded test data factories and a scripted model
// invoker shared by package tests.
package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
)

// RecipeFactory builds deterministic recipes from a seeded faker.
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{faker: gofakeit.New(seed)}
}

// Recipe returns a complete recipe with a unique id.
func (f *RecipeFactory) Recipe() recipe.Recipe {
	fiber := f.faker.Float64Range(2, 12)
	ingredients := make([]recipe.Ingredient, 0, 4)
	for i := 0; i < 4; i++ {
		qty := float64(f.faker.Number(1, 4))
		ingredients = append(ingredients, recipe.Ingredient{
			Name:     f.faker.Vegetable(),
			Quantity: qty,
			Unit:     "cup",
			Amount:   recipe.FormatAmount(qty, "cup"),
		})
	}
	return recipe.Recipe{
		ID:              f.faker.UUID(),
		Title:           f.faker.Dinner(),
		Description:     f.faker.Sentence(8),
		Ingredients:     ingredients,
		Instructions:    []string{f.faker.Sentence(6), f.faker.Sentence(6)},
		PrepTimeMinutes: f.faker.Number(5, 20),
		CookTimeMinutes: f.faker.Number(10, 40),
		Servings:        2,
		Calories:        float64(f.faker.Number(300, 800)),
		Macros: recipe.Macros{
			Protein: float64(f.faker.Number(10, 50)),
			Carbs:   float64(f.faker.Number(20, 80)),
			Fats:    float64(f.faker.Number(5, 30)),
			Fiber:   &fiber,
		},
		HealthTags: []string{"High Fiber"},
		Reasoning:  f.faker.Sentence(10),
	}
}

// Recipes returns n recipes.
func (f *RecipeFactory) Recipes(n int) []recipe.Recipe {
	out := make([]recipe.Recipe, n)
	for i := range out {
		out[i] = f.Recipe()
	}
	return out
}

// RecipesJSON renders recipes the way a model would return them.
func RecipesJSON(recipes []recipe.Recipe) string {
	data, err := json.Marshal(recipes)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	return string(data)
}

// RecipeJSON renders a single recipe.
func RecipeJSON(r recipe.Recipe) string {
	data, err := json.Marshal(r)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	return string(data)
}

// ShoppingJSON renders shopping items.
func ShoppingJSON(items []shopping.Item) string {
	data, err := json.Marshal(items)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	return string(data)
}
