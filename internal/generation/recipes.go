package generation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/profile"
	"github.com/bradenpan/whisk-ai-prototype/internal/prompt"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/recovery"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
)

// GenerateRecipes asks for count dinner recipes. It returns an empty slice
// when the model cannot be reached or its reply cannot be recovered.
// Recipes without an id get a fresh one; recipes without servings get the
// requested servings.
func (c *Client) GenerateRecipes(ctx context.Context, p profile.UserProfile, count, servings int, useUp string, maxMinutes *int) []recipe.Recipe {
	if servings < 1 {
		servings = 1
	}
	built, err := prompt.BuildRecipeGeneration(prompt.RecipeRequest{
		Profile:    p,
		Count:      count,
		Servings:   servings,
		UseUp:      useUp,
		MaxMinutes: maxMinutes,
	})
	if err != nil {
		c.logger.Error("failed to build recipe prompt", zap.Error(err))
		return []recipe.Recipe{}
	}

	resp, meta, err := c.call(ctx, built)
	if err != nil {
		c.finish(meta, err)
		return []recipe.Recipe{}
	}

	objects, res, err := recovery.RecoverObjects(resp.Content)
	classify(&meta, res, err)
	c.finish(meta, err)
	if err != nil {
		return []recipe.Recipe{}
	}

	recipes := make([]recipe.Recipe, 0, len(objects))
	seen := make(map[string]bool, len(objects))
	for _, obj := range objects {
		r, present := recipe.FromRaw(obj)
		if !present.ID || seen[r.ID] {
			r.ID = c.newID()
		}
		seen[r.ID] = true
		if !present.Servings {
			r.Servings = servings
		}
		recipes = append(recipes, r)
	}
	return recipes
}

// CustomizeRecipe applies a free-text instruction to one recipe. It returns
// nil on any failure; the caller keeps the original.
func (c *Client) CustomizeRecipe(ctx context.Context, r recipe.Recipe, instruction string, p profile.UserProfile) *recipe.Recipe {
	built, err := prompt.BuildCustomization(r, instruction, p)
	if err != nil {
		c.logger.Error("failed to build customization prompt", zap.Error(err))
		return nil
	}

	resp, meta, err := c.call(ctx, built)
	if err != nil {
		c.finish(meta, err)
		return nil
	}

	obj, err := recovery.RecoverObject(resp.Content)
	classify(&meta, recovery.Result{}, err)
	c.finish(meta, err)
	if err != nil {
		return nil
	}

	updated, _ := recipe.FromRaw(obj)
	return &updated
}

// GenerateShoppingList merges and categorizes the ingredients of recipes.
// On failure every ingredient is listed unmerged under "Uncategorized".
func (c *Client) GenerateShoppingList(ctx context.Context, recipes []recipe.Recipe, pantry string) []shopping.Item {
	if len(recipes) == 0 {
		return []shopping.Item{}
	}

	built, err := prompt.BuildShoppingList(recipes, pantry)
	if err != nil {
		c.logger.Error("failed to build shopping list prompt", zap.Error(err))
		return shopping.Fallback(recipes)
	}

	resp, meta, err := c.call(ctx, built)
	if err != nil {
		c.finish(meta, err)
		return shopping.Fallback(recipes)
	}

	objects, res, err := recovery.RecoverObjects(resp.Content)
	classify(&meta, res, err)
	c.finish(meta, err)
	if err != nil {
		return shopping.Fallback(recipes)
	}

	items := make([]shopping.Item, 0, len(objects))
	for _, obj := range objects {
		items = append(items, shopping.FromRaw(obj))
	}
	return items
}

// CategorizeItem returns one of the fixed shopping categories for name,
// "Other" when the model fails or answers with anything else.
func (c *Client) CategorizeItem(ctx context.Context, name string) string {
	if strings.TrimSpace(name) == "" {
		return string(shopping.Other)
	}

	resp, meta, err := c.call(ctx, prompt.BuildCategorization(name))
	c.finish(meta, err)
	if err != nil {
		return string(shopping.Other)
	}
	return shopping.NormalizeCategory(resp.Content)
}

// ExtractRecipe pulls a single recipe out of cleaned web page text. Unlike
// the entry points above it reports failures, since importing is a direct
// user action.
func (c *Client) ExtractRecipe(ctx context.Context, pageText, sourceURL string, servings int) (*recipe.Recipe, error) {
	if servings < 1 {
		servings = 2
	}
	built, err := prompt.BuildRecipeImport(pageText, sourceURL, servings)
	if err != nil {
		return nil, err
	}

	resp, meta, err := c.call(ctx, built)
	if err != nil {
		c.finish(meta, err)
		return nil, fmt.Errorf("failed to extract recipe: %w", err)
	}

	obj, err := recovery.RecoverObject(resp.Content)
	classify(&meta, recovery.Result{}, err)
	c.finish(meta, err)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extracted recipe: %w", err)
	}

	r, present := recipe.FromRaw(obj)
	if strings.TrimSpace(r.Title) == "" {
		return nil, fmt.Errorf("%w: extracted recipe has no title", recovery.ErrMalformedResponse)
	}
	if !present.ID {
		r.ID = c.newID()
	}
	if !present.Servings {
		r.Servings = servings
	}
	return &r, nil
}
