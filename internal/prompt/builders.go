// Package prompt turns profiles, recipes and task parameters into model
// instructions and output schemas. Builders are deterministic.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/bradenpan/whisk-ai-prototype/internal/profile"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
)

// Task names identify a builder in logs, metrics and cache policy.
const (
	TaskRecipeGeneration = "recipe_generation"
	TaskCustomization    = "customization"
	TaskShoppingList     = "shopping_list"
	TaskCategorization   = "categorization"
	TaskRecipeImport     = "recipe_import"
)

const (
	MIMEJSON = "application/json"
	MIMEText = "text/plain"
)

// maxPageRunes bounds the page text sent for recipe import.
const maxPageRunes = 20000

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// Built is the instruction/schema pair for one model call.
type Built struct {
	Task              string
	SystemInstruction string
	Prompt            string
	Schema            *Schema
	MIMEType          string
}

// RecipeRequest parameterizes bulk recipe generation.
type RecipeRequest struct {
	Profile  profile.UserProfile
	Count    int
	Servings int
	// UseUp is free text listing ingredients the user wants to use up.
	UseUp string
	// MaxMinutes overrides the profile's cooking time limit when set.
	MaxMinutes *int
}

type recipeGenerationData struct {
	Count            int
	Servings         int
	ProfileJSON      string
	Restrictions     string
	HealthGoals      string
	NutritionalFocus string
	Appliances       string
	TimeConstraint   string
	UseUp            string
}

// BuildRecipeGeneration builds the bulk generation request.
func BuildRecipeGeneration(req RecipeRequest) (Built, error) {
	count := req.Count
	if count < 1 {
		count = 1
	}
	servings := req.Servings
	if servings < 1 {
		servings = 1
	}

	profileJSON, err := json.Marshal(req.Profile)
	if err != nil {
		return Built{}, fmt.Errorf("failed to encode profile: %w", err)
	}

	goals := make([]string, 0, len(req.Profile.HealthGoals))
	for _, g := range req.Profile.HealthGoals {
		goals = append(goals, string(g))
	}

	data := recipeGenerationData{
		Count:            count,
		Servings:         servings,
		ProfileJSON:      string(profileJSON),
		Restrictions:     joinOr(req.Profile.DietaryRestrictions, "None"),
		HealthGoals:      joinOr(goals, "General Health"),
		NutritionalFocus: joinOr(req.Profile.NutritionalFocus, "Balanced"),
		Appliances:       joinOr(req.Profile.CookingAppliances, "Standard Kitchen (Oven/Stove)"),
		TimeConstraint:   timeConstraint(req.MaxMinutes, req.Profile.MaxCookingMinutes),
		UseUp:            strings.TrimSpace(req.UseUp),
	}

	system, err := render("recipe_generation_system.tmpl", data)
	if err != nil {
		return Built{}, err
	}
	body, err := render("recipe_generation.tmpl", data)
	if err != nil {
		return Built{}, err
	}

	return Built{
		Task:              TaskRecipeGeneration,
		SystemInstruction: system,
		Prompt:            body,
		Schema:            RecipeListSchema(),
		MIMEType:          MIMEJSON,
	}, nil
}

// BuildCustomization builds the single-recipe modification request.
func BuildCustomization(r recipe.Recipe, instruction string, p profile.UserProfile) (Built, error) {
	recipeJSON, err := json.Marshal(r)
	if err != nil {
		return Built{}, fmt.Errorf("failed to encode recipe: %w", err)
	}

	body, err := render("customization.tmpl", map[string]any{
		"RecipeJSON":       string(recipeJSON),
		"Instruction":      strings.TrimSpace(instruction),
		"Restrictions":     joinOr(p.DietaryRestrictions, "None"),
		"NutritionalFocus": joinOr(p.NutritionalFocus, "None"),
		"ID":               r.ID,
		"Servings":         r.Servings,
	})
	if err != nil {
		return Built{}, err
	}

	return Built{
		Task:     TaskCustomization,
		Prompt:   body,
		Schema:   RecipeSchema(),
		MIMEType: MIMEJSON,
	}, nil
}

// BuildShoppingList builds the aggregation request over every ingredient of recipes.
func BuildShoppingList(recipes []recipe.Recipe, pantry string) (Built, error) {
	var lines []string
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			lines = append(lines, strings.TrimSpace(ing.Amount+" "+ing.Name))
		}
	}

	cats := make([]string, len(shopping.Categories))
	for i, c := range shopping.Categories {
		cats[i] = fmt.Sprintf("%q", string(c))
	}

	body, err := render("shopping_list.tmpl", map[string]any{
		"Ingredients": strings.Join(lines, ", "),
		"Pantry":      strings.TrimSpace(pantry),
		"Categories":  strings.Join(cats, ", "),
	})
	if err != nil {
		return Built{}, err
	}

	return Built{
		Task:     TaskShoppingList,
		Prompt:   body,
		Schema:   ShoppingListSchema(),
		MIMEType: MIMEJSON,
	}, nil
}

// BuildCategorization asks for a single category name for one item.
func BuildCategorization(name string) Built {
	cats := make([]string, len(shopping.Categories))
	for i, c := range shopping.Categories {
		cats[i] = string(c)
	}
	return Built{
		Task: TaskCategorization,
		Prompt: fmt.Sprintf(
			"Categorize this shopping item: %q into one of: %s. Return ONLY the category name.",
			strings.TrimSpace(name), strings.Join(cats, ", "),
		),
		MIMEType: MIMEText,
	}
}

// BuildRecipeImport asks the model to extract one recipe from cleaned page text.
func BuildRecipeImport(pageText, sourceURL string, servings int) (Built, error) {
	if servings < 1 {
		servings = 2
	}
	body, err := render("recipe_import.tmpl", map[string]any{
		"PageText":  truncateRunes(strings.TrimSpace(pageText), maxPageRunes),
		"SourceURL": sourceURL,
		"Servings":  servings,
	})
	if err != nil {
		return Built{}, err
	}
	return Built{
		Task:     TaskRecipeImport,
		Prompt:   body,
		Schema:   RecipeSchema(),
		MIMEType: MIMEJSON,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func joinOr(items []string, fallback string) string {
	var kept []string
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}

func timeConstraint(override, fromProfile *int) string {
	limit := override
	if limit == nil || *limit <= 0 {
		limit = fromProfile
	}
	if limit == nil || *limit <= 0 {
		return ""
	}
	return fmt.Sprintf("MAX COOKING TIME: The TOTAL prep + cook time MUST be under %d minutes.", *limit)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
