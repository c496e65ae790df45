// Package app owns the session state and applies every user action to it.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/planner"
	"github.com/bradenpan/whisk-ai-prototype/internal/profile"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
	"github.com/bradenpan/whisk-ai-prototype/internal/storage"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidInput     = errors.New("invalid input")
	ErrGenerationFailed = errors.New("generation failed")
)

// Generator is the model-backed half of the service. Its methods never fail;
// empty or nil results mean the model could not help.
type Generator interface {
	GenerateRecipes(ctx context.Context, p profile.UserProfile, count, servings int, useUp string, maxMinutes *int) []recipe.Recipe
	CustomizeRecipe(ctx context.Context, r recipe.Recipe, instruction string, p profile.UserProfile) *recipe.Recipe
	GenerateShoppingList(ctx context.Context, recipes []recipe.Recipe, pantry string) []shopping.Item
	CategorizeItem(ctx context.Context, name string) string
}

// Planner fills a week from a request.
type Planner interface {
	PlanWeek(ctx context.Context, req planner.PlanRequest) planner.WeeklyPlan
}

// Importer pulls a recipe out of a web page.
type Importer interface {
	ClipURL(ctx context.Context, rawURL string, servings int) (*recipe.Recipe, error)
}

// Defaults are used when a caller leaves an option unset.
type Defaults struct {
	Servings      int
	FavoriteCount int
	MaxMinutes    int
}

// Service serializes session mutations. Model calls run outside the lock and
// their results are applied last-write-wins.
type Service struct {
	repo     *storage.SessionRepository
	gen      Generator
	planner  Planner
	importer Importer
	defaults Defaults
	logger   *zap.Logger

	mu      sync.Mutex
	session storage.Session
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithDefaults(d Defaults) Option {
	return func(s *Service) { s.defaults = d }
}

func WithImporter(i Importer) Option {
	return func(s *Service) { s.importer = i }
}

// NewService loads the saved session and returns a ready service.
func NewService(ctx context.Context, repo *storage.SessionRepository, gen Generator, p Planner, opts ...Option) (*Service, error) {
	s := &Service{
		repo:     repo,
		gen:      gen,
		planner:  p,
		defaults: Defaults{Servings: 2},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaults.Servings < 1 {
		s.defaults.Servings = 2
	}
	s.logger = s.logger.Named("app")

	session, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	s.session = session
	return s, nil
}

// Defaults returns the configured fallbacks.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

// Snapshot returns a deep copy of the current session.
func (s *Service) Snapshot() storage.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

func (s *Service) UpdateProfile(ctx context.Context, p profile.UserProfile) (profile.UserProfile, error) {
	if err := p.Validate(); err != nil {
		return profile.UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p = p.Normalized()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return profile.UserProfile{}, err
	}
	s.session.Profile = p
	return p.Clone(), nil
}

// GenerateOptions configures a one-off recipe generation.
type GenerateOptions struct {
	Count      int
	Servings   int
	UseUp      string
	MaxMinutes *int
}

// GenerateRecipes asks the model for new recipes without touching the session.
func (s *Service) GenerateRecipes(ctx context.Context, opts GenerateOptions) ([]recipe.Recipe, error) {
	if opts.Count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1", ErrInvalidInput)
	}
	if opts.Servings < 1 {
		opts.Servings = s.defaults.Servings
	}

	p := s.Snapshot().Profile
	recipes := s.gen.GenerateRecipes(ctx, p, opts.Count, opts.Servings, opts.UseUp, opts.MaxMinutes)
	if len(recipes) == 0 {
		return nil, fmt.Errorf("%w: no recipes returned", ErrGenerationFailed)
	}
	return recipes, nil
}

// AutoPlanOptions configures a weekly auto-plan.
type AutoPlanOptions struct {
	FavoriteCount int
	UseUp         string
	Servings      int
	Days          []string
	MaxMinutes    *int
}

// AutoPlanWeek stores the use-up text as the pantry and replaces the plan
// with a freshly allocated one. With no days selected the plan is kept.
func (s *Service) AutoPlanWeek(ctx context.Context, opts AutoPlanOptions) (planner.WeeklyPlan, error) {
	for _, d := range opts.Days {
		if !planner.IsDay(d) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDay, d)
		}
	}
	if opts.FavoriteCount < 0 {
		return nil, fmt.Errorf("%w: favorite count must not be negative", ErrInvalidInput)
	}
	if opts.Servings < 1 {
		opts.Servings = s.defaults.Servings
	}
	if opts.MaxMinutes == nil && s.defaults.MaxMinutes > 0 {
		limit := s.defaults.MaxMinutes
		opts.MaxMinutes = &limit
	}

	s.mu.Lock()
	s.session.Pantry = opts.UseUp
	err := s.repo.SavePantry(ctx, opts.UseUp)
	snap := s.session.Clone()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	plan := s.planner.PlanWeek(ctx, planner.PlanRequest{
		Profile:       snap.Profile,
		Favorites:     snap.Favorites,
		FavoriteCount: opts.FavoriteCount,
		UseUp:         opts.UseUp,
		Servings:      opts.Servings,
		SelectedDays:  opts.Days,
		MaxMinutes:    opts.MaxMinutes,
	})
	if plan == nil {
		return snap.Plan, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	s.session.Plan = plan
	s.logger.Info("auto-planned week", zap.Int("recipes", len(plan.Recipes())))
	return plan.Clone(), nil
}

func (s *Service) AddToPlan(ctx context.Context, day string, r recipe.Recipe) (planner.WeeklyPlan, error) {
	if !planner.IsDay(day) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	if strings.TrimSpace(r.ID) == "" {
		return nil, fmt.Errorf("%w: recipe id is required", ErrInvalidInput)
	}
	return s.updatePlan(ctx, func(p planner.WeeklyPlan) (planner.WeeklyPlan, error) {
		return p.AddRecipe(day, r), nil
	})
}

func (s *Service) RemoveFromPlan(ctx context.Context, day, id string) (planner.WeeklyPlan, error) {
	if !planner.IsDay(day) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	return s.updatePlan(ctx, func(p planner.WeeklyPlan) (planner.WeeklyPlan, error) {
		if !p.Contains(day, id) {
			return nil, fmt.Errorf("%w: recipe %s on %s", ErrNotFound, id, day)
		}
		return p.RemoveRecipe(day, id), nil
	})
}

// MoveRecipe moves a recipe to the end of another day. Moving to the same day
// is a no-op.
func (s *Service) MoveRecipe(ctx context.Context, from, to, id string) (planner.WeeklyPlan, error) {
	for _, d := range []string{from, to} {
		if !planner.IsDay(d) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDay, d)
		}
	}
	return s.updatePlan(ctx, func(p planner.WeeklyPlan) (planner.WeeklyPlan, error) {
		moved, ok := p.MoveRecipe(from, to, id)
		if !ok {
			return nil, fmt.Errorf("%w: recipe %s on %s", ErrNotFound, id, from)
		}
		return moved, nil
	})
}

// updatePlan applies fn to the current plan under the lock and saves it.
func (s *Service) updatePlan(ctx context.Context, fn func(planner.WeeklyPlan) (planner.WeeklyPlan, error)) (planner.WeeklyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.session.Plan)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SavePlan(ctx, next); err != nil {
		return nil, err
	}
	s.session.Plan = next
	return next.Clone(), nil
}

// RegenerateRecipe swaps one planned recipe for a new one at the same
// servings. The plan is left alone when the model returns nothing.
func (s *Service) RegenerateRecipe(ctx context.Context, day, id string) (recipe.Recipe, error) {
	if !planner.IsDay(day) {
		return recipe.Recipe{}, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}

	snap := s.Snapshot()
	var current recipe.Recipe
	found := false
	for _, r := range snap.Plan[day] {
		if r.ID == id {
			current, found = r, true
			break
		}
	}
	if !found {
		return recipe.Recipe{}, fmt.Errorf("%w: recipe %s on %s", ErrNotFound, id, day)
	}

	fresh := s.gen.GenerateRecipes(ctx, snap.Profile, 1, current.Servings, "", nil)
	if len(fresh) == 0 {
		return recipe.Recipe{}, fmt.Errorf("%w: no replacement for %s", ErrGenerationFailed, id)
	}
	replacement := fresh[0]

	_, err := s.updatePlan(ctx, func(p planner.WeeklyPlan) (planner.WeeklyPlan, error) {
		return p.ReplaceRecipe(day, id, replacement), nil
	})
	if err != nil {
		return recipe.Recipe{}, err
	}
	return replacement, nil
}

// CustomizeRecipe rewrites a favorite or planned recipe and propagates the
// result to every place it appears.
func (s *Service) CustomizeRecipe(ctx context.Context, id, instruction string) (recipe.Recipe, error) {
	if strings.TrimSpace(instruction) == "" {
		return recipe.Recipe{}, fmt.Errorf("%w: instruction is required", ErrInvalidInput)
	}
	snap := s.Snapshot()
	current, ok := findRecipe(snap, id)
	if !ok {
		return recipe.Recipe{}, fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}

	updated := s.gen.CustomizeRecipe(ctx, current, instruction, snap.Profile)
	if updated == nil {
		return recipe.Recipe{}, fmt.Errorf("%w: could not customize %s", ErrGenerationFailed, id)
	}
	// The customized recipe replaces the original in place under the same id.
	updated.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	favorites := recipe.CloneAll(s.session.Favorites)
	for i, f := range favorites {
		if f.ID == id {
			favorites[i] = recipe.Clone(*updated)
		}
	}
	plan := s.session.Plan.ReplaceEverywhere(id, *updated)

	if err := s.repo.SaveFavorites(ctx, favorites); err != nil {
		return recipe.Recipe{}, err
	}
	if err := s.repo.SavePlan(ctx, plan); err != nil {
		return recipe.Recipe{}, err
	}
	s.session.Favorites = favorites
	s.session.Plan = plan
	return *updated, nil
}

// ToggleFavorite adds r to favorites, or removes it when a favorite with the
// same id exists. It reports whether r is a favorite afterwards.
func (s *Service) ToggleFavorite(ctx context.Context, r recipe.Recipe) (bool, error) {
	if strings.TrimSpace(r.ID) == "" {
		return false, fmt.Errorf("%w: recipe id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	favorites := make([]recipe.Recipe, 0, len(s.session.Favorites)+1)
	removed := false
	for _, f := range s.session.Favorites {
		if f.ID == r.ID {
			removed = true
			continue
		}
		favorites = append(favorites, f)
	}
	if !removed {
		favorites = append(favorites, recipe.Clone(r))
	}

	if err := s.repo.SaveFavorites(ctx, favorites); err != nil {
		return false, err
	}
	s.session.Favorites = favorites
	return !removed, nil
}

// ClearPlan empties the plan, the shopping list and the pantry.
func (s *Service) ClearPlan(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := planner.NewWeeklyPlan()
	if err := s.repo.SavePlan(ctx, plan); err != nil {
		return err
	}
	if err := s.repo.SaveShoppingList(ctx, []shopping.Item{}); err != nil {
		return err
	}
	if err := s.repo.SavePantry(ctx, ""); err != nil {
		return err
	}
	s.session.Plan = plan
	s.session.ShoppingList = []shopping.Item{}
	s.session.Pantry = ""
	return nil
}

// BuildShoppingList replaces the shopping list with one built from every
// planned recipe and the pantry text.
func (s *Service) BuildShoppingList(ctx context.Context) ([]shopping.Item, error) {
	snap := s.Snapshot()
	items := s.gen.GenerateShoppingList(ctx, snap.Plan.Recipes(), snap.Pantry)
	if items == nil {
		items = []shopping.Item{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SaveShoppingList(ctx, items); err != nil {
		return nil, err
	}
	s.session.ShoppingList = items
	return append([]shopping.Item{}, items...), nil
}

// AddShoppingItem appends a manual item, categorized by the model.
func (s *Service) AddShoppingItem(ctx context.Context, name, amount string) (shopping.Item, error) {
	name, amount = strings.TrimSpace(name), strings.TrimSpace(amount)
	if name == "" || amount == "" {
		return shopping.Item{}, fmt.Errorf("%w: name and amount are required", ErrInvalidInput)
	}
	item := shopping.Item{
		Name:     name,
		Amount:   amount,
		Category: s.gen.CategorizeItem(ctx, name),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := append(append([]shopping.Item{}, s.session.ShoppingList...), item)
	if err := s.repo.SaveShoppingList(ctx, items); err != nil {
		return shopping.Item{}, err
	}
	s.session.ShoppingList = items
	return item, nil
}

func (s *Service) ToggleChecked(ctx context.Context, index int) (shopping.Item, error) {
	return s.updateItem(ctx, index, func(it *shopping.Item) { it.Checked = !it.Checked })
}

func (s *Service) ToggleAlreadyHave(ctx context.Context, index int) (shopping.Item, error) {
	return s.updateItem(ctx, index, func(it *shopping.Item) { it.AlreadyHave = !it.AlreadyHave })
}

func (s *Service) updateItem(ctx context.Context, index int, fn func(*shopping.Item)) (shopping.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.session.ShoppingList) {
		return shopping.Item{}, fmt.Errorf("%w: shopping item %d", ErrNotFound, index)
	}
	items := append([]shopping.Item{}, s.session.ShoppingList...)
	fn(&items[index])
	if err := s.repo.SaveShoppingList(ctx, items); err != nil {
		return shopping.Item{}, err
	}
	s.session.ShoppingList = items
	return items[index], nil
}

func (s *Service) SetPantry(ctx context.Context, pantry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SavePantry(ctx, pantry); err != nil {
		return err
	}
	s.session.Pantry = pantry
	return nil
}

// FindRecipe looks up id among favorites first, then the plan.
func (s *Service) FindRecipe(id string) (recipe.Recipe, error) {
	r, ok := findRecipe(s.Snapshot(), id)
	if !ok {
		return recipe.Recipe{}, fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	return r, nil
}

// ScaledRecipe returns a copy of recipe id sized for servings.
func (s *Service) ScaledRecipe(id string, servings int) (recipe.Recipe, error) {
	if servings < 1 {
		return recipe.Recipe{}, fmt.Errorf("%w: servings must be at least 1", ErrInvalidInput)
	}
	r, err := s.FindRecipe(id)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return recipe.Scale(r, servings), nil
}

// ImportRecipe clips a recipe from rawURL into favorites.
func (s *Service) ImportRecipe(ctx context.Context, rawURL string, servings int) (recipe.Recipe, error) {
	if s.importer == nil {
		return recipe.Recipe{}, fmt.Errorf("%w: recipe import is not configured", ErrInvalidInput)
	}
	if servings < 1 {
		servings = s.defaults.Servings
	}
	r, err := s.importer.ClipURL(ctx, rawURL, servings)
	if err != nil {
		return recipe.Recipe{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	favorites := recipe.CloneAll(s.session.Favorites)
	replaced := false
	for i, f := range favorites {
		if f.ID == r.ID {
			favorites[i] = recipe.Clone(*r)
			replaced = true
		}
	}
	if !replaced {
		favorites = append(favorites, recipe.Clone(*r))
	}
	if err := s.repo.SaveFavorites(ctx, favorites); err != nil {
		return recipe.Recipe{}, err
	}
	s.session.Favorites = favorites
	s.logger.Info("imported recipe", zap.String("id", r.ID), zap.String("title", r.Title))
	return *r, nil
}

func findRecipe(s storage.Session, id string) (recipe.Recipe, bool) {
	for _, f := range s.Favorites {
		if f.ID == id {
			return f, true
		}
	}
	return s.Plan.Find(id)
}
