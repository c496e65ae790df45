package planner

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bradenpan/whisk-ai-prototype/internal/profile"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
)

// useUpBatch is the most recipes asked to feature the use-up ingredients.
const useUpBatch = 2

// RecipeGenerator produces new recipes; it never fails, returning an empty
// slice instead.
type RecipeGenerator interface {
	GenerateRecipes(ctx context.Context, p profile.UserProfile, count, servings int, useUp string, maxMinutes *int) []recipe.Recipe
}

// PlanRequest describes one auto-plan run.
type PlanRequest struct {
	Profile       profile.UserProfile
	Favorites     []recipe.Recipe
	FavoriteCount int
	UseUp         string
	Servings      int
	SelectedDays  []string
	MaxMinutes    *int
}

// Allocator fills the selected days of a week with new and favorite recipes.
type Allocator struct {
	gen    RecipeGenerator
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type AllocatorOption func(*Allocator)

// WithRand sets the source used to shuffle favorites.
func WithRand(rng *rand.Rand) AllocatorOption {
	return func(a *Allocator) { a.rng = rng }
}

func WithLogger(logger *zap.Logger) AllocatorOption {
	return func(a *Allocator) { a.logger = logger }
}

// NewAllocator creates a new Allocator.
func NewAllocator(gen RecipeGenerator, opts ...AllocatorOption) *Allocator {
	a := &Allocator{gen: gen, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a.logger = a.logger.Named("allocator")
	return a
}

// PlanWeek builds a plan for req.SelectedDays. It returns nil when no known
// day is selected so the caller keeps its current plan. Days beyond the
// available recipes stay empty.
func (a *Allocator) PlanWeek(ctx context.Context, req PlanRequest) WeeklyPlan {
	days := selectedDays(req.SelectedDays)
	if len(days) == 0 {
		return nil
	}
	servings := req.Servings
	if servings < 1 {
		servings = 1
	}

	favoriteCount := clamp(req.FavoriteCount, 0, min(len(req.Favorites), len(days)))
	newCount := len(days) - favoriteCount

	fresh := a.generate(ctx, req, newCount, servings)
	favorites := a.pickFavorites(req.Favorites, favoriteCount, servings)
	a.uniqueIDs(fresh, req.Favorites)

	pool := append(fresh, favorites...)
	plan := NewWeeklyPlan()
	next := 0
	for _, day := range DaysOfWeek {
		if !days[day] {
			continue
		}
		if next >= len(pool) {
			break
		}
		plan[day] = []recipe.Recipe{pool[next]}
		next++
	}

	a.logger.Info("planned week",
		zap.Int("days", len(days)),
		zap.Int("new_requested", newCount),
		zap.Int("new_received", len(fresh)),
		zap.Int("favorites", len(favorites)),
		zap.Int("filled", next),
	)
	return plan
}

// generate requests newCount recipes. With use-up text, up to two recipes
// are asked to feature it and the rest are generated without it; both
// batches run concurrently and are concatenated use-up first.
func (a *Allocator) generate(ctx context.Context, req PlanRequest, newCount, servings int) []recipe.Recipe {
	if newCount <= 0 {
		return nil
	}
	useUp := strings.TrimSpace(req.UseUp)
	if useUp == "" {
		return trim(a.gen.GenerateRecipes(ctx, req.Profile, newCount, servings, "", req.MaxMinutes), newCount)
	}

	useUpCount := min(newCount, useUpBatch)
	restCount := newCount - useUpCount

	var withUseUp, rest []recipe.Recipe
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		withUseUp = a.gen.GenerateRecipes(gctx, req.Profile, useUpCount, servings, useUp, req.MaxMinutes)
		return nil
	})
	if restCount > 0 {
		g.Go(func() error {
			rest = a.gen.GenerateRecipes(gctx, req.Profile, restCount, servings, "", req.MaxMinutes)
			return nil
		})
	}
	_ = g.Wait()

	withUseUp, rest = trim(withUseUp, useUpCount), trim(rest, restCount)
	out := make([]recipe.Recipe, 0, len(withUseUp)+len(rest))
	out = append(out, withUseUp...)
	return append(out, rest...)
}

// trim drops anything the model returned beyond the n recipes asked for.
func trim(rs []recipe.Recipe, n int) []recipe.Recipe {
	if len(rs) > n {
		return rs[:n]
	}
	return rs
}

// uniqueIDs gives a new id to every fresh recipe whose id is empty or
// already used by a favorite or an earlier fresh recipe. Favorites keep
// theirs since they are referenced from the favorites list.
func (a *Allocator) uniqueIDs(fresh, favorites []recipe.Recipe) {
	taken := make(map[string]bool, len(fresh)+len(favorites))
	for _, f := range favorites {
		taken[f.ID] = true
	}
	for i := range fresh {
		if id := fresh[i].ID; id == "" || taken[id] {
			fresh[i].ID = a.newID()
			a.logger.Debug("reassigned recipe id", zap.String("old", id), zap.String("new", fresh[i].ID))
		}
		taken[fresh[i].ID] = true
	}
}

func (a *Allocator) newID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, err := uuid.NewRandomFromReader(a.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// pickFavorites shuffles a copy of favorites and returns the first n as
// deep copies stamped with servings. Ingredient amounts are not rescaled.
func (a *Allocator) pickFavorites(favorites []recipe.Recipe, n, servings int) []recipe.Recipe {
	if n <= 0 {
		return nil
	}
	shuffled := recipe.CloneAll(favorites)

	a.mu.Lock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := a.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	a.mu.Unlock()

	picked := shuffled[:n]
	for i := range picked {
		picked[i].Servings = servings
	}
	return picked
}

// selectedDays keeps known day names once each.
func selectedDays(names []string) map[string]bool {
	days := make(map[string]bool, len(names))
	for _, name := range names {
		if IsDay(name) {
			days[name] = true
		}
	}
	return days
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
