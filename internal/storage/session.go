package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/planner"
	"github.com/bradenpan/whisk-ai-prototype/internal/profile"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
)

// Session is the persisted application state.
type Session struct {
	Profile      profile.UserProfile `json:"profile"`
	Favorites    []recipe.Recipe     `json:"favorites"`
	Plan         planner.WeeklyPlan  `json:"weeklyPlan"`
	ShoppingList []shopping.Item     `json:"shoppingList"`
	Pantry       string              `json:"pantryItems"`
}

// NewSession returns the state of a first run.
func NewSession() Session {
	return Session{
		Profile:      profile.Default(),
		Favorites:    []recipe.Recipe{},
		Plan:         planner.NewWeeklyPlan(),
		ShoppingList: []shopping.Item{},
	}
}

// Clone deep-copies the session.
func (s Session) Clone() Session {
	out := s
	out.Profile = s.Profile.Clone()
	out.Favorites = recipe.CloneAll(s.Favorites)
	if out.Favorites == nil {
		out.Favorites = []recipe.Recipe{}
	}
	out.Plan = s.Plan.Clone()
	out.ShoppingList = append([]shopping.Item{}, s.ShoppingList...)
	return out
}

// SessionRepository loads and saves a Session key by key.
type SessionRepository struct {
	store  Store
	logger *zap.Logger
}

func NewSessionRepository(store Store, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{store: store, logger: logger.Named("session")}
}

// Load reads every key. Missing keys take their defaults, the profile is
// merged over the default profile, and corrupt values are logged and
// replaced by defaults. Only store failures are returned.
func (r *SessionRepository) Load(ctx context.Context) (Session, error) {
	s := NewSession()

	raw, ok, err := r.store.Get(ctx, KeyProfile)
	if err != nil {
		return s, err
	}
	if ok {
		p, dropped, err := profile.MergeSaved([]byte(raw))
		if err != nil {
			r.logger.Warn("discarding corrupt saved value", zap.String("key", KeyProfile), zap.Error(err))
		}
		if len(dropped) > 0 {
			r.logger.Warn("skipping unknown health goals", zap.Strings("goals", dropped))
		}
		s.Profile = p
	}

	if err := r.loadJSON(ctx, KeyFavorites, &s.Favorites); err != nil {
		return s, err
	}
	if s.Favorites == nil {
		s.Favorites = []recipe.Recipe{}
	}

	var plan planner.WeeklyPlan
	if err := r.loadJSON(ctx, KeyWeeklyPlan, &plan); err != nil {
		return s, err
	}
	s.Plan = plan.Normalize()

	if err := r.loadJSON(ctx, KeyShoppingList, &s.ShoppingList); err != nil {
		return s, err
	}
	if s.ShoppingList == nil {
		s.ShoppingList = []shopping.Item{}
	}

	pantry, _, err := r.store.Get(ctx, KeyPantry)
	if err != nil {
		return s, err
	}
	s.Pantry = pantry
	return s, nil
}

// loadJSON decodes key into dst. A corrupt value leaves dst untouched.
func (r *SessionRepository) loadJSON(ctx context.Context, key string, dst any) error {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		r.logger.Warn("discarding corrupt saved value", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (r *SessionRepository) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return r.store.Set(ctx, key, string(data))
}

func (r *SessionRepository) SaveProfile(ctx context.Context, p profile.UserProfile) error {
	return r.saveJSON(ctx, KeyProfile, p)
}

func (r *SessionRepository) SaveFavorites(ctx context.Context, favorites []recipe.Recipe) error {
	if favorites == nil {
		favorites = []recipe.Recipe{}
	}
	return r.saveJSON(ctx, KeyFavorites, favorites)
}

func (r *SessionRepository) SavePlan(ctx context.Context, plan planner.WeeklyPlan) error {
	return r.saveJSON(ctx, KeyWeeklyPlan, plan.Normalize())
}

func (r *SessionRepository) SaveShoppingList(ctx context.Context, items []shopping.Item) error {
	if items == nil {
		items = []shopping.Item{}
	}
	return r.saveJSON(ctx, KeyShoppingList, items)
}

// SavePantry stores the pantry text as is.
func (r *SessionRepository) SavePantry(ctx context.Context, pantry string) error {
	return r.store.Set(ctx, KeyPantry, pantry)
}

// SaveAll writes every key, stopping at the first failure.
func (r *SessionRepository) SaveAll(ctx context.Context, s Session) error {
	if err := r.SaveProfile(ctx, s.Profile); err != nil {
		return err
	}
	if err := r.SaveFavorites(ctx, s.Favorites); err != nil {
		return err
	}
	if err := r.SavePlan(ctx, s.Plan); err != nil {
		return err
	}
	if err := r.SaveShoppingList(ctx, s.ShoppingList); err != nil {
		return err
	}
	return r.SavePantry(ctx, s.Pantry)
}
