package acceptance_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/api"
	"github.com/bradenpan/whisk-ai-prototype/internal/app"
	"github.com/bradenpan/whisk-ai-prototype/internal/config"
	"github.com/bradenpan/whisk-ai-prototype/internal/database"
	"github.com/bradenpan/whisk-ai-prototype/internal/llm"
	"github.com/bradenpan/whisk-ai-prototype/internal/planner"
	"github.com/bradenpan/whisk-ai-prototype/internal/prompt"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
	"github.com/bradenpan/whisk-ai-prototype/internal/testutil"
)

func newConfig(dir string) *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{Provider: config.ProviderGemini, Model: "test-model"},
		Storage: config.StorageConfig{
			Backend:      config.BackendSQLite,
			DatabasePath: filepath.Join(dir, "whisk.db"),
		},
		Planner:   config.PlannerConfig{Servings: 2},
		Clipper:   config.ClipperConfig{AllowPrivateNetworks: true},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func model() *testutil.ScriptedInvoker {
	return testutil.NewScriptedInvoker().
		On("Source URL: ", `{"title":"Grandma's Stew","servings":6,"ingredients":[{"name":"beef","quantity":2,"unit":"lb"}]}`).
		On("Categorize this shopping item", "Pantry").
		On("ingredients from multiple recipes", testutil.ShoppingJSON([]shopping.Item{
			{Name: "onion", Amount: "3 onions", Category: "Produce"},
			{Name: "beef", Amount: "2 lb", Category: "Meat & Seafood"},
		})).
		On("DINNER recipes", testutil.RecipesJSON(testutil.NewRecipeFactory(42).Recipes(2)))
}

type client struct {
	t      *testing.T
	router http.Handler
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func (c client) decode(w *httptest.ResponseRecorder, dst any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func start(t *testing.T, cfg *config.Config, inv llm.Invoker) (*app.Runtime, client) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rt, err := app.Bootstrap(context.Background(), cfg, zap.NewNop(), app.WithInvoker(inv))
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })

	router := api.NewRouter(api.Options{
		Service:    rt.Service,
		Prometheus: rt.Prometheus,
		RateLimit:  cfg.RateLimit,
		DataDir:    rt.DataDir(),
		Debug:      true,
	})
	return rt, client{t: t, router: router}
}

func TestFullWorkflow(t *testing.T) {
	dir := t.TempDir()
	cfg := newConfig(dir)
	inv := model()
	rt, c := start(t, cfg, inv)

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><nav>menu</nav><h1>Grandma's Stew</h1><p>Brown the beef.</p></body></html>`)
	}))
	defer page.Close()

	// 1. Profile
	w := c.do(http.MethodPut, "/api/profile", map[string]any{"name": "Sam", "dietaryRestrictions": []string{"no cilantro"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 2. Import a favorite from the web
	w = c.do(http.MethodPost, "/api/recipes/import", map[string]any{"url": page.URL, "servings": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var imported recipe.Recipe
	c.decode(w, &imported)
	assert.Equal(t, "Grandma's Stew", imported.Title)
	assert.Equal(t, 6, imported.Servings)

	// 3. Auto-plan three days reusing the favorite
	w = c.do(http.MethodPost, "/api/plan/auto", map[string]any{
		"favoriteCount": 1,
		"useUp":         "carrots",
		"days":          []string{"Monday", "Wednesday", "Friday"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var plan planner.WeeklyPlan
	c.decode(w, &plan)
	require.Len(t, plan.Recipes(), 3)
	_, hasFavorite := plan.Find(imported.ID)
	assert.True(t, hasFavorite)
	for _, day := range []string{"Tuesday", "Thursday", "Saturday", "Sunday"} {
		assert.Empty(t, plan[day], day)
	}

	// 4. Move a recipe and build the shopping list
	monday := plan["Monday"][0]
	w = c.do(http.MethodPost, "/api/plan/move", map[string]any{"from": "Monday", "to": "Sunday", "id": monday.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/shopping-list/generate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Items      []shopping.Item `json:"items"`
		Categories []string        `json:"categories"`
	}
	c.decode(w, &list)
	require.Len(t, list.Items, 2)
	assert.Equal(t, []string{"Produce", "Meat & Seafood"}, list.Categories)

	w = c.do(http.MethodPost, "/api/shopping-list/items", map[string]any{"name": "olive oil", "amount": "1 bottle"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var added shopping.Item
	c.decode(w, &added)
	assert.Equal(t, "Pantry", added.Category)

	w = c.do(http.MethodPatch, "/api/shopping-list/items/0", map[string]any{"toggle": "alreadyHave"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 5. Every model call was recorded
	usage, err := rt.MetricsStore.GetDailyUsage(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, inv.Calls(), usage[0].TotalExecution)

	// 6. State survives a restart
	require.NoError(t, rt.Close())
	rt2, c2 := start(t, cfg, model())

	snap := rt2.Service.Snapshot()
	assert.Equal(t, "Sam", snap.Profile.Name)
	assert.Equal(t, "carrots", snap.Pantry)
	require.Len(t, snap.Favorites, 1)
	require.Len(t, snap.Plan["Sunday"], 1)
	assert.Equal(t, monday.ID, snap.Plan["Sunday"][0].ID)
	require.Len(t, snap.ShoppingList, 3)
	assert.True(t, snap.ShoppingList[0].AlreadyHave)

	w = c2.do(http.MethodGet, "/api/recipes/"+imported.ID+"/scaled?servings=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var scaled recipe.Recipe
	c2.decode(w, &scaled)
	assert.Equal(t, 3, scaled.Servings)
	require.Len(t, scaled.Ingredients, 1)
	assert.InDelta(t, 1.0, scaled.Ingredients[0].Quantity, 0.001)
}

func TestCachedShoppingList(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := database.NewRedisClient(ctx, url, zap.NewNop())
	require.NoError(t, err)
	defer rdb.Close()

	inv := model()
	cached := llm.NewCached(inv, rdb, time.Minute, []string{prompt.TaskShoppingList}, zap.NewNop())
	_, c := start(t, newConfig(t.TempDir()), cached)

	w := c.do(http.MethodPost, "/api/plan/auto", map[string]any{
		"days": []string{"Tuesday"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	shoppingCalls := func() int {
		n := 0
		for _, req := range inv.Requests() {
			if req.Task == prompt.TaskShoppingList {
				n++
			}
		}
		return n
	}

	before := shoppingCalls()
	for i := 0; i < 2; i++ {
		w = c.do(http.MethodPost, "/api/shopping-list/generate", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	assert.LessOrEqual(t, shoppingCalls()-before, 1)
}
