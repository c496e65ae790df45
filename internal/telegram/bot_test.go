package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/app"
	"github.com/bradenpan/whisk-ai-prototype/internal/config"
	"github.com/bradenpan/whisk-ai-prototype/internal/database"
	"github.com/bradenpan/whisk-ai-prototype/internal/generation"
	"github.com/bradenpan/whisk-ai-prototype/internal/metrics"
	"github.com/bradenpan/whisk-ai-prototype/internal/planner"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
	"github.com/bradenpan/whisk-ai-prototype/internal/storage"
	"github.com/bradenpan/whisk-ai-prototype/internal/testutil"
)

const (
	allowedUser = int64(12)
	adminUser   = int64(34)
	chatID      = int64(99)
)

// fakeAPI records every message the bot sends.
type fakeAPI struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	nextID int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) HandleUpdate(r *http.Request) (*tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		return nil, err
	}
	return &update, nil
}

// texts returns the text of every sent or edited message.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) last(t *testing.T) string {
	t.Helper()
	texts := f.texts()
	require.NotEmpty(t, texts)
	return texts[len(texts)-1]
}

type stubImporter struct{}

func (stubImporter) ClipURL(ctx context.Context, rawURL string, servings int) (*recipe.Recipe, error) {
	return &recipe.Recipe{ID: "clip", Title: "Grandma's Stew", Servings: servings}, nil
}

func newBot(t *testing.T, opts ...Option) (*Bot, *fakeAPI, *app.Service) {
	t.Helper()
	inv := testutil.NewScriptedInvoker().
		On("ingredients from multiple recipes", testutil.ShoppingJSON([]shopping.Item{{Name: "onion", Amount: "3 onions", Category: "Produce"}})).
		On("DINNER recipes", testutil.RecipesJSON(testutil.NewRecipeFactory(5).Recipes(7)))
	gen := generation.New(inv)
	repo := storage.NewSessionRepository(storage.NewMemoryStore(), zap.NewNop())
	svc, err := app.NewService(context.Background(), repo, gen, planner.NewAllocator(gen),
		app.WithImporter(stubImporter{}))
	require.NoError(t, err)

	api := &fakeAPI{}
	cfg := config.TelegramConfig{AllowUserIDs: "12,34", AdminUserID: adminUser}
	return NewBot(api, svc, cfg, opts...), api, svc
}

func command(userID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		end := strings.IndexByte(text, ' ')
		if end < 0 {
			end = len(text)
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return msg
}

func TestFormatPlanMarkdown(t *testing.T) {
	plan := planner.NewWeeklyPlan()
	plan["Monday"] = []recipe.Recipe{{Title: "Tacos", PrepTimeMinutes: 10, CookTimeMinutes: 5, Description: "Tasty"}}
	plan["Tuesday"] = []recipe.Recipe{{Title: "Mac_and*Cheese", PrepTimeMinutes: 5, CookTimeMinutes: 5}}

	out := formatPlanMarkdown(plan)
	assert.Contains(t, out, "📅 *Weekly Meal Plan*")
	assert.Contains(t, out, "*Monday*: Tacos (15 mins)")
	assert.Contains(t, out, "_Tasty_")
	assert.Contains(t, out, `Mac\_and\*Cheese`)
	assert.Contains(t, out, "⏱ *Total Cooking:* 25 mins")
	assert.Less(t, strings.Index(out, "Monday"), strings.Index(out, "Tuesday"))

	assert.Contains(t, formatPlanMarkdown(planner.NewWeeklyPlan()), "_No meals planned yet._")
}

func TestFormatShoppingListMarkdown(t *testing.T) {
	out := formatShoppingListMarkdown([]shopping.Item{
		{Name: "salt", Amount: "1 tsp", Category: "Spices"},
		{Name: "onion", Amount: "3 onions", Category: "Produce", Note: "Check pantry for existing amount"},
		{Name: "milk", Amount: "1 gallon", Category: "Dairy & Eggs", AlreadyHave: true},
	})

	assert.Contains(t, out, "🛒 *Shopping List*")
	assert.Contains(t, out, "• onion (3 onions) _Check pantry for existing amount_")
	assert.Contains(t, out, "✓ milk (1 gallon)")
	assert.Less(t, strings.Index(out, "*Produce*"), strings.Index(out, "*Spices*"))

	assert.Contains(t, formatShoppingListMarkdown(nil), "_Nothing to buy._")
}

func TestFormatMetricsReport(t *testing.T) {
	out := formatMetricsReport(
		[]metrics.DailyUsage{{Date: "2026-10-18", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 3, Degraded: 1}},
		metrics.SysHealth{Alloc: "1.0 MiB", Sys: "8.0 MiB", Goroutines: 7, DataDiskSize: "2.0 KiB"},
	)
	assert.Contains(t, out, "• *2026-10-18*: 150 tokens (3 execs, 1 degraded)")
	assert.Contains(t, out, "• RAM: 1.0 MiB (Alloc) / 8.0 MiB (Sys)")
	assert.Contains(t, out, "• Disk Data: 2.0 KiB")

	assert.Contains(t, formatMetricsReport(nil, metrics.SysHealth{}), "_No data yet_")
}

func TestHandleMessage_Plan(t *testing.T) {
	bot, api, svc := newBot(t)
	bot.HandleMessage(context.Background(), command(allowedUser, "/plan chicken thighs"))

	texts := api.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Thinking...")
	assert.Contains(t, texts[1], "📅 *Weekly Meal Plan*")
	assert.Contains(t, texts[1], "*Sunday*:")
	assert.Equal(t, "chicken thighs", svc.Snapshot().Pantry)
	assert.Len(t, svc.Snapshot().Plan.Recipes(), 7)

	bot.HandleMessage(context.Background(), command(allowedUser, "/week"))
	assert.Contains(t, api.last(t), "*Monday*:")
}

func TestHandleMessage_List(t *testing.T) {
	bot, api, _ := newBot(t)
	bot.HandleMessage(context.Background(), command(allowedUser, "/plan"))
	bot.HandleMessage(context.Background(), command(allowedUser, "/list"))

	assert.Contains(t, api.last(t), "• onion (3 onions)")
}

func TestHandleMessage_Import(t *testing.T) {
	bot, api, svc := newBot(t)
	bot.HandleMessage(context.Background(), command(allowedUser, "https://example.com/stew"))

	assert.Contains(t, api.last(t), "✅ *Recipe Saved!*")
	assert.Contains(t, api.last(t), "*Serves:* 2")
	require.Len(t, svc.Snapshot().Favorites, 1)
}

func TestHandleMessage_Metrics(t *testing.T) {
	t.Run("AdminOnly", func(t *testing.T) {
		bot, api, _ := newBot(t)
		bot.HandleMessage(context.Background(), command(allowedUser, "/metrics"))
		assert.Contains(t, api.last(t), "Access Denied")
	})

	t.Run("NoStore", func(t *testing.T) {
		bot, api, _ := newBot(t)
		bot.HandleMessage(context.Background(), command(adminUser, "/metrics"))
		assert.Contains(t, api.last(t), "not recorded")
	})

	t.Run("Report", func(t *testing.T) {
		db, err := database.NewDB(filepath.Join(t.TempDir(), "m.db"), zap.NewNop())
		require.NoError(t, err)
		defer db.Close()
		store := metrics.NewStore(db.SQL, zap.NewNop())

		bot, api, _ := newBot(t, WithMetricsStore(store), WithDataDir(t.TempDir()))
		bot.HandleMessage(context.Background(), command(adminUser, "/metrics"))
		assert.Contains(t, api.last(t), "📊 *Usage & Health Report*")
		assert.Contains(t, api.last(t), "_No data yet_")
	})
}

func TestHandleMessage_Help(t *testing.T) {
	bot, api, _ := newBot(t)
	bot.HandleMessage(context.Background(), command(allowedUser, "hello"))
	assert.Contains(t, api.last(t), "/plan")

	bot.HandleMessage(context.Background(), command(allowedUser, "/dance"))
	assert.Contains(t, api.last(t), "/plan")
}

func TestWebhook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bot, api, _ := newBot(t)
	router := gin.New()
	router.POST("/webhook", bot.Webhook)

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		bot.Wait()
		return w.Code
	}

	update := func(userID int64) string {
		return fmt.Sprintf(`{"update_id":1,"message":{"message_id":1,"from":{"id":%d},"chat":{"id":%d},`+
			`"text":"/week","entities":[{"type":"bot_command","offset":0,"length":5}]}}`, userID, chatID)
	}

	assert.Equal(t, http.StatusOK, post(update(777)))
	assert.Empty(t, api.texts(), "unknown users are ignored")

	assert.Equal(t, http.StatusOK, post(update(allowedUser)))
	assert.Contains(t, api.last(t), "📅 *Weekly Meal Plan*")

	assert.Equal(t, http.StatusBadRequest, post("{not json"))
}
