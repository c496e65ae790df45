// Package telegram serves the meal planner to allow-listed Telegram users.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/app"
	"github.com/bradenpan/whisk-ai-prototype/internal/config"
	"github.com/bradenpan/whisk-ai-prototype/internal/metrics"
	"github.com/bradenpan/whisk-ai-prototype/internal/planner"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Bot wraps the Telegram API and the application service.
type Bot struct {
	api          API
	svc          *app.Service
	metricsStore *metrics.Store
	allowed      map[int64]bool
	adminID      int64
	dataDir      string
	logger       *zap.Logger

	wg sync.WaitGroup
}

type Option func(*Bot)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithMetricsStore enables the /metrics command.
func WithMetricsStore(s *metrics.Store) Option {
	return func(b *Bot) { b.metricsStore = s }
}

// WithDataDir sets the directory reported as disk usage.
func WithDataDir(dir string) Option {
	return func(b *Bot) { b.dataDir = dir }
}

// NewBotAPI authorizes the token and points Telegram at the webhook URL.
func NewBotAPI(cfg config.TelegramConfig, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram authorized", zap.String("account", api.Self.UserName))

	if cfg.WebhookURL == "" {
		return api, nil
	}
	wh, err := tgbotapi.NewWebhook(cfg.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.WebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.WebhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))
	return api, nil
}

// NewBot creates a bot serving svc to the users allowed by cfg.
func NewBot(api API, svc *app.Service, cfg config.TelegramConfig, opts ...Option) *Bot {
	b := &Bot{
		api:     api,
		svc:     svc,
		allowed: make(map[int64]bool),
		adminID: cfg.AdminUserID,
		logger:  zap.NewNop(),
	}
	for _, id := range cfg.AllowedIDs() {
		b.allowed[id] = true
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("telegram")
	return b
}

// Webhook parses an update and processes it in the background. Telegram
// only needs a 200 to stop redelivering.
func (b *Bot) Webhook(c *gin.Context) {
	update, err := b.api.HandleUpdate(c.Request)
	if err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.allowed[msg.From.ID] {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName),
		)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.HandleMessage(context.Background(), msg)
	}()
}

// Wait blocks until every in-flight message is handled.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleMessage routes one message to its command.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		b.handleImport(ctx, msg.Chat.ID, text)
		return
	case !msg.IsCommand():
		b.reply(msg.Chat.ID, helpText)
		return
	}

	switch msg.Command() {
	case "plan":
		b.handlePlan(ctx, msg.Chat.ID, msg.CommandArguments())
	case "list":
		b.handleList(ctx, msg.Chat.ID)
	case "week":
		b.reply(msg.Chat.ID, formatPlanMarkdown(b.svc.Snapshot().Plan))
	case "metrics":
		if msg.From == nil || msg.From.ID != b.adminID {
			b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetrics(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

const helpText = "👋 *Whisk*\n\n" +
	"/plan `[ingredients to use up]` - plan the whole week\n" +
	"/week - show the current plan\n" +
	"/list - build the shopping list\n" +
	"Send a recipe link to save it to your favorites."

func (b *Bot) handlePlan(ctx context.Context, chatID int64, useUp string) {
	status, ok := b.thinking(chatID, "🧑‍🍳 *Thinking...* \n(Planning your week)")
	if !ok {
		return
	}

	d := b.svc.Defaults()
	plan, err := b.svc.AutoPlanWeek(ctx, app.AutoPlanOptions{
		FavoriteCount: d.FavoriteCount,
		UseUp:         strings.TrimSpace(useUp),
		Servings:      d.Servings,
		Days:          planner.DaysOfWeek,
	})
	if err != nil {
		b.edit(chatID, status, errorText("Error generating plan", err))
		return
	}
	b.edit(chatID, status, formatPlanMarkdown(plan))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	status, ok := b.thinking(chatID, "🛒 *Building your shopping list...*")
	if !ok {
		return
	}
	items, err := b.svc.BuildShoppingList(ctx)
	if err != nil {
		b.edit(chatID, status, errorText("Error building shopping list", err))
		return
	}
	b.edit(chatID, status, formatShoppingListMarkdown(items))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, url string) {
	status, ok := b.thinking(chatID, "✂️ *Clipping recipe...* \n(Extracting and saving to your favorites)")
	if !ok {
		return
	}
	r, err := b.svc.ImportRecipe(ctx, url, 0)
	if err != nil {
		b.logger.Warn("error clipping recipe", zap.String("url", url), zap.Error(err))
		b.edit(chatID, status, errorText("Error clipping recipe", err))
		return
	}
	b.edit(chatID, status, fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Serves:* %d", escape(r.Title), r.Servings))
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64) {
	if b.metricsStore == nil {
		b.reply(chatID, "📊 Metrics are not recorded with this storage backend.")
		return
	}
	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Error("failed to fetch metrics", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetricsReport(usage, metrics.GetSysHealth(b.dataDir)))
}

// thinking sends the status message that is later edited with the result.
func (b *Bot) thinking(chatID int64, text string) (int, bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("failed to send initial reply", zap.Error(err))
		return 0, false
	}
	return sent.MessageID, true
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit reply", zap.Error(err))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send reply", zap.Error(err))
	}
}

func errorText(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr)
}
