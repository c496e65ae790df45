package llm

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/config"
)

// NewFromConfig builds the configured provider wrapped with rate limiting and,
// when rdb is non-nil and caching is enabled, the Redis response cache.
func NewFromConfig(ctx context.Context, cfg *config.Config, rdb redis.Cmdable, logger *zap.Logger) (Invoker, Closer, error) {
	var (
		base   Invoker
		closer Closer
	)

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, nil, err
		}
		base, closer = client, client
	case config.ProviderGroq:
		client := NewGroqClient(cfg.LLM.GroqAPIKey, cfg.LLM.GroqBaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
		base, closer = client, client
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	invoker := NewRateLimited(base, cfg.LLM.RequestsPerMinute)
	if cfg.Cache.Enabled && rdb != nil {
		invoker = NewCached(invoker, rdb, cfg.Cache.TTL, cfg.Cache.CachedTasks(), logger)
	}

	logger.Info("llm client ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("cache", cfg.Cache.Enabled && rdb != nil),
		zap.Int("requests_per_minute", cfg.LLM.RequestsPerMinute),
	)
	return invoker, closer, nil
}
