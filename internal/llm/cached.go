package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "whisk:llm:"

// Cached wraps an Invoker to store successful responses in Redis. Only the
// listed tasks are cached so that recipe generation stays varied.
type Cached struct {
	next   Invoker
	rdb    redis.Cmdable
	ttl    time.Duration
	tasks  map[string]bool
	logger *zap.Logger
}

type cachedEntry struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
}

// NewCached creates a new Cached invoker.
func NewCached(next Invoker, rdb redis.Cmdable, ttl time.Duration, tasks []string, logger *zap.Logger) *Cached {
	allowed := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		allowed[t] = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, tasks: allowed, logger: logger.Named("llm_cache")}
}

// Invoke checks the cache first. Cache failures are logged and bypassed.
func (c *Cached) Invoke(ctx context.Context, req Request) (ContentResponse, error) {
	if !c.tasks[req.Task] {
		return c.next.Invoke(ctx, req)
	}

	key := CacheKey(req)
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cachedEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			c.logger.Debug("cache hit", zap.String("task", req.Task))
			resp := ContentResponse{Content: entry.Content}
			resp.Usage.Model = entry.Model
			resp.Usage.PromptTokens = entry.PromptTokens
			resp.Usage.CompletionTokens = entry.CompletionTokens
			resp.Usage.TotalTokens = entry.TotalTokens
			return resp, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
		c.logger.Debug("cache miss", zap.String("task", req.Task))
	default:
		c.logger.Warn("cache read failed", zap.Error(err))
	}

	resp, err := c.next.Invoke(ctx, req)
	if err != nil {
		return resp, err
	}

	payload, err := json.Marshal(cachedEntry{
		Content:          resp.Content,
		Model:            resp.Usage.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	})
	if err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// CacheKey derives the cache key from every field that affects the output.
func CacheKey(req Request) string {
	h := sha256.New()
	for _, part := range []string{req.Task, req.Model, req.SystemInstruction, req.Prompt, req.ResponseMIMEType} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if req.Schema != nil {
		h.Write([]byte(req.Schema.JSON()))
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
