// Package generation exposes the recipe, customization, shopping-list and
// categorization entry points. Every entry point is total: transport and
// parse failures are logged, recorded and turned into a safe default.
package generation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/llm"
	"github.com/bradenpan/whisk-ai-prototype/internal/metrics"
	"github.com/bradenpan/whisk-ai-prototype/internal/prompt"
	"github.com/bradenpan/whisk-ai-prototype/internal/recovery"
	"github.com/bradenpan/whisk-ai-prototype/internal/shared"
)

// Client issues model calls and normalizes their results.
type Client struct {
	invoker  llm.Invoker
	model    string
	logger   *zap.Logger
	recorder metrics.Recorder

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithRand sets the source used for recipe ids.
func WithRand(rng *rand.Rand) Option {
	return func(c *Client) { c.rng = rng }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// New creates a new Client.
func New(invoker llm.Invoker, opts ...Option) *Client {
	c := &Client{
		invoker:  invoker,
		logger:   zap.NewNop(),
		recorder: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.logger = c.logger.Named("generation")
	return c
}

// call invokes the model for a built prompt. The returned meta has its
// outcome set to transport_error on failure and ok otherwise.
func (c *Client) call(ctx context.Context, b prompt.Built) (llm.ContentResponse, shared.CallMeta, error) {
	start := time.Now()
	resp, err := c.invoker.Invoke(ctx, llm.RequestFromBuilt(b, c.model))
	meta := shared.CallMeta{
		Task:    b.Task,
		Usage:   resp.Usage,
		Latency: time.Since(start),
		Outcome: shared.OutcomeOK,
	}
	if err != nil {
		meta.Outcome = shared.OutcomeTransportError
	}
	return resp, meta, err
}

// finish records the call and logs anything other than a clean success.
func (c *Client) finish(meta shared.CallMeta, err error) {
	c.recorder.ObserveCall(meta)

	fields := []zap.Field{
		zap.String("task", meta.Task),
		zap.String("outcome", string(meta.Outcome)),
		zap.Duration("latency", meta.Latency),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
	}
	switch meta.Outcome {
	case shared.OutcomeOK:
		c.logger.Debug("model call succeeded", fields...)
	case shared.OutcomePartial:
		c.logger.Info("recovered truncated response", append(fields, zap.Int("dropped", meta.Dropped))...)
	default:
		c.logger.Warn("model call failed", append(fields, zap.Error(err))...)
	}
}

// classify maps a recovery error onto the call outcome.
func classify(meta *shared.CallMeta, res recovery.Result, err error) {
	switch {
	case err != nil:
		meta.Outcome = shared.OutcomeMalformed
	case res.Partial:
		meta.Outcome = shared.OutcomePartial
		meta.Dropped = res.Dropped
	}
}

// newID draws a UUIDv4 from the client's random source.
func (c *Client) newID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := uuid.NewRandomFromReader(c.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
