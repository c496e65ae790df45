package llm

import (
	"context"

	"github.com/bradenpan/whisk-ai-prototype/internal/prompt"
	"github.com/bradenpan/whisk-ai-prototype/internal/shared"
)

// Request is a single model call.
type Request struct {
	// Task names the builder that produced the request; used for caching and metrics.
	Task              string
	Model             string
	Prompt            string
	SystemInstruction string
	ResponseMIMEType  string
	Schema            *prompt.Schema
}

// RequestFromBuilt copies a built prompt into a Request for model.
func RequestFromBuilt(b prompt.Built, model string) Request {
	return Request{
		Task:              b.Task,
		Model:             model,
		Prompt:            b.Prompt,
		SystemInstruction: b.SystemInstruction,
		ResponseMIMEType:  b.MIMEType,
		Schema:            b.Schema,
	}
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// Invoker sends one request to a model and returns its raw text.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, req Request) (ContentResponse, error)

func (f InvokerFunc) Invoke(ctx context.Context, req Request) (ContentResponse, error) {
	return f(ctx, req)
}
