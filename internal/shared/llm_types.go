package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Outcome classifies how a generation task ended.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomePartial        Outcome = "partial"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeMalformed      Outcome = "malformed"
)

// CallMeta holds operational metadata for one generation task.
type CallMeta struct {
	Task    string
	Usage   TokenUsage
	Latency time.Duration
	Outcome Outcome
	// Dropped is the number of trailing array elements lost to truncation.
	Dropped int
}

// Degraded reports whether the caller received a fallback result.
func (m CallMeta) Degraded() bool {
	return m.Outcome == OutcomeTransportError || m.Outcome == OutcomeMalformed
}
