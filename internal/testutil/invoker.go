package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bradenpan/whisk-ai-prototype/internal/llm"
	"github.com/bradenpan/whisk-ai-prototype/internal/shared"
)

// ErrNoScript is returned when no rule matches a request.
var ErrNoScript = errors.New("no scripted response")

// Rule answers requests whose prompt or system instruction contains Match.
type Rule struct {
	Match   string
	Content string
	Err     error
	// Once removes the rule after its first use.
	Once bool
}

// ScriptedInvoker is a mock model keyed on prompt contents. Rules are tried
// in order; the first match answers.
type ScriptedInvoker struct {
	mu       sync.Mutex
	rules    []Rule
	requests []llm.Request
}

func NewScriptedInvoker(rules ...Rule) *ScriptedInvoker {
	return &ScriptedInvoker{rules: rules}
}

// On appends a rule.
func (s *ScriptedInvoker) On(match, content string) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Rule{Match: match, Content: content})
	return s
}

// Fail appends a rule that returns err.
func (s *ScriptedInvoker) Fail(match string, err error) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Rule{Match: match, Err: err})
	return s
}

func (s *ScriptedInvoker) Invoke(ctx context.Context, req llm.Request) (llm.ContentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	for i, rule := range s.rules {
		if !strings.Contains(req.Prompt, rule.Match) && !strings.Contains(req.SystemInstruction, rule.Match) {
			continue
		}
		if rule.Once {
			s.rules = append(s.rules[:i:i], s.rules[i+1:]...)
		}
		if rule.Err != nil {
			return llm.ContentResponse{}, rule.Err
		}
		return llm.ContentResponse{
			Content: rule.Content,
			Usage:   shared.TokenUsage{PromptTokens: len(req.Prompt) / 4, CompletionTokens: len(rule.Content) / 4, Model: "scripted"},
		}, nil
	}
	return llm.ContentResponse{}, ErrNoScript
}

// Requests returns a copy of every request received so far.
func (s *ScriptedInvoker) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}

// Calls returns the number of requests received so far.
func (s *ScriptedInvoker) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
