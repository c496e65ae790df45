package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bradenpan/whisk-ai-prototype/internal/prompt"
	"github.com/bradenpan/whisk-ai-prototype/internal/shared"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
)

// GroqClient is a client for the Groq chat completions API.
type GroqClient struct {
	client       *resty.Client
	defaultModel string
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqRequest struct {
	Model          string            `json:"model"`
	Messages       []groqMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewGroqClient creates a new Groq API client.
func NewGroqClient(apiKey, baseURL, model string, timeout time.Duration) *GroqClient {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	if model == "" {
		model = DefaultGroqModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")

	return &GroqClient{client: client, defaultModel: model}
}

// Invoke sends the request to Groq and returns the first choice.
func (c *GroqClient) Invoke(ctx context.Context, req Request) (ContentResponse, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	body := groqRequest{Model: model, Temperature: 0.1}

	system := req.SystemInstruction
	if req.Schema != nil && req.ResponseMIMEType == prompt.MIMEJSON {
		if system != "" {
			system += "\n\n"
		}
		system += "Respond with JSON matching this schema: " + req.Schema.JSON()
		// json_object mode only accepts a top-level object.
		if req.Schema.Type == prompt.TypeObject {
			body.ResponseFormat = map[string]string{"type": "json_object"}
		}
	}
	if system != "" {
		body.Messages = append(body.Messages, groqMessage{Role: "system", Content: system})
	}
	body.Messages = append(body.Messages, groqMessage{Role: "user", Content: req.Prompt})

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.IsError() {
		return ContentResponse{}, fmt.Errorf("groq api error: status=%d body=%s", resp.StatusCode(), resp.String())
	}

	var groqResp groqResponse
	if err := json.Unmarshal(resp.Body(), &groqResp); err != nil {
		return ContentResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(groqResp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	return ContentResponse{
		Content: groqResp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     groqResp.Usage.PromptTokens,
			CompletionTokens: groqResp.Usage.CompletionTokens,
			TotalTokens:      groqResp.Usage.TotalTokens,
			Model:            model,
		},
	}, nil
}

// Close is a no-op; resty holds no resources that need releasing.
func (c *GroqClient) Close() error { return nil }
