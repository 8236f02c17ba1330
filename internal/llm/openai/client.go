package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"fixme-backend/internal/llm"
	"fixme-backend/internal/shared/telemetry"
)

// Options configures the OpenAI client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	MaxTokens   int
	Temperature float32
	HTTPClient  *http.Client
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api         *goopenai.Client
	configured  bool
	model       string
	visionModel string
	maxTokens   int
	temperature float32
}

// NewClient constructs a new OpenAI client. A missing API key is not an
// error here: every Diagnose call then fails with llm.ErrNotConfigured.
func NewClient(opts Options) *Client {
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o"
	}
	visionModel := strings.TrimSpace(opts.VisionModel)
	if visionModel == "" {
		visionModel = model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	temperature := opts.Temperature
	if temperature == 0 {
		// go-openai omits a zero temperature, which the API reads as 1.
		temperature = math.SmallestNonzeroFloat32
	}
	return &Client{
		api:         goopenai.NewClientWithConfig(cfg),
		configured:  strings.TrimSpace(opts.APIKey) != "",
		model:       model,
		visionModel: visionModel,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Diagnose sends one chat completion and returns the first choice's text.
func (c *Client) Diagnose(ctx context.Context, input llm.DiagnoseInput) (string, error) {
	if !c.configured {
		return "", &llm.RemoteError{
			Category: llm.CategoryAuthFailed,
			Message:  llm.ErrNotConfigured.Error(),
			Err:      llm.ErrNotConfigured,
		}
	}

	req := c.buildRequest(input)
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	latency := time.Since(start)
	if err != nil {
		remote := classify(err)
		telemetry.Warn("llm.request.failed", map[string]any{
			"model":       req.Model,
			"category":    string(remote.Category),
			"status_code": remote.StatusCode,
			"duration_ms": latency.Milliseconds(),
			"error":       remote.Message,
		})
		return "", remote
	}

	telemetry.Info("llm.response", map[string]any{
		"model":             resp.Model,
		"prompt_hash":       llm.PromptHash(input.Prompt),
		"images":            len(input.Images),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
		"duration_ms":       latency.Milliseconds(),
	})

	if len(resp.Choices) == 0 {
		return "", &llm.RemoteError{Category: llm.CategoryOther, Message: "openai response missing choices"}
	}
	// Empty content is still a reply; the normalizer substitutes the fallback.
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) buildRequest(input llm.DiagnoseInput) goopenai.ChatCompletionRequest {
	system := goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleSystem,
		Content: llm.SystemPrompt(),
	}
	req := goopenai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if len(input.Images) == 0 {
		req.Messages = []goopenai.ChatCompletionMessage{
			system,
			{Role: goopenai.ChatMessageRoleUser, Content: input.Prompt},
		}
		return req
	}

	parts := make([]goopenai.ChatMessagePart, 0, len(input.Images)+1)
	parts = append(parts, goopenai.ChatMessagePart{
		Type: goopenai.ChatMessagePartTypeText,
		Text: input.Prompt,
	})
	for _, img := range input.Images {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL: DataURL(img.MimeType, img.Content),
			},
		})
	}
	req.Model = c.visionModel
	req.Messages = []goopenai.ChatCompletionMessage{
		system,
		{Role: goopenai.ChatMessageRoleUser, MultiContent: parts},
	}
	return req
}

// DataURL encodes content as a data: URI with the given MIME type.
func DataURL(mimeType string, content []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(content))
}

func classify(err error) *llm.RemoteError {
	remote := &llm.RemoteError{Category: llm.CategoryOther, Message: err.Error(), Err: err}

	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		remote.StatusCode = apiErr.HTTPStatusCode
		remote.Category = categoryFor(apiErr.HTTPStatusCode, apiErrorCode(apiErr))
		if apiErr.Message != "" {
			remote.Message = apiErr.Message
		}
	case errors.As(err, &reqErr):
		remote.StatusCode = reqErr.HTTPStatusCode
		remote.Category = categoryFor(reqErr.HTTPStatusCode, "")
	case errors.Is(err, context.DeadlineExceeded):
		remote.Message = "openai request timeout"
	}
	return remote
}

func categoryFor(status int, code string) llm.Category {
	switch code {
	case "rate_limit_exceeded", "insufficient_quota":
		return llm.CategoryRateLimited
	case "invalid_api_key":
		return llm.CategoryAuthFailed
	}
	switch status {
	case http.StatusTooManyRequests:
		return llm.CategoryRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.CategoryAuthFailed
	}
	return llm.CategoryOther
}

func apiErrorCode(e *goopenai.APIError) string {
	switch code := e.Code.(type) {
	case string:
		return code
	case nil:
		return ""
	default:
		return fmt.Sprint(code)
	}
}

var _ llm.Client = (*Client)(nil)
