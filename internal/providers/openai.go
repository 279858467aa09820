package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/perceive/internal/media"
)

const (
	OpenAIName         = "openai"
	OpenAIDefaultModel = "gpt-4o-mini"
)

// OpenAIConfig holds configuration for an OpenAI-compatible vision client.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string // Optional; OpenAI when empty
	DefaultModel string
	RPS          float64 // Requests per second (default: 8)
	MaxRetries   int     // Retry attempts for SDK transport (default: 3)
	Timeout      time.Duration
	HTTPClient   *http.Client // Optional (tests)
	Logger       *slog.Logger
}

// OpenAIClient implements VisionClient using the official OpenAI SDK. It
// works with any server speaking the OpenAI chat completions API.
type OpenAIClient struct {
	defaultModel string
	limiter      *RateLimiter
	client       openai.Client
	logger       *slog.Logger
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = OpenAIDefaultModel
	}
	if cfg.RPS <= 0 {
		// Default to ~500 RPM.
		cfg.RPS = 8.0
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	} else if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		defaultModel: cfg.DefaultModel,
		limiter:      NewRateLimiter(cfg.RPS),
		client:       openai.NewClient(opts...),
		logger:       cfg.Logger,
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.defaultModel
}

// RateLimiter exposes the client's limiter for status reporting.
func (c *OpenAIClient) RateLimiter() *RateLimiter {
	return c.limiter
}

// Complete sends a chat completion request. Video parts are rejected
// because the OpenAI message format has no video content type.
func (c *OpenAIClient) Complete(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	if req.HasVideo() {
		return nil, fmt.Errorf("%w: %s does not accept video input", media.ErrUnsupportedMedia, OpenAIName)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	attempts := 0
	params, opts := c.buildParams(req, model)
	opts = append(opts,
		option.WithHeader("X-Request-ID", requestID),
		option.WithMiddleware(c.observe(&attempts)),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	result := &ChatResult{
		Provider:         OpenAIName,
		ModelUsed:        resp.Model,
		RequestID:        requestID,
		Attempts:         attempts,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
		ExecutionTime:    time.Since(start),
	}
	if result.ModelUsed == "" {
		result.ModelUsed = model
	}
	if len(resp.Choices) > 0 {
		msg := resp.Choices[0].Message
		result.Content = msg.Content
		result.Reasoning = reasoningContent(msg.RawJSON())
	}

	c.logger.Debug("chat completion finished",
		"provider", OpenAIName, "request_id", requestID, "model", result.ModelUsed,
		"duration", result.ExecutionTime)
	return result, nil
}

// observe counts every HTTP attempt the SDK makes, retries included, and
// drains the limiter when the server answers 429.
func (c *OpenAIClient) observe(attempts *int) option.Middleware {
	return func(r *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		*attempts++
		resp, err := next(r)
		if err == nil && resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.Record429(parseRetryAfter(resp.Header.Get("Retry-After")))
		}
		return resp, err
	}
}

func (c *OpenAIClient) buildParams(req *ChatRequest, model string) (openai.ChatCompletionNewParams, []option.RequestOption) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
	}

	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			params.Messages = append(params.Messages, openai.SystemMessage(m.Text))
			continue
		}
		if len(m.Parts) == 0 {
			params.Messages = append(params.Messages, openai.UserMessage(m.Text))
			continue
		}
		parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Type {
			case PartText:
				parts = append(parts, openai.TextContentPart(p.Text))
			case PartImageURL:
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: p.URL,
				}))
			}
		}
		params.Messages = append(params.Messages, openai.UserMessage(parts))
	}

	if req.MaxCompletionTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxCompletionTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*req.FrequencyPenalty)
	}
	if req.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*req.PresencePenalty)
	}

	var opts []option.RequestOption
	if req.TopK != nil {
		// top_k is not part of the OpenAI schema; compatible servers accept it as an extra field.
		opts = append(opts, option.WithJSONSet("top_k", *req.TopK))
	}
	return params, opts
}

// reasoningContent pulls the non-standard reasoning_content field out of a
// raw response message.
func reasoningContent(raw string) string {
	if raw == "" {
		return ""
	}
	var msg struct {
		ReasoningContent string `json:"reasoning_content"`
	}
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return ""
	}
	return msg.ReasoningContent
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	out := &APIError{
		Provider:   OpenAIName,
		StatusCode: apiErr.StatusCode,
		Detail: APIErrorDetail{
			Message: apiErr.Message,
			Type:    apiErr.Type,
			Param:   apiErr.Param,
			Code:    apiErr.Code,
		},
	}
	if apiErr.Response != nil {
		out.RetryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
	}
	if out.Detail.Message == "" {
		out.Detail.Message = http.StatusText(apiErr.StatusCode)
	}
	return out
}

var _ VisionClient = (*OpenAIClient)(nil)
