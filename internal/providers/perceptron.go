package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	PerceptronName         = "perceptron"
	PerceptronBaseURL      = "https://api.perceptron.inc"
	PerceptronDefaultModel = "isaac-0.1"

	chatCompletionsPath = "/v1/chat/completions"
)

// PerceptronConfig holds configuration for the Perceptron client.
type PerceptronConfig struct {
	APIKey       string // optional for self-hosted endpoints
	BaseURL      string
	DefaultModel string
	Headers      map[string]string // sent on every request
	Timeout      time.Duration
	// Rate limiting
	RPS        float64       // Requests per second (default: 10)
	MaxRetries int           // Retries after the first attempt (default: 3, negative disables)
	RetryDelay time.Duration // Base delay between retries (default: 1s)
	HTTPClient *http.Client  // Optional (tests)
	Logger     *slog.Logger
}

// PerceptronClient implements VisionClient against the Perceptron chat
// completions API.
type PerceptronClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	headers      map[string]string
	client       *http.Client
	limiter      *RateLimiter
	maxRetries   int
	retryDelay   time.Duration
	logger       *slog.Logger
}

// NewPerceptronClient creates a new Perceptron client.
func NewPerceptronClient(cfg PerceptronConfig) *PerceptronClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = PerceptronBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = PerceptronDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RPS == 0 {
		cfg.RPS = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	} else if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &PerceptronClient{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		defaultModel: cfg.DefaultModel,
		headers:      headers,
		client:       cfg.HTTPClient,
		limiter:      NewRateLimiter(cfg.RPS),
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		logger:       cfg.Logger,
	}
}

// Name returns the client identifier.
func (c *PerceptronClient) Name() string {
	return PerceptronName
}

// Model returns the configured default model.
func (c *PerceptronClient) Model() string {
	return c.defaultModel
}

// RateLimiter exposes the client's limiter for status reporting.
func (c *PerceptronClient) RateLimiter() *RateLimiter {
	return c.limiter
}

// Complete sends a chat completion request.
func (c *PerceptronClient) Complete(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	body, err := json.Marshal(toPerceptronRequest(req, model))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var (
		resp     *perceptronResponse
		attempts int
	)
	err = retry.Do(
		func() error {
			attempts++
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			r, err := c.post(ctx, requestID, body)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(c.retryAfterDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying chat completion",
				"provider", PerceptronName, "request_id", requestID, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	result := &ChatResult{
		Provider:         PerceptronName,
		ModelUsed:        resp.Model,
		RequestID:        requestID,
		Attempts:         attempts,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		ExecutionTime:    time.Since(start),
	}
	if result.ModelUsed == "" {
		result.ModelUsed = model
	}
	if len(resp.Choices) > 0 {
		msg := resp.Choices[0].Message
		if msg.Content != nil {
			result.Content = *msg.Content
		}
		if msg.ReasoningContent != nil {
			result.Reasoning = *msg.ReasoningContent
		}
	}
	return result, nil
}

// post performs a single request and decodes the response.
func (c *PerceptronClient) post(ctx context.Context, requestID string, body []byte) (*perceptronResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.decodeError(resp, respBody)
	}

	var out perceptronResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to parse response: %w", err))
	}
	return &out, nil
}

func (c *PerceptronClient) decodeError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   PerceptronName,
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		apiErr.Detail = *parsed.Error
	} else {
		apiErr.Detail = APIErrorDetail{
			Message: "Failed to parse error response body: " + string(body),
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.Record429(apiErr.RetryAfter)
	}
	return apiErr
}

// retryAfterDelay honors a server-provided Retry-After and otherwise backs
// off exponentially.
func (c *PerceptronClient) retryAfterDelay(n uint, err error, config *retry.Config) time.Duration {
	if apiErr, ok := AsAPIError(err); ok && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Retryable()
	}
	// Network and read failures
	return true
}

var _ VisionClient = (*PerceptronClient)(nil)
