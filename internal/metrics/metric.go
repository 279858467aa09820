// Package metrics records token usage, latency and outcome for every vision
// call and aggregates them for the status API.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackzampolin/perceive/internal/providers"
)

// Metric is a single recorded vision call.
type Metric struct {
	ID        string `json:"id" yaml:"id"`
	RequestID string `json:"request_id,omitempty" yaml:"request_id,omitempty"`

	// Op is the service operation: analyze, caption, detect or ocr.
	Op       string `json:"op" yaml:"op"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`

	PromptTokens     int `json:"prompt_tokens,omitempty" yaml:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty" yaml:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty" yaml:"total_tokens,omitempty"`

	ExecutionSeconds float64 `json:"execution_seconds" yaml:"execution_seconds"`
	Attempts         int     `json:"attempts,omitempty" yaml:"attempts,omitempty"`

	Success   bool   `json:"success" yaml:"success"`
	ErrorType string `json:"error_type,omitempty" yaml:"error_type,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// FromChatResult builds a successful metric from a completed call.
func FromChatResult(op string, result *providers.ChatResult) Metric {
	return Metric{
		RequestID:        result.RequestID,
		Op:               op,
		Provider:         result.Provider,
		Model:            result.ModelUsed,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
		ExecutionSeconds: result.ExecutionTime.Seconds(),
		Attempts:         result.Attempts,
		Success:          true,
	}
}

// FromError builds a failed metric. elapsed is the wall time spent before
// the call gave up.
func FromError(op, provider string, elapsed time.Duration, err error) Metric {
	return Metric{
		Op:               op,
		Provider:         provider,
		ExecutionSeconds: elapsed.Seconds(),
		Success:          false,
		ErrorType:        ErrorType(err),
	}
}

// ErrorType classifies an error into a short label for aggregation.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	if apiErr, ok := providers.AsAPIError(err); ok {
		return fmt.Sprintf("http_%d", apiErr.StatusCode)
	}
	return "error"
}
