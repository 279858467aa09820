package providers

import (
	"context"
	"errors"
	"time"

	"github.com/jackzampolin/perceive/internal/media"
)

// ErrNoClient is returned when a requested vision client is not registered.
var ErrNoClient = errors.New("no vision client configured")

// VisionClient sends chat completion requests to a vision-language model.
type VisionClient interface {
	// Name returns the client identifier (e.g., "perceptron").
	Name() string

	// Complete sends a chat completion request and returns the first choice.
	Complete(ctx context.Context, req *ChatRequest) (*ChatResult, error)
}

// Role is the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// PartType identifies a content part in a user message.
type PartType string

const (
	PartText     PartType = "text"
	PartImageURL PartType = "image_url"
	PartVideoURL PartType = "video_url"
)

// ContentPart is one element of a multi-part user message.
type ContentPart struct {
	Type PartType
	Text string // PartText
	URL  string // PartImageURL, PartVideoURL
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// MediaPart creates an image_url or video_url part for the media.
func MediaPart(m media.Media) ContentPart {
	part := ContentPart{Type: PartImageURL, URL: m.RequestURL()}
	if m.MediaType() == media.Video {
		part.Type = PartVideoURL
	}
	return part
}

// Message is a chat message. System messages carry Text; user messages
// carry Parts.
type Message struct {
	Role  Role
	Text  string
	Parts []ContentPart
}

// SystemMessage creates a system message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// UserMessage creates a multi-part user message.
func UserMessage(parts ...ContentPart) Message {
	return Message{Role: RoleUser, Parts: parts}
}

// ChatRequest is a request to a vision model. Nil sampling fields are
// omitted from the wire request.
type ChatRequest struct {
	Messages []Message

	// Model selection (uses client default if empty)
	Model string

	MaxCompletionTokens *int
	Temperature         *float64
	TopP                *float64
	TopK                *int
	FrequencyPenalty    *float64
	PresencePenalty     *float64

	// Request tracking
	RequestID string
}

// HasVideo reports whether any message carries a video part.
func (r *ChatRequest) HasVideo() bool {
	for _, m := range r.Messages {
		for _, p := range m.Parts {
			if p.Type == PartVideoURL {
				return true
			}
		}
	}
	return false
}

// ChatResult is the first choice of a chat completion plus call metadata.
// Content and Reasoning are empty when the model returned none.
type ChatResult struct {
	Content   string `json:"content,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`
}
