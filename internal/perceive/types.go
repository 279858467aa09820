package perceive

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/perceive/internal/media"
	"github.com/jackzampolin/perceive/internal/pointing"
)

// GenerationParams are the sampling options shared by every request type.
// Nil fields are left to the provider's defaults.
type GenerationParams struct {
	Model               string   `json:"model,omitempty"`
	Reasoning           *bool    `json:"reasoning,omitempty"`
	Temperature         *float64 `json:"temperature,omitempty"`
	TopP                *float64 `json:"top_p,omitempty"`
	TopK                *int     `json:"top_k,omitempty"`
	FrequencyPenalty    *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty     *float64 `json:"presence_penalty,omitempty"`
	MaxCompletionTokens *int     `json:"max_completion_tokens,omitempty"`
}

func (p GenerationParams) reasoning() bool {
	return p.Reasoning != nil && *p.Reasoning
}

// CaptionStyle selects how long a caption should be.
type CaptionStyle string

const (
	CaptionConcise  CaptionStyle = "concise"
	CaptionDetailed CaptionStyle = "detailed"
)

// ParseCaptionStyle parses a style name. Empty means concise.
func ParseCaptionStyle(s string) (CaptionStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "concise":
		return CaptionConcise, nil
	case "detailed":
		return CaptionDetailed, nil
	}
	return "", fmt.Errorf("unknown caption style %q (want concise or detailed)", s)
}

// OCRMode selects the markup used for transcribed text.
type OCRMode string

const (
	OCRPlain    OCRMode = "plain"
	OCRMarkdown OCRMode = "markdown"
	OCRHTML     OCRMode = "html"
)

// ParseOCRMode parses a mode name. Empty means plain.
func ParseOCRMode(s string) (OCRMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain":
		return OCRPlain, nil
	case "markdown", "md":
		return OCRMarkdown, nil
	case "html":
		return OCRHTML, nil
	}
	return "", fmt.Errorf("unknown OCR mode %q (want plain, markdown or html)", s)
}

// AnalyzeRequest asks a free-form question about media.
type AnalyzeRequest struct {
	Message string      `json:"message"`
	Media   media.Media `json:"media"`
	// Output defaults to text.
	Output *pointing.OutputKind `json:"output,omitempty"`
	GenerationParams
}

// CaptionRequest asks for a caption, grounded with boxes by default.
type CaptionRequest struct {
	Media media.Media  `json:"media"`
	Style CaptionStyle `json:"style,omitempty"`
	// Output defaults to box.
	Output *pointing.OutputKind `json:"output,omitempty"`
	GenerationParams
}

// OCRRequest asks for a transcription of the text in media.
type OCRRequest struct {
	Media media.Media `json:"media"`
	Mode  OCRMode     `json:"mode,omitempty"`
	GenerationParams
}

// DetectRequest asks for bounding boxes around objects, optionally limited
// to the given classes.
type DetectRequest struct {
	Media   media.Media `json:"media"`
	Classes []string    `json:"classes,omitempty"`
	GenerationParams
}

// PointingResponse is a model answer with any annotations extracted from it.
// Pointing is nil when the output kind is text or nothing was found.
type PointingResponse struct {
	Content   string             `json:"content,omitempty" yaml:"content,omitempty"`
	Reasoning string             `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Pointing  *pointing.Pointing `json:"pointing,omitempty" yaml:"pointing,omitempty"`
	RequestID string             `json:"request_id" yaml:"request_id"`
	Provider  string             `json:"provider" yaml:"provider"`
	Model     string             `json:"model,omitempty" yaml:"model,omitempty"`
}

// TextResponse is a model answer without spatial extraction.
type TextResponse struct {
	Content   string `json:"content,omitempty" yaml:"content,omitempty"`
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	RequestID string `json:"request_id" yaml:"request_id"`
	Provider  string `json:"provider" yaml:"provider"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
}

func kindOr(k *pointing.OutputKind, fallback pointing.OutputKind) pointing.OutputKind {
	if k == nil {
		return fallback
	}
	return *k
}
