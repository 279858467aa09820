// Package perceive builds vision requests (analyze, caption, OCR, detect),
// sends them through a providers.VisionClient and extracts spatial
// annotations from the answers.
package perceive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/perceive/internal/media"
	"github.com/jackzampolin/perceive/internal/metrics"
	"github.com/jackzampolin/perceive/internal/pointing"
	"github.com/jackzampolin/perceive/internal/providers"
)

var (
	// ErrEmptyMedia is returned when a request carries no image or video.
	ErrEmptyMedia = errors.New("media is required")
	// ErrEmptyMessage is returned when an analyze request has no prompt.
	ErrEmptyMessage = errors.New("message is required")
)

// Config configures a Service.
type Config struct {
	Client    providers.VisionClient
	Extractor *pointing.Extractor // optional; a shared default is used when nil
	Metrics   *metrics.Recorder   // optional; calls are not recorded when nil
	Logger    *slog.Logger
}

// Service runs vision requests against a single client.
type Service struct {
	client    providers.VisionClient
	extractor *pointing.Extractor
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Client == nil {
		return nil, providers.ErrNoClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		client:    cfg.Client,
		extractor: cfg.Extractor,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}, nil
}

// Client returns the underlying vision client.
func (s *Service) Client() providers.VisionClient {
	return s.client
}

// request describes one chat completion before it is put on the wire.
type request struct {
	media    media.Media
	system   []string
	userText string
	params   GenerationParams
}

// build orders messages as: system prompts, then a single user message
// holding the media followed by the optional user text.
func (r request) build() *providers.ChatRequest {
	messages := make([]providers.Message, 0, len(r.system)+1)
	for _, s := range r.system {
		if s != "" {
			messages = append(messages, providers.SystemMessage(s))
		}
	}

	parts := []providers.ContentPart{providers.MediaPart(r.media)}
	if r.userText != "" {
		parts = append(parts, providers.TextPart(r.userText))
	}
	messages = append(messages, providers.UserMessage(parts...))

	return &providers.ChatRequest{
		Messages:            messages,
		Model:               r.params.Model,
		MaxCompletionTokens: r.params.MaxCompletionTokens,
		Temperature:         r.params.Temperature,
		TopP:                r.params.TopP,
		TopK:                r.params.TopK,
		FrequencyPenalty:    r.params.FrequencyPenalty,
		PresencePenalty:     r.params.PresencePenalty,
	}
}

func validateMedia(m media.Media) error {
	if m.IsZero() {
		return ErrEmptyMedia
	}
	return m.Validate()
}

// Analyze sends a free-form prompt about the media.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*PointingResponse, error) {
	if err := validateMedia(req.Media); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	kind := kindOr(req.Output, pointing.KindText)
	return s.sendAndExtract(ctx, "analyze", request{
		media:    req.Media,
		system:   []string{SystemHint(kind, req.reasoning())},
		userText: req.Message,
		params:   req.GenerationParams,
	}, kind)
}

// Caption asks for a caption of the media.
func (s *Service) Caption(ctx context.Context, req CaptionRequest) (*PointingResponse, error) {
	if err := validateMedia(req.Media); err != nil {
		return nil, err
	}

	kind := kindOr(req.Output, pointing.KindBox)
	return s.sendAndExtract(ctx, "caption", request{
		media:    req.Media,
		system:   []string{SystemHint(kind, req.reasoning())},
		userText: captionPrompt(req.Style),
		params:   req.GenerationParams,
	}, kind)
}

// Detect asks for bounding boxes around objects in the media.
func (s *Service) Detect(ctx context.Context, req DetectRequest) (*PointingResponse, error) {
	if err := validateMedia(req.Media); err != nil {
		return nil, err
	}

	return s.sendAndExtract(ctx, "detect", request{
		media:  req.Media,
		system: []string{SystemHint(pointing.KindBox, req.reasoning()), detectPrompt(req.Classes)},
		params: req.GenerationParams,
	}, pointing.KindBox)
}

// OCR transcribes the text in the media.
func (s *Service) OCR(ctx context.Context, req OCRRequest) (*TextResponse, error) {
	if err := validateMedia(req.Media); err != nil {
		return nil, err
	}

	result, err := s.send(ctx, "ocr", request{
		media:    req.Media,
		system:   []string{SystemHint(pointing.KindText, req.reasoning()), ocrSystemPrompt},
		userText: ocrPrompt(req.Mode),
		params:   req.GenerationParams,
	})
	if err != nil {
		return nil, err
	}
	return &TextResponse{
		Content:   result.Content,
		Reasoning: result.Reasoning,
		RequestID: result.RequestID,
		Provider:  result.Provider,
		Model:     result.ModelUsed,
	}, nil
}

func (s *Service) send(ctx context.Context, op string, r request) (*providers.ChatResult, error) {
	start := time.Now()
	result, err := s.client.Complete(ctx, r.build())
	if err != nil {
		s.metrics.Record(metrics.FromError(op, s.client.Name(), time.Since(start), err))
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	s.metrics.Record(metrics.FromChatResult(op, result))
	return result, nil
}

func (s *Service) sendAndExtract(ctx context.Context, op string, r request, kind pointing.OutputKind) (*PointingResponse, error) {
	result, err := s.send(ctx, op, r)
	if err != nil {
		return nil, err
	}

	resp := &PointingResponse{
		Content:   result.Content,
		Reasoning: result.Reasoning,
		RequestID: result.RequestID,
		Provider:  result.Provider,
		Model:     result.ModelUsed,
	}
	if result.Content != "" {
		resp.Pointing = s.extract(result.Content, kind)
	}

	s.logger.Debug("extracted pointing",
		"op", op, "request_id", result.RequestID, "kind", kind, "items", resp.Pointing.Len())
	return resp, nil
}

func (s *Service) extract(text string, kind pointing.OutputKind) *pointing.Pointing {
	if s.extractor != nil {
		return s.extractor.Extract(text, kind)
	}
	return pointing.Extract(text, kind)
}
