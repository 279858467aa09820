package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/media"
	"github.com/jackzampolin/perceive/internal/perceive"
	"github.com/jackzampolin/perceive/internal/providers"
	"github.com/jackzampolin/perceive/internal/svcctx"
)

// maxBodyBytes bounds request bodies; inline video can be large.
const maxBodyBytes = 64 << 20

// AnalyzeBody is the request body for POST /api/analyze.
type AnalyzeBody struct {
	Provider string `json:"provider,omitempty"`
	perceive.AnalyzeRequest
}

// CaptionBody is the request body for POST /api/caption.
type CaptionBody struct {
	Provider string `json:"provider,omitempty"`
	perceive.CaptionRequest
}

// DetectBody is the request body for POST /api/detect.
type DetectBody struct {
	Provider string `json:"provider,omitempty"`
	perceive.DetectRequest
}

// OCRBody is the request body for POST /api/ocr.
type OCRBody struct {
	Provider string `json:"provider,omitempty"`
	perceive.OCRRequest
}

// decodeBody reads a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// serviceFor resolves the named provider (or the default) into a
// perceive.Service, writing an error response when that fails.
func serviceFor(w http.ResponseWriter, r *http.Request, provider string) (*perceive.Service, bool) {
	ctx := r.Context()
	registry := svcctx.RegistryFrom(ctx)
	if registry == nil {
		writeError(w, http.StatusServiceUnavailable, "provider registry not initialized")
		return nil, false
	}

	name, client, err := registry.Resolve(provider)
	if err != nil {
		if provider != "" {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusServiceUnavailable, err.Error())
		}
		return nil, false
	}

	svc, err := perceive.New(perceive.Config{
		Client:    client,
		Extractor: svcctx.ExtractorFrom(ctx),
		Metrics:   svcctx.MetricsFrom(ctx),
		Logger:    svcctx.LoggerFrom(ctx).With("provider", name),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return svc, true
}

// writeVisionError maps a perceive.Service error to an HTTP status.
func writeVisionError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, perceive.ErrEmptyMedia),
		errors.Is(err, perceive.ErrEmptyMessage),
		errors.Is(err, media.ErrInvalidMedia),
		errors.Is(err, media.ErrUnknownFormat),
		errors.Is(err, media.ErrUnsupportedMedia):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if apiErr, ok := providers.AsAPIError(err); ok && apiErr.StatusCode == http.StatusTooManyRequests {
		status = http.StatusTooManyRequests
	}

	if status != http.StatusBadRequest {
		svcctx.LoggerFrom(r.Context()).Warn("vision request failed", "op", op, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

// AnalyzeEndpoint handles POST /api/analyze.
type AnalyzeEndpoint struct{}

func (e *AnalyzeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/analyze", e.handler
}

func (e *AnalyzeEndpoint) RequiresProvider() bool { return true }

// handler godoc
//
//	@Summary		Analyze media
//	@Description	Ask a free-form question about an image or video
//	@Tags			vision
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AnalyzeBody	true	"Question, media and options"
//	@Success		200		{object}	perceive.PointingResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/analyze [post]
func (e *AnalyzeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeBody
	if !decodeBody(w, r, &req) {
		return
	}
	svc, ok := serviceFor(w, r, req.Provider)
	if !ok {
		return
	}

	resp, err := svc.Analyze(r.Context(), req.AnalyzeRequest)
	if err != nil {
		writeVisionError(w, r, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *AnalyzeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		mf       MediaFlags
		pf       ParamFlags
		message  string
		kind     string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask a question about an image or video",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.Media()
			if err != nil {
				return err
			}
			k, err := ParseKindFlag(kind)
			if err != nil {
				return err
			}
			body := AnalyzeBody{
				Provider: provider,
				AnalyzeRequest: perceive.AnalyzeRequest{
					Message:          message,
					Media:            m,
					Output:           k,
					GenerationParams: pf.Params(),
				},
			}

			client := api.NewClient(getServerURL())
			var resp perceive.PointingResponse
			if err := client.Post(cmd.Context(), "/api/analyze", body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	mf.Bind(cmd)
	pf.Bind(cmd)
	cmd.Flags().StringVarP(&message, "message", "m", "", "Question or instruction (required)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Output kind: text, point, box or polygon (default text)")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider name (default: configured default)")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

// CaptionEndpoint handles POST /api/caption.
type CaptionEndpoint struct{}

func (e *CaptionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/caption", e.handler
}

func (e *CaptionEndpoint) RequiresProvider() bool { return true }

// handler godoc
//
//	@Summary		Caption media
//	@Description	Describe an image or video, grounding mentioned objects
//	@Tags			vision
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CaptionBody	true	"Media and caption style"
//	@Success		200		{object}	perceive.PointingResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/caption [post]
func (e *CaptionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CaptionBody
	if !decodeBody(w, r, &req) {
		return
	}
	style, err := perceive.ParseCaptionStyle(string(req.Style))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Style = style

	svc, ok := serviceFor(w, r, req.Provider)
	if !ok {
		return
	}

	resp, err := svc.Caption(r.Context(), req.CaptionRequest)
	if err != nil {
		writeVisionError(w, r, "caption", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *CaptionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		mf       MediaFlags
		pf       ParamFlags
		style    string
		kind     string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "caption",
		Short: "Caption an image or video",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.Media()
			if err != nil {
				return err
			}
			s, err := perceive.ParseCaptionStyle(style)
			if err != nil {
				return err
			}
			k, err := ParseKindFlag(kind)
			if err != nil {
				return err
			}
			body := CaptionBody{
				Provider: provider,
				CaptionRequest: perceive.CaptionRequest{
					Media:            m,
					Style:            s,
					Output:           k,
					GenerationParams: pf.Params(),
				},
			}

			client := api.NewClient(getServerURL())
			var resp perceive.PointingResponse
			if err := client.Post(cmd.Context(), "/api/caption", body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	mf.Bind(cmd)
	pf.Bind(cmd)
	cmd.Flags().StringVar(&style, "style", "concise", "Caption style: concise or detailed")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Output kind: text, point, box or polygon (default box)")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider name (default: configured default)")
	return cmd
}

// DetectEndpoint handles POST /api/detect.
type DetectEndpoint struct{}

func (e *DetectEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/detect", e.handler
}

func (e *DetectEndpoint) RequiresProvider() bool { return true }

// handler godoc
//
//	@Summary		Detect objects
//	@Description	Bounding boxes for objects in an image or video, optionally limited to classes
//	@Tags			vision
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DetectBody	true	"Media and optional classes"
//	@Success		200		{object}	perceive.PointingResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/detect [post]
func (e *DetectEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req DetectBody
	if !decodeBody(w, r, &req) {
		return
	}
	svc, ok := serviceFor(w, r, req.Provider)
	if !ok {
		return
	}

	resp, err := svc.Detect(r.Context(), req.DetectRequest)
	if err != nil {
		writeVisionError(w, r, "detect", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *DetectEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		mf       MediaFlags
		pf       ParamFlags
		classes  []string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect objects in an image or video",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.Media()
			if err != nil {
				return err
			}
			body := DetectBody{
				Provider: provider,
				DetectRequest: perceive.DetectRequest{
					Media:            m,
					Classes:          classes,
					GenerationParams: pf.Params(),
				},
			}

			client := api.NewClient(getServerURL())
			var resp perceive.PointingResponse
			if err := client.Post(cmd.Context(), "/api/detect", body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	mf.Bind(cmd)
	pf.Bind(cmd)
	cmd.Flags().StringSliceVarP(&classes, "classes", "c", nil, "Object classes to look for (comma separated)")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider name (default: configured default)")
	return cmd
}

// OCREndpoint handles POST /api/ocr.
type OCREndpoint struct{}

func (e *OCREndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ocr", e.handler
}

func (e *OCREndpoint) RequiresProvider() bool { return true }

// handler godoc
//
//	@Summary		Transcribe text
//	@Description	OCR an image or video as plain text, markdown or HTML
//	@Tags			vision
//	@Accept			json
//	@Produce		json
//	@Param			request	body		OCRBody	true	"Media and output mode"
//	@Success		200		{object}	perceive.TextResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/ocr [post]
func (e *OCREndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req OCRBody
	if !decodeBody(w, r, &req) {
		return
	}
	mode, err := perceive.ParseOCRMode(string(req.Mode))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Mode = mode

	svc, ok := serviceFor(w, r, req.Provider)
	if !ok {
		return
	}

	resp, err := svc.OCR(r.Context(), req.OCRRequest)
	if err != nil {
		writeVisionError(w, r, "ocr", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *OCREndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		mf       MediaFlags
		pf       ParamFlags
		mode     string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "ocr",
		Short: "Transcribe the text in an image or video",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.Media()
			if err != nil {
				return err
			}
			md, err := perceive.ParseOCRMode(mode)
			if err != nil {
				return err
			}
			body := OCRBody{
				Provider: provider,
				OCRRequest: perceive.OCRRequest{
					Media:            m,
					Mode:             md,
					GenerationParams: pf.Params(),
				},
			}

			client := api.NewClient(getServerURL())
			var resp perceive.TextResponse
			if err := client.Post(cmd.Context(), "/api/ocr", body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	mf.Bind(cmd)
	pf.Bind(cmd)
	cmd.Flags().StringVar(&mode, "mode", "plain", "Output mode: plain, markdown or html")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider name (default: configured default)")
	return cmd
}
