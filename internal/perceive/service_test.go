package perceive

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jackzampolin/perceive/internal/media"
	"github.com/jackzampolin/perceive/internal/metrics"
	"github.com/jackzampolin/perceive/internal/pointing"
	"github.com/jackzampolin/perceive/internal/providers"
)

func newTestService(t *testing.T, content string) (*Service, *providers.MockClient) {
	t.Helper()
	mock := providers.NewMockClient(content)
	svc, err := New(Config{Client: mock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc, mock
}

func kindPtr(k pointing.OutputKind) *pointing.OutputKind { return &k }

func boolPtr(b bool) *bool { return &b }

// systemTexts returns the text of every system message in order.
func systemTexts(req *providers.ChatRequest) []string {
	var out []string
	for _, m := range req.Messages {
		if m.Role == providers.RoleSystem {
			out = append(out, m.Text)
		}
	}
	return out
}

// userMessage returns the single user message, failing if it is not last.
func userMessage(t *testing.T, req *providers.ChatRequest) providers.Message {
	t.Helper()
	last := req.Messages[len(req.Messages)-1]
	if last.Role != providers.RoleUser {
		t.Fatalf("last message role = %s, want user", last.Role)
	}
	return last
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var testImage = media.ImageURL("https://example.com/cat.png")

func TestNew(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, providers.ErrNoClient) {
		t.Errorf("expected ErrNoClient, got %v", err)
	}
}

func TestSystemHint(t *testing.T) {
	tests := []struct {
		kind      pointing.OutputKind
		reasoning bool
		want      string
	}{
		{pointing.KindText, false, ""},
		{pointing.KindText, true, "<hint>THINK</hint>"},
		{pointing.KindPoint, false, "<hint>POINT</hint>"},
		{pointing.KindBox, false, "<hint>BOX</hint>"},
		{pointing.KindPolygon, true, "<hint>POLYGON THINK</hint>"},
	}
	for _, tt := range tests {
		if got := SystemHint(tt.kind, tt.reasoning); got != tt.want {
			t.Errorf("SystemHint(%v, %v) = %q, want %q", tt.kind, tt.reasoning, got, tt.want)
		}
	}
}

func TestService_Analyze(t *testing.T) {
	t.Run("text output by default", func(t *testing.T) {
		svc, mock := newTestService(t, "A cat on a mat. <point> (1,2) </point>")

		resp, err := svc.Analyze(context.Background(), AnalyzeRequest{
			Message: "What is this?",
			Media:   testImage,
		})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if resp.Pointing != nil {
			t.Errorf("text output should not extract, got %+v", resp.Pointing)
		}
		if resp.Content != "A cat on a mat. <point> (1,2) </point>" {
			t.Errorf("Content = %q", resp.Content)
		}

		req := mock.LastRequest()
		if len(req.Messages) != 1 {
			t.Fatalf("got %d messages, want only the user message", len(req.Messages))
		}
		parts := userMessage(t, req).Parts
		if len(parts) != 2 || parts[0].Type != providers.PartImageURL || parts[1].Text != "What is this?" {
			t.Errorf("user parts = %+v", parts)
		}
	})

	t.Run("point output with reasoning", func(t *testing.T) {
		svc, mock := newTestService(t, `<point mention="cup"> (120,340) </point>`)
		mock.Reasoning = "there is a cup"

		model := "isaac-0.1"
		temp := 0.5
		resp, err := svc.Analyze(context.Background(), AnalyzeRequest{
			Message: "Point at the cup",
			Media:   testImage,
			Output:  kindPtr(pointing.KindPoint),
			GenerationParams: GenerationParams{
				Model:       model,
				Reasoning:   boolPtr(true),
				Temperature: &temp,
			},
		})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if resp.Pointing == nil || resp.Pointing.Kind != pointing.KindPoint {
			t.Fatalf("Pointing = %+v", resp.Pointing)
		}
		want := pointing.Point{X: 120, Y: 340, Mention: pointing.Label("cup")}
		if !reflect.DeepEqual(resp.Pointing.Points[0], want) {
			t.Errorf("point = %+v, want %+v", resp.Pointing.Points[0], want)
		}
		if resp.Reasoning != "there is a cup" {
			t.Errorf("Reasoning = %q", resp.Reasoning)
		}

		req := mock.LastRequest()
		if got := systemTexts(req); !equalStrings(got, []string{"<hint>POINT THINK</hint>"}) {
			t.Errorf("system prompts = %q", got)
		}
		if req.Model != model || req.Temperature == nil || *req.Temperature != temp {
			t.Errorf("params not forwarded: model=%q temperature=%v", req.Model, req.Temperature)
		}
	})

	t.Run("validation", func(t *testing.T) {
		svc, mock := newTestService(t, "")
		if _, err := svc.Analyze(context.Background(), AnalyzeRequest{Message: "hi"}); !errors.Is(err, ErrEmptyMedia) {
			t.Errorf("expected ErrEmptyMedia, got %v", err)
		}
		if _, err := svc.Analyze(context.Background(), AnalyzeRequest{Media: testImage}); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("expected ErrEmptyMessage, got %v", err)
		}
		if _, err := svc.Analyze(context.Background(), AnalyzeRequest{
			Message: "hi",
			Media:   media.Media{Data: "abc"},
		}); err == nil {
			t.Error("expected error for data without format")
		}
		if len(mock.Requests()) != 0 {
			t.Error("invalid requests should not reach the client")
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		svc, mock := newTestService(t, "")
		mock.Err = errors.New("upstream down")
		if _, err := svc.Analyze(context.Background(), AnalyzeRequest{Message: "hi", Media: testImage}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestService_Caption(t *testing.T) {
	tests := []struct {
		name       string
		req        CaptionRequest
		wantHint   string
		wantPrompt string
		wantKind   pointing.OutputKind
	}{
		{
			name:       "concise defaults to box",
			req:        CaptionRequest{Media: testImage},
			wantHint:   "<hint>BOX</hint>",
			wantPrompt: captionConcisePrompt,
			wantKind:   pointing.KindBox,
		},
		{
			name:       "detailed polygon",
			req:        CaptionRequest{Media: testImage, Style: CaptionDetailed, Output: kindPtr(pointing.KindPolygon)},
			wantHint:   "<hint>POLYGON</hint>",
			wantPrompt: captionDetailedPrompt,
			wantKind:   pointing.KindPolygon,
		},
	}

	content := `A <point_box mention="cat"> (10,20) (100,200) </point_box> beside ` +
		`<polygon mention="rug"> (0,0) (50,0) (50,50) </polygon>`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t, content)

			resp, err := svc.Caption(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Caption() error = %v", err)
			}
			if resp.Pointing == nil || resp.Pointing.Kind != tt.wantKind || resp.Pointing.Len() != 1 {
				t.Errorf("Pointing = %+v", resp.Pointing)
			}

			req := mock.LastRequest()
			if got := systemTexts(req); !equalStrings(got, []string{tt.wantHint}) {
				t.Errorf("system prompts = %q", got)
			}
			parts := userMessage(t, req).Parts
			if len(parts) != 2 || parts[1].Text != tt.wantPrompt {
				t.Errorf("user parts = %+v", parts)
			}
		})
	}
}

func TestService_Detect(t *testing.T) {
	content := `<collection mention="dog"><point_box> (1,2) (3,4) </point_box><point_box> (5,6) (7,8) </point_box></collection>`

	t.Run("all objects", func(t *testing.T) {
		svc, mock := newTestService(t, content)

		resp, err := svc.Detect(context.Background(), DetectRequest{Media: testImage})
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if got := resp.Pointing.Mentions(); !equalStrings(got, []string{"dog", "dog"}) {
			t.Errorf("Mentions() = %q", got)
		}

		req := mock.LastRequest()
		want := []string{"<hint>BOX</hint>", "Your goal is to segment out the objects in the scene"}
		if got := systemTexts(req); !equalStrings(got, want) {
			t.Errorf("system prompts = %q, want %q", got, want)
		}
		if parts := userMessage(t, req).Parts; len(parts) != 1 {
			t.Errorf("detect should send media only, got %+v", parts)
		}
	})

	t.Run("classes with reasoning", func(t *testing.T) {
		svc, mock := newTestService(t, content)

		_, err := svc.Detect(context.Background(), DetectRequest{
			Media:            testImage,
			Classes:          []string{"dog", " ", "cat"},
			GenerationParams: GenerationParams{Reasoning: boolPtr(true)},
		})
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		want := []string{"<hint>BOX THINK</hint>", "Your goal is to segment out the following categories: dog, cat"}
		if got := systemTexts(mock.LastRequest()); !equalStrings(got, want) {
			t.Errorf("system prompts = %q, want %q", got, want)
		}
	})

	t.Run("no boxes found", func(t *testing.T) {
		svc, _ := newTestService(t, "I see nothing.")
		resp, err := svc.Detect(context.Background(), DetectRequest{Media: testImage})
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if resp.Pointing != nil {
			t.Errorf("Pointing = %+v, want nil", resp.Pointing)
		}
	})
}

func TestService_OCR(t *testing.T) {
	tests := []struct {
		name       string
		req        OCRRequest
		wantSystem []string
		wantParts  int
	}{
		{
			name:       "plain",
			req:        OCRRequest{Media: testImage},
			wantSystem: []string{ocrSystemPrompt},
			wantParts:  1,
		},
		{
			name:       "markdown",
			req:        OCRRequest{Media: testImage, Mode: OCRMarkdown},
			wantSystem: []string{ocrSystemPrompt},
			wantParts:  2,
		},
		{
			name: "html with reasoning",
			req: OCRRequest{
				Media:            media.Base64(media.PNG, "abc123"),
				Mode:             OCRHTML,
				GenerationParams: GenerationParams{Reasoning: boolPtr(true)},
			},
			wantSystem: []string{"<hint>THINK</hint>", ocrSystemPrompt},
			wantParts:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t, "STOP")

			resp, err := svc.OCR(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("OCR() error = %v", err)
			}
			if resp.Content != "STOP" {
				t.Errorf("Content = %q", resp.Content)
			}

			req := mock.LastRequest()
			if got := systemTexts(req); !equalStrings(got, tt.wantSystem) {
				t.Errorf("system prompts = %q, want %q", got, tt.wantSystem)
			}
			parts := userMessage(t, req).Parts
			if len(parts) != tt.wantParts {
				t.Errorf("got %d user parts, want %d", len(parts), tt.wantParts)
			}
			if parts[0].URL != tt.req.Media.RequestURL() {
				t.Errorf("media URL = %q", parts[0].URL)
			}
		})
	}
}

func TestParseCaptionStyleAndOCRMode(t *testing.T) {
	if s, err := ParseCaptionStyle(""); err != nil || s != CaptionConcise {
		t.Errorf("ParseCaptionStyle(\"\") = (%q, %v)", s, err)
	}
	if s, err := ParseCaptionStyle("Detailed"); err != nil || s != CaptionDetailed {
		t.Errorf("ParseCaptionStyle(Detailed) = (%q, %v)", s, err)
	}
	if _, err := ParseCaptionStyle("verbose"); err == nil {
		t.Error("expected error for unknown style")
	}

	for in, want := range map[string]OCRMode{"": OCRPlain, "md": OCRMarkdown, "HTML": OCRHTML} {
		if m, err := ParseOCRMode(in); err != nil || m != want {
			t.Errorf("ParseOCRMode(%q) = (%q, %v), want %q", in, m, err, want)
		}
	}
	if _, err := ParseOCRMode("pdf"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestService_RecordsMetrics(t *testing.T) {
	mock := providers.NewMockClient(`<point> (1,1) </point>`)
	rec := metrics.NewRecorder(10)
	svc, err := New(Config{Client: mock, Metrics: rec})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := svc.Detect(ctx, DetectRequest{Media: testImage}); err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	mock.Err = &providers.APIError{Provider: "mock", StatusCode: 503}
	if _, err := svc.OCR(ctx, OCRRequest{Media: testImage}); err == nil {
		t.Fatal("OCR() expected error")
	}
	// Rejected before reaching the provider, so not recorded
	if _, err := svc.Caption(ctx, CaptionRequest{}); !errors.Is(err, ErrEmptyMedia) {
		t.Fatalf("Caption() error = %v", err)
	}

	got := rec.List(metrics.Filter{}, 0)
	if len(got) != 2 {
		t.Fatalf("recorded %d metrics, want 2", len(got))
	}
	if got[0].Op != "ocr" || got[0].Success || got[0].ErrorType != "http_503" || got[0].Provider != "mock" {
		t.Errorf("failed call metric = %+v", got[0])
	}
	if got[1].Op != "detect" || !got[1].Success || got[1].RequestID == "" {
		t.Errorf("successful call metric = %+v", got[1])
	}
}
