package perceive

import (
	"strings"

	"github.com/jackzampolin/perceive/internal/pointing"
)

const (
	captionConcisePrompt  = "Provide a concise, human-friendly caption for the upcoming image."
	captionDetailedPrompt = "Provide a detailed caption describing key objects, relationships, and context in the upcoming image."

	ocrSystemPrompt = "You are an OCR (Optical Character Recognition) system. " +
		"Accurately detect, extract, and transcribe all readable text from the image."
	ocrMarkdownPrompt = "Transcribe every readable word in the image using Markdown formatting " +
		"with headings, lists, tables, and other structural elements as appropriate."
	ocrHTMLPrompt = "Transcribe every readable word in the image using HTML markup."

	detectAllPrompt     = "Your goal is to segment out the objects in the scene"
	detectClassesPrompt = "Your goal is to segment out the following categories: "
)

// SystemHint builds the <hint> system prompt steering the model's output
// format, e.g. "<hint>BOX THINK</hint>". It returns "" when the kind is
// text and reasoning is off.
func SystemHint(kind pointing.OutputKind, reasoning bool) string {
	var tokens []string
	if name := kind.HintName(); name != "" {
		tokens = append(tokens, name)
	}
	if reasoning {
		tokens = append(tokens, "THINK")
	}
	if len(tokens) == 0 {
		return ""
	}
	return "<hint>" + strings.Join(tokens, " ") + "</hint>"
}

func captionPrompt(style CaptionStyle) string {
	if style == CaptionDetailed {
		return captionDetailedPrompt
	}
	return captionConcisePrompt
}

// ocrPrompt returns the user prompt for a mode; plain mode sends none.
func ocrPrompt(mode OCRMode) string {
	switch mode {
	case OCRMarkdown:
		return ocrMarkdownPrompt
	case OCRHTML:
		return ocrHTMLPrompt
	default:
		return ""
	}
}

func detectPrompt(classes []string) string {
	var names []string
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return detectAllPrompt
	}
	return detectClassesPrompt + strings.Join(names, ", ")
}
