package endpoints

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/media"
	"github.com/jackzampolin/perceive/internal/perceive"
	"github.com/jackzampolin/perceive/internal/pointing"
)

// MediaFlags binds --image, --video and --file to a command.
type MediaFlags struct {
	image string
	video string
	file  string
}

// Bind registers the flags on cmd.
func (f *MediaFlags) Bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.image, "image", "", "Image URL")
	cmd.Flags().StringVar(&f.video, "video", "", "Video URL")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Local image or video file (sent inline as base64)")
	cmd.MarkFlagsMutuallyExclusive("image", "video", "file")
}

// Media builds the media value from whichever flag was set.
func (f *MediaFlags) Media() (media.Media, error) {
	switch {
	case f.image != "":
		return media.ImageURL(f.image), nil
	case f.video != "":
		return media.VideoURL(f.video), nil
	case f.file != "":
		return media.FromFile(f.file)
	}
	return media.Media{}, errors.New("one of --image, --video or --file is required")
}

// ParamFlags binds the generation parameters. Only flags the user sets
// are forwarded.
type ParamFlags struct {
	cmd *cobra.Command

	model            string
	reasoning        bool
	temperature      float64
	topP             float64
	topK             int
	frequencyPenalty float64
	presencePenalty  float64
	maxTokens        int
}

// Bind registers the flags on cmd.
func (f *ParamFlags) Bind(cmd *cobra.Command) {
	f.cmd = cmd
	fs := cmd.Flags()
	fs.StringVar(&f.model, "model", "", "Model override")
	fs.BoolVar(&f.reasoning, "reasoning", false, "Ask the model to think before answering")
	fs.Float64Var(&f.temperature, "temperature", 0, "Sampling temperature")
	fs.Float64Var(&f.topP, "top-p", 0, "Nucleus sampling probability")
	fs.IntVar(&f.topK, "top-k", 0, "Top-k sampling")
	fs.Float64Var(&f.frequencyPenalty, "frequency-penalty", 0, "Frequency penalty")
	fs.Float64Var(&f.presencePenalty, "presence-penalty", 0, "Presence penalty")
	fs.IntVar(&f.maxTokens, "max-tokens", 0, "Maximum completion tokens")
}

// Params returns the parameters the user set on the command line.
func (f *ParamFlags) Params() perceive.GenerationParams {
	p := perceive.GenerationParams{Model: f.model}
	if f.cmd == nil {
		return p
	}
	changed := f.cmd.Flags().Changed
	if changed("reasoning") {
		p.Reasoning = &f.reasoning
	}
	if changed("temperature") {
		p.Temperature = &f.temperature
	}
	if changed("top-p") {
		p.TopP = &f.topP
	}
	if changed("top-k") {
		p.TopK = &f.topK
	}
	if changed("frequency-penalty") {
		p.FrequencyPenalty = &f.frequencyPenalty
	}
	if changed("presence-penalty") {
		p.PresencePenalty = &f.presencePenalty
	}
	if changed("max-tokens") {
		p.MaxCompletionTokens = &f.maxTokens
	}
	return p
}

// ParseKindFlag parses an optional --kind value. Empty returns nil so the
// request default applies.
func ParseKindFlag(s string) (*pointing.OutputKind, error) {
	if s == "" {
		return nil, nil
	}
	k, err := pointing.ParseKind(s)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// ReadText returns the text to extract from: the file named by args[0], or
// stdin when there are no args or the arg is "-".
func ReadText(stdin io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("input is empty")
	}
	return string(data), nil
}
