package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/perceive"
	"github.com/jackzampolin/perceive/internal/pointing"
	"github.com/jackzampolin/perceive/internal/providers"
	"github.com/jackzampolin/perceive/internal/server/endpoints"
)

// visionFlags are shared by the local vision commands.
type visionFlags struct {
	media    endpoints.MediaFlags
	params   endpoints.ParamFlags
	provider string
	save     bool
}

func (f *visionFlags) bind(cmd *cobra.Command) {
	f.media.Bind(cmd)
	f.params.Bind(cmd)
	cmd.Flags().StringVar(&f.provider, "provider", "", "Provider name (default: configured default)")
	cmd.Flags().BoolVar(&f.save, "save", false, "Also write the result to the home results directory")
}

// service builds a perceive.Service for the selected provider from config.
func (f *visionFlags) service(cmd *cobra.Command) (*perceive.Service, error) {
	mgr, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	registry := providers.NewRegistryFromConfig(mgr.Get().ToProviderRegistryConfig(), logger)

	name, client, err := registry.Resolve(f.provider)
	if err != nil {
		return nil, fmt.Errorf("%w (configured: %v)", err, registry.List())
	}
	return perceive.New(perceive.Config{
		Client: client,
		Logger: logger.With("provider", name),
	})
}

// emit prints the result and, with --save, stores a copy under the home
// results directory named by request ID.
func (f *visionFlags) emit(cmd *cobra.Command, requestID string, result any) error {
	if err := api.OutputTo(cmd.OutOrStdout(), api.GetOutputFormat(), result); err != nil {
		return err
	}
	if !f.save {
		return nil
	}

	h, err := getHome()
	if err != nil {
		return err
	}
	if err := h.EnsureExists(); err != nil {
		return err
	}
	path := h.ResultPath(requestID, string(api.GetOutputFormat()))
	if err := api.OutputToFile(result, path); err != nil {
		return err
	}
	logger.Info("saved result", "path", path)
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	var (
		f       visionFlags
		message string
		kind    string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask a question about an image or video",
		Example: `  perceive analyze --image https://example.com/kitchen.jpg -m "Where is the kettle?" --kind point
  perceive analyze -f clip.mp4 -m "What happens?" --reasoning`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := f.media.Media()
			if err != nil {
				return err
			}
			k, err := endpoints.ParseKindFlag(kind)
			if err != nil {
				return err
			}
			svc, err := f.service(cmd)
			if err != nil {
				return err
			}

			resp, err := svc.Analyze(cmd.Context(), perceive.AnalyzeRequest{
				Message:          message,
				Media:            m,
				Output:           k,
				GenerationParams: f.params.Params(),
			})
			if err != nil {
				return err
			}
			return f.emit(cmd, resp.RequestID, resp)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&message, "message", "m", "", "Question or instruction (required)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Output kind: text, point, box or polygon (default text)")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newCaptionCmd() *cobra.Command {
	var (
		f     visionFlags
		style string
		kind  string
	)
	cmd := &cobra.Command{
		Use:     "caption",
		Short:   "Caption an image or video",
		Example: `  perceive caption --image https://example.com/street.jpg --style detailed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := f.media.Media()
			if err != nil {
				return err
			}
			s, err := perceive.ParseCaptionStyle(style)
			if err != nil {
				return err
			}
			k, err := endpoints.ParseKindFlag(kind)
			if err != nil {
				return err
			}
			svc, err := f.service(cmd)
			if err != nil {
				return err
			}

			resp, err := svc.Caption(cmd.Context(), perceive.CaptionRequest{
				Media:            m,
				Style:            s,
				Output:           k,
				GenerationParams: f.params.Params(),
			})
			if err != nil {
				return err
			}
			return f.emit(cmd, resp.RequestID, resp)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&style, "style", "concise", "Caption style: concise or detailed")
	cmd.Flags().StringVarP(&kind, "kind", "k", pointing.KindBox.String(), "Output kind: text, point, box or polygon")
	return cmd
}

func newDetectCmd() *cobra.Command {
	var (
		f       visionFlags
		classes []string
	)
	cmd := &cobra.Command{
		Use:     "detect",
		Short:   "Detect objects in an image or video",
		Example: `  perceive detect -f photo.png --classes car,bicycle -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := f.media.Media()
			if err != nil {
				return err
			}
			svc, err := f.service(cmd)
			if err != nil {
				return err
			}

			resp, err := svc.Detect(cmd.Context(), perceive.DetectRequest{
				Media:            m,
				Classes:          classes,
				GenerationParams: f.params.Params(),
			})
			if err != nil {
				return err
			}
			return f.emit(cmd, resp.RequestID, resp)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringSliceVarP(&classes, "classes", "c", nil, "Object classes to look for (comma separated)")
	return cmd
}

func newOCRCmd() *cobra.Command {
	var (
		f    visionFlags
		mode string
	)
	cmd := &cobra.Command{
		Use:     "ocr",
		Short:   "Transcribe the text in an image or video",
		Example: `  perceive ocr -f receipt.jpg --mode markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := f.media.Media()
			if err != nil {
				return err
			}
			ocrMode, err := perceive.ParseOCRMode(mode)
			if err != nil {
				return err
			}
			svc, err := f.service(cmd)
			if err != nil {
				return err
			}

			resp, err := svc.OCR(cmd.Context(), perceive.OCRRequest{
				Media:            m,
				Mode:             ocrMode,
				GenerationParams: f.params.Params(),
			})
			if err != nil {
				return err
			}
			return f.emit(cmd, resp.RequestID, resp)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&mode, "mode", "plain", "Output mode: plain, markdown or html")
	return cmd
}

func init() {
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newCaptionCmd())
	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newOCRCmd())
}
