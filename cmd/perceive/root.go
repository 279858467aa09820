package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/config"
	"github.com/jackzampolin/perceive/internal/home"
	"github.com/jackzampolin/perceive/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string

	logLevelVar slog.LevelVar
	logger      = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevelVar}))

	cfgManager *config.Manager
)

var rootCmd = &cobra.Command{
	Use:   "perceive",
	Short: "Grounded vision for VLM output: points, boxes and polygons",
	Long: `Perceive sends images and videos to vision-language models and turns
their answers into structured spatial annotations.

It can:
  - Extract <point>, <point_box> and <polygon> tags from model output
  - Caption, detect objects in and OCR media through Perceptron or any
    OpenAI-compatible endpoint
  - Serve the same operations over HTTP (perceive serve)`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.perceive/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "perceive home directory (default: ~/.perceive)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := api.ParseOutputFormat(outputFormat); err != nil {
			return err
		}
		api.SetOutputFormat(outputFormat)

		if logLevel != "" {
			level, err := config.ParseLogLevel(logLevel)
			if err != nil {
				return err
			}
			logLevelVar.Set(level)
		}
		slog.SetDefault(logger)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome resolves the home directory from --home.
func getHome() (*home.Dir, error) {
	return home.New(homeDir)
}

// loadConfig loads configuration once per invocation. Values from the
// config file fill in for output and log level flags the user did not set.
func loadConfig(cmd *cobra.Command) (*config.Manager, error) {
	if cfgManager != nil {
		return cfgManager, nil
	}

	h, err := getHome()
	if err != nil {
		return nil, err
	}
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	mgr.SetLogger(logger)

	cfg := mgr.Get()
	if !cmd.Flags().Changed("output") && cfg.Defaults.Output != "" {
		api.SetOutputFormat(cfg.Defaults.Output)
	}
	if logLevel == "" {
		logLevelVar.Set(cfg.SlogLevel())
	}
	if file := mgr.ConfigFile(); file != "" {
		logger.Debug("loaded config", "file", file)
	}

	cfgManager = mgr
	return mgr, nil
}
