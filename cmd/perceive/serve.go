package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/config"
	"github.com/jackzampolin/perceive/internal/server"
	"github.com/jackzampolin/perceive/internal/server/endpoints"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Perceive server",
	Long: `Start the Perceive HTTP server.

Providers come from the config file, which is watched for changes:
editing it swaps providers and the log level without a restart.

The server provides:
  - /health, /ready, /status  - Health and provider status
  - /api/extract              - Extract annotations from model output
  - /api/analyze, /api/caption, /api/detect, /api/ocr
  - /swagger.json, /swagger/  - API documentation

Examples:
  perceive serve                    # Start on the configured port (default 8080)
  perceive serve --port 3000        # Start on custom port
  perceive serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		h, err := getHome()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfg := mgr.Get()
		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:            host,
			Port:            port,
			ConfigManager:   mgr,
			Home:            h,
			SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		if logLevel == "" {
			mgr.OnChange(func(c *config.Config) {
				logLevelVar.Set(c.SlogLevel())
			})
		}
		mgr.WatchConfig()

		logger.Debug("perceive home", "path", h.Path())
		// Blocks until shutdown
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
