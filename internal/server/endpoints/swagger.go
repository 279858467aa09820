package endpoints

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/pointing"
	"github.com/jackzampolin/perceive/version"
)

// SwaggerEndpoint serves the OpenAPI spec. A generated swagger.json
// (see docs/doc.go) is served when present; otherwise a minimal document
// is built from the registered endpoints.
type SwaggerEndpoint struct {
	// SpecPath is the path to the swagger.json file
	SpecPath string
	// Endpoints are listed in the fallback document.
	Endpoints []api.Endpoint

	once     sync.Once
	fallback map[string]any
}

func (e *SwaggerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger.json", e.handler
}

func (e *SwaggerEndpoint) RequiresProvider() bool { return false }

func (e *SwaggerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if e.SpecPath != "" {
		if data, err := os.ReadFile(e.SpecPath); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write(data)
			return
		}
	}

	e.once.Do(func() { e.fallback = buildOpenAPI(e.Endpoints) })
	writeJSON(w, http.StatusOK, e.fallback)
}

// buildOpenAPI lists each endpoint's route with its CLI summary.
func buildOpenAPI(eps []api.Endpoint) map[string]any {
	paths := make(map[string]map[string]any)
	noServer := func() string { return "" }

	for _, ep := range eps {
		method, path, _ := ep.Route()
		op := map[string]any{}
		if cmd := ep.Command(noServer); cmd != nil {
			op["summary"] = cmd.Short
		}
		if ep.RequiresProvider() {
			op["responses"] = map[string]any{
				"200": map[string]any{"description": "OK"},
				"503": map[string]any{"description": "No vision provider configured"},
			}
		} else {
			op["responses"] = map[string]any{"200": map[string]any{"description": "OK"}}
		}

		if paths[path] == nil {
			paths[path] = make(map[string]any)
		}
		paths[path][strings.ToLower(method)] = op
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Perceive API",
			"version": version.GitRelease,
		},
		"paths": paths,
		"components": map[string]any{
			"schemas": map[string]any{"Pointing": pointing.Schema()},
		},
	}
}

func (e *SwaggerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "swagger",
		Short: "Fetch OpenAPI spec from server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			var spec map[string]any
			if err := client.Get(cmd.Context(), "/swagger.json", &spec); err != nil {
				return err
			}

			if outputFile != "" {
				return api.OutputToFile(spec, outputFile)
			}
			return api.Output(spec)
		},
	}
	cmd.Flags().StringVar(&outputFile, "out", "", "Output file path")
	return cmd
}

// SwaggerUIEndpoint serves Swagger UI.
type SwaggerUIEndpoint struct{}

func (e *SwaggerUIEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger", e.handler
}

func (e *SwaggerUIEndpoint) RequiresProvider() bool { return false }

func (e *SwaggerUIEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
  <title>Perceive API</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger.json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}

func (e *SwaggerUIEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:    "swagger-ui",
		Hidden: true,
		Short:  "Open Swagger UI in browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println("Open in browser:", getServerURL()+"/swagger")
			return nil
		},
	}
}

// GetSwaggerSpecPath returns the path to swagger.json based on executable location.
func GetSwaggerSpecPath() string {
	// Try relative to executable first
	if exe, err := os.Executable(); err == nil {
		specPath := filepath.Join(filepath.Dir(exe), "docs", "swagger", "swagger.json")
		if _, err := os.Stat(specPath); err == nil {
			return specPath
		}
	}
	// Fall back to working directory
	return "docs/swagger/swagger.json"
}
