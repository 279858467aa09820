package endpoints

import (
	"github.com/jackzampolin/perceive/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	eps := []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Offline pointing endpoints
		&ExtractEndpoint{},
		&SchemaEndpoint{},
		&ValidateEndpoint{},

		// Provider-backed endpoints
		&AnalyzeEndpoint{},
		&CaptionEndpoint{},
		&DetectEndpoint{},
		&OCREndpoint{},

		// Call metrics
		&ListMetricsEndpoint{},
		&MetricsSummaryEndpoint{},
	}

	// Swagger/OpenAPI endpoints
	return append(eps,
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath, Endpoints: eps},
		&SwaggerUIEndpoint{},
	)
}
