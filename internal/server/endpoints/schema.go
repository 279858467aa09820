package endpoints

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/pointing"
)

// SchemaEndpoint handles GET /api/schema.
type SchemaEndpoint struct{}

func (e *SchemaEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/schema", e.handler
}

func (e *SchemaEndpoint) RequiresProvider() bool { return false }

// handler godoc
//
//	@Summary		Pointing result schema
//	@Description	JSON Schema describing the points, boxes or polygons document
//	@Tags			pointing
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Router			/api/schema [get]
func (e *SchemaEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(pointing.Schema())
}

func (e *SchemaEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Fetch the pointing result JSON Schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var schema map[string]any
			if err := client.Get(cmd.Context(), "/api/schema", &schema); err != nil {
				return err
			}
			return api.Output(schema)
		},
	}
}

// ValidateResponse reports whether a document matches the pointing schema.
type ValidateResponse struct {
	Valid bool   `json:"valid" yaml:"valid"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ValidateEndpoint handles POST /api/validate.
type ValidateEndpoint struct{}

func (e *ValidateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/validate", e.handler
}

func (e *ValidateEndpoint) RequiresProvider() bool { return false }

// handler godoc
//
//	@Summary		Validate a pointing document
//	@Description	Check a JSON document against the pointing result schema
//	@Tags			pointing
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ValidateResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/api/validate [post]
func (e *ValidateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	resp := ValidateResponse{Valid: true}
	if err := pointing.ValidateJSON(body); err != nil {
		resp = ValidateResponse{Valid: false, Error: err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ValidateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a pointing JSON document on the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := ReadText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ValidateResponse
			if err := client.Post(cmd.Context(), "/api/validate", json.RawMessage(text), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
