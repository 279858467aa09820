package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/pointing"
	"github.com/jackzampolin/perceive/internal/svcctx"
)

// ExtractRequest is the request body for extracting annotations from
// model output.
type ExtractRequest struct {
	Text string               `json:"text"`
	Kind *pointing.OutputKind `json:"kind"`
}

// ExtractResponse is the response for an extraction.
type ExtractResponse struct {
	RequestID string              `json:"request_id" yaml:"request_id"`
	Kind      pointing.OutputKind `json:"kind" yaml:"kind"`
	Count     int                 `json:"count" yaml:"count"`
	Pointing  *pointing.Pointing  `json:"pointing,omitempty" yaml:"pointing,omitempty"`
}

// ExtractEndpoint handles POST /api/extract.
type ExtractEndpoint struct{}

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresProvider() bool { return false }

// handler godoc
//
//	@Summary		Extract annotations
//	@Description	Parse point, box or polygon tags out of model output text
//	@Tags			pointing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ExtractRequest	true	"Text and output kind"
//	@Success		200		{object}	ExtractResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Kind == nil {
		writeError(w, http.StatusBadRequest, "kind is required")
		return
	}

	p := svcctx.ExtractorFrom(r.Context()).Extract(req.Text, *req.Kind)
	resp := ExtractResponse{
		RequestID: uuid.New().String(),
		Kind:      *req.Kind,
		Count:     p.Len(),
		Pointing:  p,
	}

	svcctx.LoggerFrom(r.Context()).Debug("extracted pointing",
		"request_id", resp.RequestID, "kind", resp.Kind, "items", resp.Count)
	writeJSON(w, http.StatusOK, resp)
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract annotations from model output on the server",
		Long: `Send model output to the server and print the points, boxes or
polygons found in it. Reads the named file, or stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := pointing.ParseKind(kind)
			if err != nil {
				return err
			}
			text, err := ReadText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var resp ExtractResponse
			if err := client.Post(cmd.Context(), "/api/extract", ExtractRequest{Text: text, Kind: &k}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "box", "Output kind: "+strings.Join(kindNames(), ", "))
	return cmd
}

func kindNames() []string {
	return []string{
		pointing.KindPoint.String(),
		pointing.KindBox.String(),
		pointing.KindPolygon.String(),
		pointing.KindText.String(),
	}
}
