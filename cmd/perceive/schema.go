package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/pointing"
	"github.com/jackzampolin/perceive/internal/server/endpoints"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for extracted annotations",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Decode first so YAML output renders a document rather than bytes
		var doc map[string]any
		if err := json.Unmarshal(pointing.Schema(), &doc); err != nil {
			return fmt.Errorf("failed to decode schema: %w", err)
		}
		return api.OutputTo(cmd.OutOrStdout(), api.GetOutputFormat(), doc)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a pointing JSON document against the schema",
	Long: `Validate a JSON document (as produced by "perceive extract -o json" or
the /api endpoints) against the pointing schema. Reads the named file or
stdin. Exits non-zero when the document is invalid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := endpoints.ReadText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		resp := endpoints.ValidateResponse{Valid: true}
		verr := pointing.ValidateJSON([]byte(text))
		if verr != nil {
			resp = endpoints.ValidateResponse{Valid: false, Error: verr.Error()}
		}
		if err := api.OutputTo(cmd.OutOrStdout(), api.GetOutputFormat(), resp); err != nil {
			return err
		}
		return verr
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(validateCmd)
}
