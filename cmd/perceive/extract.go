package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/pointing"
	"github.com/jackzampolin/perceive/internal/server/endpoints"
)

var (
	extractKind string
	extractText string
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract points, boxes or polygons from model output",
	Long: `Parse spatial annotations out of vision model output without calling
any provider. Reads --text, the named file, or stdin.

Examples:
  perceive extract --kind point --text '<point mention="cat"> (10,20) </point>'
  perceive extract --kind box answer.txt
  cat answer.txt | perceive extract -k polygon -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd); err != nil {
			return err
		}
		kind, err := pointing.ParseKind(extractKind)
		if err != nil {
			return err
		}

		text := extractText
		if !cmd.Flags().Changed("text") {
			if text, err = endpoints.ReadText(cmd.InOrStdin(), args); err != nil {
				return err
			}
		}

		p := pointing.Extract(text, kind)
		resp := endpoints.ExtractResponse{
			RequestID: uuid.New().String(),
			Kind:      kind,
			Count:     p.Len(),
			Pointing:  p,
		}
		logger.Debug("extracted pointing", "kind", kind, "items", resp.Count)
		return api.OutputTo(cmd.OutOrStdout(), api.GetOutputFormat(), resp)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractKind, "kind", "k", "box",
		"Output kind: "+strings.Join([]string{"point", "box", "polygon", "text"}, ", "))
	extractCmd.Flags().StringVarP(&extractText, "text", "t", "", "Model output to parse (instead of a file or stdin)")

	rootCmd.AddCommand(extractCmd)
}
