package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hoa-assistant-backend/models"
	"hoa-assistant-backend/service"
)

var (
	askFormat        string
	askTags          []string
	askStructureType string
	askConcernLevel  string
	askMode          string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Answers.Answer(ctx, service.AnswerRequest{
			Question: strings.Join(args, " "),
			Mode:     askMode,
			Filters: models.Filters{
				Tags:          askTags,
				StructureType: askStructureType,
				ConcernLevel:  askConcernLevel,
			},
			OutputFormat: service.ParseOutputFormat(askFormat),
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if resp.Format == service.OutputJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp.Record)
		}
		_, err = fmt.Fprintln(out, resp.Markdown)
		return err
	},
}

func init() {
	askCmd.Flags().StringVar(&askFormat, "format", "markdown", "output format: markdown or json")
	askCmd.Flags().StringSliceVar(&askTags, "tags", nil, "restrict keyword matches to clauses carrying all tags")
	askCmd.Flags().StringVar(&askStructureType, "structure-type", "", "restrict keyword matches to a structure type")
	askCmd.Flags().StringVar(&askConcernLevel, "concern-level", "", "restrict keyword matches to a concern level")
	askCmd.Flags().StringVar(&askMode, "mode", service.DefaultMode, "mode echoed in the JSON record")
	rootCmd.AddCommand(askCmd)
}
