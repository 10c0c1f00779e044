package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hoa-assistant-backend/repository"
)

var schemaDimensions int

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the clauses table, extensions and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := initPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repository.EnsureSchema(ctx, db, schemaDimensions); err != nil {
			return err
		}

		zap.L().Info("schema ready")
		return nil
	},
}

func init() {
	schemaCmd.Flags().IntVar(&schemaDimensions, "dimensions", repository.DefaultEmbeddingDimensions,
		"embedding vector dimensions (1536 for text-embedding-ada-002, 768 for text-embedding-004)")
	rootCmd.AddCommand(schemaCmd)
}
