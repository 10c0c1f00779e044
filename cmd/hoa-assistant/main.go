package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hoa-assistant-backend/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hoa-assistant",
	Short: "Answer residents' questions from HOA governing documents",
	Long:  "Retrieves the governing-document clauses relevant to a resident question, ranks them and generates a cited answer.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envLoaded := config.LoadDotEnv()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if !envLoaded {
			zap.L().Debug("no .env file found, using environment variables")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
