package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/samadpls/archdata/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "archdata",
	Short: "Synthetic dialogue dataset generator for preference-aligned routing",
	Long:  "Turns a labeled intent corpus into a JSONL training set of multi-turn conversations, each tagged with a domain/action policy, alignment-filtered and augmented with positive and negative variants.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
