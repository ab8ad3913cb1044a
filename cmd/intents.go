package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samadpls/archdata/internal/corpus"
	"github.com/samadpls/archdata/internal/model"
	"github.com/samadpls/archdata/internal/pipeline"
)

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "List the intents a run would process",
	Long:  "Loads the corpus and prints the intents selected for generation, with a naive domain/action split of each label and its example count.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("corpus")
		if path == "" {
			path = cfg.Corpus.Path
		}
		target, _ := cmd.Flags().GetInt("target-size")
		if target <= 0 {
			target = cfg.Pipeline.TargetDatasetSize
		}

		corp, err := corpus.Load(path)
		if err != nil {
			return err
		}

		intents := pipeline.ExtractIntents(corp, target, cfg.Pipeline.MaxSamplesPerIntent)
		if len(intents) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No intents found.")
			return nil
		}
		formatIntents(cmd.OutOrStdout(), intents)
		return nil
	},
}

func init() {
	intentsCmd.Flags().String("corpus", "", "corpus file (defaults to corpus.path)")
	intentsCmd.Flags().Int("target-size", 0, "dataset size cap, intents = size/2 (defaults to pipeline.target_dataset_size)")
	rootCmd.AddCommand(intentsCmd)
}

// formatIntents writes a tabular list of intents to out.
func formatIntents(out io.Writer, intents []model.Intent) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INTENT\tDOMAIN\tACTION\tEXAMPLES")
	for _, in := range intents {
		domain, action := model.SplitIntentName(in.Name)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", in.Name, domain, action, len(in.Examples))
	}
	_ = w.Flush()
}
