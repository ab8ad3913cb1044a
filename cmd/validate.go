package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samadpls/archdata/internal/model"
	"github.com/samadpls/archdata/internal/pipeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dataset]",
	Short: "Check a generated dataset and report its type distribution",
	Long:  "Reads a JSONL dataset from a local path or s3:// URI, checks every record and prints per-type counts with the mean label score.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		uri := cfg.Output.File
		if len(args) == 1 {
			uri = args[0]
		}

		sink, err := newSink(ctx, uri)
		if err != nil {
			return err
		}
		records, err := sink.Load(ctx, uri)
		if err != nil {
			return err
		}

		for i, r := range records {
			if err := checkRecord(r); err != nil {
				return eris.Wrapf(err, "validate: record %d", i+1)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records OK\n", uri, len(records))
		printSummary(cmd.OutOrStdout(), pipeline.SummarizeRecords(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// checkRecord verifies the invariants every dataset record carries.
func checkRecord(r model.Record) error {
	if len(r.Conversation) == 0 {
		return eris.New("empty conversation")
	}
	for j, t := range r.Conversation {
		if !t.Role.Valid() {
			return eris.Errorf("turn %d: unexpected role %q", j+1, t.Role)
		}
	}
	if r.Domain == "" || r.Action == "" {
		return eris.New("missing domain or action")
	}
	if !r.AugmentationType.Valid() {
		return eris.Errorf("unknown augmentation type %q", r.AugmentationType)
	}
	if want := r.AugmentationType.LabelScore(); r.LabelScore != want {
		return eris.Errorf("label score %v does not match %s (%v)", r.LabelScore, r.AugmentationType, want)
	}
	return nil
}
