package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samadpls/archdata/internal/dataset"
	"github.com/samadpls/archdata/internal/model"
	"github.com/samadpls/archdata/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect generation run history",
	Long:  "Commands for listing runs, viewing their stats and exporting the records they produced.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs export --

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Write the records of a run as JSONL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListRecords(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs export")
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			return dataset.WriteJSONL(cmd.OutOrStdout(), records)
		}
		sink, err := newSink(ctx, out)
		if err != nil {
			return err
		}
		return sink.Save(ctx, out, records)
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (queued, synthesizing, complete, failed, ...)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsExportCmd.Flags().StringP("output", "o", "", "output path or s3:// URI (defaults to stdout)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROVIDER\tSTATUS\tRECORDS\tCREATED\tDURATION")
	for _, r := range runs {
		records := "-"
		if r.Stats != nil {
			records = fmt.Sprintf("%d", r.Stats.Records)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Config.Provider,
			r.Status,
			records,
			r.CreatedAt.Format("2006-01-02 15:04"),
			formatDuration(r),
		)
	}
	_ = w.Flush()
}

// formatDuration reports the elapsed time of a finished run, or "-".
func formatDuration(r model.Run) string {
	switch r.Status {
	case model.RunStatusComplete, model.RunStatusFailed:
		return r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()
	}
	return "-"
}

// truncateID shortens a UUID to its first 8 characters.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
