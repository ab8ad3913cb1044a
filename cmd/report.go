package main

import (
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/samadpls/archdata/internal/config"
	"github.com/samadpls/archdata/internal/model"
	"github.com/samadpls/archdata/internal/pipeline"
)

var printer = message.NewPrinter(language.English)

// printBanner writes the effective generation settings.
func printBanner(w io.Writer, c *config.Config) {
	p := c.Pipeline
	printer.Fprintf(w, "Arch-Router dataset generation\n")
	printer.Fprintf(w, "  provider:            %s\n", c.Provider)
	printer.Fprintf(w, "  model:               %s\n", c.Model())
	printer.Fprintf(w, "  corpus:              %s\n", c.Corpus.Path)
	printer.Fprintf(w, "  target size:         %d\n", p.TargetDatasetSize)
	printer.Fprintf(w, "  turns:               %d-%d\n", p.MinConversationTurns, p.MaxConversationTurns)
	printer.Fprintf(w, "  alignment threshold: %.2f\n", p.AlignmentThreshold)
	printer.Fprintf(w, "  domain mixing:       %t\n", p.UseDomainMixing)
	printer.Fprintf(w, "  output:              %s\n\n", c.Output.File)
}

// printSummary writes the per-type distribution of s.
func printSummary(w io.Writer, s pipeline.VariantSummary) {
	printer.Fprintf(w, "Total samples: %d\n", s.Total)
	for _, typ := range model.AllAugmentationTypes() {
		n := s.ByType[typ]
		if n == 0 {
			continue
		}
		printer.Fprintf(w, "  %-11s %6d (%5.1f%%)\n", typ, n, 100*s.Share(typ))
	}
	printer.Fprintf(w, "Mean label score: %.3f\n", s.MeanLabelScore)
}

// printRunReport writes the augmentation statistics and stage counters of a
// finished run.
func printRunReport(w io.Writer, res *pipeline.Result) {
	st := res.Stats
	printer.Fprintf(w, "Augmentation statistics\n")
	printSummary(w, pipeline.SummarizeVariants(res.Variants))
	printer.Fprintf(w, "\nIntents %d, policies %d, conversations %d\n", st.Intents, st.Policies, st.Conversations)
	printer.Fprintf(w, "Aligned %d, rejected %d, scored with defaults %d\n", st.Aligned, st.Rejected, st.ScoredDefaults)
	if len(st.BranchFailures) > 0 {
		printer.Fprintf(w, "Augmentation branch failures:")
		for _, typ := range model.AllAugmentationTypes() {
			if n := st.BranchFailures[typ]; n > 0 {
				printer.Fprintf(w, " %s=%d", typ, n)
			}
		}
		printer.Fprintf(w, "\n")
	}
	truncated := ""
	if st.Truncated {
		truncated = " (truncated)"
	}
	printer.Fprintf(w, "Records written: %d%s in %v\n", st.Records, truncated,
		(time.Duration(st.DurationMillis) * time.Millisecond).Round(time.Millisecond))
}
