package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/samadpls/archdata/internal/corpus"
	"github.com/samadpls/archdata/internal/dataset"
	"github.com/samadpls/archdata/internal/llm"
	"github.com/samadpls/archdata/internal/metrics"
	"github.com/samadpls/archdata/internal/model"
	"github.com/samadpls/archdata/internal/pipeline"
	"github.com/samadpls/archdata/internal/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a routing dataset from the intent corpus",
	Long:  "Extracts intents, infers a policy per intent, synthesizes and alignment-scores one conversation per policy, augments the survivors and writes the dataset as JSONL.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyGenerateFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		printBanner(cmd.OutOrStdout(), cfg)

		corp, err := corpus.Load(cfg.Corpus.Path)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m := metrics.NewPipelineMetrics(reg)

		completer, closeLLM, err := llm.New(ctx, cfg, m)
		if err != nil {
			return err
		}
		defer closeLLM() //nolint:errcheck

		sink, err := newSink(ctx, cfg.Output.File)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		var run *model.Run
		if st != nil {
			defer st.Close() //nolint:errcheck
			run, err = st.CreateRun(ctx, runConfig())
			if err != nil {
				return eris.Wrap(err, "generate: create run")
			}
			zap.L().Info("run created", zap.String("run_id", run.ID))
		}

		opts := []pipeline.Option{
			pipeline.WithMetrics(m),
			pipeline.WithRand(pipeline.NewRand(cfg.Pipeline.Seed)),
		}
		if run != nil {
			opts = append(opts, pipeline.WithStatusFunc(storeStatusFunc(st, run.ID)))
		}
		p := pipeline.New(cfg.Pipeline, completer, opts...)

		res, err := runWithMetrics(ctx, cfg.Metrics.Addr, reg, func(ctx context.Context) (*pipeline.Result, error) {
			return p.Run(ctx, corp)
		})
		if err == nil {
			err = sink.Save(ctx, cfg.Output.File, res.Records)
		}

		if run != nil {
			if ferr := finishRun(ctx, st, run.ID, res, err); ferr != nil && err == nil {
				err = ferr
			}
		}
		if err != nil {
			return err
		}

		printRunReport(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	registerGenerateFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

func registerGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("corpus", "", "corpus file (overrides corpus.path)")
	f.StringP("output", "o", "", "output path or s3:// URI (overrides output.file)")
	f.Int("target-size", 0, "dataset size cap, intents = size/2 (overrides pipeline.target_dataset_size)")
	f.Uint64("seed", 0, "random seed, 0 for time-based (overrides pipeline.seed)")
	f.String("provider", "", "generation provider (anthropic, groq, bedrock, gemini)")
	f.Bool("domain-mixing", false, "enable the domain_mix augmentation branch")
}

// applyGenerateFlags copies explicitly set flags over the loaded config.
func applyGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("corpus") {
		cfg.Corpus.Path, _ = f.GetString("corpus")
	}
	if f.Changed("output") {
		cfg.Output.File, _ = f.GetString("output")
	}
	if f.Changed("target-size") {
		cfg.Pipeline.TargetDatasetSize, _ = f.GetInt("target-size")
	}
	if f.Changed("seed") {
		cfg.Pipeline.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("provider") {
		cfg.Provider, _ = f.GetString("provider")
	}
	if f.Changed("domain-mixing") {
		cfg.Pipeline.UseDomainMixing, _ = f.GetBool("domain-mixing")
	}
}

func runConfig() model.RunConfig {
	return model.RunConfig{
		Provider:           cfg.Provider,
		Model:              cfg.Model(),
		CorpusPath:         cfg.Corpus.Path,
		TargetDatasetSize:  cfg.Pipeline.TargetDatasetSize,
		AlignmentThreshold: cfg.Pipeline.AlignmentThreshold,
		UseDomainMixing:    cfg.Pipeline.UseDomainMixing,
		Seed:               cfg.Pipeline.Seed,
	}
}

// newSink builds a dataset sink, with an S3 client only when uri needs one.
func newSink(ctx context.Context, uri string) (*dataset.Sink, error) {
	if !dataset.IsS3(uri) {
		return dataset.NewSink(nil), nil
	}
	client, err := dataset.NewS3Client(ctx, cfg.Output.Region)
	if err != nil {
		return nil, err
	}
	return dataset.NewSink(client), nil
}

// storeStatusFunc records stage transitions. Store errors are logged and
// never interrupt the run.
func storeStatusFunc(st store.Store, runID string) pipeline.StatusFunc {
	return func(ctx context.Context, status model.RunStatus) {
		if err := st.UpdateRunStatus(ctx, runID, status); err != nil {
			zap.L().Warn("update run status failed",
				zap.String("run_id", runID),
				zap.String("status", string(status)),
				zap.Error(err),
			)
		}
	}
}

// finishRun persists the outcome of a run. It uses a context detached from
// cancellation so an interrupted run is still marked failed. The returned
// error covers only the persistence of a successful run.
func finishRun(ctx context.Context, st store.Store, runID string, res *pipeline.Result, runErr error) error {
	ctx = context.WithoutCancel(ctx)
	log := zap.L().With(zap.String("run_id", runID))

	if runErr != nil {
		if err := st.FailRun(ctx, runID, runErr.Error()); err != nil {
			log.Error("mark run failed", zap.Error(err))
		}
		return nil
	}
	if err := st.SaveRecords(ctx, runID, res.Records); err != nil {
		if ferr := st.FailRun(ctx, runID, err.Error()); ferr != nil {
			log.Error("mark run failed", zap.Error(ferr))
		}
		return eris.Wrap(err, "generate: save records")
	}
	if err := st.CompleteRun(ctx, runID, &res.Stats); err != nil {
		return eris.Wrap(err, "generate: complete run")
	}
	log.Info("run complete", zap.Int("records", len(res.Records)))
	return nil
}

// runWithMetrics runs fn, serving the metrics endpoint alongside it when addr
// is set. The server stops once fn returns.
func runWithMetrics(ctx context.Context, addr string, reg *prometheus.Registry, fn func(context.Context) (*pipeline.Result, error)) (*pipeline.Result, error) {
	if addr == "" {
		return fn(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var res *pipeline.Result
	g.Go(func() error {
		defer cancel()
		r, err := fn(gctx)
		res = r
		return err
	})
	g.Go(func() error {
		return serveMetrics(gctx, addr, buildRouter(reg))
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
