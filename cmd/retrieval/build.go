package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/buildlog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/notify"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/catalog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/resilience"
)

var publishRetry = resilience.RetryConfig{
	MaxAttempts:  5,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     5 * time.Second,
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Rebuild the inverted index and weight files from the corpus",
		Long: `Reads the lemma directory, computes TF-IDF weights and the inverted
index, and replaces the files under indexer.dataDir. Token weights are
computed too when indexer.kinds lists tokens, which requires corpus.tokensDir.

When enabled, the build is also recorded in PostgreSQL, the URL index is
mirrored into Redis and an index.complete event is published on Kafka.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), a.cfg, cmd.OutOrStdout())
		},
	}
}

func runBuild(ctx context.Context, cfg *config.Config, out io.Writer) error {
	var opts []indexer.Option

	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, build will not be recorded", "error", err)
		} else {
			defer db.Close()
			store := buildlog.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Warn("build ledger schema unavailable", "error", err)
			} else {
				opts = append(opts, indexer.WithRecorder(store))
			}
		}
	}

	if rc := openRedis(cfg); rc != nil {
		defer rc.Close()
		opts = append(opts, indexer.WithURLMirror(catalog.NewRedisResolver(rc, cfg.Catalog.RedisKey, redisBreaker)))
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		opts = append(opts, indexer.WithPublisher(notify.NewPublisher(producer, publishRetry)))
	}

	summary, err := indexer.NewPipeline(cfg, metrics.NewNop(), opts...).Run(ctx)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	printSummary(out, summary)
	return nil
}

func printSummary(w io.Writer, s *indexer.Summary) {
	fmt.Fprintf(w, "build %s\n", s.BuildID)
	fmt.Fprintf(w, "  index      %s\n", s.IndexPath)
	fmt.Fprintf(w, "  documents  %d\n", s.Documents)
	fmt.Fprintf(w, "  terms      %d\n", s.Terms)
	for _, k := range s.Kinds {
		fmt.Fprintf(w, "  %-10s processed=%d skipped=%d\n", k.Kind, k.Processed, k.Skipped)
	}
	fmt.Fprintf(w, "  duration   %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
}
