package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/notify"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/catalog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/normalize"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/middleware"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve ranked and boolean search over HTTP",
		Long: `Loads the latest index snapshot and serves the search API. The snapshot is
swapped in place on POST /api/v1/index/reload or, when Kafka is enabled,
whenever a build publishes an index.complete event.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting search service", "port", cfg.Server.Port, "weight_kind", cfg.Search.WeightKind)
	m := metrics.New(nil)

	rc := openRedis(cfg)
	if rc != nil {
		defer rc.Close()
	}

	eng := engine.New(engine.FileLoader(cfg, urlResolver(cfg, rc)), m)
	if err := eng.Reload(ctx); err != nil {
		slog.Warn("no index loaded, queries return 503 until a reload succeeds", "error", err)
	}

	normalizer, err := normalize.New(cfg.Search.Stemmer)
	if err != nil {
		return err
	}
	previews, err := catalog.NewPreviews(corpus.NewTextStore(cfg.Corpus.TextDir), cfg.Search.PreviewLength, cfg.Search.PreviewCache, m)
	if err != nil {
		return fmt.Errorf("creating preview cache: %w", err)
	}
	svc := service.New(eng, previews, normalizer, m)
	h := handler.New(svc, eng, cfg.Search.DefaultLimit, cfg.Search.MaxResults)

	checker := health.NewChecker()
	checker.Register("index", eng.HealthCheck())
	if rc != nil {
		checker.Register("redis", health.PingCheck(rc.Ping, true))
	}
	if cfg.Kafka.Enabled {
		checker.Register("kafka", health.PingCheck(func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.Kafka.Brokers)
		}, true))
	}

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error { return metrics.Serve(ctx, cfg.Metrics.Port) })
	}
	if cfg.Kafka.Enabled {
		group := cfg.Kafka.ConsumerGroup + "-" + hostname()
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete, group, notify.ReloadHandler(eng))
		slog.Info("listening for index builds", "topic", cfg.Kafka.Topics.IndexComplete, "group", group)
		g.Go(func() error { return consumer.Start(ctx) })
	}

	err = g.Wait()
	slog.Info("search service stopped")
	return err
}
