// Package engine owns the index snapshot served to queries. A snapshot is
// loaded completely before it replaces the previous one, so readers never see
// a half-built index.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/weights"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/catalog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
)

// Snapshot is an immutable view of one build.
type Snapshot struct {
	Index          *index.Index
	Boolean        *boolean.Evaluator
	Ranker         *ranker.Ranker
	URLs           catalog.Resolver
	SkippedWeights int
	LoadedAt       time.Time
}

// Loader produces a complete snapshot.
type Loader func(ctx context.Context) (*Snapshot, error)

// Engine serves the current snapshot and swaps in new ones on Reload.
type Engine struct {
	current atomic.Pointer[Snapshot]
	load    Loader
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(load Loader, m *metrics.Metrics) *Engine {
	return &Engine{
		load:    load,
		metrics: m,
		logger:  slog.Default().With("component", "engine"),
	}
}

// Reload loads a new snapshot and publishes it. Concurrent calls share one
// load. On failure the previous snapshot stays in service.
func (e *Engine) Reload(ctx context.Context) error {
	_, err, shared := e.group.Do("reload", func() (any, error) {
		start := time.Now()
		snap, err := e.load(ctx)
		if err != nil {
			e.metrics.SnapshotReloadsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		e.current.Store(snap)
		e.metrics.SnapshotReloadsTotal.WithLabelValues("success").Inc()
		e.metrics.SnapshotDocuments.Set(float64(snap.Index.DocCount()))
		e.metrics.SnapshotVocabulary.Set(float64(len(snap.Ranker.Vocabulary())))
		e.logger.Info("snapshot loaded",
			"documents", snap.Index.DocCount(),
			"terms", len(snap.Index.Postings),
			"ranked_documents", snap.Ranker.DocCount(),
			"vocabulary", len(snap.Ranker.Vocabulary()),
			"skipped_weights", snap.SkippedWeights,
			"duration", time.Since(start),
		)
		return nil, nil
	})
	if shared {
		e.logger.Debug("reload coalesced")
	}
	return err
}

// Snapshot returns the snapshot in service, or ErrIndexNotReady before the
// first successful load.
func (e *Engine) Snapshot() (*Snapshot, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, apperrors.New(apperrors.ErrIndexNotReady, 0, "no index snapshot loaded")
	}
	return snap, nil
}

// HealthCheck reports down until a snapshot is loaded.
func (e *Engine) HealthCheck() health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		snap := e.current.Load()
		if snap == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "index not loaded"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, loaded %s", snap.Index.DocCount(), snap.LoadedAt.UTC().Format(time.RFC3339)),
		}
	}
}

// FileLoader reads the index file and weight files written by a build. urls
// overrides the file-based URL catalog when non-nil.
func FileLoader(cfg *config.Config, urls catalog.Resolver) Loader {
	logger := slog.Default().With("component", "engine")
	return func(ctx context.Context) (*Snapshot, error) {
		idx, err := index.ReadFile(cfg.Indexer.IndexPath())
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docs, skipped, err := weights.NewStore(cfg.Indexer.WeightsDir(cfg.Search.WeightKind)).Load()
		if err != nil {
			return nil, fmt.Errorf("loading %s weights: %w", cfg.Search.WeightKind, err)
		}

		resolver := urls
		if resolver == nil {
			fileResolver, err := catalog.LoadFile(cfg.Catalog.URLIndexFile, cfg.Catalog.DocIDPrefix)
			if err != nil {
				logger.Warn("url index unavailable, results will have no urls", "error", err)
				fileResolver = catalog.NewMapResolver(nil)
			}
			resolver = fileResolver
		}

		return &Snapshot{
			Index:          idx,
			Boolean:        boolean.NewEvaluator(idx, cfg.Search.MaxQueryDepth),
			Ranker:         ranker.New(docs),
			URLs:           resolver,
			SkippedWeights: len(skipped),
			LoadedAt:       time.Now(),
		}, nil
	}
}
