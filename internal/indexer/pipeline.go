// Package indexer runs the batch build: it reads the preprocessed corpus,
// builds the inverted index and the per-kind weight files, then announces the
// result.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/buildlog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/notify"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/weights"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
)

// KindSummary counts the documents of one term kind.
type KindSummary struct {
	Kind       string
	Processed  int
	Skipped    int
	WeightsDir string
}

// Summary describes a finished build.
type Summary struct {
	BuildID    string
	IndexPath  string
	Documents  int
	Terms      int
	Kinds      []KindSummary
	StartedAt  time.Time
	FinishedAt time.Time
}

// Publisher announces finished builds.
type Publisher interface {
	Publish(ctx context.Context, ev notify.IndexBuilt) error
}

// URLMirror copies the document-id to URL map to a shared store.
type URLMirror interface {
	StoreURLs(ctx context.Context, urls map[string]string) error
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithSource replaces the directory source of a term kind.
func WithSource(kind string, src corpus.Source) Option {
	return func(p *Pipeline) { p.sources[kind] = src }
}

func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

func WithRecorder(r buildlog.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func WithURLMirror(m URLMirror) Option {
	return func(p *Pipeline) { p.mirror = m }
}

// Pipeline is a full batch rebuild. Every Run replaces all outputs.
type Pipeline struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	sources   map[string]corpus.Source
	publisher Publisher
	recorder  buildlog.Recorder
	mirror    URLMirror
	logger    *slog.Logger
}

func NewPipeline(cfg *config.Config, m *metrics.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		metrics:  m,
		recorder: buildlog.Nop{},
		sources: map[string]corpus.Source{
			config.KindLemmas: corpus.NewDirSource(cfg.Corpus.LemmasDir, config.KindLemmas, cfg.Corpus.Workers),
			config.KindTokens: corpus.NewDirSource(cfg.Corpus.TokensDir, config.KindTokens, cfg.Corpus.Workers),
		},
		logger: slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run builds the inverted index from the lemma corpus and weight files for
// each configured kind. Outputs are written only after every computation
// succeeded; configuration and empty-corpus errors abort before any write.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		BuildID:   uuid.NewString(),
		IndexPath: p.cfg.Indexer.IndexPath(),
		StartedAt: time.Now(),
	}
	logger := p.logger.With("build_id", summary.BuildID)
	logger.Info("build started", "kinds", p.cfg.Indexer.Kinds)

	err := p.run(ctx, summary)
	summary.FinishedAt = time.Now()
	p.metrics.BuildDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())

	status := buildlog.StatusSucceeded
	if err != nil {
		status = buildlog.StatusFailed
		logger.Error("build failed", "error", err)
	}
	p.metrics.BuildsTotal.WithLabelValues(status).Inc()
	p.record(ctx, summary, status, err)
	if err != nil {
		return nil, err
	}

	logger.Info("build complete",
		"documents", summary.Documents,
		"terms", summary.Terms,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	p.announce(ctx, summary)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, summary *Summary) error {
	batches, err := p.loadBatches(ctx)
	if err != nil {
		return err
	}

	var (
		idx     *index.Index
		mu      sync.Mutex
		results = make(map[string][]weights.DocWeights, len(p.cfg.Indexer.Kinds))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		built, err := index.Build(batches[config.KindLemmas].Documents)
		if err != nil {
			return fmt.Errorf("building inverted index: %w", err)
		}
		idx = built
		return nil
	})
	calc := weights.NewCalculator(p.cfg.Indexer.Threshold, p.cfg.Indexer.Workers)
	for _, kind := range p.cfg.Indexer.Kinds {
		kind := kind
		g.Go(func() error {
			out, err := calc.Compute(gctx, batches[kind].Documents)
			if err != nil {
				return fmt.Errorf("computing %s weights: %w", kind, err)
			}
			mu.Lock()
			results[kind] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := idx.WriteFile(summary.IndexPath); err != nil {
		return err
	}
	summary.Documents = idx.DocCount()
	summary.Terms = len(idx.Postings)

	for _, kind := range p.cfg.Indexer.Kinds {
		store := weights.NewStore(p.cfg.Indexer.WeightsDir(kind))
		if err := store.WriteAll(ctx, results[kind], p.cfg.Indexer.Workers); err != nil {
			return fmt.Errorf("writing %s weights: %w", kind, err)
		}
		batch := batches[kind]
		summary.Kinds = append(summary.Kinds, KindSummary{
			Kind:       kind,
			Processed:  len(batch.Documents),
			Skipped:    len(batch.Skipped),
			WeightsDir: store.Dir(),
		})
	}
	return nil
}

// loadBatches reads the lemma corpus and every configured kind. The lemma
// batch is always loaded since the inverted index is built from it.
func (p *Pipeline) loadBatches(ctx context.Context) (map[string]corpus.Batch, error) {
	kinds := []string{config.KindLemmas}
	for _, k := range p.cfg.Indexer.Kinds {
		if k != config.KindLemmas {
			kinds = append(kinds, k)
		}
	}

	batches := make(map[string]corpus.Batch, len(kinds))
	for _, kind := range kinds {
		src, ok := p.sources[kind]
		if !ok {
			return nil, fmt.Errorf("no corpus source for kind %q", kind)
		}
		batch, err := src.Documents(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading %s corpus: %w", kind, err)
		}
		if len(batch.Documents) == 0 {
			return nil, fmt.Errorf("loading %s corpus: %w", kind,
				&corpus.EmptyCorpusError{Dir: fmt.Sprintf("%s (all %d skipped)", kind, len(batch.Skipped)), Kind: kind})
		}
		p.metrics.BuildDocuments.WithLabelValues(kind, "processed").Add(float64(len(batch.Documents)))
		p.metrics.BuildDocuments.WithLabelValues(kind, "skipped").Add(float64(len(batch.Skipped)))
		batches[kind] = batch
	}
	return batches, nil
}

func (p *Pipeline) record(ctx context.Context, s *Summary, status string, buildErr error) {
	run := buildlog.Run{
		BuildID:    s.BuildID,
		Status:     status,
		Documents:  s.Documents,
		Terms:      s.Terms,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	for _, k := range s.Kinds {
		run.Kinds = append(run.Kinds, buildlog.KindCounts{Kind: k.Kind, Processed: k.Processed, Skipped: k.Skipped})
	}
	if buildErr != nil {
		run.Error = buildErr.Error()
	}
	if err := p.recorder.Record(ctx, run); err != nil {
		p.logger.Warn("failed to record build", "build_id", s.BuildID, "error", err)
	}
}

// announce runs the post-build side effects. Their failures are logged and
// never undo a build whose files are already in place.
func (p *Pipeline) announce(ctx context.Context, s *Summary) {
	if p.mirror != nil {
		if err := p.mirrorURLs(ctx); err != nil {
			p.logger.Warn("url mirror failed", "build_id", s.BuildID, "error", err)
		}
	}
	if p.publisher == nil {
		return
	}
	ev := notify.IndexBuilt{
		BuildID:    s.BuildID,
		IndexPath:  s.IndexPath,
		Documents:  s.Documents,
		Terms:      s.Terms,
		FinishedAt: s.FinishedAt.UTC(),
	}
	for _, k := range s.Kinds {
		ev.Kinds = append(ev.Kinds, notify.KindStats{Kind: k.Kind, Processed: k.Processed, Skipped: k.Skipped})
	}
	if err := p.publisher.Publish(ctx, ev); err != nil {
		p.logger.Warn("build notification failed", "build_id", s.BuildID, "error", err)
	}
}

func (p *Pipeline) mirrorURLs(ctx context.Context) error {
	urls, err := corpus.LoadURLIndex(p.cfg.Catalog.URLIndexFile, p.cfg.Catalog.DocIDPrefix)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("url index is empty")
	}
	return p.mirror.StoreURLs(ctx, urls)
}
