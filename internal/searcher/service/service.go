// Package service is the query façade: it runs ranked and boolean queries
// against the current snapshot and decorates hits with URLs and previews.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/normalize"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
)

const (
	modeRanked  = "ranked"
	modeBoolean = "boolean"
)

// Result is one ranked hit.
type Result struct {
	DocumentID string  `json:"document_id"`
	URL        string  `json:"url"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview"`
}

// Match is one boolean hit.
type Match struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
}

// SnapshotSource yields the snapshot to query.
type SnapshotSource interface {
	Snapshot() (*engine.Snapshot, error)
}

// PreviewSource returns a short excerpt of a document.
type PreviewSource interface {
	Preview(docID string) string
}

type Service struct {
	snapshots  SnapshotSource
	previews   PreviewSource
	normalizer normalize.Normalizer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a Service. A nil normalizer only folds case.
func New(snapshots SnapshotSource, previews PreviewSource, n normalize.Normalizer, m *metrics.Metrics) *Service {
	if n == nil {
		n = normalize.Lowercase{}
	}
	return &Service{
		snapshots:  snapshots,
		previews:   previews,
		normalizer: n,
		metrics:    m,
		logger:     slog.Default().With("component", "search"),
	}
}

// Search returns up to topK documents ranked by cosine similarity. An empty
// or whitespace-only query returns no results without touching the ranker.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("component", "search")
	if strings.TrimSpace(query) == "" {
		s.observe(modeRanked, "empty", start, 0)
		return []Result{}, nil
	}
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		s.observe(modeRanked, "error", start, 0)
		return nil, err
	}

	tokens := normalize.Tokens(s.normalizer, query)
	ranked := snap.Ranker.RankTokens(tokens, topK)
	results := make([]Result, len(ranked))
	for i, doc := range ranked {
		results[i] = Result{
			DocumentID: doc.DocID,
			URL:        s.url(ctx, snap, doc.DocID),
			Score:      doc.Score,
		}
		if s.previews != nil {
			results[i].Preview = s.previews.Preview(doc.DocID)
		}
	}

	s.observe(modeRanked, outcome(len(results)), start, len(results))
	log.Info("ranked search completed",
		"query", query,
		"tokens", len(tokens),
		"returned", len(results),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// Boolean evaluates a boolean expression and returns every match in document
// id order. Malformed expressions fail with *boolean.SyntaxError.
func (s *Service) Boolean(ctx context.Context, query string) ([]Match, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("component", "search")
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		s.observe(modeBoolean, "error", start, 0)
		return nil, err
	}

	ids, err := snap.Boolean.SearchNormalized(query, s.normalizer.Normalize)
	if err != nil {
		var syntaxErr *boolean.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.observe(modeBoolean, "syntax_error", start, 0)
			log.Info("boolean query rejected", "query", query, "position", syntaxErr.Pos, "reason", syntaxErr.Message)
		} else {
			s.observe(modeBoolean, "error", start, 0)
		}
		return nil, err
	}

	matches := make([]Match, len(ids))
	for i, id := range ids {
		matches[i] = Match{DocumentID: id, URL: s.url(ctx, snap, id)}
	}
	s.observe(modeBoolean, outcome(len(matches)), start, len(matches))
	log.Info("boolean search completed",
		"query", query,
		"total_hits", len(matches),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return matches, nil
}

func (s *Service) url(ctx context.Context, snap *engine.Snapshot, docID string) string {
	url, ok, err := snap.URLs.URL(ctx, docID)
	if err != nil {
		s.logger.Warn("url lookup failed", "doc_id", docID, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return url
}

func (s *Service) observe(mode, result string, start time.Time, n int) {
	s.metrics.SearchQueriesTotal.WithLabelValues(mode, result).Inc()
	s.metrics.SearchLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if result != "error" && result != "syntax_error" {
		s.metrics.SearchResultsCount.WithLabelValues(mode).Observe(float64(n))
	}
}

func outcome(n int) string {
	if n == 0 {
		return "zero_result"
	}
	return "hit"
}
