package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/weights"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/catalog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/normalize"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
)

type fixedSnapshot struct {
	snap  *engine.Snapshot
	err   error
	calls int
}

func (f *fixedSnapshot) Snapshot() (*engine.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

type mapPreviews map[string]string

func (m mapPreviews) Preview(docID string) string { return m[docID] }

func newSnapshot(t *testing.T) *engine.Snapshot {
	t.Helper()
	docs := []corpus.Document{
		corpus.FromLemmas("doc1", map[string][]string{"cat": {"cat"}, "dog": {"dog"}}),
		corpus.FromLemmas("doc2", map[string][]string{"dog": {"dogs"}}),
		corpus.FromLemmas("doc3", map[string][]string{"fish": {"fish"}}),
	}
	idx, err := index.Build(docs)
	require.NoError(t, err)
	w, err := weights.NewCalculator(weights.DefaultThreshold, 1).Compute(context.Background(), docs)
	require.NoError(t, err)
	return &engine.Snapshot{
		Index:    idx,
		Boolean:  boolean.NewEvaluator(idx, 0),
		Ranker:   ranker.New(w),
		URLs:     catalog.NewMapResolver(map[string]string{"doc1": "https://example.com/1"}),
		LoadedAt: time.Now(),
	}
}

func TestSearch(t *testing.T) {
	m := metrics.NewNop()
	svc := New(&fixedSnapshot{snap: newSnapshot(t)}, mapPreviews{"doc1": "about cats..."}, nil, m)

	results, err := svc.Search(context.Background(), "Cat", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc1", results[0].DocumentID)
	assert.Equal(t, "https://example.com/1", results[0].URL)
	assert.Equal(t, "about cats...", results[0].Preview)
	assert.Greater(t, results[0].Score, 0.0)
	assert.Equal(t, 0.0, results[1].Score)
	assert.Equal(t, "", results[1].URL)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(modeRanked, "hit")))
}

func TestSearch_EmptyQuerySkipsRanker(t *testing.T) {
	src := &fixedSnapshot{snap: newSnapshot(t)}
	svc := New(src, nil, nil, metrics.NewNop())

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := svc.Search(context.Background(), q, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NotNil(t, results)
	}
	assert.Zero(t, src.calls)
}

func TestSearch_OutOfVocabulary(t *testing.T) {
	svc := New(&fixedSnapshot{snap: newSnapshot(t)}, nil, nil, metrics.NewNop())
	results, err := svc.Search(context.Background(), "bird", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_NotReady(t *testing.T) {
	notReady := apperrors.New(apperrors.ErrIndexNotReady, 0, "no index snapshot loaded")
	svc := New(&fixedSnapshot{err: notReady}, nil, nil, metrics.NewNop())
	_, err := svc.Search(context.Background(), "cat", 10)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)
	_, err = svc.Boolean(context.Background(), "cat")
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)
}

func TestBoolean(t *testing.T) {
	m := metrics.NewNop()
	svc := New(&fixedSnapshot{snap: newSnapshot(t)}, nil, nil, m)

	matches, err := svc.Boolean(context.Background(), "dog and not fish")
	require.NoError(t, err)
	assert.Equal(t, []Match{
		{DocumentID: "doc1", URL: "https://example.com/1"},
		{DocumentID: "doc2"},
	}, matches)

	matches, err = svc.Boolean(context.Background(), "bird")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(modeBoolean, "zero_result")))
}

func TestBoolean_SyntaxError(t *testing.T) {
	m := metrics.NewNop()
	svc := New(&fixedSnapshot{snap: newSnapshot(t)}, nil, nil, m)

	matches, err := svc.Boolean(context.Background(), "cat and (dog")
	assert.Nil(t, matches)
	var syntaxErr *boolean.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 8, syntaxErr.Pos)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(modeBoolean, "syntax_error")))
}

func TestBoolean_Normalizer(t *testing.T) {
	stemmer, err := normalize.NewSnowball("english")
	require.NoError(t, err)
	svc := New(&fixedSnapshot{snap: newSnapshot(t)}, nil, stemmer, metrics.NewNop())

	matches, err := svc.Boolean(context.Background(), "cats or fishes")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "doc1", matches[0].DocumentID)
	assert.Equal(t, "doc3", matches[1].DocumentID)
}
