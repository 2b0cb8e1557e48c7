package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/catalog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
)

func staticSnapshot(t *testing.T, ids ...string) *Snapshot {
	t.Helper()
	docs := make([]corpus.Document, len(ids))
	for i, id := range ids {
		docs[i] = corpus.FromTokens(id, []string{"x"})
	}
	idx, err := index.Build(docs)
	require.NoError(t, err)
	return &Snapshot{
		Index:    idx,
		Boolean:  boolean.NewEvaluator(idx, 0),
		Ranker:   ranker.New(nil),
		URLs:     catalog.NewMapResolver(nil),
		LoadedAt: time.Now(),
	}
}

func TestEngine_NotReady(t *testing.T) {
	e := New(func(ctx context.Context) (*Snapshot, error) { return nil, errors.New("nope") }, metrics.NewNop())
	_, err := e.Snapshot()
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)
	assert.Equal(t, health.StatusDown, e.HealthCheck()(context.Background()).Status)
}

func TestEngine_ReloadKeepsPreviousOnFailure(t *testing.T) {
	m := metrics.NewNop()
	fail := false
	e := New(func(ctx context.Context) (*Snapshot, error) {
		if fail {
			return nil, errors.New("corrupt index")
		}
		return staticSnapshot(t, "doc1"), nil
	}, m)

	require.NoError(t, e.Reload(context.Background()))
	first, err := e.Snapshot()
	require.NoError(t, err)

	fail = true
	require.Error(t, e.Reload(context.Background()))
	current, err := e.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, current)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotReloadsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotReloadsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotDocuments))
	assert.Equal(t, health.StatusUp, e.HealthCheck()(context.Background()).Status)
}

func TestEngine_ConcurrentReloadsCoalesce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	e := New(func(ctx context.Context) (*Snapshot, error) {
		calls.Add(1)
		<-release
		return staticSnapshot(t, "doc1"), nil
	}, metrics.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Reload(context.Background()))
		}()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestFileLoader(t *testing.T) {
	cfg := config.Default()
	cfg.Indexer.DataDir = t.TempDir()
	cfg.Indexer.Kinds = []string{config.KindLemmas, config.KindTokens}
	urlFile := filepath.Join(t.TempDir(), "index.txt")
	require.NoError(t, os.WriteFile(urlFile, []byte("1\thttps://example.com/cats\n"), 0o644))
	cfg.Catalog.URLIndexFile = urlFile

	lemmas := corpus.StaticSource{Kind: config.KindLemmas, Docs: []corpus.Document{
		corpus.FromLemmas("page_1", map[string][]string{"cat": {"cat"}}),
		corpus.FromLemmas("page_2", map[string][]string{"dog": {"dog"}}),
	}}
	tokens := corpus.StaticSource{Kind: config.KindTokens, Docs: []corpus.Document{
		corpus.FromTokens("page_1", []string{"cat"}),
		corpus.FromTokens("page_2", []string{"dog"}),
	}}
	_, err := indexer.NewPipeline(cfg, metrics.NewNop(),
		indexer.WithSource(config.KindLemmas, lemmas),
		indexer.WithSource(config.KindTokens, tokens),
	).Run(context.Background())
	require.NoError(t, err)

	e := New(FileLoader(cfg, nil), metrics.NewNop())
	require.NoError(t, e.Reload(context.Background()))
	snap, err := e.Snapshot()
	require.NoError(t, err)

	ids, err := snap.Boolean.Search("cat or dog")
	require.NoError(t, err)
	assert.Equal(t, []string{"page_1", "page_2"}, ids)

	ranked := snap.Ranker.Rank("cat", 1)
	require.Len(t, ranked, 1)
	assert.Equal(t, "page_1", ranked[0].DocID)

	url, ok, err := snap.URLs.URL(context.Background(), "page_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/cats", url)
}

func TestFileLoader_MissingIndex(t *testing.T) {
	cfg := config.Default()
	cfg.Indexer.DataDir = t.TempDir()
	_, err := FileLoader(cfg, nil)(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrMissingInput)
}
