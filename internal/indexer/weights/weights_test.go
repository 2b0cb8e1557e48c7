package weights

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
)

func sampleDocs() []corpus.Document {
	return []corpus.Document{
		corpus.FromTokens("doc1", []string{"cat", "dog"}),
		corpus.FromTokens("doc2", []string{"dog"}),
		corpus.FromTokens("doc3", []string{"fish", "fish"}),
	}
}

func recordFor(dw DocWeights, term string) (Record, bool) {
	for _, r := range dw.Records {
		if r.Term == term {
			return r, true
		}
	}
	return Record{}, false
}

func TestIDF(t *testing.T) {
	assert.InDelta(t, math.Log(4.0/2.0), IDF(3, 1), 1e-12)
	assert.InDelta(t, 0.0, IDF(3, 3), 1e-12)
}

func TestCompute(t *testing.T) {
	out, err := NewCalculator(DefaultThreshold, 2).Compute(context.Background(), sampleDocs())
	require.NoError(t, err)
	require.Len(t, out, 3)

	doc1 := out[0]
	assert.Equal(t, "doc1", doc1.DocID)
	cat, ok := recordFor(doc1, "cat")
	require.True(t, ok)
	assert.InDelta(t, math.Log(2), cat.IDF, 1e-12)
	assert.InDelta(t, 0.5*math.Log(2), cat.TFIDF, 1e-12)

	dog, ok := recordFor(doc1, "dog")
	require.True(t, ok)
	assert.InDelta(t, math.Log(4.0/3.0), dog.IDF, 1e-12)

	fish, ok := recordFor(out[2], "fish")
	require.True(t, ok)
	assert.InDelta(t, math.Log(2), fish.TFIDF, 1e-12)
}

func TestCompute_RecordsSortedAndThresholded(t *testing.T) {
	docs := []corpus.Document{
		corpus.FromTokens("a", []string{"zeta", "alpha", "common"}),
		corpus.FromTokens("b", []string{"common"}),
	}
	out, err := NewCalculator(DefaultThreshold, 1).Compute(context.Background(), docs)
	require.NoError(t, err)

	terms := make([]string, 0)
	for _, r := range out[0].Records {
		terms = append(terms, r.Term)
		assert.GreaterOrEqual(t, r.TFIDF, DefaultThreshold)
	}
	// "common" has idf ln(3/3) = 0 and is dropped.
	assert.Equal(t, []string{"alpha", "zeta"}, terms)
	assert.Empty(t, out[1].Records)
}

func TestCompute_EmptyDocument(t *testing.T) {
	docs := []corpus.Document{
		{ID: "empty", Terms: map[string]int{}},
		corpus.FromTokens("full", []string{"cat"}),
	}
	out, err := NewCalculator(DefaultThreshold, 1).Compute(context.Background(), docs)
	require.NoError(t, err)
	assert.Empty(t, out[0].Records)
	cat, ok := recordFor(out[1], "cat")
	require.True(t, ok)
	// N counts the empty document: ln(3/2).
	assert.InDelta(t, math.Log(1.5), cat.IDF, 1e-12)
}

func TestCompute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCalculator(DefaultThreshold, 1).Compute(ctx, sampleDocs())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_WriteAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "weights")
	store := NewStore(dir)
	out, err := NewCalculator(DefaultThreshold, 1).Compute(context.Background(), sampleDocs())
	require.NoError(t, err)
	require.NoError(t, store.WriteAll(context.Background(), out, 2))

	data, err := os.ReadFile(filepath.Join(dir, "doc1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "cat 0.693147 0.346574\ndog 0.287682 0.143841\n", string(data))

	loaded, skipped, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, loaded, 3)
	assert.Equal(t, "doc1", loaded[0].DocID)
	assert.InDelta(t, 0.346574, loaded[0].Records[0].TFIDF, 1e-9)
}

func TestStore_WriteAllPrunesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gone.txt"), []byte("cat 1.0 0.5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("keep"), 0o644))

	out, err := NewCalculator(DefaultThreshold, 1).Compute(context.Background(), sampleDocs())
	require.NoError(t, err)
	require.NoError(t, store.WriteAll(context.Background(), out, 1))

	names, err := corpus.ListDocuments(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1.txt", "doc2.txt", "doc3.txt"}, names)
	assert.FileExists(t, filepath.Join(dir, "README"))
}

func TestStore_LoadSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.txt"), []byte("cat 1.0 0.5\nshort line\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("cat one 0.5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nan.txt"), []byte("cat NaN NaN\ndog 1.0 0.5\n"), 0o644))

	loaded, skipped, err := NewStore(dir).Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "good", loaded[0].DocID)
	assert.Len(t, loaded[0].Records, 1)
	require.Len(t, skipped, 2)
	assert.Equal(t, "bad", skipped[0].DocID)
	assert.Equal(t, "nan", skipped[1].DocID)
	for _, s := range skipped {
		assert.ErrorIs(t, s.Err, apperrors.ErrMalformedLine)
	}
}

func TestStore_LoadErrors(t *testing.T) {
	_, _, err := NewStore(filepath.Join(t.TempDir(), "missing")).Load()
	assert.ErrorIs(t, err, apperrors.ErrMissingInput)

	_, _, err = NewStore(t.TempDir()).Load()
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
}

func TestDecode(t *testing.T) {
	records, err := Decode(strings.NewReader("a 1.000000 0.250000\n\nb: 2 0.5 extra\n"))
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Term: "a", IDF: 1, TFIDF: 0.25},
		{Term: "b", IDF: 2, TFIDF: 0.5},
	}, records)
}

func TestDecode_RejectsOutOfRangeWeights(t *testing.T) {
	tests := map[string]string{
		"nan idf":      "cat NaN 0.5\n",
		"nan tfidf":    "cat 1.0 NaN\n",
		"inf":          "dog 1.0 0.5\ncat +Inf 0.5\n",
		"negative":     "cat 1.0 -0.5\n",
		"not a number": "cat one 0.5\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMalformedLine)
			assert.Contains(t, err.Error(), "line ")
		})
	}
}
