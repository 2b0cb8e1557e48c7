// Package weights computes per-document TF-IDF term weights and persists them
// as one weight file per document.
package weights

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
)

// DefaultThreshold is the smallest tf·idf that is kept.
const DefaultThreshold = 0.0001

// Record is the weight of one term in one document.
type Record struct {
	Term  string
	IDF   float64
	TFIDF float64
}

// DocWeights holds the kept records of one document, sorted by term.
type DocWeights struct {
	DocID   string
	Records []Record
}

// Calculator turns a corpus batch into weight records.
type Calculator struct {
	threshold float64
	workers   int
	logger    *slog.Logger
}

// NewCalculator creates a Calculator. A non-positive worker count uses
// GOMAXPROCS.
func NewCalculator(threshold float64, workers int) *Calculator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Calculator{
		threshold: threshold,
		workers:   workers,
		logger:    slog.Default().With("component", "weights"),
	}
}

// IDF returns ln((n+1)/(df+1)).
func IDF(n, df int) float64 {
	return math.Log(float64(n+1) / float64(df+1))
}

// DocumentFrequencies counts, for every term, the documents containing it.
func DocumentFrequencies(docs []corpus.Document) map[string]int {
	df := make(map[string]int)
	for _, doc := range docs {
		for term := range doc.Terms {
			df[term]++
		}
	}
	return df
}

// Compute returns one DocWeights per input document, in input order. N is
// len(docs). Documents with no terms produce an empty record list.
func (c *Calculator) Compute(ctx context.Context, docs []corpus.Document) ([]DocWeights, error) {
	n := len(docs)
	df := DocumentFrequencies(docs)
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = IDF(n, count)
	}

	out := make([]DocWeights, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range docs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = c.weigh(docs[i], idf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("weights computed", "documents", n, "vocabulary", len(idf))
	return out, nil
}

func (c *Calculator) weigh(doc corpus.Document, idf map[string]float64) DocWeights {
	dw := DocWeights{DocID: doc.ID}
	if doc.Total == 0 {
		return dw
	}
	dw.Records = make([]Record, 0, len(doc.Terms))
	for term, count := range doc.Terms {
		tf := float64(count) / float64(doc.Total)
		w := tf * idf[term]
		if w < c.threshold {
			continue
		}
		dw.Records = append(dw.Records, Record{Term: term, IDF: idf[term], TFIDF: w})
	}
	sort.Slice(dw.Records, func(i, j int) bool {
		return dw.Records[i].Term < dw.Records[j].Term
	})
	return dw
}
