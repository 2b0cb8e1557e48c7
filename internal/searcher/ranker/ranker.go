// Package ranker scores documents against free-text queries with TF-IDF
// weighted vectors and cosine similarity.
package ranker

import (
	"math"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/weights"
)

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Ranker holds a dense document-term matrix. Rows are documents in sorted id
// order, columns the sorted vocabulary. It is immutable and safe for
// concurrent use.
type Ranker struct {
	docIDs     []string
	vocabulary []string
	columns    map[string]int
	matrix     []float64
	norms      []float64
}

// New builds the matrix from loaded weight records, using the tf·idf column.
func New(docs []weights.DocWeights) *Ranker {
	sorted := make([]weights.DocWeights, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DocID < sorted[j].DocID })

	seen := make(map[string]struct{})
	for _, dw := range sorted {
		for _, rec := range dw.Records {
			seen[rec.Term] = struct{}{}
		}
	}
	r := &Ranker{
		docIDs:     make([]string, len(sorted)),
		vocabulary: make([]string, 0, len(seen)),
		columns:    make(map[string]int, len(seen)),
	}
	for term := range seen {
		r.vocabulary = append(r.vocabulary, term)
	}
	sort.Strings(r.vocabulary)
	for j, term := range r.vocabulary {
		r.columns[term] = j
	}

	cols := len(r.vocabulary)
	r.matrix = make([]float64, len(sorted)*cols)
	r.norms = make([]float64, len(sorted))
	for i, dw := range sorted {
		r.docIDs[i] = dw.DocID
		row := r.matrix[i*cols : (i+1)*cols]
		for _, rec := range dw.Records {
			row[r.columns[rec.Term]] = rec.TFIDF
		}
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		r.norms[i] = math.Sqrt(sum)
	}
	return r
}

// DocCount returns the number of matrix rows.
func (r *Ranker) DocCount() int {
	return len(r.docIDs)
}

// Vocabulary returns the column terms in order.
func (r *Ranker) Vocabulary() []string {
	return r.vocabulary
}

// Weight returns the matrix value of term in docID, or 0.
func (r *Ranker) Weight(docID, term string) float64 {
	i := sort.SearchStrings(r.docIDs, docID)
	j, ok := r.columns[term]
	if i == len(r.docIDs) || r.docIDs[i] != docID || !ok {
		return 0
	}
	return r.matrix[i*len(r.vocabulary)+j]
}

// Rank splits query on whitespace, lower-cases it and ranks with RankTokens.
func (r *Ranker) Rank(query string, k int) []ScoredDoc {
	return r.RankTokens(strings.Fields(strings.ToLower(query)), k)
}

// RankTokens returns at most k documents by descending cosine similarity to
// the query vector. Equal scores keep row order. The result is empty when
// k <= 0 or no token is in the vocabulary. Zero-scoring documents are
// returned when fewer than k documents score above zero.
func (r *Ranker) RankTokens(tokens []string, k int) []ScoredDoc {
	if k <= 0 || len(tokens) == 0 || len(r.docIDs) == 0 {
		return []ScoredDoc{}
	}

	query := make(map[int]float64)
	for _, tok := range tokens {
		if j, ok := r.columns[tok]; ok {
			query[j]++
		}
	}
	var qnorm float64
	for j, count := range query {
		w := count / float64(len(tokens))
		query[j] = w
		qnorm += w * w
	}
	qnorm = math.Sqrt(qnorm)
	if qnorm == 0 {
		return []ScoredDoc{}
	}

	cols := len(r.vocabulary)
	top := newTopK(k)
	for i := range r.docIDs {
		var score float64
		if r.norms[i] != 0 {
			var dot float64
			row := r.matrix[i*cols : (i+1)*cols]
			for j, w := range query {
				dot += w * row[j]
			}
			score = dot / (qnorm * r.norms[i])
		}
		top.offer(i, score)
	}

	ranked := top.sorted()
	out := make([]ScoredDoc, len(ranked))
	for n, c := range ranked {
		out[n] = ScoredDoc{DocID: r.docIDs[c.row], Score: c.score}
	}
	return out
}
