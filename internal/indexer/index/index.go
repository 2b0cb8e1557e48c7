// Package index builds the inverted index (term → sorted document ids) and
// persists it as a JSON object.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
)

// Index maps every term to the sorted, de-duplicated ids of the documents
// that contain it. Universe is the sorted set of all indexed document ids.
// An Index is read-only once built.
type Index struct {
	Postings map[string][]string
	Universe []string
}

// Build indexes docs. Each document contributes its id once per distinct
// term, so a document without terms stays outside the universe just as it
// would after a round trip through the index file. Building from zero
// documents fails with *corpus.EmptyCorpusError.
func Build(docs []corpus.Document) (*Index, error) {
	if len(docs) == 0 {
		return nil, &corpus.EmptyCorpusError{Dir: "<documents>", Kind: "index"}
	}
	raw := make(map[string][]string)
	for _, doc := range docs {
		for _, term := range doc.SortedTerms() {
			raw[term] = append(raw[term], doc.ID)
		}
	}
	return fromRaw(raw), nil
}

// fromRaw sorts and de-duplicates discovery-order postings. The universe is
// the union of every posting list.
func fromRaw(raw map[string][]string) *Index {
	idx := &Index{Postings: make(map[string][]string, len(raw))}
	seen := make(map[string]struct{})
	for term, list := range raw {
		sorted := sortedUnique(list)
		idx.Postings[term] = sorted
		for _, id := range sorted {
			seen[id] = struct{}{}
		}
	}
	idx.Universe = make([]string, 0, len(seen))
	for id := range seen {
		idx.Universe = append(idx.Universe, id)
	}
	sort.Strings(idx.Universe)
	return idx
}

func sortedUnique(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}

// Lookup returns the posting list of term, or nil when it is not indexed.
// The returned slice must not be modified.
func (idx *Index) Lookup(term string) []string {
	return idx.Postings[term]
}

// Terms returns the indexed vocabulary in lexical order.
func (idx *Index) Terms() []string {
	terms := make([]string, 0, len(idx.Postings))
	for t := range idx.Postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// DocCount returns the number of documents in the universe.
func (idx *Index) DocCount() int {
	return len(idx.Universe)
}

// DocFreq returns the number of documents containing term.
func (idx *Index) DocFreq(term string) int {
	return len(idx.Postings[term])
}
