// Package corpus reads the per-document term files produced by the external
// preprocessing step (lemma files and token files), the document-id to URL
// index and the stored document text.
package corpus

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
)

// Document is one preprocessed document reduced to term counts.
type Document struct {
	ID    string
	Terms map[string]int
	Total int
}

// HasTerm reports whether the document contains term at least once.
func (d Document) HasTerm(term string) bool {
	_, ok := d.Terms[term]
	return ok
}

// SortedTerms returns the document's distinct terms in lexical order.
func (d Document) SortedTerms() []string {
	terms := make([]string, 0, len(d.Terms))
	for t := range d.Terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// FromLemmas builds a Document from a lemma → surface forms mapping. The
// count of a lemma is the number of surface forms that produced it.
func FromLemmas(id string, lemmas map[string][]string) Document {
	doc := Document{ID: id, Terms: make(map[string]int, len(lemmas))}
	for lemma, forms := range lemmas {
		doc.Terms[lemma] = len(forms)
		doc.Total += len(forms)
	}
	return doc
}

// FromTokens builds a Document by counting surface tokens.
func FromTokens(id string, tokens []string) Document {
	doc := Document{ID: id, Terms: make(map[string]int)}
	for _, tok := range tokens {
		doc.Terms[tok]++
	}
	doc.Total = len(tokens)
	return doc
}

// Skip records a document that could not be read.
type Skip struct {
	DocID string
	Path  string
	Err   error
}

// Batch is the outcome of reading a corpus directory. Documents are sorted
// by ID; Skipped lists per-document failures that did not abort the batch.
type Batch struct {
	Kind      string
	Documents []Document
	Skipped   []Skip
}

// IDs returns the document IDs in batch order.
func (b Batch) IDs() []string {
	ids := make([]string, len(b.Documents))
	for i, d := range b.Documents {
		ids[i] = d.ID
	}
	return ids
}

// EmptyCorpusError reports that a directory held no eligible documents.
type EmptyCorpusError struct {
	Dir  string
	Kind string
}

func (e *EmptyCorpusError) Error() string {
	return fmt.Sprintf("no %s documents found in %s", e.Kind, e.Dir)
}

func (e *EmptyCorpusError) Unwrap() error {
	return apperrors.ErrEmptyCorpus
}
