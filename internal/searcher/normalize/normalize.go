// Package normalize maps raw query words onto the term space of the index.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kljensen/snowball"
)

// Normalizer rewrites a single query word.
type Normalizer interface {
	Normalize(word string) string
}

// Lowercase only folds case.
type Lowercase struct{}

func (Lowercase) Normalize(word string) string {
	return strings.ToLower(word)
}

// Snowball folds case and reduces words to their Snowball stem.
type Snowball struct {
	language string
}

// NewSnowball validates language against the stemmers snowball ships.
func NewSnowball(language string) (*Snowball, error) {
	if _, err := snowball.Stem("test", language, true); err != nil {
		return nil, fmt.Errorf("unsupported stemmer language %q: %w", language, err)
	}
	return &Snowball{language: language}, nil
}

func (s *Snowball) Normalize(word string) string {
	lower := strings.ToLower(word)
	stemmed, err := snowball.Stem(lower, s.language, true)
	if err != nil || stemmed == "" {
		return lower
	}
	return stemmed
}

// New returns the normalizer named by language. An empty name or "none"
// yields Lowercase. Stems only match an index whose term files were stemmed
// with the same language; lemmatized term files need "none".
func New(language string) (Normalizer, error) {
	switch strings.ToLower(language) {
	case "", "none":
		return Lowercase{}, nil
	default:
		s, err := NewSnowball(strings.ToLower(language))
		if err != nil {
			return nil, err
		}
		slog.Default().With("component", "normalize").Warn(
			"query stemming enabled; term files must be stemmed the same way",
			"language", s.language)
		return s, nil
	}
}

// Tokens lower-cases, splits on whitespace and normalizes every word.
func Tokens(n Normalizer, query string) []string {
	fields := strings.Fields(query)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := n.Normalize(f); w != "" {
			out = append(out, w)
		}
	}
	return out
}
