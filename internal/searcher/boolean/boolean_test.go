package boolean

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
)

func sampleEvaluator(t testing.TB) *Evaluator {
	t.Helper()
	idx, err := index.Build([]corpus.Document{
		corpus.FromLemmas("doc1", map[string][]string{"cat": {"cat"}, "dog": {"dog"}}),
		corpus.FromLemmas("doc2", map[string][]string{"dog": {"dogs"}}),
		corpus.FromLemmas("doc3", map[string][]string{"fish": {"fish"}, "and": {"and"}}),
	})
	require.NoError(t, err)
	return NewEvaluator(idx, DefaultMaxDepth)
}

func TestSearch_Examples(t *testing.T) {
	e := sampleEvaluator(t)
	tests := []struct {
		query string
		want  []string
	}{
		{"cat and dog", []string{"doc1"}},
		{"dog or fish", []string{"doc1", "doc2", "doc3"}},
		{"not fish", []string{"doc1", "doc2"}},
		{"(cat or fish) and dog", []string{"doc1"}},
		{"CAT AND Dog", []string{"doc1"}},
		{"not not fish", []string{"doc3"}},
		{"not (cat or dog)", []string{"doc3"}},
		{"dog and not cat", []string{"doc2"}},
		{"cat or dog and fish", []string{"doc1"}},
		{"bird", []string{}},
		{"bird or cat", []string{"doc1"}},
		{"not bird", []string{"doc1", "doc2", "doc3"}},
		{`"and"`, []string{"doc3"}},
		{`fish and "AND"`, []string{"doc3"}},
		{"((cat))", []string{"doc1"}},
		{"cat and(dog)", []string{"doc1"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := e.Search(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_SetProperties(t *testing.T) {
	e := sampleEvaluator(t)
	terms := []string{"cat", "dog", "fish", "bird"}
	universe := e.Universe()

	for _, a := range terms {
		ea, err := e.Search(a)
		require.NoError(t, err)

		not, err := e.Search("not " + a)
		require.NoError(t, err)
		assert.ElementsMatch(t, difference(universe, ea), not, "not %s", a)

		for _, b := range terms {
			eb, err := e.Search(b)
			require.NoError(t, err)
			and, err := e.Search(a + " and " + b)
			require.NoError(t, err)
			or, err := e.Search(a + " or " + b)
			require.NoError(t, err)

			assert.Subset(t, ea, and)
			assert.Subset(t, eb, and)
			assert.Subset(t, or, ea)
			assert.Subset(t, or, eb)
		}
	}
}

func difference(all, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, id := range remove {
		drop[id] = true
	}
	out := []string{}
	for _, id := range all {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}

func TestSearch_SyntaxErrors(t *testing.T) {
	e := sampleEvaluator(t)
	tests := []struct {
		query string
		pos   int
	}{
		{"", 0},
		{"   ", 0},
		{"cat and", 7},
		{"and cat", 0},
		{"cat or or dog", 7},
		{"(cat", 0},
		{"cat)", 3},
		{"()", 1},
		{"cat dog", 4},
		{"not", 3},
		{`"cat`, 0},
		{`""`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := e.Search(tt.query)
			assert.Nil(t, got)
			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "got %v", err)
			assert.Equal(t, tt.pos, syntaxErr.Pos)
			assert.ErrorIs(t, err, apperrors.ErrQuerySyntax)
		})
	}
}

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"a or b and c", "(or a (and b c))"},
		{"not a and b", "(and (not a) b)"},
		{"(a or b) and not c", "(and (or a b) (not c))"},
		{"a and b and c", "(and a b c)"},
		{`"or"`, `"or"`},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			node, err := Parse(tt.query, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.String())
		})
	}
}

func TestParse_DepthLimit(t *testing.T) {
	deep := strings.Repeat("(", 5) + "cat" + strings.Repeat(")", 5)
	_, err := Parse(deep, 5)
	require.NoError(t, err)

	_, err = Parse(strings.Repeat("(", 6)+"cat"+strings.Repeat(")", 6), 5)
	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 5, syntaxErr.Pos)

	_, err = Parse(strings.Repeat("not ", 1000)+"cat", DefaultMaxDepth)
	assert.ErrorIs(t, err, apperrors.ErrQuerySyntax)
}

func TestLex(t *testing.T) {
	tokens, err := Lex(`Not (cat OR "and")`)
	require.NoError(t, err)
	kinds := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []TokenKind{TokenNot, TokenLParen, TokenTerm, TokenOr, TokenTerm, TokenRParen, TokenEOF}, kinds)
	assert.Equal(t, "and", tokens[4].Text)
	assert.Equal(t, 12, tokens[4].Pos)
}

func BenchmarkSearch(b *testing.B) {
	docs := make([]corpus.Document, 0, 500)
	for i := 0; i < 500; i++ {
		lemmas := map[string][]string{fmt.Sprintf("t%d", i%37): {"x"}, fmt.Sprintf("u%d", i%11): {"y"}}
		docs = append(docs, corpus.FromLemmas(fmt.Sprintf("doc%04d", i), lemmas))
	}
	idx, err := index.Build(docs)
	require.NoError(b, err)
	e := NewEvaluator(idx, DefaultMaxDepth)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Search("(t1 or t2 or u3) and not (u4 or t5)"); err != nil {
			b.Fatal(err)
		}
	}
}

func TestSearchNormalized(t *testing.T) {
	e := sampleEvaluator(t)
	trimPlural := func(s string) string { return strings.TrimSuffix(s, "s") }

	got, err := e.SearchNormalized("cats and dogs", trimPlural)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1"}, got)

	got, err = e.SearchNormalized(`"cats"`, trimPlural)
	require.NoError(t, err)
	assert.Empty(t, got)

	node, err := Parse(`not (cats or "dogs")`, 0)
	require.NoError(t, err)
	assert.Equal(t, `(not (or cat "dogs"))`, MapTerms(node, trimPlural).String())
}
