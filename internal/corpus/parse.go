package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
)

const maxLineSize = 1024 * 1024

// ParseLemmaFile reads lines of the form "lemma: form1, form2, ...". Blank
// lines are ignored. A line without a colon, with an empty lemma or with no
// forms fails the whole file. Duplicate forms of a lemma are collapsed.
func ParseLemmaFile(r io.Reader) (map[string][]string, error) {
	lemmas := make(map[string][]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		head, tail, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: missing ':' separator: %w", lineNo, apperrors.ErrMalformedLine)
		}
		lemma := strings.ToLower(strings.TrimSpace(head))
		if lemma == "" || strings.ContainsAny(lemma, " \t") {
			return nil, fmt.Errorf("line %d: invalid lemma %q: %w", lineNo, head, apperrors.ErrMalformedLine)
		}
		forms := splitForms(tail)
		if len(forms) == 0 {
			return nil, fmt.Errorf("line %d: lemma %q has no forms: %w", lineNo, lemma, apperrors.ErrMalformedLine)
		}
		lemmas[lemma] = mergeForms(lemmas[lemma], forms)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lemma file: %w", err)
	}
	return lemmas, nil
}

// ParseTokenFile reads whitespace separated surface tokens.
func ParseTokenFile(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		for _, tok := range strings.Fields(scanner.Text()) {
			tokens = append(tokens, strings.ToLower(tok))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	return tokens, nil
}

func splitForms(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	forms := make([]string, 0, len(fields))
	for _, f := range fields {
		forms = append(forms, strings.ToLower(f))
	}
	return forms
}

func mergeForms(existing, forms []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(forms))
	for _, f := range existing {
		seen[f] = struct{}{}
	}
	for _, f := range forms {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		existing = append(existing, f)
	}
	return existing
}
