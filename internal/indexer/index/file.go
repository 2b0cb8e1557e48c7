package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/fileutil"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
)

// WriteFile atomically writes the index as {"term": ["doc_id", ...]}.
func (idx *Index) WriteFile(path string) error {
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(idx.Postings)
	})
	if err != nil {
		return fmt.Errorf("writing inverted index: %w", err)
	}
	return nil
}

// Decode reads an index object. Posting lists are sorted and de-duplicated;
// the universe is the union of all lists.
func Decode(r io.Reader) (*Index, error) {
	var raw map[string][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, 0, "decoding inverted index: %v", err)
	}
	return fromRaw(raw), nil
}

// ReadFile loads an index written by WriteFile or by an external builder
// using the same JSON shape.
func ReadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrMissingInput, 0, "inverted index %s does not exist", path)
		}
		return nil, fmt.Errorf("opening inverted index: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
