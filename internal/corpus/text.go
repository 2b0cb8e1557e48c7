package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextStore reads the stored plain text of documents from <dir>/<doc_id>.txt.
type TextStore struct {
	dir string
}

func NewTextStore(dir string) *TextStore {
	return &TextStore{dir: dir}
}

// Text returns the stored text of docID. ok is false when the store has no
// directory or the file does not exist.
func (s *TextStore) Text(docID string) (text string, ok bool, err error) {
	if s == nil || s.dir == "" {
		return "", false, nil
	}
	if docID == "" || strings.ContainsAny(docID, `/\`) || docID == "." || docID == ".." {
		return "", false, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, docID+FileExt))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading text of %s: %w", docID, err)
	}
	return string(data), true, nil
}
