package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
)

// FileExt is the extension of every per-document file in a corpus directory.
const FileExt = ".txt"

// Source yields already-normalized documents. It is the boundary to the
// preprocessing collaborator: lemmatization and stop-word handling happen
// behind it.
type Source interface {
	Documents(ctx context.Context) (Batch, error)
}

// DirSource reads one file per document from a directory, in parallel.
type DirSource struct {
	dir     string
	kind    string
	workers int
	logger  *slog.Logger
}

// NewDirSource creates a DirSource for lemma or token files.
func NewDirSource(dir, kind string, workers int) *DirSource {
	if workers < 1 {
		workers = 1
	}
	return &DirSource{
		dir:     dir,
		kind:    kind,
		workers: workers,
		logger:  slog.Default().With("component", "corpus", "kind", kind),
	}
}

// Documents parses every *.txt file in the directory. Unreadable or malformed
// files are logged and reported in Batch.Skipped. A missing directory is a
// configuration error; a directory with no eligible files yields
// *EmptyCorpusError.
func (s *DirSource) Documents(ctx context.Context) (Batch, error) {
	batch := Batch{Kind: s.kind}
	names, err := ListDocuments(s.dir)
	if err != nil {
		return batch, err
	}
	if len(names) == 0 {
		return batch, &EmptyCorpusError{Dir: s.dir, Kind: s.kind}
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return batch, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return batch, err
		}
		path := filepath.Join(s.dir, name)
		docID := strings.TrimSuffix(name, FileExt)
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			doc, err := s.readDocument(docID, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("skipping document", "doc_id", docID, "path", path, "error", err)
				batch.Skipped = append(batch.Skipped, Skip{DocID: docID, Path: path, Err: err})
				return
			}
			batch.Documents = append(batch.Documents, doc)
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return batch, fmt.Errorf("submitting %s: %w", name, submitErr)
		}
	}
	wg.Wait()

	sort.Slice(batch.Documents, func(i, j int) bool {
		return batch.Documents[i].ID < batch.Documents[j].ID
	})
	sort.Slice(batch.Skipped, func(i, j int) bool {
		return batch.Skipped[i].DocID < batch.Skipped[j].DocID
	})
	s.logger.Info("corpus loaded",
		"dir", s.dir,
		"documents", len(batch.Documents),
		"skipped", len(batch.Skipped),
	)
	return batch, nil
}

func (s *DirSource) readDocument(docID, path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	switch s.kind {
	case config.KindTokens:
		tokens, err := ParseTokenFile(f)
		if err != nil {
			return Document{}, err
		}
		return FromTokens(docID, tokens), nil
	default:
		lemmas, err := ParseLemmaFile(f)
		if err != nil {
			return Document{}, err
		}
		return FromLemmas(docID, lemmas), nil
	}
}

// ListDocuments returns the sorted names of the *.txt files in dir. A
// missing directory is reported as ErrMissingInput.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrMissingInput, 0, "directory %s does not exist", dir)
		}
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FileExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// StaticSource serves a fixed set of documents. It lets callers that already
// hold normalized lemma data skip the filesystem.
type StaticSource struct {
	Kind string
	Docs []Document
}

// Documents returns the documents sorted by ID.
func (s StaticSource) Documents(ctx context.Context) (Batch, error) {
	if len(s.Docs) == 0 {
		return Batch{Kind: s.Kind}, &EmptyCorpusError{Dir: "<static>", Kind: s.Kind}
	}
	docs := make([]Document, len(s.Docs))
	copy(docs, s.Docs)
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return Batch{Kind: s.Kind, Documents: docs}, nil
}
