package weights

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/fileutil"
)

// Store reads and writes weight files: <dir>/<doc_id>.txt with one
// "term idf tfidf" line per record.
type Store struct {
	dir    string
	logger *slog.Logger
}

func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "weight_store", "dir", dir),
	}
}

// Dir returns the directory the store reads from and writes to.
func (s *Store) Dir() string {
	return s.dir
}

// Write persists one document's records, replacing any previous file.
func (s *Store) Write(dw DocWeights) error {
	path := filepath.Join(s.dir, dw.DocID+corpus.FileExt)
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, dw.Records)
	})
	if err != nil {
		return fmt.Errorf("writing weights for %s: %w", dw.DocID, err)
	}
	return nil
}

// WriteAll writes every document with up to workers concurrent writes, then
// removes weight files of documents no longer in all.
func (s *Store) WriteAll(ctx context.Context, all []DocWeights, workers int) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating weights directory: %w", err)
	}
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, dw := range all {
		dw := dw
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.Write(dw)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return s.prune(all)
}

func (s *Store) prune(keep []DocWeights) error {
	names, err := corpus.ListDocuments(s.dir)
	if err != nil {
		return err
	}
	live := make(map[string]struct{}, len(keep))
	for _, dw := range keep {
		live[dw.DocID+corpus.FileExt] = struct{}{}
	}
	removed := 0
	for _, name := range names {
		if _, ok := live[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale weight file %s: %w", name, err)
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("stale weight files removed", "count", removed)
	}
	return nil
}

// Encode writes records in file order. Records are expected sorted by term.
func Encode(w io.Writer, records []Record) error {
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%s %.6f %.6f\n", r.Term, r.IDF, r.TFIDF); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses a weight file. Lines with fewer than three fields are
// ignored; an unparsable, negative or non-finite number fails the whole file
// with ErrMalformedLine. A trailing ':' on the term is dropped.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		idf, err := parseWeight(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: idf: %w", lineNo, err)
		}
		tfidf, err := parseWeight(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: tfidf: %w", lineNo, err)
		}
		records = append(records, Record{Term: strings.TrimSuffix(fields[0], ":"), IDF: idf, TFIDF: tfidf})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading weight file: %w", err)
	}
	return records, nil
}

func parseWeight(field string) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrMalformedLine, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: weight %q out of range", apperrors.ErrMalformedLine, field)
	}
	return v, nil
}

// Load reads every weight file in filename order. Unreadable files are
// logged and returned as skips. A missing directory fails with
// ErrMissingInput and an empty one with *corpus.EmptyCorpusError.
func (s *Store) Load() ([]DocWeights, []corpus.Skip, error) {
	names, err := corpus.ListDocuments(s.dir)
	if err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		return nil, nil, &corpus.EmptyCorpusError{Dir: s.dir, Kind: "weights"}
	}

	var (
		out     = make([]DocWeights, 0, len(names))
		skipped []corpus.Skip
	)
	for _, name := range names {
		docID := strings.TrimSuffix(name, corpus.FileExt)
		path := filepath.Join(s.dir, name)
		records, err := readRecords(path)
		if err != nil {
			s.logger.Warn("skipping weight file", "doc_id", docID, "error", err)
			skipped = append(skipped, corpus.Skip{DocID: docID, Path: path, Err: err})
			continue
		}
		out = append(out, DocWeights{DocID: docID, Records: records})
	}
	s.logger.Info("weights loaded", "documents", len(out), "skipped", len(skipped))
	return out, skipped, nil
}

func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
