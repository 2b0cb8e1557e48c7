package catalog

import (
	"log/slog"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
)

// Ellipsis marks a truncated preview.
const Ellipsis = "..."

// TextSource returns the stored text of a document.
type TextSource interface {
	Text(docID string) (text string, ok bool, err error)
}

// Previews cuts stored document text down to a fixed number of runes. Cut
// previews are kept in an LRU keyed by document id.
type Previews struct {
	source  TextSource
	length  int
	cache   *lru.Cache[string, string]
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPreviews creates a preview store. cacheSize <= 0 disables caching.
func NewPreviews(source TextSource, length, cacheSize int, m *metrics.Metrics) (*Previews, error) {
	p := &Previews{
		source:  source,
		length:  length,
		metrics: m,
		logger:  slog.Default().With("component", "previews"),
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, string](cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// Preview returns the first runes of docID's text, or "" when the text is
// unavailable.
func (p *Previews) Preview(docID string) string {
	if p.cache != nil {
		if v, ok := p.cache.Get(docID); ok {
			p.metrics.PreviewCacheTotal.WithLabelValues("hit").Inc()
			return v
		}
		p.metrics.PreviewCacheTotal.WithLabelValues("miss").Inc()
	}
	text, ok, err := p.source.Text(docID)
	if err != nil {
		p.logger.Warn("reading document text failed", "doc_id", docID, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	preview := Truncate(text, p.length)
	if p.cache != nil {
		p.cache.Add(docID, preview)
	}
	return preview
}

// Truncate keeps the first n runes of text and appends Ellipsis when
// anything was cut.
func Truncate(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i] + Ellipsis
		}
		count++
	}
	return text
}
