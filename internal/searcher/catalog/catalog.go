// Package catalog resolves document ids to their source URLs and stored text
// previews.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	pkgredis "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/resilience"
)

// Resolver looks up the URL of a document. ok is false when none is known.
type Resolver interface {
	URL(ctx context.Context, docID string) (url string, ok bool, err error)
}

// MapResolver serves URLs from memory.
type MapResolver struct {
	urls map[string]string
}

func NewMapResolver(urls map[string]string) *MapResolver {
	if urls == nil {
		urls = map[string]string{}
	}
	return &MapResolver{urls: urls}
}

// LoadFile reads a "doc_number<TAB>url" index into a MapResolver.
func LoadFile(path, prefix string) (*MapResolver, error) {
	urls, err := corpus.LoadURLIndex(path, prefix)
	if err != nil {
		return nil, err
	}
	return NewMapResolver(urls), nil
}

func (m *MapResolver) URL(_ context.Context, docID string) (string, bool, error) {
	url, ok := m.urls[docID]
	return url, ok, nil
}

// Len returns the number of known URLs.
func (m *MapResolver) Len() int {
	return len(m.urls)
}

// HashStore is the subset of the Redis client the catalog needs.
type HashStore interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HLen(ctx context.Context, key string) (int64, error)
	ReplaceHash(ctx context.Context, key string, fields map[string]string) error
}

// RedisResolver keeps the URL index in a Redis hash shared by every searcher.
// Lookups go through a circuit breaker so a dead Redis fails fast.
type RedisResolver struct {
	store   HashStore
	key     string
	breaker *resilience.Breaker
	logger  *slog.Logger
}

func NewRedisResolver(store HashStore, key string, breaker resilience.BreakerConfig) *RedisResolver {
	return &RedisResolver{
		store:   store,
		key:     key,
		breaker: resilience.NewBreaker("redis-urls", breaker),
		logger:  slog.Default().With("component", "catalog", "backend", "redis"),
	}
}

func (r *RedisResolver) URL(ctx context.Context, docID string) (string, bool, error) {
	var (
		url   string
		found bool
	)
	err := r.breaker.Do(func() error {
		v, err := r.store.HGet(ctx, r.key, docID)
		if err != nil {
			if pkgredis.IsNilError(err) {
				return nil
			}
			return err
		}
		url, found = v, true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("looking up url of %s: %w", docID, err)
	}
	return url, found, nil
}

// StoreURLs replaces the hash with urls.
func (r *RedisResolver) StoreURLs(ctx context.Context, urls map[string]string) error {
	if err := r.store.ReplaceHash(ctx, r.key, urls); err != nil {
		return err
	}
	r.logger.Info("url index mirrored", "key", r.key, "urls", len(urls))
	return nil
}

// Len returns the number of URLs in the hash.
func (r *RedisResolver) Len(ctx context.Context) (int64, error) {
	return r.store.HLen(ctx, r.key)
}
