package classify

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chriscorrea/kwcanon/internal/keyword"
)

// DefaultCacheSize bounds the number of memoized decisions.
const DefaultCacheSize = 4096

// CachedClassifier memoizes decisions by normalized keyword. Returned results
// share their Categories slice with the cache and must not be modified.
type CachedClassifier struct {
	inner *Classifier
	cache *lru.Cache[string, Result]
}

// NewCachedClassifier wraps c with an LRU of the given size.
func NewCachedClassifier(c *Classifier, size int) (*CachedClassifier, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification cache: %w", err)
	}
	return &CachedClassifier{inner: c, cache: cache}, nil
}

// Classify returns the cached decision for kw, computing it on a miss.
func (c *CachedClassifier) Classify(kw string) Result {
	nk := keyword.Normalize(kw)
	if r, ok := c.cache.Get(nk); ok {
		return r
	}
	r := c.inner.Classify(nk)
	c.cache.Add(nk, r)
	return r
}

// Len returns the number of cached decisions.
func (c *CachedClassifier) Len() int {
	return c.cache.Len()
}
