package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds CachingParser when no size is configured.
const DefaultCacheSize = 4096

// DescriptorParser turns one descriptor into a FileAnalysis.
// Implementations: Registry, CachingParser.
type DescriptorParser interface {
	Parse(d Descriptor) (*FileAnalysis, error)
}

var (
	_ DescriptorParser = (*Registry)(nil)
	_ DescriptorParser = (*CachingParser)(nil)
)

type cacheEntry struct {
	analysis *FileAnalysis
	err      error
}

// CachingParser memoizes another DescriptorParser by path and content digest.
// Failed parses are cached too, so an unparseable file is not retried until
// its content changes. Safe for concurrent use.
type CachingParser struct {
	next  DescriptorParser
	cache *lru.Cache[string, cacheEntry]
}

// NewCachingParser wraps next with an LRU of the given size (<= 0 uses
// DefaultCacheSize).
func NewCachingParser(next DescriptorParser, size int) (*CachingParser, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("parse cache: %w", err)
	}
	return &CachingParser{next: next, cache: cache}, nil
}

// Parse returns the cached result for d or delegates and caches.
func (c *CachingParser) Parse(d Descriptor) (*FileAnalysis, error) {
	content, err := d.Source()
	if err != nil {
		return nil, err
	}
	d.Content = content
	key := cacheKey(d)
	if entry, ok := c.cache.Get(key); ok {
		return entry.analysis, entry.err
	}
	fa, err := c.next.Parse(d)
	c.cache.Add(key, cacheEntry{analysis: fa, err: err})
	return fa, err
}

// Len reports the number of cached entries.
func (c *CachingParser) Len() int {
	return c.cache.Len()
}

func cacheKey(d Descriptor) string {
	sum := sha256.Sum256(d.Content)
	return d.Path + "\x00" + d.Ext() + "\x00" + hex.EncodeToString(sum[:])
}
