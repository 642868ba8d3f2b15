package filter

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/l1jgo/advinv/internal/scripting"
)

// DefaultCacheSize is used when a non-positive size is configured.
const DefaultCacheSize = 64

// Cache memoizes compiled filters by normalized text. Failed compiles are
// not cached.
type Cache struct {
	eng *scripting.Engine
	lru *lru.Cache[string, *Filter]
}

// NewCache creates a cache holding up to size filters. eng may be nil.
func NewCache(size int, eng *scripting.Engine) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[string, *Filter](size)
	if err != nil {
		return nil, err
	}
	return &Cache{eng: eng, lru: l}, nil
}

// Key is the memo key for text: everything before a lua: term is
// normalized, the expression itself is kept verbatim. A lua: marker only
// counts where Compile would read one, in any case.
func Key(text string) string {
	i := luaStart(text)
	if i < 0 {
		return Normalize(text)
	}
	return Normalize(text[:i]) + luaPrefix + strings.TrimSpace(text[i+len(luaPrefix):])
}

// Get returns the compiled filter for text. Empty text means no filtering
// and yields nil.
func (c *Cache) Get(text string) (*Filter, error) {
	key := Key(text)
	if key == "" {
		return nil, nil
	}
	if f, ok := c.lru.Get(key); ok {
		return f, nil
	}
	f, err := Compile(text, c.eng)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, f)
	return f, nil
}

// Len is the number of cached filters.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops every cached filter; needed after helper scripts change.
func (c *Cache) Purge() { c.lru.Purge() }
