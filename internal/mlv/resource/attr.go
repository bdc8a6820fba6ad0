package resource

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Attr is the cached metadata for a synthetic path: its size and
// modification time, as returned by getattr (spec §4.8, §6).
type Attr struct {
	Size  int64
	Mtime time.Time
}

// AttrCache memoizes per-path attributes so repeated getattr calls avoid
// recomputing a synthesized file's size. Entries never mutate once
// written (spec §5), which maps directly onto an LRU Get/Add pair with no
// Remove calls from request paths.
type AttrCache struct {
	cache *lru.Cache[string, Attr]
}

// NewAttrCache creates a bounded attribute cache holding up to size
// entries.
func NewAttrCache(size int) *AttrCache {
	c, err := lru.New[string, Attr](size)
	if err != nil {
		// Only returned by golang-lru for a non-positive size, which
		// never happens with our fixed call site.
		panic(err)
	}
	return &AttrCache{cache: c}
}

// Get returns the cached attribute for path, if present.
func (a *AttrCache) Get(path string) (Attr, bool) {
	return a.cache.Get(path)
}

// Set stores the attribute for path, overwriting the prior value if any
// callers race (harmless: the fields are idempotent for a given path).
func (a *AttrCache) Set(path string, attr Attr) {
	a.cache.Add(path, attr)
}
