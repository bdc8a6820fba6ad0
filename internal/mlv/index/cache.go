package index

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/alxayo/mlvfs-core/internal/logger"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
)

// Cache memoizes built or loaded Tables keyed by container base path,
// mirroring the hosting server's registry discipline: an RLock fast path
// for lookups, upgraded to a Lock only on a miss, with a double-check
// after the upgrade in case another goroutine already populated the entry.
type Cache struct {
	mu      sync.RWMutex
	tables  map[string]*Table
	watcher *fsnotify.Watcher // nil until WatchForChanges is called
}

// NewCache creates an empty index cache.
func NewCache() *Cache {
	return &Cache{tables: make(map[string]*Table)}
}

// GetIndex returns the cached table for mlvPath, loading the sidecar if
// present, building fresh otherwise, and caching the result either way.
func (c *Cache) GetIndex(mlvPath string) (*Table, error) {
	c.mu.RLock()
	if t, ok := c.tables[mlvPath]; ok {
		c.mu.RUnlock()
		return t, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tables[mlvPath]; ok { // double-check after acquiring write lock
		return t, nil
	}
	t, err := loadOrBuild(mlvPath)
	if err != nil {
		return nil, err
	}
	c.tables[mlvPath] = t
	return t, nil
}

// ForceIndex discards any cached table for mlvPath and rebuilds from the
// container chunks unconditionally, re-persisting the sidecar.
func (c *Cache) ForceIndex(mlvPath string) (*Table, error) {
	chunks, err := container.Open(mlvPath)
	if err != nil {
		return nil, err
	}
	defer chunks.Close()

	t, err := Build(chunks)
	if err != nil {
		return nil, err
	}
	if err := Save(SidecarPath(mlvPath), chunks.NumChunks(), t); err != nil {
		logger.Logger().Warn("failed to persist rebuilt index", "path", mlvPath, "err", err)
	}

	c.mu.Lock()
	c.tables[mlvPath] = t
	c.mu.Unlock()
	return t, nil
}

// Invalidate drops any cached table for mlvPath and removes its sidecar
// index so the next GetIndex call rebuilds it.
func (c *Cache) Invalidate(mlvPath string) {
	c.mu.Lock()
	delete(c.tables, mlvPath)
	if err := os.Remove(SidecarPath(mlvPath)); err != nil && !os.IsNotExist(err) {
		logger.Logger().Warn("failed to remove stale index", "path", mlvPath, "err", err)
	}
	c.mu.Unlock()
}

func loadOrBuild(mlvPath string) (*Table, error) {
	chunks, err := container.Open(mlvPath)
	if err != nil {
		return nil, err
	}
	defer chunks.Close()

	idxPath := SidecarPath(mlvPath)
	if t, err := Load(idxPath, chunks); err == nil {
		return t, nil
	}

	t, err := Build(chunks)
	if err != nil {
		return nil, err
	}
	if err := Save(idxPath, chunks.NumChunks(), t); err != nil {
		logger.Logger().Warn("failed to persist index", "path", mlvPath, "err", err)
	}
	return t, nil
}

// WatchForChanges starts an fsnotify watch on dir (a container's chunk
// directory). On a Write or Create event against any of a container's
// chunk files (during a live recording, the highest-numbered one is still
// being appended to), the cached table for the matching base path is
// invalidated so the next GetIndex call rebuilds the whole table — the
// Go-native replacement for the C original's stat-before-every-FUSE-call
// polling (spec §4.2).
func (c *Cache) WatchForChanges(dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				base := baseMLVPath(ev.Name)
				if base == "" {
					continue
				}
				c.Invalidate(base)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Logger().Warn("index watcher error", "err", err)
			}
		}
	}()
	return nil
}

// Close stops the change watcher, if one was started.
func (c *Cache) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

// baseMLVPath maps a chunk file path (".MLV", ".M00", ...) back to the
// ".MLV" base path it belongs to, or "" if the name doesn't match that
// naming scheme.
func baseMLVPath(chunkPath string) string {
	if len(chunkPath) < 4 {
		return ""
	}
	ext := chunkPath[len(chunkPath)-4:]
	switch {
	case equalFold(ext, ".mlv"):
		return chunkPath
	case len(ext) == 4 && ext[0] == '.' && ext[1] == 'M':
		return chunkPath[:len(chunkPath)-4] + ".MLV"
	default:
		return ""
	}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
