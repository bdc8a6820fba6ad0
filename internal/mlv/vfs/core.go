// Package vfs implements the synthetic read-only filesystem core: path
// resolution, attribute queries, and byte-range reads over per-frame DNG
// stills, the container's audio track, and a coarse GIF preview (spec §6).
// It has no dependency on any FUSE-like runtime; internal/fuseshim adapts
// Core's Getattr, Open and Readdir methods onto one.
package vfs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/logger"
	"github.com/alxayo/mlvfs-core/internal/mlv/config"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
	"github.com/alxayo/mlvfs-core/internal/mlv/resource"
)

// Core is the synthetic filesystem over a directory of MLV containers.
type Core struct {
	rootDir   string
	idx       *index.Cache
	res       *resource.Manager
	cfg       *config.Store
	startTime time.Time

	mu     sync.Mutex
	chunks map[string]*container.ChunkSet
}

// New creates a Core rooted at rootDir, the directory scanned for
// <Name>.MLV containers.
func New(rootDir string, cfg *config.Store) *Core {
	return &Core{
		rootDir:   rootDir,
		idx:       index.NewCache(),
		res:       resource.NewManager(),
		cfg:       cfg,
		startTime: time.Now(),
		chunks:    make(map[string]*container.ChunkSet),
	}
}

// Close releases every open container's chunk handles.
func (c *Core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for path, cs := range c.chunks {
		if err := cs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.chunks, path)
	}
	return firstErr
}

// openChunks returns the (cached) open ChunkSet for a container name such
// as "clip.MLV", opening it on first use.
func (c *Core) openChunks(containerName string) (*container.ChunkSet, error) {
	full := filepath.Join(c.rootDir, containerName)

	c.mu.Lock()
	if cs, ok := c.chunks[full]; ok {
		c.mu.Unlock()
		return cs, nil
	}
	c.mu.Unlock()

	cs, err := container.Open(full)
	if err != nil {
		return nil, coreerrors.NewNotFoundError("vfs.open_chunks", err)
	}

	c.mu.Lock()
	if existing, ok := c.chunks[full]; ok {
		c.mu.Unlock()
		cs.Close()
		return existing, nil
	}
	c.chunks[full] = cs
	c.mu.Unlock()
	return cs, nil
}

// tableFor returns the index table for a container, building/loading it
// as needed.
func (c *Core) tableFor(containerName string) (*index.Table, *container.ChunkSet, error) {
	cs, err := c.openChunks(containerName)
	if err != nil {
		return nil, nil, err
	}
	full := filepath.Join(c.rootDir, containerName)
	tbl, err := c.idx.GetIndex(full)
	if err != nil {
		return nil, nil, coreerrors.NewCorruptContainerError("vfs.table_for", err)
	}
	return tbl, cs, nil
}

// statContainer verifies a container directory exists (its base chunk is
// present under rootDir).
func (c *Core) statContainer(containerName string) (os.FileInfo, error) {
	full := filepath.Join(c.rootDir, containerName)
	fi, err := os.Stat(full)
	if err != nil {
		return nil, coreerrors.NewNotFoundError("vfs.stat_container", err)
	}
	return fi, nil
}

// listContainers scans rootDir for *.MLV base files, returning their
// directory-entry names.
func (c *Core) listContainers() ([]string, error) {
	entries, err := os.ReadDir(c.rootDir)
	if err != nil {
		return nil, coreerrors.NewIOError("vfs.list_containers", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToUpper(e.Name()), ".MLV") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// warn logs a warning with structured key/value pairs, e.g.
// c.warn("frame decode failed", "path", path, "err", err).
func (c *Core) warn(msg string, keyvals ...any) {
	logger.Logger().Warn(msg, keyvals...)
}
