package vfs

import (
	"github.com/alxayo/mlvfs-core/internal/mlv/audio"
)

// DirEntry is one entry returned by Readdir.
type DirEntry struct {
	Name  string
	IsDir bool
}

// Readdir lists path's synthetic children: containers at the root, or a
// container's per-frame DNG stills plus its optional audio.WAV and
// preview.GIF entries (spec §6).
func (c *Core) Readdir(path string) ([]DirEntry, error) {
	pp, ok := parsePath(path)
	if !ok {
		return nil, errNotFound(path)
	}

	if pp.root {
		names, err := c.listContainers()
		if err != nil {
			return nil, err
		}
		entries := make([]DirEntry, len(names))
		for i, name := range names {
			entries[i] = DirEntry{Name: name, IsDir: true}
		}
		return entries, nil
	}

	if pp.leaf != "" {
		return nil, errNotFound(path)
	}

	table, chunks, err := c.tableFor(pp.container)
	if err != nil {
		return nil, err
	}

	count := table.CountVIDF()
	entries := make([]DirEntry, 0, count+2)
	for i := 0; i < count; i++ {
		entries = append(entries, DirEntry{Name: frameLeaf(i)})
	}

	if _, hasAudio, err := audio.FindWAVI(chunks, table); err != nil {
		c.warn("skipping audio.WAV entry: WAVI lookup failed", "container", pp.container, "err", err)
	} else if hasAudio {
		entries = append(entries, DirEntry{Name: "audio.WAV"})
	}
	if count > 0 {
		entries = append(entries, DirEntry{Name: "preview.GIF"})
	}

	return entries, nil
}
