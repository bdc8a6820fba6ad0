package vfs

import (
	"bytes"
	"io"

	"github.com/alxayo/mlvfs-core/internal/mlv/audio"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/dng"
	"github.com/alxayo/mlvfs-core/internal/mlv/frameheader"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
	"github.com/alxayo/mlvfs-core/internal/mlv/resource"
)

// Handle is a synthetic file's open file-descriptor state: a resource
// manager reference counted against the underlying decoded frame/audio
// stream/preview, plus the io.ReaderAt it serves byte ranges from. The
// caller releases it (via Close) when the file descriptor is closed, the
// same discipline resource.Handle itself documents (spec §4.8, §5).
type Handle struct {
	res    *resource.Handle
	reader io.ReaderAt
	size   int64
}

// ReadAt serves a byte range from the underlying synthesized content.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) { return h.reader.ReadAt(p, off) }

// Size returns the synthesized file's total byte length.
func (h *Handle) Size() int64 { return h.size }

// Close releases the handle's resource-manager reference.
func (h *Handle) Close() error {
	h.res.Release()
	return nil
}

// Open resolves path to a Handle. The returned Handle must be Closed by
// the caller once done reading.
func (c *Core) Open(path string) (*Handle, error) {
	pp, ok := parsePath(path)
	if !ok || pp.root || pp.leaf == "" {
		return nil, errNotFound(path)
	}

	table, chunks, err := c.tableFor(pp.container)
	if err != nil {
		return nil, err
	}

	switch {
	case isAudioLeaf(pp.leaf):
		return c.openAudio(path, chunks, table)
	case isPreviewLeaf(pp.leaf):
		return c.openPreview(path, chunks, table)
	default:
		n, isFrame := frameNumber(pp.leaf)
		if !isFrame {
			return nil, errNotFound(path)
		}
		return c.openFrame(path, chunks, table, n)
	}
}

// openFrame decodes, corrects, and emits video frame n, caching the
// resulting DNG image under its synthetic path so concurrent or repeat
// reads of one frame never re-decode (spec §4.8).
func (c *Core) openFrame(path string, chunks *container.ChunkSet, table *index.Table, n int) (*Handle, error) {
	h, _, err := c.res.GetOrCreate(path, func() (interface{}, error) {
		bundle, err := frameheader.Resolve(table, chunks, n)
		if err != nil {
			return nil, err
		}
		buf, err := decodeFrame(chunks, bundle, c.cfg.Get())
		if err != nil {
			return nil, err
		}
		return dng.Emit(bundle, buf)
	})
	if err != nil {
		return nil, err
	}
	img := h.Value.(*dng.Image)
	return &Handle{res: h, reader: img, size: img.TotalSize}, nil
}

// openAudio builds (or reuses) the container's audio.WAV reader.
func (c *Core) openAudio(path string, chunks *container.ChunkSet, table *index.Table) (*Handle, error) {
	h, _, err := c.res.GetOrCreate(path, func() (interface{}, error) {
		wavi, _, err := audio.FindWAVI(chunks, table)
		if err != nil {
			return nil, err
		}
		return audio.NewReader(chunks, table, wavi, uint32(table.CountVIDF()), table.MLVI.FrameRateNum, table.MLVI.FrameRateDenom)
	})
	if err != nil {
		return nil, err
	}
	r := h.Value.(*audio.Reader)
	return &Handle{res: h, reader: r, size: r.Size()}, nil
}

// openPreview builds (or reuses) the container's sampled GIF preview.
func (c *Core) openPreview(path string, chunks *container.ChunkSet, table *index.Table) (*Handle, error) {
	h, _, err := c.res.GetOrCreate(path, func() (interface{}, error) {
		return c.buildPreview(chunks, table)
	})
	if err != nil {
		return nil, err
	}
	data := h.Value.([]byte)
	return &Handle{res: h, reader: bytes.NewReader(data), size: int64(len(data))}, nil
}
