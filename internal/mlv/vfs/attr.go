package vfs

import (
	"os"
	"time"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/mlv/audio"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/dng"
	"github.com/alxayo/mlvfs-core/internal/mlv/frameheader"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
	"github.com/alxayo/mlvfs-core/internal/mlv/resource"
)

// Attr is the attribute triple Getattr reports for a synthetic path: its
// byte size, whether it behaves as a directory, and a modification time
// (the backing container's, so a touch on the .MLV file is visible
// through every frame it holds).
type Attr struct {
	Size  int64
	IsDir bool
	Mtime time.Time
}

type pathError struct{ path string }

func (e *pathError) Error() string { return "mlvfs: no such synthetic path: " + e.path }

func errNotFound(path string) error {
	return coreerrors.NewNotFoundError("vfs.getattr", &pathError{path})
}

// Getattr resolves path to its attributes. A frame's size is computed
// analytically from its header metadata alone — the embedded thumbnail's
// byte size never depends on pixel content (128x84x3 RGB8, always 32256
// bytes) — so this never triggers the bit-unpack/correction pipeline;
// only Read does (spec §4.8's stated purpose for the attribute cache:
// avoiding recomputation of image sizes on repeated metadata queries).
func (c *Core) Getattr(path string) (Attr, error) {
	if cached, ok := c.res.Attrs().Get(path); ok {
		return Attr{Size: cached.Size, Mtime: cached.Mtime}, nil
	}

	pp, ok := parsePath(path)
	if !ok {
		return Attr{}, errNotFound(path)
	}

	if pp.root {
		fi, err := os.Stat(c.rootDir)
		if err != nil {
			return Attr{}, coreerrors.NewNotFoundError("vfs.getattr", err)
		}
		return Attr{IsDir: true, Mtime: fi.ModTime()}, nil
	}

	fi, err := c.statContainer(pp.container)
	if err != nil {
		return Attr{}, err
	}
	if pp.leaf == "" {
		return Attr{IsDir: true, Mtime: fi.ModTime()}, nil
	}

	table, chunks, err := c.tableFor(pp.container)
	if err != nil {
		return Attr{}, err
	}

	var size int64
	switch {
	case isAudioLeaf(pp.leaf):
		size, err = c.audioSize(chunks, table)
	case isPreviewLeaf(pp.leaf):
		size, err = c.previewSize(path, chunks, table)
	default:
		n, isFrame := frameNumber(pp.leaf)
		if !isFrame {
			return Attr{}, errNotFound(path)
		}
		size, err = c.frameSize(chunks, table, n)
	}
	if err != nil {
		return Attr{}, err
	}

	attr := Attr{Size: size, Mtime: fi.ModTime()}
	c.res.Attrs().Set(path, resource.Attr{Size: attr.Size, Mtime: attr.Mtime})
	return attr, nil
}

// frameSize computes a synthesized DNG's total byte size without
// decoding pixel data. IFD0's thumbnail is a fixed 128x84x3 RGB8 block
// regardless of content; the SubIFD's main strip size follows directly
// from the frame's declared dimensions and 16-bit-per-sample encoding
// (dng.Emit always widens to 16 bits, see dng.subIFDEntryTemplate).
// Directory and extra-data sizes depend only on string-valued tag
// lengths (camera model, lens-independent fields), so the whole
// computation stays metadata-only.
func (c *Core) frameSize(chunks *container.ChunkSet, table *index.Table, n int) (int64, error) {
	bundle, err := frameheader.Resolve(table, chunks, n)
	if err != nil {
		return 0, err
	}
	return dng.SizeOf(bundle), nil
}

// audioSize computes audio.WAV's declared size from the container's WAVI
// header and frame count alone, without scanning every AUDF payload.
func (c *Core) audioSize(chunks *container.ChunkSet, table *index.Table) (int64, error) {
	wavi, ok, err := audio.FindWAVI(chunks, table)
	if err != nil {
		return 0, err
	}
	if !ok {
		return audio.HeaderSize, nil
	}
	return audio.DeclaredSize(wavi.BytesPerSecond, uint32(table.CountVIDF()), table.MLVI.FrameRateNum, table.MLVI.FrameRateDenom), nil
}

// previewSize builds (and caches, via the resource manager) the GIF
// preview once to learn its size, since a coarse animated GIF's byte
// count depends on its sampled pixel content and cannot be derived
// analytically the way a DNG frame's can.
func (c *Core) previewSize(path string, chunks *container.ChunkSet, table *index.Table) (int64, error) {
	h, _, err := c.res.GetOrCreate(path, func() (interface{}, error) {
		return c.buildPreview(chunks, table)
	})
	if err != nil {
		return 0, err
	}
	defer h.Release()
	return int64(len(h.Value.([]byte))), nil
}
