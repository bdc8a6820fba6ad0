package container

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/logger"
)

// MaxChunks bounds the ".M00".."M98" numbering scheme (spec §3).
const MaxChunks = 99

// ChunkSet is a container's backing files opened for positioned, concurrent
// reads. The first file carries the base name and ".MLV" extension; the
// remaining chunks are suffixed ".M00", ".M01", ... in strictly ascending
// order with no gaps. Each chunk is opened once and read via ReadAt, so
// callers never share or contend on a single *os.File's cursor (spec §9,
// "ownership of chunk files").
type ChunkSet struct {
	basePath string
	files    []*os.File
	sizes    []int64
}

// chunkSuffix returns the on-disk suffix for the chunk at the given index:
// index 0 is the base ".MLV" file itself; index i>0 is ".M" + two digits.
func chunkSuffix(index int) string {
	if index == 0 {
		return ".MLV"
	}
	return fmt.Sprintf(".M%02d", index-1)
}

// Open opens the chunk file named by path and every contiguous numbered
// continuation that follows it on disk, stopping at the first missing
// suffix. path must name the base ".MLV" file.
func Open(path string) (*ChunkSet, error) {
	if !strings.EqualFold(filepath.Ext(path), ".mlv") {
		return nil, coreerrors.NewUnsupportedParamsError("container.open",
			fmt.Errorf("%s: expected a .MLV base file", path))
	}
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))

	cs := &ChunkSet{basePath: trimmed}
	for i := 0; i <= MaxChunks; i++ {
		p := trimmed + chunkSuffix(i)
		f, err := os.Open(p)
		if err != nil {
			if os.IsNotExist(err) {
				if i == 0 {
					return nil, coreerrors.NewNotFoundError("container.open", err)
				}
				break // first missing continuation ends the chunk set
			}
			cs.Close()
			return nil, coreerrors.NewIOError("container.open", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			cs.Close()
			return nil, coreerrors.NewIOError("container.open", err)
		}
		cs.files = append(cs.files, f)
		cs.sizes = append(cs.sizes, info.Size())
	}
	return cs, nil
}

// NumChunks returns the number of backing files in the set.
func (cs *ChunkSet) NumChunks() int { return len(cs.files) }

// ChunkSize returns the byte length of the chunk at index.
func (cs *ChunkSet) ChunkSize(index int) int64 { return cs.sizes[index] }

// BasePath returns the chunk set's base path without its ".MLV" extension.
func (cs *ChunkSet) BasePath() string { return cs.basePath }

// ReadAt reads len(p) bytes from the given chunk at the given offset.
func (cs *ChunkSet) ReadAt(chunkIndex int, p []byte, off int64) (int, error) {
	if chunkIndex < 0 || chunkIndex >= len(cs.files) {
		return 0, coreerrors.NewCorruptContainerError("container.read_at",
			fmt.Errorf("chunk index %d out of range [0,%d)", chunkIndex, len(cs.files)))
	}
	return cs.files[chunkIndex].ReadAt(p, off)
}

// Close releases every backing file handle.
func (cs *ChunkSet) Close() error {
	var firstErr error
	for _, f := range cs.files {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BlockVisitor is called once per block discovered while walking a chunk
// set. payload holds the block's type-specific bytes (prelude already
// consumed). Returning an error from fn stops the walk and is propagated
// from Walk.
type BlockVisitor func(chunkIndex int, offset int64, prelude Prelude, payload []byte) error

// Walk scans every chunk in order, dispatching each block it finds to fn.
// A corrupt block prelude abandons the remainder of that chunk but does not
// prevent scanning subsequent chunks (spec §4.1: index building is
// best-effort per chunk).
func (cs *ChunkSet) Walk(fn BlockVisitor) error {
	for ci, f := range cs.files {
		if err := walkChunk(ci, f, cs.sizes[ci], fn); err != nil {
			return err
		}
	}
	return nil
}

func walkChunk(chunkIndex int, f *os.File, size int64, fn BlockVisitor) error {
	sr := io.NewSectionReader(f, 0, size)
	var offset int64
	for {
		prelude, err := ReadPrelude(sr)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil // clean (or truncated) end of chunk
			}
			if coreerrors.IsCorruptContainer(err) {
				logger.Logger().Warn("malformed block prelude, abandoning rest of chunk",
					"chunk", chunkIndex, "offset", offset, "err", err)
				return nil // malformed prelude: stop scanning this chunk only
			}
			return err
		}
		payloadLen := prelude.PayloadSize()
		if payloadLen < 0 {
			return nil
		}
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(sr, payload); err != nil {
			return nil // truncated payload at end of chunk: stop here
		}
		if err := fn(chunkIndex, offset, prelude, payload); err != nil {
			return err
		}
		offset += int64(prelude.Size)
	}
}
