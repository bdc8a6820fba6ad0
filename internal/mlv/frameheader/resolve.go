package frameheader

import (
	"fmt"
	"io"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
)

// Resolve builds the metadata Bundle for video-frame ordinal n.
//
// Two linear passes over table.Entries, per spec §4.3: the first counts
// VIDF entries to locate the target; the second walks from the start
// collecting, for each metadata block type, the most recent instance
// whose timestamp is at or before the target's — entries are already
// sorted ascending by timestamp (index.Build), so simply overwriting on
// each qualifying sighting leaves the latest survivor.
func Resolve(table *index.Table, chunks *container.ChunkSet, n int) (*Bundle, error) {
	target, ok := table.NthVIDF(n)
	if !ok {
		return nil, coreerrors.NewNotFoundError("frameheader.resolve",
			fmt.Errorf("video frame %d not present in index", n))
	}

	b := &Bundle{FrameNumber: n, FileNumber: int(target.ChunkIndex), Position: int64(target.Offset)}

	vidfBlock, err := readBlock(chunks, target)
	if err != nil {
		return nil, err
	}
	vidf, err := container.DecodeVIDF(vidfBlock.payload)
	if err != nil {
		return nil, err
	}
	b.VIDF = vidf

	pixelStart := int64(target.Offset) + container.PreludeSize + 8 /* frame_number+frame_space */ + int64(vidf.FrameSpace)
	pixelEnd := int64(target.Offset) + int64(vidfBlock.prelude.Size)
	if pixelEnd < pixelStart {
		pixelEnd = pixelStart
	}
	b.PixelChunk = int(target.ChunkIndex)
	b.PixelOffset = pixelStart
	b.PixelSize = pixelEnd - pixelStart

	for _, e := range table.Entries {
		if e.Timestamp > target.Timestamp {
			break // entries are sorted ascending; nothing later qualifies
		}
		switch e.BlockType {
		case container.TypeMLVI:
			blk, err := readBlock(chunks, e)
			if err != nil {
				continue // best-effort: a malformed metadata block is skipped
			}
			if h, err := container.DecodeMLVI(blk.payload); err == nil {
				b.MLVI = h
			}
		case container.TypeRTCI:
			if blk, err := readBlock(chunks, e); err == nil {
				if v, err := container.DecodeRTCI(blk.payload); err == nil {
					b.RTCI = v
				}
			}
		case container.TypeIDNT:
			if blk, err := readBlock(chunks, e); err == nil {
				if v, err := container.DecodeIDNT(blk.payload); err == nil {
					b.IDNT = v
				}
			}
		case container.TypeRAWI:
			if blk, err := readBlock(chunks, e); err == nil {
				if v, err := container.DecodeRAWI(blk.payload); err == nil {
					b.RAWI = v
				}
			}
		case container.TypeEXPO:
			if blk, err := readBlock(chunks, e); err == nil {
				if v, err := container.DecodeEXPO(blk.payload); err == nil {
					b.EXPO = v
				}
			}
		case container.TypeLENS:
			if blk, err := readBlock(chunks, e); err == nil {
				if v, err := container.DecodeLENS(blk.payload); err == nil {
					b.LENS = v
				}
			}
		case container.TypeWBAL:
			if blk, err := readBlock(chunks, e); err == nil {
				if v, err := container.DecodeWBAL(blk.payload); err == nil {
					b.WBAL = v
				}
			}
		}
	}

	return b, nil
}

type decodedBlock struct {
	prelude container.Prelude
	payload []byte
}

// readBlock re-reads a block's prelude and payload at a known (chunk,
// offset), clamping to the block's own declared size.
func readBlock(chunks *container.ChunkSet, e index.Entry) (decodedBlock, error) {
	var raw [container.PreludeSize]byte
	if _, err := chunks.ReadAt(int(e.ChunkIndex), raw[:], int64(e.Offset)); err != nil {
		return decodedBlock{}, coreerrors.NewIOError("frameheader.read_block", err)
	}
	p := container.Prelude{
		Type:      container.BlockType(raw[0:4]),
		Size:      leUint32(raw[4:8]),
		Timestamp: leUint64(raw[8:16]),
	}
	payload := make([]byte, p.PayloadSize())
	if len(payload) > 0 {
		if _, err := chunks.ReadAt(int(e.ChunkIndex), payload, int64(e.Offset)+container.PreludeSize); err != nil && err != io.EOF {
			return decodedBlock{}, coreerrors.NewIOError("frameheader.read_block", err)
		}
	}
	return decodedBlock{prelude: p, payload: payload}, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
