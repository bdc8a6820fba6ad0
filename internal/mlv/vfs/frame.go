package vfs

import (
	"fmt"

	"github.com/alxayo/mlvfs-core/internal/bufpool"
	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/mlv/config"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/correct"
	"github.com/alxayo/mlvfs-core/internal/mlv/frameheader"
	"github.com/alxayo/mlvfs-core/internal/mlv/unpack"
)

// decodeFrame unpacks a video frame's packed sensor payload into a 16-bit
// Bayer buffer and runs the configured correction pipeline over it (spec
// §4.5, §4.6). The resource manager caches the result per synthetic path
// so overlapping reads of one frame never re-decode (spec §4.8).
func decodeFrame(chunks *container.ChunkSet, bundle *frameheader.Bundle, cfg config.Config) (*correct.Buffer, error) {
	rawi := bundle.RAWI.RawInfo
	width := int(bundle.RAWI.XRes)
	height := int(bundle.RAWI.YRes)
	if width <= 0 || height <= 0 {
		return nil, coreerrors.NewCorruptContainerError("vfs.decode_frame", fmt.Errorf("zero-sized frame %dx%d", width, height))
	}

	bpp := int(rawi.BitsPerPixel)
	if !unpack.SupportedBPP(bpp) {
		return nil, coreerrors.NewUnsupportedParamsError("vfs.decode_frame", fmt.Errorf("unsupported bpp %d", bpp))
	}
	if width%8 != 0 {
		return nil, coreerrors.NewUnsupportedParamsError("vfs.decode_frame", fmt.Errorf("width %d not a multiple of 8", width))
	}

	rowBytes := width * bpp / 8
	need := int64(rowBytes) * int64(height)
	if need > bundle.PixelSize {
		need = bundle.PixelSize
	}
	if need < 0 {
		need = 0
	}

	packed := bufpool.Get(int(need))
	defer bufpool.Put(packed)
	if len(packed) > 0 {
		if _, err := chunks.ReadAt(bundle.PixelChunk, packed, bundle.PixelOffset); err != nil {
			return nil, coreerrors.NewIOError("vfs.decode_frame", err)
		}
	}

	buf := correct.NewBuffer(width, height)
	for y := 0; y < height; y++ {
		start := y * rowBytes
		end := start + rowBytes
		if end > len(packed) {
			break // short frame payload: leave remaining rows zeroed
		}
		row, err := unpack.UnpackRow(packed[start:end], bpp, width)
		if err != nil {
			return nil, err
		}
		copy(buf.Pixels[y*width:(y+1)*width], row)
	}

	params := correct.Params{
		Black:        int32(rawi.BlackLevel),
		White:        int32(rawi.WhiteLevel),
		CFAPhase:     rawi.CFAPattern,
		ChromaRadius: cfg.ChromaSmooth,
		FixStripes:   cfg.FixStripes,
		DualISO:      cfg.DualISO,
		ContainerKey: chunks.BasePath(),
	}
	pipeline := correct.Pipeline{Config: correct.Config{
		BadPixel:      cfg.BadPixel != config.BadPixelOff,
		BadPixelAggro: cfg.BadPixel == config.BadPixelAggressive,
		ChromaRadius:  cfg.ChromaSmooth,
		FixStripes:    cfg.FixStripes,
		DualISO:       cfg.DualISO,
		Deflicker:     cfg.Deflicker,
	}}
	pipeline.Run(buf, params)

	return buf, nil
}
