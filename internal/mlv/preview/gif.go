// Package preview builds the coarse animated GIF preview synthesized at
// <Name>.MLV/preview.GIF (spec §6, supplemented from
// original_source/mlvfs/gif.c — not specified in spec.md's distillation).
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/correct"
	"github.com/alxayo/mlvfs-core/internal/mlv/dng"
	"github.com/alxayo/mlvfs-core/internal/mlv/frameheader"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
)

// SampleFrames bounds how many video frames are sampled across the clip.
const SampleFrames = 10

// DelayCentiseconds is the fixed per-frame GIF delay: a coarse preview
// plays at a fixed rate regardless of the source clip's frame rate.
const DelayCentiseconds = 10

// DecodeFunc decodes and corrects one video frame. It mirrors the
// resource-managed decode path the still-image emitter uses, passed in
// rather than imported directly to avoid a preview<->vfs import cycle
// (vfs serves preview.GIF by calling Build; Build needs a decoded frame).
type DecodeFunc func(chunks *container.ChunkSet, bundle *frameheader.Bundle) (*correct.Buffer, error)

// Build samples up to SampleFrames frames at even strides across the
// container's video track and assembles them into an animated GIF,
// reusing the DNG thumbnail downsample path (spec §4.4) for each sampled
// frame rather than a full-resolution re-encode — a thumbnail-quality
// preview by design.
func Build(chunks *container.ChunkSet, table *index.Table, decode DecodeFunc) ([]byte, error) {
	total := table.CountVIDF()
	if total == 0 {
		return nil, coreerrors.NewNotFoundError("preview.build", fmt.Errorf("container has no video frames"))
	}

	n := SampleFrames
	if n > total {
		n = total
	}

	var frames []*image.Paletted
	for i := 0; i < n; i++ {
		frameNum := i * total / n
		bundle, err := frameheader.Resolve(table, chunks, frameNum)
		if err != nil {
			continue // best-effort sampling: an unresolvable frame is skipped
		}
		buf, err := decode(chunks, bundle)
		if err != nil {
			continue
		}
		rawi := bundle.RAWI.RawInfo
		thumb, err := dng.BuildThumbnail(buf, int(rawi.ActiveArea.X), int(rawi.ActiveArea.Y),
			int(rawi.ActiveArea.Width), int(rawi.ActiveArea.Height), int32(rawi.BlackLevel), int32(rawi.WhiteLevel), rawi.CFAPattern)
		if err != nil {
			continue
		}
		frames = append(frames, rgbToPaletted(thumb))
	}
	if len(frames) == 0 {
		return nil, coreerrors.NewNotFoundError("preview.build", fmt.Errorf("no sampled frame decoded cleanly"))
	}

	delays := make([]int, len(frames))
	for i := range delays {
		delays[i] = DelayCentiseconds
	}

	var out bytes.Buffer
	if err := gif.EncodeAll(&out, &gif.GIF{Image: frames, Delay: delays}); err != nil {
		return nil, coreerrors.NewIOError("preview.build", err)
	}
	return out.Bytes(), nil
}

// rgbToPaletted converts a BuildThumbnail 8-bit RGB byte slice into a
// dithered paletted image, the format image/gif requires per frame.
func rgbToPaletted(rgb []byte) *image.Paletted {
	src := image.NewRGBA(image.Rect(0, 0, dng.ThumbnailWidth, dng.ThumbnailHeight))
	for y := 0; y < dng.ThumbnailHeight; y++ {
		for x := 0; x < dng.ThumbnailWidth; x++ {
			i := (y*dng.ThumbnailWidth + x) * 3
			src.Set(x, y, color.RGBA{R: rgb[i], G: rgb[i+1], B: rgb[i+2], A: 255})
		}
	}
	dst := image.NewPaletted(src.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(dst, src.Bounds(), src, image.Point{})
	return dst
}
