package dng

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/alxayo/mlvfs-core/internal/mlv/correct"
)

// ThumbnailWidth and ThumbnailHeight are IFD0's fixed embedded-preview
// dimensions (spec §4.4).
const (
	ThumbnailWidth  = 128
	ThumbnailHeight = 84
)

// WBOffset is the fixed per-channel white-balance offset applied to the
// thumbnail's log-EV mapped samples (a flat daylight-ish bias, since the
// thumbnail is a coarse preview rather than a color-managed render).
var WBOffset = [3]int32{0, -2048, -4096} // R, G, B, in EV*correct.R/16384 units, scaled below

// BuildThumbnail downsamples the active area of a raw Bayer buffer into a
// 128x84x3 8-bit RGB preview: one sample per Bayer quad, 14-bit linear
// mapped to 8-bit log-EV via the shared raw2ev table, offset per channel,
// then bilinearly scaled to the fixed output size with x/image/draw (spec
// §4.4).
func BuildThumbnail(buf *correct.Buffer, activeX, activeY, activeW, activeH int, black, white int32, cfaPhase uint8) ([]byte, error) {
	tbl, err := correct.TablesFor(black)
	if err != nil {
		return nil, err
	}

	quadW, quadH := activeW/2, activeH/2
	if quadW < 1 {
		quadW = 1
	}
	if quadH < 1 {
		quadH = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, quadW, quadH))

	evSpan := float64(white)
	if evSpan <= 0 {
		evSpan = 16383
	}
	maxEV := tbl.Raw2EV(int32(evSpan))

	for qy := 0; qy < quadH; qy++ {
		y := activeY + qy*2
		for qx := 0; qx < quadW; qx++ {
			x := activeX + qx*2
			r := sampleChannel(buf, x, y, 0, cfaPhase)
			g := sampleChannel(buf, x, y, 1, cfaPhase)
			b := sampleChannel(buf, x, y, 2, cfaPhase)

			rc := logEVByte(tbl, r, maxEV, WBOffset[0])
			gc := logEVByte(tbl, g, maxEV, WBOffset[1])
			bc := logEVByte(tbl, b, maxEV, WBOffset[2])
			src.Set(qx, qy, color.RGBA{R: rc, G: gc, B: bc, A: 255})
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, ThumbnailWidth, ThumbnailHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := make([]byte, ThumbnailWidth*ThumbnailHeight*3)
	for y := 0; y < ThumbnailHeight; y++ {
		for x := 0; x < ThumbnailWidth; x++ {
			c := dst.RGBAAt(x, y)
			i := (y*ThumbnailWidth + x) * 3
			out[i] = c.R
			out[i+1] = c.G
			out[i+2] = c.B
		}
	}
	return out, nil
}

// sampleChannel finds, within the 2x2 quad at (x,y), the pixel matching
// the requested channel (0=R,1=G,2=B) under the given Bayer phase.
func sampleChannel(buf *correct.Buffer, x, y int, channel int, phase uint8) uint16 {
	for dy := 0; dy < 2; dy++ {
		for dx := 0; dx < 2; dx++ {
			px, py := x+dx, y+dy
			if px >= buf.Width || py >= buf.Height {
				continue
			}
			if correct.CFAColor(px, py, phase) == channel {
				return buf.At(px, py)
			}
		}
	}
	return 0
}

func logEVByte(tbl *correct.Tables, v uint16, maxEV int32, offset int32) uint8 {
	ev := tbl.Raw2EV(int32(v)) + offset
	if ev < 0 {
		ev = 0
	}
	if maxEV <= 0 {
		maxEV = 1
	}
	scaled := int64(ev) * 255 / int64(maxEV)
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 255 {
		scaled = 255
	}
	return uint8(scaled)
}
