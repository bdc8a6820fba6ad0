package correct

import (
	"sort"

	"github.com/alxayo/mlvfs-core/internal/bufpool"
)

// darkNoiseEstimate is the fixed dark-noise constant D from spec §4.6.2.
const darkNoiseEstimate = 12

var badPixelOffsets = [8][2]int{
	{2, 2}, {2, -2}, {-2, 2}, {-2, -2},
	{2, 0}, {-2, 0}, {0, 2}, {0, -2},
}

// ApplyBadPixel repairs cold/hot outlier pixels by comparing each pixel to
// its eight same-channel neighbors (spec §4.6.2). Pixels within 6 rows/
// columns of the border are left untouched since a full neighborhood isn't
// available there.
func ApplyBadPixel(img *Buffer, p Params) error {
	tbl, err := TablesFor(p.Black)
	if err != nil {
		return err
	}

	w, h := img.Width, img.Height
	src := bufpool.GetUint16(len(img.Pixels)) // read from a stable snapshot
	defer bufpool.PutUint16(src)
	copy(src, img.Pixels)

	for y := 6; y < h-6; y++ {
		for x := 6; x < w-6; x++ {
			var neighbors [8]int32
			for i, off := range badPixelOffsets {
				neighbors[i] = int32(src[(y+off[1])*w+(x+off[0])])
			}
			sorted := neighbors
			sort.Slice(sorted[:], func(i, j int) bool { return sorted[i] < sorted[j] })
			// Hot-pixel repair replaces against the 2nd/3rd-largest same-channel
			// neighbor, not the smallest end of the distribution (spec §4.6.2,
			// original_source/mlvfs/cs.c's max1/max2 running selection).
			secondLargest, thirdLargest := sorted[6], sorted[5]

			p0 := int32(src[y*w+x])

			// The EV tables take black-relative samples.
			switch {
			case p0 < p.Black-8*darkNoiseEstimate:
				img.Set(x, y, uint16(median8(neighbors)))
			case tbl.Raw2EV(p0-p.Black)-tbl.Raw2EV(secondLargest-p.Black) > 2*R && p0 > p.Black+8*darkNoiseEstimate:
				img.Set(x, y, uint16(secondLargest))
			case p.Aggressive && ((tbl.Raw2EV(p0-p.Black)-tbl.Raw2EV(secondLargest-p.Black) > R/4 && p0 > p.Black+8*darkNoiseEstimate) ||
				tbl.Raw2EV(p0-p.Black)-tbl.Raw2EV(thirdLargest-p.Black) > R/2):
				img.Set(x, y, uint16(thirdLargest))
			}
		}
	}
	return nil
}

func median8(v [8]int32) int32 {
	sorted := v
	sort.Slice(sorted[:], func(i, j int) bool { return sorted[i] < sorted[j] })
	return (sorted[3] + sorted[4]) / 2
}
