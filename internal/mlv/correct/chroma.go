package correct

import (
	"fmt"
	"sort"

	"github.com/alxayo/mlvfs-core/internal/bufpool"
	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
)

// chromaKernels maps a requested radius to the same-color neighbor offsets
// used to estimate local luma: 2x2 uses the four axis-aligned same-color
// neighbors, 3x3 adds the four diagonal ones (the same eight offsets
// badpixel repair uses), 5x5 adds an outer diamond ring of four more
// (spec §4.6.3).
var chromaKernels = map[int][][2]int{
	2: {{2, 0}, {-2, 0}, {0, 2}, {0, -2}},
	3: {{2, 0}, {-2, 0}, {0, 2}, {0, -2}, {2, 2}, {2, -2}, {-2, 2}, {-2, -2}},
	5: {{2, 0}, {-2, 0}, {0, 2}, {0, -2}, {2, 2}, {2, -2}, {-2, 2}, {-2, -2},
		{4, 0}, {-4, 0}, {0, 4}, {0, -4}},
}

// oppositeOffsets are the unit-distance neighbors whose CFA color differs
// from the center pixel's for any Bayer phase.
var oppositeOffsets = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// ApplyChroma runs the EV-space median chroma-smoothing pass at the given
// radius (2, 3, or 5).
func ApplyChroma(img *Buffer, p Params) error {
	kernel, ok := chromaKernels[p.ChromaRadius]
	if !ok {
		return coreerrors.NewUnsupportedParamsError("correct.chroma", fmt.Errorf("unsupported chroma radius %d", p.ChromaRadius))
	}
	tbl, err := TablesFor(p.Black)
	if err != nil {
		return err
	}

	margin := 2
	for _, off := range kernel {
		if a := abs(off[0]); a > margin {
			margin = a
		}
		if a := abs(off[1]); a > margin {
			margin = a
		}
	}

	w, h := img.Width, img.Height
	src := bufpool.GetUint16(len(img.Pixels)) // pre-smoothing scratch copy, spec §4.6.3
	defer bufpool.PutUint16(src)
	copy(src, img.Pixels)

	lumaEV := make([]int32, len(kernel))
	chromaEV := make([]int32, len(oppositeOffsets))

	for y := margin; y < h-margin; y++ {
		for x := margin; x < w-margin; x++ {
			for i, off := range kernel {
				lumaEV[i] = tbl.Raw2EV(int32(src[(y+off[1])*w+(x+off[0])]))
			}
			luma := medianInt32(lumaEV)

			for i, off := range oppositeOffsets {
				neighbor := int32(src[(y+off[1])*w+(x+off[0])])
				chromaEV[i] = tbl.Raw2EV(neighbor) - luma
			}
			chroma := medianInt32(chromaEV)

			img.Set(x, y, uint16(clampRaw(tbl.EV2Raw(luma+chroma), p.White)))
		}
	}
	return nil
}

func medianInt32(v []int32) int32 {
	sorted := append([]int32(nil), v...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func clampRaw(v int32, white int32) int32 {
	if v < 0 {
		return 0
	}
	if white > 0 && v > white {
		return white
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
