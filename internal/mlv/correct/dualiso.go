package correct

import (
	"fmt"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
)

// DualISOResult carries the fit detected by DetectDualISO, reused by
// ApplyDualISO.
type DualISOResult struct {
	DarkRowStart int
	A, B         float64
	Shadow       float64
}

const histogramSize = 16384

// DetectDualISO classifies the interlaced bright/dark row pattern and fits
// the linear bright->dark mapping (spec §4.6.5, steps 1-4).
func DetectDualISO(img *Buffer, p Params) (*DualISOResult, error) {
	w, h := img.Width, img.Height

	var medians [4]int32
	for class := 0; class < 4; class++ {
		var samples []int32
		for y := class; y < h; y += 4 {
			for x := 0; x < w; x += 5 {
				if CFAColor(x, y, p.CFAPhase) != 1 {
					continue
				}
				samples = append(samples, int32(img.At(x, y)))
			}
		}
		medians[class] = medianInt32(samples)
	}

	darkRowStart := -1
	for s := 0; s < 4; s++ {
		d1, d2 := medians[s], medians[(s+1)%4]
		b1, b2 := medians[(s+2)%4], medians[(s+3)%4]
		// spec §4.6.5 step 1 requires each bright median to individually
		// exceed each dark median by at least 2x, not just on average.
		if d1 > 0 && d2 > 0 &&
			float64(b1) >= 2*float64(d1) && float64(b1) >= 2*float64(d2) &&
			float64(b2) >= 2*float64(d1) && float64(b2) >= 2*float64(d2) {
			darkRowStart = s
			break
		}
	}
	if darkRowStart < 0 {
		return nil, coreerrors.NewUnsupportedParamsError("correct.dual_iso", fmt.Errorf("could not detect dual ISO"))
	}

	darkHist := make([]int32, histogramSize)
	brightHist := make([]int32, histogramSize)
	for y := 0; y < h; y++ {
		bright := isBrightRow(y, darkRowStart)
		for x := 0; x < w; x++ {
			if CFAColor(x, y, p.CFAPhase) != 1 {
				continue
			}
			v := img.At(x, y)
			if int(v) >= histogramSize {
				v = histogramSize - 1
			}
			if bright {
				brightHist[v]++
			} else {
				darkHist[v]++
			}
		}
	}

	points, weights := equalizeHistograms(darkHist, brightHist, p.Black)
	if len(points) < 2 {
		return nil, coreerrors.NewUnsupportedParamsError("correct.dual_iso", fmt.Errorf("insufficient samples to fit dual ISO mapping"))
	}
	a, b := weightedLeastSquares(points, weights)
	shadow := float64(p.Black) + 1/(a*a) + b

	return &DualISOResult{DarkRowStart: darkRowStart, A: a, B: b, Shadow: shadow}, nil
}

func isBrightRow(y, darkRowStart int) bool {
	return ((y-darkRowStart+4)%4) >= 2
}

type point struct{ x, y float64 }

// equalizeHistograms walks both histograms by cumulative count, emitting a
// correspondence point whenever the bright-side cumulative count crosses
// the dark-side cumulative count at the same quantile, trimming the outer
// 1% tails of each distribution (spec §4.6.5 step 3).
func equalizeHistograms(darkHist, brightHist []int32, black int32) ([]point, []float64) {
	var darkTotal, brightTotal int64
	for _, c := range darkHist {
		darkTotal += int64(c)
	}
	for _, c := range brightHist {
		brightTotal += int64(c)
	}
	if darkTotal == 0 || brightTotal == 0 {
		return nil, nil
	}
	loCut := int64(float64(darkTotal) * 0.01)
	hiCut := int64(float64(darkTotal) * 0.99)

	var points []point
	var weights []float64
	var darkAcc, brightAcc int64
	bi := 0
	for li, c := range darkHist {
		darkAcc += int64(c)
		if darkAcc < loCut || darkAcc > hiCut {
			continue
		}
		target := darkAcc * brightTotal / darkTotal
		for brightAcc < target && bi < len(brightHist)-1 {
			brightAcc += int64(brightHist[bi])
			bi++
		}
		rawLo := int32(li)
		rawHi := int32(bi)
		w := float64(rawHi-black) + 100
		if w < 0 {
			w = 0
		}
		if rawHi != 0 || rawLo != 0 {
			points = append(points, point{x: float64(rawHi - black), y: float64(rawLo - black)})
			weights = append(weights, w)
		}
	}
	return points, weights
}

// weightedLeastSquares fits y = a*x + b.
func weightedLeastSquares(pts []point, w []float64) (a, b float64) {
	var sw, swx, swy, swxx, swxy float64
	for i, p := range pts {
		wi := w[i]
		sw += wi
		swx += wi * p.x
		swy += wi * p.y
		swxx += wi * p.x * p.x
		swxy += wi * p.x * p.y
	}
	denom := sw*swxx - swx*swx
	if denom == 0 {
		return 1, 0
	}
	a = (sw*swxy - swx*swy) / denom
	b = (swxx*swy - swx*swxy) / denom
	return a, b
}

// ApplyDualISO reconstructs a single exposure from the interlaced
// bright/dark row pattern detected by DetectDualISO (spec §4.6.5 step 5).
func ApplyDualISO(img *Buffer, res *DualISOResult, p Params) error {
	w, h := img.Width, img.Height
	for y := 0; y < h; y++ {
		bright := isBrightRow(y, res.DarkRowStart)
		for x := 0; x < w; x++ {
			v := int32(img.At(x, y))
			if bright {
				if v >= p.White {
					img.Set(x, y, uint16(verticalMean(img, x, y, 2)))
					continue
				}
				mapped := float64(v-p.Black)*res.A + res.B + float64(p.Black)
				img.Set(x, y, uint16(clampRaw(int32(mapped), p.White)))
				continue
			}
			if float64(v) < res.Shadow {
				below := neighborRow(img, x, y, 2)
				mapped := (float64(below-p.Black)*res.A + res.B + float64(p.Black) + float64(v)) / 2
				img.Set(x, y, uint16(clampRaw(int32(mapped), p.White)))
			}
		}
	}
	return nil
}

func verticalMean(img *Buffer, x, y, dy int) int32 {
	h := img.Height
	var vals []int32
	if y-dy >= 0 {
		vals = append(vals, int32(img.At(x, y-dy)))
	}
	if y+dy < h {
		vals = append(vals, int32(img.At(x, y+dy)))
	}
	if len(vals) == 0 {
		return int32(img.At(x, y))
	}
	var sum int32
	for _, v := range vals {
		sum += v
	}
	return sum / int32(len(vals))
}

func neighborRow(img *Buffer, x, y, dy int) int32 {
	h := img.Height
	if y+dy < h {
		return int32(img.At(x, y+dy))
	}
	if y-dy >= 0 {
		return int32(img.At(x, y-dy))
	}
	return int32(img.At(x, y))
}
