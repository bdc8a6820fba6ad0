package unpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestUnpackRepackRoundTripProperty checks that for any supported
// bits-per-pixel and any row of in-range samples (a multiple of 8 wide,
// the granularity Repack8/Unpack8 pack in), repacking then unpacking
// recovers the original values exactly.
func TestUnpackRepackRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bpp := rapid.SampledFrom([]int{10, 12, 14, 16}).Draw(t, "bpp")
		max := uint16(1)<<uint(bpp) - 1

		groups := rapid.IntRange(1, 8).Draw(t, "groups")
		width := groups * 8
		samples := make([]uint16, width)
		for i := range samples {
			samples[i] = rapid.Uint16Range(0, max).Draw(t, "sample")
		}

		packed := make([]byte, 0, groups*bpp)
		for g := 0; g < groups; g++ {
			block, err := Repack8(samples[g*8:g*8+8], bpp)
			assert.NoErrorf(t, err, "bpp=%d Repack8 group %d", bpp, g)
			packed = append(packed, block...)
		}

		got, err := UnpackRow(packed, bpp, width)
		assert.NoErrorf(t, err, "bpp=%d UnpackRow", bpp)
		assert.Equalf(t, samples, got, "bpp=%d round trip mismatch", bpp)
	})
}
