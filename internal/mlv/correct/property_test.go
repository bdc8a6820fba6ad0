package correct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestEVRoundTripProperty generalizes TestEV2RawRaw2EVRoundTrip over random
// black levels and raw values: converting to EV space and back must land
// within 1 of the original sample, for any black level the tables support.
func TestEVRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		black := rapid.Int32Range(0, MaxBlack).Draw(t, "black")
		tbl, err := TablesFor(black)
		assert.NoErrorf(t, err, "TablesFor(%d)", black)

		v := rapid.Int32Range(1, 16383).Draw(t, "v")
		got := tbl.EV2Raw(tbl.Raw2EV(v))
		assert.Truef(t, got >= v-1 && got <= v+1, "black=%d v=%d: ev2raw(raw2ev(v))=%d not within 1 of v", black, v, got)
	})
}
