// Package correct implements the optional per-frame corrections applied
// to a decoded 16-bit Bayer buffer: bad-pixel repair, dual-ISO
// reconstruction, stripe (column) gain correction, chroma smoothing, and
// the deflicker pass.
package correct

import (
	"fmt"
	"math"
	"sync"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
)

// R is the fixed-point exponent scale used throughout the EV tables
// (spec §4.6.1): one EV step is R raw2ev units.
const R = 32768

// MaxBlack is the largest black level the EV tables will build for;
// above this the pipeline reports UnsupportedParameters.
const MaxBlack = 16384

// Tables holds the raw<->EV lookup pair for one black level.
type Tables struct {
	Black      int32
	raw2evLUT  []int32 // indexed by v+Black, v in [-Black, 16383]
	ev2rawLUT  []int32 // indexed by e+10*R, e in [-10*R, 14*R)
}

var (
	tablesMu    sync.Mutex
	tablesCache = make(map[int32]*Tables)
)

// TablesFor returns the (lazily built, cached) EV tables for black,
// building them the first time a given black level is requested. Every
// call consults the cache map under a package-level mutex; lookups on the
// returned Tables take no lock (spec §5: "process-wide, one-shot
// initialized... after initialization, reads are lock-free" — generalized
// per black level since multiple containers with different black levels
// may be served concurrently).
func TablesFor(black int32) (*Tables, error) {
	if black > MaxBlack {
		return nil, coreerrors.NewUnsupportedParamsError("correct.tables_for", fmt.Errorf("black level %d too large", black))
	}

	tablesMu.Lock()
	defer tablesMu.Unlock()
	if t, ok := tablesCache[black]; ok {
		return t, nil
	}
	t := buildTables(black)
	tablesCache[black] = t
	return t, nil
}

func buildTables(black int32) *Tables {
	t := &Tables{Black: black}

	n := int(black) + 16384
	t.raw2evLUT = make([]int32, n)
	for i := 0; i < n; i++ {
		v := i - int(black)
		if v <= 0 {
			t.raw2evLUT[i] = 0
			continue
		}
		t.raw2evLUT[i] = int32(math.Floor(math.Log2(float64(v)) * R))
	}

	evN := 24 * R
	t.ev2rawLUT = make([]int32, evN)
	for i := 0; i < evN; i++ {
		e := i - 10*R
		t.ev2rawLUT[i] = int32(math.Floor(math.Pow(2, float64(e)/R)))
	}

	return t
}

// Raw2EV looks up the EV-space value for a raw sample v, clamping to the
// table's bounds.
func (t *Tables) Raw2EV(v int32) int32 {
	idx := v + t.Black
	if idx < 0 {
		idx = 0
	}
	if int(idx) >= len(t.raw2evLUT) {
		idx = int32(len(t.raw2evLUT) - 1)
	}
	return t.raw2evLUT[idx]
}

// EV2Raw looks up the raw-space value for an EV-space exponent e,
// clamping to the table's bounds.
func (t *Tables) EV2Raw(e int32) int32 {
	idx := e + 10*R
	if idx < 0 {
		idx = 0
	}
	if int(idx) >= len(t.ev2rawLUT) {
		idx = int32(len(t.ev2rawLUT) - 1)
	}
	return t.ev2rawLUT[idx]
}
