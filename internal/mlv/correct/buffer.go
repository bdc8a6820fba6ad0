package correct

// Buffer is a single-channel 16-bit Bayer image, row-major, as read from
// RAWI's declared width/height (spec §4.6).
type Buffer struct {
	Width, Height int
	Pixels        []uint16 // len == Width*Height
}

// NewBuffer allocates a zeroed buffer of the given dimensions.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{Width: width, Height: height, Pixels: make([]uint16, width*height)}
}

// At returns the pixel at (x, y).
func (b *Buffer) At(x, y int) uint16 { return b.Pixels[y*b.Width+x] }

// Set writes the pixel at (x, y).
func (b *Buffer) Set(x, y int, v uint16) { b.Pixels[y*b.Width+x] = v }

// CFAColor returns 0/1/2 for R/G/B at (x, y) under the standard RGGB
// Bayer phase: even rows alternate R,G; odd rows alternate G,B.
// phase selects which of the four 2x2 arrangements the sensor actually
// uses (spec §4.4's four bayer phases), 0=RGGB, 1=GRBG, 2=GBRG, 3=BGGR.
func CFAColor(x, y int, phase uint8) int {
	px, py := x, y
	switch phase {
	case 1: // GRBG
		px++
	case 2: // GBRG
		py++
	case 3: // BGGR
		px++
		py++
	}
	evenRow := py%2 == 0
	evenCol := px%2 == 0
	switch {
	case evenRow && evenCol:
		return 0 // R
	case !evenRow && !evenCol:
		return 2 // B
	default:
		return 1 // G
	}
}

// Params collects the per-frame and per-container inputs every correction
// stage may need, a plain struct rather than a generic options bag, in
// keeping with the teacher's avoidance of reflection-heavy abstractions.
type Params struct {
	Black, White int32
	CFAPhase     uint8
	Aggressive   bool // bad-pixel repair: also run the "aggressive" branch
	ChromaRadius int  // 2, 3, or 5; 0 disables chroma smoothing
	FixStripes   bool
	DualISO      bool
	ContainerKey string // cache key for stripe-correction records
}
