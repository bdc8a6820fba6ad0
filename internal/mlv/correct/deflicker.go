package correct

import "sync"

// deflickerAlpha is the EWMA smoothing factor for the running per-container
// mean luma (original_source/mlvfs/hdr.c's sibling constant; supplemented
// feature, not in spec.md's body — see SPEC_FULL.md).
const deflickerAlpha = 0.2

type deflickerState struct {
	mu      sync.Mutex
	running float64
	seeded  bool
}

var deflickerStates sync.Map // ContainerKey -> *deflickerState

// ApplyDeflicker rescales img's mean luma toward a running per-container
// EWMA average, damping frame-to-frame exposure flicker from auto-ISO
// sources. Applied last in the pipeline since it operates on aggregate
// brightness rather than per-pixel structure.
func ApplyDeflicker(img *Buffer, p Params) error {
	v, _ := deflickerStates.LoadOrStore(p.ContainerKey, &deflickerState{})
	st := v.(*deflickerState)

	mean := meanLuma(img)

	st.mu.Lock()
	if !st.seeded {
		st.running = mean
		st.seeded = true
	}
	target := st.running
	st.running = deflickerAlpha*mean + (1-deflickerAlpha)*st.running
	st.mu.Unlock()

	if mean <= 0 {
		return nil
	}
	scale := target / mean
	for i, v := range img.Pixels {
		scaled := (float64(v)-float64(p.Black))*scale + float64(p.Black)
		img.Pixels[i] = uint16(clampRaw(int32(scaled), p.White))
	}
	return nil
}

func meanLuma(img *Buffer) float64 {
	if len(img.Pixels) == 0 {
		return 0
	}
	var sum float64
	for _, v := range img.Pixels {
		sum += float64(v)
	}
	return sum / float64(len(img.Pixels))
}
