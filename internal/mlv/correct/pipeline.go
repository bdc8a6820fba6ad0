package correct

import "github.com/alxayo/mlvfs-core/internal/logger"

// Config selects which optional passes Pipeline.Run applies, mirroring the
// configuration surface's badpix/chroma_smooth/fix_stripes/dual_iso/
// deflicker fields (spec §6).
type Config struct {
	BadPixel      bool
	BadPixelAggro bool
	ChromaRadius  int // 0 disables
	FixStripes    bool
	DualISO       bool
	Deflicker     bool
}

// Pipeline runs the optional correction passes over a decoded Bayer
// buffer in the spec's default order: bad-pixel repair, dual-ISO, stripe
// correction, chroma smoothing, then (supplemented) deflicker.
//
// Every stage is best-effort: an UnsupportedParameters error from a stage
// is logged and the stage is skipped rather than aborting the frame
// (spec §7).
type Pipeline struct {
	Config Config
}

// Run applies the configured passes to img in place.
func (pl Pipeline) Run(img *Buffer, p Params) {
	if pl.Config.BadPixel {
		p.Aggressive = pl.Config.BadPixelAggro
		if err := ApplyBadPixel(img, p); err != nil {
			logger.Logger().Warn("bad-pixel repair skipped", "err", err)
		}
	}

	if pl.Config.DualISO {
		res, err := DetectDualISO(img, p)
		if err != nil {
			logger.Logger().Warn("dual-ISO reconstruction skipped", "err", err)
		} else if err := ApplyDualISO(img, res, p); err != nil {
			logger.Logger().Warn("dual-ISO apply failed", "err", err)
		}
	}

	if pl.Config.FixStripes {
		rec, ok := StripeRecordFor(p.ContainerKey)
		if !ok {
			rec = EstimateStripe(img, p)
		}
		if err := ApplyStripe(img, rec, p); err != nil {
			logger.Logger().Warn("stripe correction skipped", "err", err)
		}
	}

	if pl.Config.ChromaRadius > 0 {
		p.ChromaRadius = pl.Config.ChromaRadius
		if err := ApplyChroma(img, p); err != nil {
			logger.Logger().Warn("chroma smoothing skipped", "err", err)
		}
	}

	if pl.Config.Deflicker {
		if err := ApplyDeflicker(img, p); err != nil {
			logger.Logger().Warn("deflicker skipped", "err", err)
		}
	}
}
