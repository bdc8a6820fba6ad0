// Package frameheader reconstructs the full per-video-frame metadata
// context — sensor, lens, exposure, white balance, real-time clock — by
// walking a container's cross-reference table backwards from a target
// video frame.
package frameheader

import (
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
)

// Bundle is the per-video-frame projection of metadata (spec §3).
type Bundle struct {
	FrameNumber int   // the requested video-frame ordinal n
	FileNumber  int   // chunk index holding the VIDF block
	Position    int64 // byte offset of the VIDF block's prelude within that chunk

	VIDF container.VIDFPrelude
	MLVI container.MLVIHeader
	RTCI container.RTCIInfo
	IDNT container.IDNTInfo
	RAWI container.RAWIInfo
	EXPO container.EXPOInfo
	LENS container.LENSInfo
	WBAL container.WBALInfo

	// PixelChunk/PixelOffset/PixelSize locate the packed sensor payload
	// that follows the VIDF prelude and its frame-space padding.
	PixelChunk  int
	PixelOffset int64
	PixelSize   int64
}
