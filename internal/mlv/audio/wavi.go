package audio

import (
	"fmt"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
)

// FindWAVI locates the container's WAVI metadata block and decodes it.
// A container with no audio track has no WAVI entry; callers use the ok
// return to decide whether to synthesize audio.WAV at all.
func FindWAVI(chunks *container.ChunkSet, table *index.Table) (container.WAVIInfo, bool, error) {
	for _, e := range table.Entries {
		if e.BlockType != container.TypeWAVI {
			continue
		}
		var raw [container.PreludeSize]byte
		if _, err := chunks.ReadAt(int(e.ChunkIndex), raw[:], int64(e.Offset)); err != nil {
			return container.WAVIInfo{}, false, coreerrors.NewIOError("audio.find_wavi", err)
		}
		size := leUint32(raw[4:8])
		payloadLen := int64(size) - container.PreludeSize
		if payloadLen < 0 {
			return container.WAVIInfo{}, false, coreerrors.NewCorruptContainerError("audio.find_wavi",
				fmt.Errorf("WAVI block at chunk %d offset %d has size %d smaller than prelude", e.ChunkIndex, e.Offset, size))
		}
		payload := make([]byte, payloadLen)
		if len(payload) > 0 {
			if _, err := chunks.ReadAt(int(e.ChunkIndex), payload, int64(e.Offset)+container.PreludeSize); err != nil {
				return container.WAVIInfo{}, false, coreerrors.NewIOError("audio.find_wavi", err)
			}
		}
		wavi, err := container.DecodeWAVI(payload)
		if err != nil {
			return container.WAVIInfo{}, false, err
		}
		return wavi, true, nil
	}
	return container.WAVIInfo{}, false, nil
}
