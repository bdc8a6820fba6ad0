package index

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/logger"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
)

// Build walks every chunk in chunks linearly, classifying each block into a
// cross-reference Entry. A parse error on one block aborts only the chunk
// it belongs to (container.ChunkSet.Walk already enforces this); a GUID
// mismatch between chunks aborts the whole container (spec §4.2).
func Build(chunks *container.ChunkSet) (*Table, error) {
	t := &Table{}
	var sawGUID bool

	walkErr := chunks.Walk(func(chunkIndex int, offset int64, p container.Prelude, payload []byte) error {
		switch p.Type {
		case container.TypeNULL, container.TypeXREF:
			return nil // not indexed
		case container.TypeMLVI:
			h, err := container.DecodeMLVI(payload)
			if err != nil {
				logger.Logger().Warn("skipping malformed MLVI block", "chunk", chunkIndex, "offset", offset, "err", err)
				return nil
			}
			if !sawGUID {
				t.GUID = h.GUID
				t.MLVI = h
				sawGUID = true
			} else if h.GUID != uuid.Nil && h.GUID != t.GUID {
				return coreerrors.NewCorruptContainerError("index.build",
					fmt.Errorf("chunk %d declares GUID %s, expected %s", chunkIndex, h.GUID, t.GUID))
			}
			t.Entries = append(t.Entries, Entry{
				Timestamp:  0, // MLVI always sorts first, per spec §3
				ChunkIndex: uint16(chunkIndex),
				Offset:     uint64(offset),
				Kind:       KindOther,
				BlockType:  p.Type,
			})
		case container.TypeVIDF:
			t.Entries = append(t.Entries, Entry{
				Timestamp: p.Timestamp, ChunkIndex: uint16(chunkIndex), Offset: uint64(offset),
				Kind: KindVIDF, BlockType: p.Type,
			})
		case container.TypeAUDF:
			t.Entries = append(t.Entries, Entry{
				Timestamp: p.Timestamp, ChunkIndex: uint16(chunkIndex), Offset: uint64(offset),
				Kind: KindAUDF, BlockType: p.Type,
			})
		default:
			t.Entries = append(t.Entries, Entry{
				Timestamp: p.Timestamp, ChunkIndex: uint16(chunkIndex), Offset: uint64(offset),
				Kind: KindOther, BlockType: p.Type,
			})
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.SliceStable(t.Entries, func(i, j int) bool {
		return t.Entries[i].Timestamp < t.Entries[j].Timestamp
	})
	return t, nil
}
