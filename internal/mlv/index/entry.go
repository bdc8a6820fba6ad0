// Package index builds, persists, and reloads the cross-reference table
// that maps a container's video/audio/metadata blocks to their on-disk
// location, sorted by timestamp.
package index

import (
	"github.com/google/uuid"

	"github.com/alxayo/mlvfs-core/internal/mlv/container"
)

// EntryKind classifies a cross-reference entry's block for the
// frame-header resolver and audio emitter.
type EntryKind uint16

const (
	KindOther EntryKind = 0
	KindVIDF  EntryKind = 1
	KindAUDF  EntryKind = 2
)

// Entry is one cross-reference row: where a block lives and when it was
// recorded relative to the rest of the container.
type Entry struct {
	Timestamp  uint64
	ChunkIndex uint16
	Offset     uint64 // byte offset of the block's prelude within its chunk
	Kind       EntryKind
	BlockType  container.BlockType
}

// Table is the built-or-loaded cross-reference for one container: its
// sorted entries plus the MLVI header captured while building (re-emitted
// with its file number and frame counts rewritten when persisting the
// sidecar index, spec §6).
type Table struct {
	GUID    uuid.UUID
	MLVI    container.MLVIHeader
	Entries []Entry
}

// CountVIDF returns the number of VIDF entries in the table.
func (t *Table) CountVIDF() int {
	n := 0
	for _, e := range t.Entries {
		if e.Kind == KindVIDF {
			n++
		}
	}
	return n
}

// NthVIDF returns the n-th (0-indexed) VIDF entry in timestamp order.
func (t *Table) NthVIDF(n int) (Entry, bool) {
	i := 0
	for _, e := range t.Entries {
		if e.Kind != KindVIDF {
			continue
		}
		if i == n {
			return e, true
		}
		i++
	}
	return Entry{}, false
}
