package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
)

const xrefEntrySize = 12 // offset: u64, chunk: u16, kind: u16

// SidecarPath returns the ".IDX" path for a container's base ".MLV" path.
func SidecarPath(mlvPath string) string {
	trimmed := strings.TrimSuffix(mlvPath, filepath.Ext(mlvPath))
	return trimmed + ".IDX"
}

// Save persists t to the sidecar path next to a container with chunkCount
// chunks: an MLVI block (fileNum = chunkCount+1, frame counts zeroed)
// followed by an XREF block holding every entry (spec §6).
func Save(idxPath string, chunkCount int, t *Table) error {
	var buf bytes.Buffer

	hdr := t.MLVI
	hdr.FileNum = uint16(chunkCount + 1)
	hdr.VideoFrameCount = 0
	hdr.AudioFrameCount = 0
	mlviPayload := hdr.Encode()
	writeBlockHeader(&buf, container.TypeMLVI, uint32(container.PreludeSize+len(mlviPayload)), 0)
	buf.Write(mlviPayload)

	xrefPayload := make([]byte, 4+len(t.Entries)*xrefEntrySize)
	binary.LittleEndian.PutUint32(xrefPayload[0:4], uint32(len(t.Entries)))
	off := 4
	for _, e := range t.Entries {
		binary.LittleEndian.PutUint64(xrefPayload[off:off+8], e.Offset)
		binary.LittleEndian.PutUint16(xrefPayload[off+8:off+10], e.ChunkIndex)
		binary.LittleEndian.PutUint16(xrefPayload[off+10:off+12], uint16(e.Kind))
		off += xrefEntrySize
	}
	writeBlockHeader(&buf, container.TypeXREF, uint32(container.PreludeSize+len(xrefPayload)), 0)
	buf.Write(xrefPayload)

	if err := os.WriteFile(idxPath, buf.Bytes(), 0o644); err != nil {
		return coreerrors.NewIOError("index.save", err)
	}
	return nil
}

func writeBlockHeader(buf *bytes.Buffer, tag container.BlockType, size uint32, ts uint64) {
	buf.WriteString(string(tag))
	binary.Write(buf, binary.LittleEndian, size)
	binary.Write(buf, binary.LittleEndian, ts)
}

// Load reads a sidecar ".IDX" file and recovers each entry's timestamp by
// reading the stored block's prelude from chunks at (ChunkIndex, Offset) —
// the on-disk XREF record omits the timestamp since it is redundant with
// the value already present in the container itself (spec §6).
func Load(idxPath string, chunks *container.ChunkSet) (*Table, error) {
	data, err := os.ReadFile(idxPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, coreerrors.NewNotFoundError("index.load", err)
		}
		return nil, coreerrors.NewIOError("index.load", err)
	}
	r := bytes.NewReader(data)

	mlviPrelude, err := container.ReadPrelude(r)
	if err != nil || mlviPrelude.Type != container.TypeMLVI {
		return nil, coreerrors.NewCorruptContainerError("index.load", fmt.Errorf("expected MLVI block at start of sidecar"))
	}
	mlviPayload := make([]byte, mlviPrelude.PayloadSize())
	if _, err := io.ReadFull(r, mlviPayload); err != nil {
		return nil, coreerrors.NewCorruptContainerError("index.load", err)
	}
	mlvi, err := container.DecodeMLVI(mlviPayload)
	if err != nil {
		return nil, coreerrors.NewCorruptContainerError("index.load", err)
	}

	xrefPrelude, err := container.ReadPrelude(r)
	if err != nil || xrefPrelude.Type != container.TypeXREF {
		return nil, coreerrors.NewCorruptContainerError("index.load", fmt.Errorf("expected XREF block after MLVI"))
	}
	xrefPayload := make([]byte, xrefPrelude.PayloadSize())
	if _, err := io.ReadFull(r, xrefPayload); err != nil {
		return nil, coreerrors.NewCorruptContainerError("index.load", err)
	}
	if len(xrefPayload) < 4 {
		return nil, coreerrors.NewCorruptContainerError("index.load", fmt.Errorf("truncated XREF payload"))
	}
	count := binary.LittleEndian.Uint32(xrefPayload[0:4])
	need := 4 + int(count)*xrefEntrySize
	if len(xrefPayload) < need {
		return nil, coreerrors.NewCorruptContainerError("index.load", fmt.Errorf("XREF declares %d entries but payload holds fewer", count))
	}

	t := &Table{GUID: mlvi.GUID, MLVI: mlvi}
	off := 4
	for i := uint32(0); i < count; i++ {
		entryOffset := binary.LittleEndian.Uint64(xrefPayload[off : off+8])
		chunkIdx := binary.LittleEndian.Uint16(xrefPayload[off+8 : off+10])
		kind := EntryKind(binary.LittleEndian.Uint16(xrefPayload[off+10 : off+12]))
		off += xrefEntrySize

		ts, blockType, err := readBlockTimestamp(chunks, int(chunkIdx), int64(entryOffset))
		if err != nil {
			return nil, err
		}
		t.Entries = append(t.Entries, Entry{
			Timestamp:  ts,
			ChunkIndex: chunkIdx,
			Offset:     entryOffset,
			Kind:       kind,
			BlockType:  blockType,
		})
	}
	return t, nil
}

func readBlockTimestamp(chunks *container.ChunkSet, chunkIndex int, offset int64) (uint64, container.BlockType, error) {
	var raw [container.PreludeSize]byte
	if _, err := chunks.ReadAt(chunkIndex, raw[:], offset); err != nil {
		return 0, "", coreerrors.NewIOError("index.load", err)
	}
	return binary.LittleEndian.Uint64(raw[8:16]), container.BlockType(raw[0:4]), nil
}
