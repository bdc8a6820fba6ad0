package index

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/alxayo/mlvfs-core/internal/mlv/container"
)

func writeBlock(t *testing.T, buf *bytes.Buffer, tag string, ts uint64, payload []byte) {
	t.Helper()
	size := uint32(container.PreludeSize + len(payload))
	buf.WriteString(tag)
	binary.Write(buf, binary.LittleEndian, size)
	binary.Write(buf, binary.LittleEndian, ts)
	buf.Write(payload)
}

func buildTestContainer(t *testing.T, dir string) string {
	t.Helper()
	base := filepath.Join(dir, "clip")

	guid := uuid.New()
	hdr := container.MLVIHeader{GUID: guid, FrameRateNum: 24000, FrameRateDenom: 1001, VideoFrameCount: 2}

	var buf bytes.Buffer
	writeBlock(t, &buf, "MLVI", 0, hdr.Encode())

	rawiPayload := make([]byte, 64)
	writeBlock(t, &buf, "RAWI", 10, rawiPayload)

	vidf0 := make([]byte, 8)
	binary.LittleEndian.PutUint32(vidf0[0:4], 0)
	writeBlock(t, &buf, "VIDF", 20, vidf0)

	vidf1 := make([]byte, 8)
	binary.LittleEndian.PutUint32(vidf1[0:4], 1)
	writeBlock(t, &buf, "VIDF", 30, vidf1)

	if err := os.WriteFile(base+".MLV", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return base + ".MLV"
}

func TestBuildOrdersByTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := buildTestContainer(t, dir)

	chunks, err := container.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer chunks.Close()

	tbl, err := Build(chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tbl.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(tbl.Entries))
	}
	if tbl.Entries[0].BlockType != container.TypeMLVI {
		t.Fatalf("expected MLVI to sort first, got %v", tbl.Entries[0].BlockType)
	}
	if tbl.CountVIDF() != 2 {
		t.Fatalf("expected 2 VIDF entries, got %d", tbl.CountVIDF())
	}
	if _, ok := tbl.NthVIDF(1); !ok {
		t.Fatalf("expected a 2nd VIDF entry")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := buildTestContainer(t, dir)

	chunks, err := container.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer chunks.Close()

	built, err := Build(chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	idxPath := SidecarPath(path)
	if err := Save(idxPath, chunks.NumChunks(), built); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(idxPath, chunks)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Entries) != len(built.Entries) {
		t.Fatalf("entry count mismatch: loaded=%d built=%d", len(loaded.Entries), len(built.Entries))
	}
	for i := range built.Entries {
		if loaded.Entries[i] != built.Entries[i] {
			t.Fatalf("entry %d mismatch: loaded=%+v built=%+v", i, loaded.Entries[i], built.Entries[i])
		}
	}
}

func TestCacheGetIndexCachesResult(t *testing.T) {
	dir := t.TempDir()
	path := buildTestContainer(t, dir)

	c := NewCache()
	t1, err := c.GetIndex(path)
	if err != nil {
		t.Fatalf("GetIndex: %v", err)
	}
	t2, err := c.GetIndex(path)
	if err != nil {
		t.Fatalf("GetIndex (cached): %v", err)
	}
	if t1 != t2 {
		t.Fatalf("expected cached GetIndex to return the same table pointer")
	}

	c.Invalidate(path)
	t3, err := c.GetIndex(path)
	if err != nil {
		t.Fatalf("GetIndex (after invalidate): %v", err)
	}
	if t3 == t1 {
		t.Fatalf("expected a fresh table pointer after invalidation")
	}
}
