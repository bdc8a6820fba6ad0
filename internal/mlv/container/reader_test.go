package container

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeBlock(t *testing.T, buf *bytes.Buffer, tag string, payload []byte) {
	t.Helper()
	size := uint32(PreludeSize + len(payload))
	buf.WriteString(tag)
	binary.Write(buf, binary.LittleEndian, size)
	binary.Write(buf, binary.LittleEndian, uint64(0))
	buf.Write(payload)
}

func TestOpenDiscoversContiguousChunks(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "clip")
	if err := os.WriteFile(base+".MLV", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base+".M00", []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	// M01 intentionally missing; M02 must NOT be picked up.
	if err := os.WriteFile(base+".M02", []byte("z"), 0o644); err != nil {
		t.Fatal(err)
	}

	cs, err := Open(base + ".MLV")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cs.Close()

	if cs.NumChunks() != 2 {
		t.Fatalf("expected 2 contiguous chunks, got %d", cs.NumChunks())
	}
}

func TestOpenMissingBaseFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "nope.MLV")); err == nil {
		t.Fatalf("expected error opening missing base file")
	}
}

func TestWalkVisitsEveryBlock(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "clip")

	var buf bytes.Buffer
	mlviPayload := make([]byte, mlviStructSize)
	writeBlock(t, &buf, "MLVI", mlviPayload)
	vidfPayload := make([]byte, 16)
	binary.LittleEndian.PutUint32(vidfPayload[0:4], 0)
	writeBlock(t, &buf, "VIDF", vidfPayload)
	vidfPayload2 := make([]byte, 16)
	binary.LittleEndian.PutUint32(vidfPayload2[0:4], 1)
	writeBlock(t, &buf, "VIDF", vidfPayload2)

	if err := os.WriteFile(base+".MLV", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	cs, err := Open(base + ".MLV")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cs.Close()

	var tags []string
	if err := cs.Walk(func(chunkIndex int, offset int64, p Prelude, payload []byte) error {
		tags = append(tags, string(p.Type))
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(tags) != 3 || tags[0] != "MLVI" || tags[1] != "VIDF" || tags[2] != "VIDF" {
		t.Fatalf("unexpected tags: %v", tags)
	}
}

func TestWalkStopsChunkOnCorruptPrelude(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "clip")

	var buf bytes.Buffer
	writeBlock(t, &buf, "MLVI", make([]byte, mlviStructSize))
	// Append a prelude declaring an undersized block, which should halt
	// the walk for this chunk without returning an error.
	buf.WriteString("VIDF")
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	binary.Write(&buf, binary.LittleEndian, uint64(0))

	if err := os.WriteFile(base+".MLV", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	cs, err := Open(base + ".MLV")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cs.Close()

	var count int
	if err := cs.Walk(func(chunkIndex int, offset int64, p Prelude, payload []byte) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("Walk returned error, expected best-effort stop: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 visited block before corrupt prelude halted scan, got %d", count)
	}
}
