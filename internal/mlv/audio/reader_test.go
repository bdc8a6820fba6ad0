package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
)

func writeBlock(t *testing.T, buf *bytes.Buffer, tag string, ts uint64, payload []byte) {
	t.Helper()
	size := uint32(container.PreludeSize + len(payload))
	buf.WriteString(tag)
	binary.Write(buf, binary.LittleEndian, size)
	binary.Write(buf, binary.LittleEndian, ts)
	buf.Write(payload)
}

func buildAudioContainer(t *testing.T, dir string) (string, []byte) {
	t.Helper()
	base := filepath.Join(dir, "clip")

	hdr := container.MLVIHeader{GUID: uuid.New(), FrameRateNum: 24000, FrameRateDenom: 1001}

	var buf bytes.Buffer
	writeBlock(t, &buf, "MLVI", 0, hdr.Encode())

	wavi := make([]byte, 12)
	binary.LittleEndian.PutUint16(wavi[0:2], 2)
	binary.LittleEndian.PutUint32(wavi[4:8], 48000)
	binary.LittleEndian.PutUint32(wavi[8:12], 192000)
	writeBlock(t, &buf, "WAVI", 5, wavi)

	pcm0 := []byte{1, 2, 3, 4, 5, 6}
	audf0 := make([]byte, 4+len(pcm0))
	binary.LittleEndian.PutUint32(audf0[0:4], 0) // frame_space
	copy(audf0[4:], pcm0)
	writeBlock(t, &buf, "AUDF", 10, audf0)

	pcm1 := []byte{7, 8, 9, 10}
	audf1 := make([]byte, 4+len(pcm1))
	binary.LittleEndian.PutUint32(audf1[0:4], 0)
	copy(audf1[4:], pcm1)
	writeBlock(t, &buf, "AUDF", 20, audf1)

	if err := os.WriteFile(base+".MLV", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return base + ".MLV", append(append([]byte{}, pcm0...), pcm1...)
}

func TestReaderConcatenatesAUDFPayloads(t *testing.T) {
	dir := t.TempDir()
	path, wantPCM := buildAudioContainer(t, dir)

	chunks, err := container.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer chunks.Close()

	tbl, err := index.Build(chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wavi := container.WAVIInfo{Channels: 2, SampleRate: 48000, BytesPerSecond: 192000, BitsPerSample: 16}
	r, err := NewReader(chunks, tbl, wavi, 0, 0, 0)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	got := make([]byte, r.Size())
	n, err := r.ReadAt(got, 0)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadAt: %v", err)
	}
	got = got[:n]

	if string(got[0:4]) != "RIFF" {
		t.Fatalf("expected RIFF header, got %q", got[0:4])
	}
	gotPCM := got[HeaderSize:]
	if !bytes.Equal(gotPCM, wantPCM) {
		t.Fatalf("PCM payload = %v, want %v", gotPCM, wantPCM)
	}
}
