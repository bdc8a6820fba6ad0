package preview

import (
	"bytes"
	"encoding/binary"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/correct"
	"github.com/alxayo/mlvfs-core/internal/mlv/dng"
	"github.com/alxayo/mlvfs-core/internal/mlv/frameheader"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
	"github.com/alxayo/mlvfs-core/internal/mlv/unpack"
)

func writeBlock(t *testing.T, buf *bytes.Buffer, tag string, ts uint64, payload []byte) {
	t.Helper()
	size := uint32(container.PreludeSize + len(payload))
	buf.WriteString(tag)
	binary.Write(buf, binary.LittleEndian, size)
	binary.Write(buf, binary.LittleEndian, ts)
	buf.Write(payload)
}

// rawiPayload builds a RAWI payload for an 8x1, 16-bit-per-sample frame,
// matching container.DecodeRAWI's byte layout field-for-field.
func rawiPayload(width, height uint16) []byte {
	const rationalSize = 8
	size := 2 + 2 + 1 + 2 + 2 + 1 + 9*rationalSize + 8 + 8 + rationalSize + 4 + 4
	b := make([]byte, size)
	binary.LittleEndian.PutUint16(b[0:2], width)
	binary.LittleEndian.PutUint16(b[2:4], height)
	ri := b[4:]
	ri[0] = 16 // bits per pixel
	binary.LittleEndian.PutUint16(ri[1:3], 0)
	binary.LittleEndian.PutUint16(ri[3:5], 16383)
	ri[5] = 0 // CFA phase: RGGB
	activeOff := 6 + 9*rationalSize
	binary.LittleEndian.PutUint16(ri[activeOff+4:activeOff+6], width)
	binary.LittleEndian.PutUint16(ri[activeOff+6:activeOff+8], height)
	return b
}

func packPixels16(samples []uint16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], s)
	}
	return out
}

func buildTestContainer(t *testing.T) (*container.ChunkSet, *index.Table) {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "clip")

	mlvi := container.MLVIHeader{GUID: uuid.New(), FrameRateNum: 24000, FrameRateDenom: 1001}

	var buf bytes.Buffer
	writeBlock(t, &buf, "MLVI", 0, mlvi.Encode())
	writeBlock(t, &buf, "RAWI", 1, rawiPayload(8, 1))

	samples := []uint16{100, 200, 300, 400, 500, 600, 700, 800}
	for i := 0; i < 3; i++ {
		vidf := make([]byte, 8+16)
		binary.LittleEndian.PutUint32(vidf[0:4], uint32(i))
		copy(vidf[8:], packPixels16(samples))
		writeBlock(t, &buf, "VIDF", uint64(10+i), vidf)
	}

	if err := os.WriteFile(base+".MLV", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := container.Open(base + ".MLV")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { chunks.Close() })

	table, err := index.Build(chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return chunks, table
}

func testDecode(chunks *container.ChunkSet, bundle *frameheader.Bundle) (*correct.Buffer, error) {
	width := int(bundle.RAWI.XRes)
	height := int(bundle.RAWI.YRes)
	bpp := int(bundle.RAWI.RawInfo.BitsPerPixel)

	packed := make([]byte, bundle.PixelSize)
	if _, err := chunks.ReadAt(bundle.PixelChunk, packed, bundle.PixelOffset); err != nil {
		return nil, err
	}

	buf := correct.NewBuffer(width, height)
	row, err := unpack.UnpackRow(packed, bpp, width)
	if err != nil {
		return nil, err
	}
	copy(buf.Pixels, row)
	return buf, nil
}

func TestBuildProducesDecodableGIF(t *testing.T) {
	chunks, table := buildTestContainer(t)

	data, err := Build(chunks, table, testDecode)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(g.Image) == 0 {
		t.Fatalf("expected at least one frame in the preview GIF")
	}
	for _, frame := range g.Image {
		if frame.Bounds().Dx() != dng.ThumbnailWidth || frame.Bounds().Dy() != dng.ThumbnailHeight {
			t.Fatalf("unexpected frame bounds: %v", frame.Bounds())
		}
	}
}

func TestBuildNoVideoFramesReturnsError(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "empty")
	mlvi := container.MLVIHeader{GUID: uuid.New(), FrameRateNum: 24000, FrameRateDenom: 1001}

	var buf bytes.Buffer
	writeBlock(t, &buf, "MLVI", 0, mlvi.Encode())
	if err := os.WriteFile(base+".MLV", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := container.Open(base + ".MLV")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer chunks.Close()

	table, err := index.Build(chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := Build(chunks, table, testDecode); err == nil {
		t.Fatalf("expected an error building a preview for a container with no video frames")
	}
}
