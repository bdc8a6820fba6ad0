package frameheader

import (
	"bytes"
	"encoding/binary"
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

func TestResolveCollectsMostRecentMetadata(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "clip")

	guid := uuid.New()
	mlvi := container.MLVIHeader{GUID: guid, FrameRateNum: 24000, FrameRateDenom: 1001}

	var buf bytes.Buffer
	writeBlock(t, &buf, "MLVI", 0, mlvi.Encode())

	rawiEarly := make([]byte, rawiPayloadLen())
	binary.LittleEndian.PutUint16(rawiEarly[0:2], 1920)
	writeBlock(t, &buf, "RAWI", 5, rawiEarly)

	vidf0 := make([]byte, 8+16) // prelude fields + a tiny packed payload
	binary.LittleEndian.PutUint32(vidf0[0:4], 0)
	writeBlock(t, &buf, "VIDF", 10, vidf0)

	rawiLater := make([]byte, rawiPayloadLen())
	binary.LittleEndian.PutUint16(rawiLater[0:2], 4000) // should NOT apply to frame 0
	writeBlock(t, &buf, "RAWI", 20, rawiLater)

	vidf1 := make([]byte, 8+16)
	binary.LittleEndian.PutUint32(vidf1[0:4], 1)
	writeBlock(t, &buf, "VIDF", 30, vidf1)

	if err := os.WriteFile(base+".MLV", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := container.Open(base + ".MLV")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer chunks.Close()

	tbl, err := index.Build(chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	b, err := Resolve(tbl, chunks, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if b.RAWI.XRes != 1920 {
		t.Fatalf("expected frame 0 to see RAWI.XRes=1920 (timestamp 5), got %d", b.RAWI.XRes)
	}
	if b.MLVI.GUID != guid {
		t.Fatalf("expected MLVI GUID to be resolved")
	}

	b1, err := Resolve(tbl, chunks, 1)
	if err != nil {
		t.Fatalf("Resolve frame 1: %v", err)
	}
	if b1.RAWI.XRes != 4000 {
		t.Fatalf("expected frame 1 to see the later RAWI (timestamp 20), got %d", b1.RAWI.XRes)
	}
}

// rawiPayloadLen mirrors the package-private rawiStructSize so the test can
// build a correctly sized synthetic RAWI payload without exporting it.
func rawiPayloadLen() int {
	return 2 + 2 + 1 + 2 + 2 + 1 + 9*8 + 8 + 8 + 8 + 4 + 4
}
