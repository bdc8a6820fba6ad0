package container

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
)

func TestReadPreludeRejectsOutOfRangeSize(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("VIDF")
	binary.Write(&buf, binary.LittleEndian, uint32(4)) // below MinBlockSize
	binary.Write(&buf, binary.LittleEndian, uint64(0))

	if _, err := ReadPrelude(&buf); err == nil {
		t.Fatalf("expected error for undersized block")
	}
}

func TestReadPreludeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RAWI")
	binary.Write(&buf, binary.LittleEndian, uint32(128))
	binary.Write(&buf, binary.LittleEndian, uint64(123456789))

	p, err := ReadPrelude(&buf)
	if err != nil {
		t.Fatalf("ReadPrelude: %v", err)
	}
	if p.Type != TypeRAWI || p.Size != 128 || p.Timestamp != 123456789 {
		t.Fatalf("unexpected prelude: %+v", p)
	}
	if p.PayloadSize() != 112 {
		t.Fatalf("expected payload size 112, got %d", p.PayloadSize())
	}
}

func TestMLVIEncodeDecodeRoundTrip(t *testing.T) {
	want := MLVIHeader{
		GUID:            uuid.New(),
		FrameRateNum:    24000,
		FrameRateDenom:  1001,
		AudioClass:      1,
		FileNum:         0,
		VideoFrameCount: 300,
		AudioFrameCount: 0,
	}
	got, err := DecodeMLVI(want.Encode())
	if err != nil {
		t.Fatalf("DecodeMLVI: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestDecodeVIDF(t *testing.T) {
	payload := make([]byte, 16)
	binary.LittleEndian.PutUint32(payload[0:4], 42)
	binary.LittleEndian.PutUint32(payload[4:8], 8)

	v, err := DecodeVIDF(payload)
	if err != nil {
		t.Fatalf("DecodeVIDF: %v", err)
	}
	if v.FrameNumber != 42 || v.FrameSpace != 8 {
		t.Fatalf("unexpected VIDF: %+v", v)
	}
}

func TestDecodeVIDFTooShort(t *testing.T) {
	if _, err := DecodeVIDF([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for short VIDF payload")
	}
}

func TestDecodeRAWI(t *testing.T) {
	payload := make([]byte, rawiStructSize)
	binary.LittleEndian.PutUint16(payload[0:2], 1920)
	binary.LittleEndian.PutUint16(payload[2:4], 1080)
	ri := payload[4:]
	ri[0] = 14 // bpp
	binary.LittleEndian.PutUint16(ri[1:3], 2048)  // black
	binary.LittleEndian.PutUint16(ri[3:5], 15000) // white
	ri[5] = 0                                     // CFA phase

	info, err := DecodeRAWI(payload)
	if err != nil {
		t.Fatalf("DecodeRAWI: %v", err)
	}
	if info.XRes != 1920 || info.YRes != 1080 {
		t.Fatalf("unexpected resolution: %+v", info)
	}
	if info.RawInfo.BitsPerPixel != 14 || info.RawInfo.BlackLevel != 2048 || info.RawInfo.WhiteLevel != 15000 {
		t.Fatalf("unexpected raw info: %+v", info.RawInfo)
	}
}

func TestDecodeIDNTTrimsNulTerminator(t *testing.T) {
	payload := make([]byte, idntStructSize)
	copy(payload, "EOSM50\x00\x00\x00")
	copy(payload[idntModelLen:], "SN001\x00")

	info, err := DecodeIDNT(payload)
	if err != nil {
		t.Fatalf("DecodeIDNT: %v", err)
	}
	if info.CameraModel != "EOSM50" || info.CameraSerial != "SN001" {
		t.Fatalf("unexpected IDNT: %+v", info)
	}
}
