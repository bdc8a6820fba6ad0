// Package container implements the chunked, type-tagged binary framing
// described by the source video container format: a sequence of chunk files
// holding a concatenation of size-prefixed, timestamped, typed blocks.
package container

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
)

// BlockType identifies the 4-byte tag at the start of every block.
type BlockType string

// Block types understood by the core. Unknown tags are still indexed as
// Other so forward-compatible containers don't abort scanning.
const (
	TypeMLVI BlockType = "MLVI"
	TypeVIDF BlockType = "VIDF"
	TypeAUDF BlockType = "AUDF"
	TypeRAWI BlockType = "RAWI"
	TypeWAVI BlockType = "WAVI"
	TypeRTCI BlockType = "RTCI"
	TypeIDNT BlockType = "IDNT"
	TypeEXPO BlockType = "EXPO"
	TypeLENS BlockType = "LENS"
	TypeWBAL BlockType = "WBAL"
	TypeNULL BlockType = "NULL"
	TypeXREF BlockType = "XREF"
)

// MinBlockSize and MaxBlockSize bound a block's declared size field
// (spec §3 invariant: "size ≥ 16 and size ≤ 1 GiB for every block").
const (
	MinBlockSize = 16
	MaxBlockSize = 1 << 30
)

// PreludeSize is the fixed 16-byte header preceding every block's
// type-specific payload: {type: 4 bytes, size: u32, timestamp: u64}.
const PreludeSize = 16

// Prelude is the fixed header common to every block.
type Prelude struct {
	Type      BlockType
	Size      uint32 // total block size, including the 16-byte prelude
	Timestamp uint64
}

// PayloadSize returns the number of type-specific bytes following the prelude.
func (p Prelude) PayloadSize() int64 { return int64(p.Size) - PreludeSize }

// ReadPrelude reads and validates a single block prelude from r.
func ReadPrelude(r io.Reader) (Prelude, error) {
	var raw [PreludeSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Prelude{}, err // EOF / short read: caller treats as end-of-chunk
	}
	p := Prelude{
		Type:      BlockType(raw[0:4]),
		Size:      binary.LittleEndian.Uint32(raw[4:8]),
		Timestamp: binary.LittleEndian.Uint64(raw[8:16]),
	}
	if p.Size < MinBlockSize || p.Size > MaxBlockSize {
		return Prelude{}, coreerrors.NewCorruptContainerError("container.read_prelude",
			fmt.Errorf("block %q declares size %d outside [%d, %d]", p.Type, p.Size, MinBlockSize, MaxBlockSize))
	}
	return p, nil
}

// MLVIHeader is the container-level header block: GUID, declared frame rate,
// audio class, file number within the chunk set, and declared frame counts.
type MLVIHeader struct {
	GUID            uuid.UUID
	FrameRateNum    uint32
	FrameRateDenom  uint32
	AudioClass      uint16
	FileNum         uint16
	VideoFrameCount uint32
	AudioFrameCount uint32
}

const mlviStructSize = 16 + 4 + 4 + 2 + 2 + 4 + 4

// DecodeMLVI decodes an MLVI payload, clamping the read to
// min(declared_size, mlviStructSize) so future format extensions (larger
// payloads) remain forward-compatible per spec §4.3.
func DecodeMLVI(payload []byte) (MLVIHeader, error) {
	var h MLVIHeader
	n := len(payload)
	if n > mlviStructSize {
		n = mlviStructSize
	}
	buf := make([]byte, mlviStructSize)
	copy(buf, payload[:n])
	var err error
	h.GUID, err = uuid.FromBytes(buf[0:16])
	if err != nil {
		return MLVIHeader{}, coreerrors.NewCorruptContainerError("container.decode_mlvi", err)
	}
	h.FrameRateNum = binary.LittleEndian.Uint32(buf[16:20])
	h.FrameRateDenom = binary.LittleEndian.Uint32(buf[20:24])
	h.AudioClass = binary.LittleEndian.Uint16(buf[24:26])
	h.FileNum = binary.LittleEndian.Uint16(buf[26:28])
	h.VideoFrameCount = binary.LittleEndian.Uint32(buf[28:32])
	h.AudioFrameCount = binary.LittleEndian.Uint32(buf[32:36])
	return h, nil
}

// Encode serializes an MLVIHeader back to its on-disk layout (used when
// writing the sidecar index's prepended MLVI header, spec §6).
func (h MLVIHeader) Encode() []byte {
	buf := make([]byte, mlviStructSize)
	guidBytes, _ := h.GUID.MarshalBinary()
	copy(buf[0:16], guidBytes)
	binary.LittleEndian.PutUint32(buf[16:20], h.FrameRateNum)
	binary.LittleEndian.PutUint32(buf[20:24], h.FrameRateDenom)
	binary.LittleEndian.PutUint16(buf[24:26], h.AudioClass)
	binary.LittleEndian.PutUint16(buf[26:28], h.FileNum)
	binary.LittleEndian.PutUint32(buf[28:32], h.VideoFrameCount)
	binary.LittleEndian.PutUint32(buf[32:36], h.AudioFrameCount)
	return buf
}

// VIDFPrelude is the video-frame payload prelude: frame ordinal and the
// padding ("frame space") byte count preceding the packed sensor payload.
type VIDFPrelude struct {
	FrameNumber uint32
	FrameSpace  uint32
}

const vidfStructSize = 4 + 4

// DecodeVIDF decodes a VIDF prelude from the start of its payload.
func DecodeVIDF(payload []byte) (VIDFPrelude, error) {
	if len(payload) < vidfStructSize {
		return VIDFPrelude{}, coreerrors.NewCorruptContainerError("container.decode_vidf",
			fmt.Errorf("payload too short: %d bytes", len(payload)))
	}
	return VIDFPrelude{
		FrameNumber: binary.LittleEndian.Uint32(payload[0:4]),
		FrameSpace:  binary.LittleEndian.Uint32(payload[4:8]),
	}, nil
}

// AUDFPrelude is the audio-frame payload prelude: padding byte count
// preceding the PCM payload.
type AUDFPrelude struct {
	FrameSpace uint32
}

const audfStructSize = 4

// DecodeAUDF decodes an AUDF prelude from the start of its payload.
func DecodeAUDF(payload []byte) (AUDFPrelude, error) {
	if len(payload) < audfStructSize {
		return AUDFPrelude{}, coreerrors.NewCorruptContainerError("container.decode_audf",
			fmt.Errorf("payload too short: %d bytes", len(payload)))
	}
	return AUDFPrelude{FrameSpace: binary.LittleEndian.Uint32(payload[0:4])}, nil
}

// Rect is an integer rectangle used for active-area and crop geometry.
type Rect struct {
	X, Y, Width, Height uint16
}

// Rational is a DNG-style signed rational (numerator/denominator).
type Rational struct {
	Num, Denom int32
}

// RawInfo is the nested sensor descriptor carried by RAWI.
type RawInfo struct {
	BitsPerPixel uint8
	BlackLevel   uint16
	WhiteLevel   uint16
	CFAPattern   uint8 // bayer phase code, see dng.CFAPatternFor
	ColorMatrix  [9]Rational
	ActiveArea   Rect
	CropArea     Rect
	ExposureBias Rational
	FrameSize    uint32
	Pitch        uint32
}

// RAWIInfo is the raw-image-info block: overall dimensions plus RawInfo.
type RAWIInfo struct {
	XRes    uint16
	YRes    uint16
	RawInfo RawInfo
}

const rationalSize = 8
const rawInfoStructSize = 1 + 2 + 2 + 1 + 9*rationalSize + 4*2 + 4*2 + rationalSize + 4 + 4
const rawiStructSize = 2 + 2 + rawInfoStructSize

func readRational(b []byte) Rational {
	return Rational{
		Num:   int32(binary.LittleEndian.Uint32(b[0:4])),
		Denom: int32(binary.LittleEndian.Uint32(b[4:8])),
	}
}

func putRational(b []byte, r Rational) {
	binary.LittleEndian.PutUint32(b[0:4], uint32(r.Num))
	binary.LittleEndian.PutUint32(b[4:8], uint32(r.Denom))
}

func readRect(b []byte) Rect {
	return Rect{
		X:      binary.LittleEndian.Uint16(b[0:2]),
		Y:      binary.LittleEndian.Uint16(b[2:4]),
		Width:  binary.LittleEndian.Uint16(b[4:6]),
		Height: binary.LittleEndian.Uint16(b[6:8]),
	}
}

// DecodeRAWI decodes a RAWI payload, clamping to min(declared, known struct
// size) per spec §4.3's forward-compatibility rule.
func DecodeRAWI(payload []byte) (RAWIInfo, error) {
	n := len(payload)
	if n > rawiStructSize {
		n = rawiStructSize
	}
	if n < 4+1+2+2+1 { // enough for xres/yres + bpp/black/white/cfa at minimum
		return RAWIInfo{}, coreerrors.NewCorruptContainerError("container.decode_rawi",
			fmt.Errorf("payload too short: %d bytes", len(payload)))
	}
	buf := make([]byte, rawiStructSize)
	copy(buf, payload[:n])

	var info RAWIInfo
	info.XRes = binary.LittleEndian.Uint16(buf[0:2])
	info.YRes = binary.LittleEndian.Uint16(buf[2:4])

	ri := buf[4:]
	info.RawInfo.BitsPerPixel = ri[0]
	info.RawInfo.BlackLevel = binary.LittleEndian.Uint16(ri[1:3])
	info.RawInfo.WhiteLevel = binary.LittleEndian.Uint16(ri[3:5])
	info.RawInfo.CFAPattern = ri[5]
	off := 6
	for i := 0; i < 9; i++ {
		info.RawInfo.ColorMatrix[i] = readRational(ri[off : off+rationalSize])
		off += rationalSize
	}
	info.RawInfo.ActiveArea = readRect(ri[off : off+8])
	off += 8
	info.RawInfo.CropArea = readRect(ri[off : off+8])
	off += 8
	info.RawInfo.ExposureBias = readRational(ri[off : off+rationalSize])
	off += rationalSize
	info.RawInfo.FrameSize = binary.LittleEndian.Uint32(ri[off : off+4])
	off += 4
	info.RawInfo.Pitch = binary.LittleEndian.Uint32(ri[off : off+4])
	return info, nil
}

// WAVIInfo is the audio-stream descriptor block.
type WAVIInfo struct {
	Channels       uint16
	SampleRate     uint32
	BytesPerSecond uint32
	BitsPerSample  uint16
}

const waviStructSize = 2 + 4 + 4 + 2

// DecodeWAVI decodes a WAVI payload.
func DecodeWAVI(payload []byte) (WAVIInfo, error) {
	n := len(payload)
	if n > waviStructSize {
		n = waviStructSize
	}
	buf := make([]byte, waviStructSize)
	copy(buf, payload[:n])
	return WAVIInfo{
		Channels:       binary.LittleEndian.Uint16(buf[0:2]),
		SampleRate:     binary.LittleEndian.Uint32(buf[2:6]),
		BytesPerSecond: binary.LittleEndian.Uint32(buf[6:10]),
		BitsPerSample:  binary.LittleEndian.Uint16(buf[10:12]),
	}, nil
}

// RTCIInfo is the wall-clock-at-recording-start block.
type RTCIInfo struct {
	Year, Month, Day, Hour, Minute, Second uint16
	Millisecond                            uint16
}

const rtciStructSize = 7 * 2

// DecodeRTCI decodes an RTCI payload.
func DecodeRTCI(payload []byte) (RTCIInfo, error) {
	n := len(payload)
	if n > rtciStructSize {
		n = rtciStructSize
	}
	buf := make([]byte, rtciStructSize)
	copy(buf, payload[:n])
	return RTCIInfo{
		Year:        binary.LittleEndian.Uint16(buf[0:2]),
		Month:       binary.LittleEndian.Uint16(buf[2:4]),
		Day:         binary.LittleEndian.Uint16(buf[4:6]),
		Hour:        binary.LittleEndian.Uint16(buf[6:8]),
		Minute:      binary.LittleEndian.Uint16(buf[8:10]),
		Second:      binary.LittleEndian.Uint16(buf[10:12]),
		Millisecond: binary.LittleEndian.Uint16(buf[12:14]),
	}, nil
}

// IDNTInfo is the camera-identity block.
type IDNTInfo struct {
	CameraModel  string
	CameraSerial string
}

const idntModelLen = 32
const idntSerialLen = 32
const idntStructSize = idntModelLen + idntSerialLen

func readCString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// DecodeIDNT decodes an IDNT payload.
func DecodeIDNT(payload []byte) (IDNTInfo, error) {
	n := len(payload)
	if n > idntStructSize {
		n = idntStructSize
	}
	buf := make([]byte, idntStructSize)
	copy(buf, payload[:n])
	return IDNTInfo{
		CameraModel:  readCString(buf[0:idntModelLen]),
		CameraSerial: readCString(buf[idntModelLen : idntModelLen+idntSerialLen]),
	}, nil
}

// EXPOInfo is the exposure-parameters block.
type EXPOInfo struct {
	ShutterNs uint64
	ISO       uint32
}

const expoStructSize = 8 + 4

// DecodeEXPO decodes an EXPO payload.
func DecodeEXPO(payload []byte) (EXPOInfo, error) {
	n := len(payload)
	if n > expoStructSize {
		n = expoStructSize
	}
	buf := make([]byte, expoStructSize)
	copy(buf, payload[:n])
	return EXPOInfo{
		ShutterNs: binary.LittleEndian.Uint64(buf[0:8]),
		ISO:       binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}

// LENSInfo is the lens-parameters block.
type LENSInfo struct {
	FocalLengthMM1000 uint32 // focal length, mm * 1000
	ApertureFNum100   uint32 // f-number * 100
	LensModel         string
}

const lensModelLen = 32
const lensStructSize = 4 + 4 + lensModelLen

// DecodeLENS decodes a LENS payload.
func DecodeLENS(payload []byte) (LENSInfo, error) {
	n := len(payload)
	if n > lensStructSize {
		n = lensStructSize
	}
	buf := make([]byte, lensStructSize)
	copy(buf, payload[:n])
	return LENSInfo{
		FocalLengthMM1000: binary.LittleEndian.Uint32(buf[0:4]),
		ApertureFNum100:   binary.LittleEndian.Uint32(buf[4:8]),
		LensModel:         readCString(buf[8 : 8+lensModelLen]),
	}, nil
}

// WBALInfo is the white-balance-gains block, fixed-point Q16 per channel.
type WBALInfo struct {
	GainR, GainG, GainB uint32
}

const wbalStructSize = 4 + 4 + 4

// DecodeWBAL decodes a WBAL payload.
func DecodeWBAL(payload []byte) (WBALInfo, error) {
	n := len(payload)
	if n > wbalStructSize {
		n = wbalStructSize
	}
	buf := make([]byte, wbalStructSize)
	copy(buf, payload[:n])
	return WBALInfo{
		GainR: binary.LittleEndian.Uint32(buf[0:4]),
		GainG: binary.LittleEndian.Uint32(buf[4:8]),
		GainB: binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}
