// Package unpack converts packed N-bits-per-pixel sensor rows (as the
// container stores them, LSB-first) to and from a 16-bit-per-sample
// buffer, as the still-image emitter's strip and the correction pipeline
// expect.
package unpack

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/icza/bitio"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
)

// SupportedBPP reports whether bpp is one of the container's packed
// sample widths.
func SupportedBPP(bpp int) bool {
	switch bpp {
	case 10, 12, 14, 16:
		return true
	default:
		return false
	}
}

// Unpack8 reads one packed block of 8*bpp/8 bytes from packed and writes 8
// samples to dst[0:8]. 16-bit input is byte-swapped first since the
// container stores it little-endian but bitio.Reader consumes bytes
// MSB-first internally; every other width is read LSB-first directly off
// the packed bytes (spec §4.5).
func Unpack8(packed []byte, bpp int, dst []uint16) error {
	if !SupportedBPP(bpp) {
		return coreerrors.NewUnsupportedParamsError("unpack.unpack8", fmt.Errorf("unsupported bpp %d", bpp))
	}
	blockLen := bpp // 8*bpp/8 == bpp
	if len(packed) < blockLen {
		return coreerrors.NewIOError("unpack.unpack8", fmt.Errorf("need %d packed bytes, got %d", blockLen, len(packed)))
	}
	if len(dst) < 8 {
		return coreerrors.NewUnsupportedParamsError("unpack.unpack8", fmt.Errorf("dst must hold 8 samples"))
	}

	if bpp == 16 {
		for i := 0; i < 8; i++ {
			dst[i] = binary.LittleEndian.Uint16(packed[i*2 : i*2+2])
		}
		return nil
	}

	r := bitio.NewReader(bytes.NewReader(packed[:blockLen]))
	for i := 0; i < 8; i++ {
		v, err := r.ReadBits(uint8(bpp))
		if err != nil {
			return coreerrors.NewIOError("unpack.unpack8", err)
		}
		dst[i] = uint16(v)
	}
	return nil
}

// Repack8 is the inverse of Unpack8: it packs 8 samples of width bpp back
// into their LSB-first on-disk representation, used by round-trip tests.
func Repack8(src []uint16, bpp int) ([]byte, error) {
	if !SupportedBPP(bpp) {
		return nil, coreerrors.NewUnsupportedParamsError("unpack.repack8", fmt.Errorf("unsupported bpp %d", bpp))
	}
	if len(src) < 8 {
		return nil, coreerrors.NewUnsupportedParamsError("unpack.repack8", fmt.Errorf("src must hold 8 samples"))
	}

	if bpp == 16 {
		out := make([]byte, 16)
		for i := 0; i < 8; i++ {
			binary.LittleEndian.PutUint16(out[i*2:i*2+2], src[i])
		}
		return out, nil
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for i := 0; i < 8; i++ {
		if err := w.WriteBits(uint64(src[i]), uint8(bpp)); err != nil {
			return nil, coreerrors.NewIOError("unpack.repack8", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, coreerrors.NewIOError("unpack.repack8", err)
	}
	return buf.Bytes(), nil
}

// UnpackRow unpacks a full packed row of width samples at bpp, processing
// 8-sample groups; width must be a multiple of 8.
func UnpackRow(packed []byte, bpp int, width int) ([]uint16, error) {
	if width%8 != 0 {
		return nil, coreerrors.NewUnsupportedParamsError("unpack.unpack_row", fmt.Errorf("width %d not a multiple of 8", width))
	}
	groupBytes := bpp
	needed := (width / 8) * groupBytes
	if len(packed) < needed {
		return nil, coreerrors.NewIOError("unpack.unpack_row", fmt.Errorf("need %d packed bytes, got %d", needed, len(packed)))
	}
	out := make([]uint16, width)
	for g := 0; g < width/8; g++ {
		if err := Unpack8(packed[g*groupBytes:(g+1)*groupBytes], bpp, out[g*8:g*8+8]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
