package dng

import (
	"bytes"
	"encoding/binary"
)

// opcodeFixBadPixelsConstant is the DNG OpcodeList2 entry ID for
// "FixBadPixelsConstant".
const opcodeFixBadPixelsConstant uint32 = 4

// BuildFixBadPixelsConstantOpcodeList encodes a DNG opcode list holding a
// single FixBadPixelsConstant opcode replacing pixels at constantValue.
// DNG opcode data is big-endian even though it's embedded in an otherwise
// little-endian TIFF container (spec §4.4, §9 "Endian discipline") — every
// field below is written with an explicit binary.BigEndian call rather
// than relying on a native struct layout.
func BuildFixBadPixelsConstantOpcodeList(constantValue uint32, bayerPhase uint32) []byte {
	var opBuf bytes.Buffer
	binary.Write(&opBuf, binary.BigEndian, opcodeFixBadPixelsConstant) // opcode ID
	binary.Write(&opBuf, binary.BigEndian, uint32(1<<24))              // DNG version 1.0.0.0 this opcode requires
	binary.Write(&opBuf, binary.BigEndian, uint32(0x1))                // flags: OptionalForPreview

	var paramBuf bytes.Buffer
	binary.Write(&paramBuf, binary.BigEndian, bayerPhase)
	binary.Write(&paramBuf, binary.BigEndian, constantValue)

	binary.Write(&opBuf, binary.BigEndian, uint32(paramBuf.Len()))
	opBuf.Write(paramBuf.Bytes())

	var list bytes.Buffer
	binary.Write(&list, binary.BigEndian, uint32(1)) // opcode count
	list.Write(opBuf.Bytes())
	return list.Bytes()
}

// CFAPatternFor encodes the 4-byte CFAPattern tag value for one of the
// four Bayer phases the container may declare (spec §4.4: "CFA pattern
// (encoded per the container's CFA code as one of four bayer phases)").
// Byte values follow the TIFF convention 0=red, 1=green, 2=blue.
func CFAPatternFor(phase uint8) []byte {
	switch phase {
	case 1: // GRBG
		return []byte{1, 0, 2, 1}
	case 2: // GBRG
		return []byte{1, 2, 0, 1}
	case 3: // BGGR
		return []byte{2, 1, 1, 0}
	default: // RGGB
		return []byte{0, 1, 1, 2}
	}
}
