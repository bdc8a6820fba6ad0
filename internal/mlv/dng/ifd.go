package dng

import (
	"encoding/binary"
	"sort"
)

// Entry is one TIFF directory entry: a tag, its value type, the number of
// values, and either the inline bytes (≤4 of them) or the out-of-line
// "extra data" payload referenced by an offset written at encode time.
//
// Tag tables throughout this package are plain []Entry slices sorted
// ascending, mirroring the teacher's plain-struct-slice style rather than
// a generic tag-registry/reflection approach.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value []byte // raw value bytes, Count*typeSize(Type) long
}

// IFD is an ordered, ascending-by-tag list of directory entries.
type IFD struct {
	Entries []Entry
}

// NewIFD sorts entries ascending by tag (spec §4.4: "Tags are emitted in
// ascending order per IFD") and returns the directory.
func NewIFD(entries []Entry) IFD {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })
	return IFD{Entries: sorted}
}

// DirectorySize returns the byte size of this IFD's directory block:
// a 2-byte entry count, 12 bytes per entry, and a 4-byte next-IFD offset.
func (d IFD) DirectorySize() int64 {
	return 2 + int64(len(d.Entries))*12 + 4
}

// ExtraDataSize returns the total bytes of out-of-line value data this IFD
// needs, each entry's contribution padded to an even length.
func (d IFD) ExtraDataSize() int64 {
	var total int64
	for _, e := range d.Entries {
		if len(e.Value) <= 4 {
			continue
		}
		n := int64(len(e.Value))
		if n%2 != 0 {
			n++
		}
		total += n
	}
	return total
}

// Encode writes the directory at dirOffset, placing out-of-line values
// starting at extraOffset, and returns the encoded directory bytes plus
// the encoded extra-data bytes. nextIFDOffset is written verbatim as the
// trailing 4-byte link (0 terminates the chain).
func (d IFD) Encode(extraOffset uint32, nextIFDOffset uint32) (dir []byte, extra []byte) {
	dir = make([]byte, d.DirectorySize())
	binary.LittleEndian.PutUint16(dir[0:2], uint16(len(d.Entries)))

	var extraBuf []byte
	cursor := extraOffset

	for i, e := range d.Entries {
		off := 2 + i*12
		binary.LittleEndian.PutUint16(dir[off:off+2], e.Tag)
		binary.LittleEndian.PutUint16(dir[off+2:off+4], e.Type)
		binary.LittleEndian.PutUint32(dir[off+4:off+8], e.Count)

		if len(e.Value) <= 4 {
			var inline [4]byte
			copy(inline[:], e.Value)
			copy(dir[off+8:off+12], inline[:])
			continue
		}

		binary.LittleEndian.PutUint32(dir[off+8:off+12], cursor)
		extraBuf = append(extraBuf, e.Value...)
		if len(e.Value)%2 != 0 {
			extraBuf = append(extraBuf, 0) // odd-length pad, spec §4.4
		}
		cursor += uint32(len(e.Value))
		if len(e.Value)%2 != 0 {
			cursor++
		}
	}

	binary.LittleEndian.PutUint32(dir[len(dir)-4:], nextIFDOffset)
	return dir, extraBuf
}

// ShortValue encodes a single SHORT value.
func ShortValue(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// LongValue encodes a single LONG value.
func LongValue(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// ShortsValue encodes a slice of SHORT values.
func ShortsValue(vs []uint16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(b[i*2:i*2+2], v)
	}
	return b
}

// LongsValue encodes a slice of LONG values.
func LongsValue(vs []uint32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:i*4+4], v)
	}
	return b
}

// RationalValue encodes one unsigned RATIONAL (num/denom, 8 bytes).
func RationalValue(num, denom uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], num)
	binary.LittleEndian.PutUint32(b[4:8], denom)
	return b
}

// SRationalValue encodes one signed SRATIONAL (num/denom, 8 bytes).
func SRationalValue(num, denom int32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], uint32(num))
	binary.LittleEndian.PutUint32(b[4:8], uint32(denom))
	return b
}

// SRationalsValue encodes a slice of signed SRATIONAL pairs.
func SRationalsValue(pairs [][2]int32) []byte {
	b := make([]byte, 8*len(pairs))
	for i, p := range pairs {
		copy(b[i*8:i*8+8], SRationalValue(p[0], p[1]))
	}
	return b
}

// ASCIIValue encodes a NUL-terminated ASCII string.
func ASCIIValue(s string) []byte {
	return append([]byte(s), 0)
}
