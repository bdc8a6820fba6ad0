package dng

import (
	"encoding/binary"
	"io"

	"github.com/alxayo/mlvfs-core/internal/mlv/correct"
)

// StripReader serves byte ranges of the main image strip from an already
// decoded (unpacked and corrected) 16-bit Bayer buffer, so overlapping
// reads of one frame never re-run the bit-unpacker: the resource
// manager's cached *correct.Buffer backs every StripReader for a given
// synthetic path (spec §4.4, §4.8).
type StripReader struct {
	buf *correct.Buffer
}

// NewStripReader wraps a decoded buffer for positioned strip reads.
func NewStripReader(buf *correct.Buffer) *StripReader {
	return &StripReader{buf: buf}
}

// Size returns the strip's total byte length: width*height samples at 2
// bytes each.
func (s *StripReader) Size() int64 {
	return int64(len(s.buf.Pixels)) * 2
}

// ReadAt implements io.ReaderAt by translating the requested byte range
// into 16-bit little-endian samples sliced out of the decoded buffer.
func (s *StripReader) ReadAt(p []byte, off int64) (int, error) {
	total := s.Size()
	if off >= total {
		return 0, io.EOF
	}
	end := off + int64(len(p))
	if end > total {
		end = total
	}

	n := 0
	for pos := off; pos < end; pos++ {
		sampleIdx := pos / 2
		byteInSample := pos % 2
		v := s.buf.Pixels[sampleIdx]
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		p[n] = b[byteInSample]
		n++
	}
	if end < off+int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}
