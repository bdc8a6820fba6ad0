package audio

import (
	"io"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
)

// segment locates one AUDF block's PCM payload within its chunk.
type segment struct {
	chunkIndex int
	offset     int64
	size       int64
}

// Reader implements io.ReaderAt over a synthetic container.MLV audio.WAV
// file: a fixed RIFF header followed by every AUDF payload concatenated
// in timestamp order, read lazily from the underlying chunks (spec
// §4.7: "reads are served by seeking to the requested offset ... and
// streaming through the index").
type Reader struct {
	chunks   *container.ChunkSet
	header   []byte
	segments []segment
	total    int64
}

// NewReader builds a Reader for the container's audio track. wavi
// supplies channel/rate/bit-depth; frameCount/fpsNum/fpsDenom (from the
// MLVI header) determine the declared size per spec §8.
func NewReader(chunks *container.ChunkSet, table *index.Table, wavi container.WAVIInfo, frameCount, fpsNum, fpsDenom uint32) (*Reader, error) {
	segments, payloadSize, err := scanSegments(chunks, table)
	if err != nil {
		return nil, err
	}

	declared := DeclaredSize(wavi.BytesPerSecond, frameCount, fpsNum, fpsDenom)
	dataSize := uint32(payloadSize)
	if declared-HeaderSize > int64(dataSize) {
		dataSize = uint32(declared - HeaderSize)
	}
	header := BuildHeader(wavi.Channels, wavi.SampleRate, wavi.BytesPerSecond, wavi.BitsPerSample, dataSize)

	total := int64(len(header)) + payloadSize

	return &Reader{chunks: chunks, header: header, segments: segments, total: total}, nil
}

// Size returns the total byte length of the synthetic audio file.
func (r *Reader) Size() int64 { return r.total }

// ReadAt implements io.ReaderAt, dispatching between the fixed header
// and the AUDF payload segments.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= r.total {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		pos := off + int64(n)
		if pos >= r.total {
			break
		}
		if pos < int64(len(r.header)) {
			avail := int64(len(r.header)) - pos
			chunk := int64(len(p) - n)
			if chunk > avail {
				chunk = avail
			}
			copy(p[n:int64(n)+chunk], r.header[pos:pos+chunk])
			n += int(chunk)
			continue
		}

		dataPos := pos - int64(len(r.header))
		seg, segOff, ok := r.segmentAt(dataPos)
		if !ok {
			break
		}
		want := len(p) - n
		avail := int(seg.size - segOff)
		if want > avail {
			want = avail
		}
		m, err := r.chunks.ReadAt(seg.chunkIndex, p[n:n+want], seg.offset+segOff)
		n += m
		if err != nil && err != io.EOF {
			return n, coreerrors.NewIOError("audio.read_at", err)
		}
		if m == 0 {
			break
		}
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// segmentAt locates the segment (and the offset within it) covering
// dataPos, a byte offset into the concatenated PCM payload.
func (r *Reader) segmentAt(dataPos int64) (segment, int64, bool) {
	var acc int64
	for _, seg := range r.segments {
		if dataPos < acc+seg.size {
			return seg, dataPos - acc, true
		}
		acc += seg.size
	}
	return segment{}, 0, false
}

// scanSegments walks the index in order, collecting every AUDF block's
// PCM payload range (block payload after its 4-byte frame_space prelude
// field and frame_space padding bytes).
func scanSegments(chunks *container.ChunkSet, table *index.Table) ([]segment, int64, error) {
	var segments []segment
	var total int64

	for _, e := range table.Entries {
		if e.Kind != index.KindAUDF {
			continue
		}
		var raw [container.PreludeSize]byte
		if _, err := chunks.ReadAt(int(e.ChunkIndex), raw[:], int64(e.Offset)); err != nil {
			return nil, 0, coreerrors.NewIOError("audio.scan_segments", err)
		}
		size := leUint32(raw[4:8])
		payload := make([]byte, min(int(size), 4))
		if _, err := chunks.ReadAt(int(e.ChunkIndex), payload, int64(e.Offset)+container.PreludeSize); err != nil && err != io.EOF {
			return nil, 0, coreerrors.NewIOError("audio.scan_segments", err)
		}
		frameSpace := uint32(0)
		if len(payload) == 4 {
			frameSpace = leUint32(payload)
		}

		pcmStart := int64(e.Offset) + container.PreludeSize + 4 + int64(frameSpace)
		pcmEnd := int64(e.Offset) + int64(size)
		if pcmEnd < pcmStart {
			pcmEnd = pcmStart
		}
		seg := segment{chunkIndex: int(e.ChunkIndex), offset: pcmStart, size: pcmEnd - pcmStart}
		segments = append(segments, seg)
		total += seg.size
	}

	return segments, total, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
