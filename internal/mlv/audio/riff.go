// Package audio emits the synthetic per-container audio track: a
// canonical PCM-RIFF header followed by the concatenation of every AUDF
// block's payload (spec §4.7).
package audio

import (
	"encoding/binary"
)

// HeaderSize is the fixed size of a canonical PCM-RIFF/WAVE header.
const HeaderSize = 44

// BuildHeader encodes the 44-byte canonical PCM-RIFF header for a data
// payload of dataSize bytes, per the channel/rate/bit-depth declared by
// the container's WAVI block.
func BuildHeader(channels uint16, sampleRate, bytesPerSecond uint32, bitsPerSample uint16, dataSize uint32) []byte {
	blockAlign := channels * (bitsPerSample / 8)

	h := make([]byte, HeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], channels)
	binary.LittleEndian.PutUint32(h[24:28], sampleRate)
	binary.LittleEndian.PutUint32(h[28:32], bytesPerSecond)
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
	return h
}

// DeclaredSize is the audio file's total advertised length: the header
// plus the PCM payload implied by the container's declared frame rate
// and bytes-per-second (spec §4.7, §8 "Audio size").
func DeclaredSize(bytesPerSecond uint32, frameCount uint32, fpsNum, fpsDenom uint32) int64 {
	if fpsNum == 0 {
		return HeaderSize
	}
	payload := uint64(bytesPerSecond) * uint64(frameCount) * uint64(fpsDenom) / uint64(fpsNum)
	return HeaderSize + int64(payload)
}
