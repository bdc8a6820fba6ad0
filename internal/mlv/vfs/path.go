package vfs

import (
	"strconv"
	"strings"
)

// frameDigits is the fixed zero-padded width of a synthetic frame file's
// numeric stem (spec §6: "00000000.DNG ... NNNNNNNN.DNG").
const frameDigits = 8

type parsedPath struct {
	root      bool
	container string // e.g. "clip.MLV"
	leaf      string // "" for the container directory itself
}

// parsePath splits a synthetic path into its container and leaf
// components. The root "/" and a bare container directory both have an
// empty leaf.
func parsePath(path string) (parsedPath, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return parsedPath{root: true}, true
	}

	parts := strings.SplitN(trimmed, "/", 2)
	container := parts[0]
	if !strings.HasSuffix(strings.ToUpper(container), ".MLV") {
		return parsedPath{}, false
	}
	if len(parts) == 1 {
		return parsedPath{container: container}, true
	}
	return parsedPath{container: container, leaf: parts[1]}, true
}

// frameNumber parses a leaf of the form "NNNNNNNN.DNG" into its video-frame
// ordinal.
func frameNumber(leaf string) (int, bool) {
	if len(leaf) != frameDigits+4 || !strings.EqualFold(leaf[frameDigits:], ".DNG") {
		return 0, false
	}
	n, err := strconv.Atoi(leaf[:frameDigits])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// frameLeaf formats a video-frame ordinal back into its synthetic file
// name.
func frameLeaf(n int) string {
	s := strconv.Itoa(n)
	for len(s) < frameDigits {
		s = "0" + s
	}
	return s + ".DNG"
}

func isAudioLeaf(leaf string) bool   { return strings.EqualFold(leaf, "audio.WAV") }
func isPreviewLeaf(leaf string) bool { return strings.EqualFold(leaf, "preview.GIF") }
