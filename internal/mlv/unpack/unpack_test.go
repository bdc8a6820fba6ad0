package unpack

import "testing"

func TestUnpack8Repack8RoundTrip(t *testing.T) {
	for _, bpp := range []int{10, 12, 14, 16} {
		samples := make([]uint16, 8)
		max := uint16(1)<<uint(bpp) - 1
		for i := range samples {
			samples[i] = uint16(i) * (max / 8)
		}

		packed, err := Repack8(samples, bpp)
		if err != nil {
			t.Fatalf("bpp=%d Repack8: %v", bpp, err)
		}

		var got [8]uint16
		if err := Unpack8(packed, bpp, got[:]); err != nil {
			t.Fatalf("bpp=%d Unpack8: %v", bpp, err)
		}
		for i := range samples {
			if got[i] != samples[i] {
				t.Fatalf("bpp=%d sample %d: got %d want %d", bpp, i, got[i], samples[i])
			}
		}

		repacked, err := Repack8(got[:], bpp)
		if err != nil {
			t.Fatalf("bpp=%d second Repack8: %v", bpp, err)
		}
		if len(repacked) != len(packed) {
			t.Fatalf("bpp=%d repacked length mismatch: %d vs %d", bpp, len(repacked), len(packed))
		}
		for i := range packed {
			if repacked[i] != packed[i] {
				t.Fatalf("bpp=%d byte %d mismatch after round trip: %02x vs %02x", bpp, i, repacked[i], packed[i])
			}
		}
	}
}

func TestUnpack8RejectsUnsupportedBPP(t *testing.T) {
	var dst [8]uint16
	if err := Unpack8(make([]byte, 16), 11, dst[:]); err == nil {
		t.Fatalf("expected error for unsupported bpp")
	}
}

func TestUnpackRowRequiresMultipleOf8(t *testing.T) {
	if _, err := UnpackRow(make([]byte, 100), 14, 10); err == nil {
		t.Fatalf("expected error for width not a multiple of 8")
	}
}
