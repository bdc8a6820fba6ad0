package resource

import (
	"fmt"
	"testing"
)

func TestGetOrCreateReusesExistingEntry(t *testing.T) {
	m := NewManager()
	calls := 0
	factory := func() (interface{}, error) {
		calls++
		return "payload", nil
	}

	h1, created1, err := m.GetOrCreate("/a.MLV/00000000.DNG", factory)
	if err != nil || !created1 {
		t.Fatalf("first GetOrCreate: created=%v err=%v", created1, err)
	}
	h2, created2, err := m.GetOrCreate("/a.MLV/00000000.DNG", factory)
	if err != nil || created2 {
		t.Fatalf("second GetOrCreate: created=%v err=%v", created2, err)
	}
	if calls != 1 {
		t.Fatalf("factory called %d times, want 1", calls)
	}
	if h1.Value != h2.Value {
		t.Fatalf("expected both handles to share the cached value")
	}
	h1.Release()
	h2.Release()
}

func TestCountNeverExceedsMaxTotal(t *testing.T) {
	m := NewManager()
	for i := 0; i < 100; i++ {
		path := fmt.Sprintf("/c.MLV/%08d.DNG", i)
		h, _, err := m.GetOrCreate(path, func() (interface{}, error) { return i, nil })
		if err != nil {
			t.Fatalf("GetOrCreate(%d): %v", i, err)
		}
		h.Release()
		if got := m.Count(); got > MaxTotal {
			t.Fatalf("Count() = %d after %d insertions, want <= %d", got, i+1, MaxTotal)
		}
	}
}

func TestInUseEntrySurvivesSoftEviction(t *testing.T) {
	m := NewManager()
	h, _, err := m.GetOrCreate("/keep.MLV/00000000.DNG", func() (interface{}, error) { return "kept", nil })
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	// held open deliberately; don't Release yet

	for i := 0; i < MaxUnused+2; i++ {
		path := fmt.Sprintf("/other.MLV/%08d.DNG", i)
		other, _, err := m.GetOrCreate(path, func() (interface{}, error) { return i, nil })
		if err != nil {
			t.Fatalf("GetOrCreate(%d): %v", i, err)
		}
		other.Release()
	}

	if h.Value != "kept" {
		t.Fatalf("in-use entry was evicted or corrupted: %v", h.Value)
	}
}

func TestAttrCacheRoundTrip(t *testing.T) {
	m := NewManager()
	if _, ok := m.Attrs().Get("/x.MLV/audio.WAV"); ok {
		t.Fatalf("expected empty cache to miss")
	}
	m.Attrs().Set("/x.MLV/audio.WAV", Attr{Size: 1921964})
	attr, ok := m.Attrs().Get("/x.MLV/audio.WAV")
	if !ok || attr.Size != 1921964 {
		t.Fatalf("Get = %+v, %v", attr, ok)
	}
}
