package config

import (
	"path/filepath"
	"testing"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mlvfs.yaml")

	want := Config{
		MLVPath:      "/media/clips",
		BadPixel:     BadPixelAggressive,
		ChromaSmooth: 3,
		FixStripes:   true,
		DualISO:      true,
		FPS:          23.976,
		NameScheme:   NameSchemeFrameNumber,
		Deflicker:    true,
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestStoreGetSetIsLockFree(t *testing.T) {
	s := NewStore(Default())
	if s.Get().ChromaSmooth != 0 {
		t.Fatalf("expected default config")
	}
	s.Set(Config{ChromaSmooth: 5})
	if got := s.Get().ChromaSmooth; got != 5 {
		t.Fatalf("Get().ChromaSmooth = %d, want 5", got)
	}
}
