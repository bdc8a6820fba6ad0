// Package config holds the process-wide configuration surface consulted
// by the core at each synthetic filesystem request (spec §6).
package config

import (
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// BadPixelMode is the badpix correction setting.
type BadPixelMode int

const (
	BadPixelOff BadPixelMode = iota
	BadPixelOn
	BadPixelAggressive
)

// NameScheme is the stored frame-file naming setting. The core does not
// read it: synthetic frame files are always named by their sequential
// video-frame ordinal.
type NameScheme int

const (
	NameSchemeSequential NameScheme = iota
	NameSchemeFrameNumber
)

// Config is the recognized option set from spec §6: mlv_path, badpix,
// chroma_smooth, fix_stripes, dual_iso, fps, name_scheme, deflicker.
type Config struct {
	MLVPath      string       `yaml:"mlv_path"`
	BadPixel     BadPixelMode `yaml:"badpix"`
	ChromaSmooth int          `yaml:"chroma_smooth"` // 0, 2, 3, or 5
	FixStripes   bool         `yaml:"fix_stripes"`
	DualISO      bool         `yaml:"dual_iso"`
	FPS          float64      `yaml:"fps"` // stored only; the core always uses the container's declared rate
	NameScheme   NameScheme   `yaml:"name_scheme"`
	Deflicker    bool         `yaml:"deflicker"`
}

// Default returns the zero-value configuration: no path, correction
// passes off, container frame rate honored as-is.
func Default() Config {
	return Config{ChromaSmooth: 0}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Store publishes a Config under a lock-free atomic pointer so reads
// never block on a reload in flight (spec §5: "configuration changes
// take effect for subsequent open calls").
type Store struct {
	ptr atomic.Pointer[Config]
}

// NewStore creates a Store seeded with the given configuration.
func NewStore(initial Config) *Store {
	s := &Store{}
	s.Set(initial)
	return s
}

// Get returns the currently published configuration.
func (s *Store) Get() Config {
	return *s.ptr.Load()
}

// Set publishes a new configuration, visible to subsequent Get calls.
func (s *Store) Set(cfg Config) {
	c := cfg
	s.ptr.Store(&c)
}
