package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// version is injected at build time with -ldflags "-X main.version=...". Defaults to dev.
var version = "dev"

// cliConfig holds user supplied flag values prior to translation into the
// core/mount wiring, so main.go can validate and map in one place.
type cliConfig struct {
	mountpoint  string
	mlvPath     string
	configPath  string
	logLevel    string
	fuseDebug   bool
	allowOther  bool
	webguiAddr  string
	showVersion bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("mlvfs-mount", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}

	fs.StringVar(&cfg.mountpoint, "mountpoint", "", "Directory to mount the synthetic filesystem at (required)")
	fs.StringVar(&cfg.mlvPath, "mlv-path", "", "Directory containing .MLV containers to expose (required)")
	fs.StringVar(&cfg.configPath, "config", "", "Path to a YAML config file (optional; watched for changes if set)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.BoolVar(&cfg.fuseDebug, "fuse-debug", false, "Enable verbose go-fuse debug logging")
	fs.BoolVar(&cfg.allowOther, "allow-other", false, "Allow other users to access the mount (requires user_allow_other in /etc/fuse.conf)")
	fs.StringVar(&cfg.webguiAddr, "webgui-addr", "", "Listen address for the configuration web GUI (empty=disabled)")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.showVersion {
		return cfg, nil
	}

	if cfg.mountpoint == "" {
		return nil, errors.New("mountpoint is required")
	}
	if cfg.mlvPath == "" {
		return nil, errors.New("mlv-path is required")
	}

	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q", cfg.logLevel)
	}

	if fi, err := os.Stat(cfg.mlvPath); err != nil {
		return nil, fmt.Errorf("mlv-path %q: %w", cfg.mlvPath, err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("mlv-path %q is not a directory", cfg.mlvPath)
	}

	if fi, err := os.Stat(cfg.mountpoint); err != nil {
		return nil, fmt.Errorf("mountpoint %q: %w", cfg.mountpoint, err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("mountpoint %q is not a directory", cfg.mountpoint)
	}

	return cfg, nil
}
