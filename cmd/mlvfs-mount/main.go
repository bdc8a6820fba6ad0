package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alxayo/mlvfs-core/internal/fuseshim"
	"github.com/alxayo/mlvfs-core/internal/logger"
	"github.com/alxayo/mlvfs-core/internal/mlv/config"
	"github.com/alxayo/mlvfs-core/internal/mlv/vfs"
	"github.com/alxayo/mlvfs-core/internal/webgui"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		// The flag package prints parse errors and usage itself; validation
		// errors from parseFlags are reported by the exit status only.
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	initial := config.Default()
	initial.MLVPath = cfg.mlvPath
	if cfg.configPath != "" {
		loaded, err := config.Load(cfg.configPath)
		if err != nil {
			log.Error("failed to load config", "path", cfg.configPath, "error", err)
			os.Exit(1)
		}
		initial = loaded
		if initial.MLVPath == "" {
			initial.MLVPath = cfg.mlvPath
		}
	}
	store := config.NewStore(initial)

	if cfg.configPath != "" {
		stopWatch, err := config.WatchFile(cfg.configPath, store)
		if err != nil {
			log.Error("failed to watch config file", "path", cfg.configPath, "error", err)
			os.Exit(1)
		}
		defer stopWatch()
	}

	core := vfs.New(cfg.mlvPath, store)
	defer core.Close()

	var webguiServer *http.Server
	if cfg.webguiAddr != "" {
		webguiServer = &http.Server{
			Addr:    cfg.webguiAddr,
			Handler: webgui.New(store),
		}
		go func() {
			log.Info("webgui listening", "addr", cfg.webguiAddr)
			if err := webguiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("webgui server error", "error", err)
			}
		}()
	}

	server, err := fuseshim.Mount(cfg.mountpoint, core, cfg.fuseDebug, cfg.allowOther)
	if err != nil {
		log.Error("failed to mount filesystem", "mountpoint", cfg.mountpoint, "error", err)
		os.Exit(1)
	}
	log.Info("mounted", "mountpoint", cfg.mountpoint, "mlv_path", cfg.mlvPath, "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		server.Wait()
		stop()
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if err := server.Unmount(); err != nil {
			log.Error("unmount error", "error", err)
		}
		if webguiServer != nil {
			_ = webguiServer.Close()
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info("unmounted cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}
