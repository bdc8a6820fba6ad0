package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/alxayo/mlvfs-core/internal/logger"
)

// WatchFile watches path for writes and reloads+republishes cfg's
// contents into store on each change, mirroring internal/mlv/index's
// fsnotify-based invalidation discipline (one watcher, published state,
// no polling). Returns a stop function that closes the underlying
// watcher.
func WatchFile(path string, store *Store) (stop func() error, err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Logger().Warn("config reload failed", "path", path, "err", err)
					continue
				}
				store.Set(cfg)
				logger.Logger().Info("config reloaded", "path", path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Logger().Warn("config watcher error", "err", err)
			}
		}
	}()

	return w.Close, nil
}
