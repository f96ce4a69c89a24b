package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads configuration when the config file changes on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  zerolog.Logger
	done    chan struct{}
}

// Watch starts watching the config directory and invokes onChange with the
// freshly loaded configuration after each write to config.yaml. Used for live
// log-level adjustment; most settings are read once at startup.
func Watch(logger zerolog.Logger, onChange func(*Config)) (*Watcher, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(configDir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		logger:  logger.With().Str("component", "config-watch").Logger(),
		done:    make(chan struct{}),
	}

	go w.run(onChange)

	return w, nil
}

func (w *Watcher) run(onChange func(*Config)) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "config.yaml" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load()
			if err != nil {
				w.logger.Warn().Err(err).Msg("Failed to reload config after change")
				continue
			}
			w.logger.Info().Str("file", event.Name).Msg("Config reloaded")
			onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
