package packs

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/agentguard/dcg/internal/errcodes"
)

// WatchExternalDir watches dir for create/write/remove events and
// reloads its pack set into a fresh registry on every change, handing the
// result to onReload. The registry itself stays immutable after
// Finalize — hot-reload works by swapping the pointer onReload's caller
// holds, not by mutating a live *PackRegistry, consistent with the
// immutable-after-init design the rest of this package follows.
//
// Grounded on the teacher's direct fsnotify dependency for config/file
// hot-reload; this is the one place in the pack-loading path that needs
// it, since built-in packs never change at runtime.
func WatchExternalDir(dir string, builtins []BuiltinLoader, onReload func(*PackRegistry)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				log.Info().Str("path", event.Name).Msg("external pack directory changed, reloading")
				reg := NewBuiltinRegistry(builtins...)
				if err := LoadExternalDir(reg, dir); err != nil {
					diag := errcodes.Wrap(errcodes.ExternalPackLoadFailure, "external pack reload failed, keeping previous registry", err)
					log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("external pack reload failed, keeping previous registry")
					continue
				}
				onReload(reg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				diag := errcodes.Wrap(errcodes.ExternalPackLoadFailure, "pack directory watch error", err)
				log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("pack directory watch error")
			}
		}
	}()

	return watcher, nil
}
