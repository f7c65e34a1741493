// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Process-wide reload hooks and file-driven reloads.

package control

import (
	"log/slog"
	"sync"
)

var (
	hooksMu     sync.Mutex
	reloadHooks []func()
)

// RegisterReloadHook adds a component reload listener.
func RegisterReloadHook(fn func()) {
	hooksMu.Lock()
	reloadHooks = append(reloadHooks, fn)
	hooksMu.Unlock()
}

func hooks() []func() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	return append([]func(){}, reloadHooks...)
}

// TriggerHotReloadSync invokes all reload hooks synchronously (for test determinism).
func TriggerHotReloadSync() {
	for _, fn := range hooks() {
		fn()
	}
}

// ReloadFromFile re-reads path, applies it to store and runs the reload
// hooks. An invalid file leaves store untouched.
func ReloadFromFile(path string, store *ConfigStore, log *slog.Logger) (Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		if log != nil {
			log.Error("config reload rejected", "path", path, "err", err)
		}
		return cfg, err
	}
	store.Apply(cfg)
	TriggerHotReloadSync()
	if log != nil {
		log.Info("config reloaded", "path", path)
	}
	return cfg, nil
}
