package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// Manager holds the active configuration and notifies watchers when it is
// reloaded.
type Manager struct {
	current   atomic.Pointer[Config]
	path      string
	watchers  []func(*Config)
	watcherMu sync.RWMutex
}

// NewManager starts from DefaultConfig. path may be empty, in which case
// only defaults and the environment apply.
func NewManager(path string) *Manager {
	m := &Manager{path: path}
	m.current.Store(DefaultConfig())
	return m
}

func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Path returns the config file in use, if any.
func (m *Manager) Path() string {
	return m.path
}

// Load reads defaults, then the config file, then the environment. The
// active configuration only changes if the result validates.
func (m *Manager) Load() error {
	v := newViper()

	if m.path != "" {
		v.SetConfigFile(m.path)
		if ext := strings.TrimPrefix(filepath.Ext(m.path), "."); ext == "yml" {
			v.SetConfigType("yaml")
		} else if ext != "" {
			v.SetConfigType(ext)
		}
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config file %s", m.path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return errors.Mark(errors.Wrap(err, "decode config"), ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.current.Store(&cfg)
	m.notifyWatchers(&cfg)
	return nil
}

func (m *Manager) Reload() error {
	return m.Load()
}

// OnChange registers fn to run after every successful Load.
func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the config file whenever it changes until ctx is done.
// Reload failures go to onError and leave the previous config active. The
// directory is watched rather than the file so atomic-rename saves are seen.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration, onError func(error)) error {
	if m.path == "" {
		return errors.WithHint(errors.New("no config file to watch"), "pass --config or create one in the user config dir")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if onError == nil {
		onError = func(error) {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create config watcher")
	}
	defer watcher.Close()

	target := filepath.Clean(m.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(target))
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(errors.Wrap(err, "config watcher"))
		case <-timer.C:
			if err := m.Reload(); err != nil {
				onError(err)
			}
		}
	}
}
