// Package config loads and hot-reloads the browser's layered
// preferences file: memory budget, hibernation thresholds, scheduler
// priorities, and JIT thresholds, grounded on EdgeComet's
// EGConfigManager (YAML load, defaulting pass, validation before the
// config is accepted) adapted from a multi-host edge-cache config to
// a single-process browser preferences file, plus fsnotify-driven
// hot-reload for live edits during development.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"webcore/internal/hibernate"
	"webcore/internal/jsjit"
	"webcore/internal/logging"
	"webcore/internal/scheduler"
)

// MemoryBudgetSection mirrors internal/hibernate.MemoryBudget in the on-disk
// shape (explicit YAML field names instead of the in-memory struct's
// terser ones).
type MemoryBudgetSection struct {
	TotalBytes       uint64 `yaml:"total_bytes" toml:"total_bytes"`
	PerTabBytes      uint64 `yaml:"per_tab_bytes" toml:"per_tab_bytes"`
	DOMBytes         uint64 `yaml:"dom_bytes" toml:"dom_bytes"`
	JSHeapBytes      uint64 `yaml:"js_heap_bytes" toml:"js_heap_bytes"`
	LayoutCacheBytes uint64 `yaml:"layout_cache_bytes" toml:"layout_cache_bytes"`
	GPUBytes         uint64 `yaml:"gpu_bytes" toml:"gpu_bytes"`
}

func (m MemoryBudgetSection) toBudget() hibernate.MemoryBudget {
	return hibernate.MemoryBudget{
		Total:       m.TotalBytes,
		PerTab:      m.PerTabBytes,
		DOM:         m.DOMBytes,
		JSHeap:      m.JSHeapBytes,
		LayoutCache: m.LayoutCacheBytes,
		GPU:         m.GPUBytes,
	}
}

// HibernationSection configures internal/hibernate.Policy.
type HibernationSection struct {
	IdleThresholdSeconds int  `yaml:"idle_threshold_seconds" toml:"idle_threshold_seconds"`
	AllowAudible         bool `yaml:"allow_audible" toml:"allow_audible"`
}

func (h HibernationSection) toPolicy() hibernate.Policy {
	return hibernate.Policy{
		IdleThreshold: time.Duration(h.IdleThresholdSeconds) * time.Second,
		AllowAudible:  h.AllowAudible,
	}
}

// SchedulerSection configures defaults for internal/scheduler, e.g. the
// priority new background tasks without an explicit level are
// enqueued at.
type SchedulerSection struct {
	DefaultPriority string `yaml:"default_priority" toml:"default_priority"`
}

func (s SchedulerSection) toPriority() scheduler.Priority {
	switch s.DefaultPriority {
	case "idle":
		return scheduler.Idle
	case "user-visible":
		return scheduler.UserVisible
	case "user-blocking":
		return scheduler.UserBlocking
	default:
		return scheduler.Background
	}
}

// JITSection configures internal/jsjit.Tracer.
type JITSection struct {
	HotThreshold uint32 `yaml:"hot_threshold" toml:"hot_threshold"`
}

// LoggingSection configures internal/logging.
type LoggingSection struct {
	Level   string             `yaml:"level" toml:"level"`
	Console logging.SinkConfig `yaml:"console" toml:"console"`
	File    logging.SinkConfig `yaml:"file" toml:"file"`
}

func (l LoggingSection) toLoggingConfig() logging.Config {
	return logging.Config{Level: l.Level, Console: l.Console, File: l.File}
}

// Preferences is the full on-disk shape of the browser's YAML
// configuration file.
type Preferences struct {
	MemoryBudget MemoryBudgetSection `yaml:"memory_budget" toml:"memory_budget"`
	Hibernation  HibernationSection  `yaml:"hibernation" toml:"hibernation"`
	Scheduler    SchedulerSection    `yaml:"scheduler" toml:"scheduler"`
	JIT          JITSection          `yaml:"jit" toml:"jit"`
	Logging      LoggingSection      `yaml:"logging" toml:"logging"`
}

// applyDefaults fills in unset fields, matching
// EGConfigManager.applyDefaults's "only set if zero" pattern.
func (p *Preferences) applyDefaults() {
	if p.MemoryBudget.TotalBytes == 0 {
		p.MemoryBudget.TotalBytes = 2 << 30 // 2 GiB
	}
	if p.MemoryBudget.PerTabBytes == 0 {
		p.MemoryBudget.PerTabBytes = 256 << 20
	}
	if p.Hibernation.IdleThresholdSeconds == 0 {
		p.Hibernation.IdleThresholdSeconds = 15 * 60
	}
	if p.Scheduler.DefaultPriority == "" {
		p.Scheduler.DefaultPriority = "background"
	}
	if p.JIT.HotThreshold == 0 {
		p.JIT.HotThreshold = jsjit.DefaultThreshold
	}
	if p.Logging.Level == "" {
		p.Logging.Level = logging.LevelInfo
	}
	if !p.Logging.Console.Enabled && !p.Logging.File.Enabled {
		p.Logging.Console.Enabled = true
	}
}

// Validate rejects a configuration that would leave downstream
// components in an inconsistent state.
func (p Preferences) Validate() error {
	if p.MemoryBudget.PerTabBytes > p.MemoryBudget.TotalBytes {
		return fmt.Errorf("config: memory_budget.per_tab_bytes (%d) exceeds total_bytes (%d)",
			p.MemoryBudget.PerTabBytes, p.MemoryBudget.TotalBytes)
	}
	if p.Hibernation.IdleThresholdSeconds < 0 {
		return fmt.Errorf("config: hibernation.idle_threshold_seconds must be non-negative")
	}
	return nil
}

// MemoryBudgetValue returns the parsed MemoryBudget for internal/hibernate.
func (p Preferences) MemoryBudgetValue() hibernate.MemoryBudget { return p.MemoryBudget.toBudget() }

// HibernationPolicy returns the parsed Policy for internal/hibernate.
func (p Preferences) HibernationPolicy() hibernate.Policy { return p.Hibernation.toPolicy() }

// DefaultSchedulerPriority returns the parsed Priority for internal/scheduler.
func (p Preferences) DefaultSchedulerPriority() scheduler.Priority { return p.Scheduler.toPriority() }

// LoggingConfig returns the parsed Config for internal/logging.
func (p Preferences) LoggingConfig() logging.Config { return p.Logging.toLoggingConfig() }

// Manager owns a loaded Preferences document, reloading it from disk
// whenever the backing file changes (fsnotify-driven hot-reload).
type Manager struct {
	path    string
	log     *zap.Logger
	current atomic.Pointer[Preferences]
	watcher *fsnotify.Watcher
	onChange func(*Preferences)
}

// NewManager loads path once and returns a Manager. Use Watch to
// start hot-reloading.
func NewManager(path string, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{path: path, log: log}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads and parses the configuration file, applying defaults and
// validating before swapping it in. A failed load leaves the
// previously loaded Preferences (if any) in place.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", m.path, err)
	}
	var prefs Preferences
	if err := unmarshal(m.path, data, &prefs); err != nil {
		return fmt.Errorf("config: parse %s: %w", m.path, err)
	}
	prefs.applyDefaults()
	if err := prefs.Validate(); err != nil {
		return err
	}
	m.current.Store(&prefs)
	m.log.Info("config: loaded", zap.String("path", m.path))
	if m.onChange != nil {
		m.onChange(&prefs)
	}
	return nil
}

// Current returns the most recently successfully loaded Preferences.
func (m *Manager) Current() *Preferences {
	return m.current.Load()
}

// OnChange registers a callback invoked after every successful reload
// (including the initial Load performed by NewManager, if registered
// before that call returns — callers typically register it
// immediately after NewManager instead, and call it once manually for
// the initial value).
func (m *Manager) OnChange(fn func(*Preferences)) { m.onChange = fn }

// Watch starts an fsnotify watch on the config file's directory and
// reloads on any write event targeting it. It returns immediately;
// the watch runs in a background goroutine until Close is called.
func (m *Manager) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	if err := w.Add(dirOf(m.path)); err != nil {
		w.Close()
		return fmt.Errorf("config: watch %s: %w", m.path, err)
	}
	m.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != m.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := m.Load(); err != nil {
					m.log.Warn("config: reload failed, keeping previous configuration", zap.Error(err))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				m.log.Warn("config: watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

// Close stops the hot-reload watch, if one was started.
func (m *Manager) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

// unmarshal picks YAML or TOML decoding based on the file extension,
// so the same preferences schema can be authored in either format.
func unmarshal(path string, data []byte, prefs *Preferences) error {
	if strings.HasSuffix(path, ".toml") {
		return toml.Unmarshal(data, prefs)
	}
	return yaml.Unmarshal(data, prefs)
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
