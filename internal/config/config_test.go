package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
memory_budget:
  total_bytes: 1073741824
  per_tab_bytes: 134217728
hibernation:
  idle_threshold_seconds: 600
  allow_audible: false
scheduler:
  default_priority: user-visible
jit:
  hot_threshold: 500
logging:
  level: debug
  console:
    enabled: true
`

const sampleTOML = `
[memory_budget]
total_bytes = 1073741824
per_tab_bytes = 134217728

[hibernation]
idle_threshold_seconds = 600
allow_audible = false

[scheduler]
default_priority = "user-visible"
`

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAMLParsesFieldsAndAppliesDefaults(t *testing.T) {
	path := writeTemp(t, "prefs.yaml", sampleYAML)
	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	prefs := m.Current()
	if prefs.MemoryBudget.TotalBytes != 1073741824 {
		t.Fatalf("unexpected total bytes: %d", prefs.MemoryBudget.TotalBytes)
	}
	if prefs.Hibernation.IdleThresholdSeconds != 600 {
		t.Fatalf("unexpected idle threshold: %d", prefs.Hibernation.IdleThresholdSeconds)
	}
	// JIT and logging were left unset in the fixture above except jit.hot_threshold,
	// which was explicitly set; logging.file was left entirely unset and should
	// default to console-only.
	if prefs.Logging.Console.Enabled != true {
		t.Fatalf("expected console logging enabled from fixture")
	}
	if prefs.JIT.HotThreshold != 500 {
		t.Fatalf("unexpected hot threshold: %d", prefs.JIT.HotThreshold)
	}
}

func TestLoadTOMLParsesFields(t *testing.T) {
	path := writeTemp(t, "prefs.toml", sampleTOML)
	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	prefs := m.Current()
	if prefs.MemoryBudget.PerTabBytes != 134217728 {
		t.Fatalf("unexpected per-tab bytes: %d", prefs.MemoryBudget.PerTabBytes)
	}
	if prefs.DefaultSchedulerPriority() != prefs.Scheduler.toPriority() {
		t.Fatalf("priority accessor mismatch")
	}
}

func TestApplyDefaultsFillsZeroFields(t *testing.T) {
	path := writeTemp(t, "empty.yaml", "{}\n")
	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	prefs := m.Current()
	if prefs.MemoryBudget.TotalBytes == 0 {
		t.Fatalf("expected a non-zero default total budget")
	}
	if prefs.Hibernation.IdleThresholdSeconds == 0 {
		t.Fatalf("expected a non-zero default idle threshold")
	}
	if !prefs.Logging.Console.Enabled {
		t.Fatalf("expected console logging to default on when nothing is enabled")
	}
}

func TestValidateRejectsPerTabExceedingTotal(t *testing.T) {
	prefs := Preferences{
		MemoryBudget: MemoryBudgetSection{TotalBytes: 100, PerTabBytes: 200},
	}
	if err := prefs.Validate(); err == nil {
		t.Fatalf("expected validation error when per_tab_bytes exceeds total_bytes")
	}
}

func TestLoadFailsOnMalformedYAMLLeavesPreviousConfigIntact(t *testing.T) {
	path := writeTemp(t, "prefs.yaml", sampleYAML)
	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := m.Current()

	if err := os.WriteFile(path, []byte("not: valid: yaml: [["), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err == nil {
		t.Fatalf("expected malformed YAML to fail Load")
	}
	after := m.Current()
	if after != before {
		t.Fatalf("expected a failed reload to leave the previous Preferences in place")
	}
}

func TestWatchReloadsOnFileChange(t *testing.T) {
	path := writeTemp(t, "prefs.yaml", sampleYAML)
	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	reloaded := make(chan *Preferences, 1)
	m.OnChange(func(p *Preferences) {
		select {
		case reloaded <- p:
		default:
		}
	})

	if err := m.Watch(); err != nil {
		t.Fatal(err)
	}

	updated := sampleYAML + "\n# touch\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected a reload to be observed after editing the config file")
	}
}
