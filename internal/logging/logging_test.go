package logging

import (
	"path/filepath"
	"testing"
)

func TestNewRejectsNoSinksEnabled(t *testing.T) {
	_, err := New(Config{Level: LevelInfo})
	if err == nil {
		t.Fatalf("expected an error when neither console nor file is enabled")
	}
}

func TestNewRejectsFileSinkWithoutPath(t *testing.T) {
	cfg := Config{Level: LevelInfo, File: SinkConfig{Enabled: true}}
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected an error for a file sink with no path")
	}
}

func TestDefaultConfigBuildsSuccessfully(t *testing.T) {
	l, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hello")
}

func TestFileSinkWritesToConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Level: LevelInfo,
		File:  SinkConfig{Enabled: true, Path: filepath.Join(dir, "browser.log"), Format: FormatText},
	}
	l, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("test message")
	_ = l.Sync()
}

func TestEnsureInfoLevelForShutdownRaisesQuieterSinks(t *testing.T) {
	cfg := Config{Level: LevelError, Console: SinkConfig{Enabled: true}}
	l, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if l.consoleLevel.Level().String() != "error" {
		t.Fatalf("expected console level to start at error, got %v", l.consoleLevel.Level())
	}
	l.EnsureInfoLevelForShutdown()
	if l.consoleLevel.Level().String() != "info" {
		t.Fatalf("expected console level to be raised to info, got %v", l.consoleLevel.Level())
	}
	l.SwitchToConfiguredLevel()
	if l.consoleLevel.Level().String() != "error" {
		t.Fatalf("expected SwitchToConfiguredLevel to restore error, got %v", l.consoleLevel.Level())
	}
}
