// Package logging builds the structured loggers every internal/*
// package accepts as an optional *zap.Logger. It wraps zap with
// runtime level switching and console+file sinks, the file sink
// rotated through lumberjack — grounded verbatim on EdgeComet's
// internal/common/logger.DynamicLogger, since the teacher (plain
// log.Printf throughout pkg/resource and cmd/l14) has no structured
// logger of its own to adapt.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level names accepted in Config.Level / Config.Console.Level /
// Config.File.Level.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Format names accepted in Config.Console.Format / Config.File.Format.
const (
	FormatConsole = "console" // colorized, for terminals
	FormatText    = "text"    // plain, for files
	FormatJSON    = "json"
)

// RotationConfig mirrors lumberjack's rotation knobs.
type RotationConfig struct {
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// SinkConfig configures one output (console or file).
type SinkConfig struct {
	Enabled  bool
	Level    string // falls back to Config.Level when empty
	Format   string
	Path     string // File sink only
	Rotation RotationConfig
}

// Config is the full logging configuration, normally loaded as a
// section of internal/config's browser preferences file.
type Config struct {
	Level   string
	Console SinkConfig
	File    SinkConfig
}

// DefaultConfig logs to the console at info level, matching
// EdgeComet's NewDefaultLogger startup convention.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Console: SinkConfig{Enabled: true, Format: FormatConsole},
		File:    SinkConfig{Enabled: false, Format: FormatText},
	}
}

// Logger wraps *zap.Logger with the ability to switch each sink's
// level at runtime without rebuilding the logger.
type Logger struct {
	*zap.Logger
	consoleLevel *zap.AtomicLevel
	fileLevel    *zap.AtomicLevel
	configured   Config
}

// New builds a Logger from cfg. At least one sink must be enabled.
func New(cfg Config) (*Logger, error) {
	globalLevel := parseLevel(cfg.Level)

	var cores []zapcore.Core
	var consoleLevel, fileLevel *zap.AtomicLevel

	if cfg.Console.Enabled {
		level := zap.NewAtomicLevelAt(resolveLevel(cfg.Console.Level, globalLevel))
		consoleLevel = &level
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Console.Format), zapcore.Lock(os.Stdout), consoleLevel))
	}

	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("logging: file.path must be set when file logging is enabled")
		}
		level := zap.NewAtomicLevelAt(resolveLevel(cfg.File.Level, globalLevel))
		fileLevel = &level
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.Rotation.MaxSizeMB,
			MaxAge:     cfg.File.Rotation.MaxAgeDays,
			MaxBackups: cfg.File.Rotation.MaxBackups,
			Compress:   cfg.File.Rotation.Compress,
		})
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.File.Format), writer, fileLevel))
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("logging: at least one of console or file must be enabled")
	}

	var core zapcore.Core
	if len(cores) == 1 {
		core = cores[0]
	} else {
		core = zapcore.NewTee(cores...)
	}

	return &Logger{
		Logger:       zap.New(core),
		consoleLevel: consoleLevel,
		fileLevel:    fileLevel,
		configured:   cfg,
	}, nil
}

// SwitchToConfiguredLevel restores every sink to the level cfg
// originally specified, undoing any temporary override (e.g. the
// raised-to-info level EnsureInfoLevelForShutdown applies).
func (l *Logger) SwitchToConfiguredLevel() {
	global := parseLevel(l.configured.Level)
	if l.consoleLevel != nil {
		l.consoleLevel.SetLevel(resolveLevel(l.configured.Console.Level, global))
	}
	if l.fileLevel != nil {
		l.fileLevel.SetLevel(resolveLevel(l.configured.File.Level, global))
	}
}

// EnsureInfoLevelForShutdown temporarily raises any sink quieter than
// info up to info, so shutdown sequence logs are never silently
// dropped by a WARN/ERROR-only configuration.
func (l *Logger) EnsureInfoLevelForShutdown() {
	if l.consoleLevel != nil && l.consoleLevel.Level() > zap.InfoLevel {
		l.consoleLevel.SetLevel(zap.InfoLevel)
	}
	if l.fileLevel != nil && l.fileLevel.Level() > zap.InfoLevel {
		l.fileLevel.SetLevel(zap.InfoLevel)
	}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func resolveLevel(level string, global zapcore.Level) zapcore.Level {
	if level == "" {
		return global
	}
	return parseLevel(level)
}

func newEncoder(format string) zapcore.Encoder {
	if format == FormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	if format == FormatText {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}
