// Package logger configures the zap logger shared by the importer, the streaming loader and the example tools.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. It is a no-op logger until Init is called.
var Log = zap.NewNop()

// RotationConfig controls the rotating log file written next to console output.
type RotationConfig struct {
	// Path is the log file location. An empty path disables file output.
	Path string
	// MaxSizeMB is the size in megabytes a file reaches before it is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept on disk.
	MaxBackups int
	// MaxAgeDays is the number of days a rotated file is kept.
	MaxAgeDays int
	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotationConfig returns the rotation settings used when only a path is known.
//
// Parameters:
//   - path: the log file location
//
// Returns:
//   - RotationConfig: rotation settings for the given path
func DefaultRotationConfig(path string) RotationConfig {
	return RotationConfig{
		Path:       path,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 14,
		Compress:   true,
	}
}

// Init replaces Log with a console logger at the given level, teeing into a rotating file when logFile is set.
//
// Parameters:
//   - level: one of debug, info, warn, error
//   - logFile: optional path of the rotating log file
//
// Returns:
//   - error: an error if the level is not recognised
func Init(level string, logFile string) error {
	rot := RotationConfig{}
	if logFile != "" {
		rot = DefaultRotationConfig(logFile)
	}
	l, err := New(level, rot, os.Stdout)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// New builds a logger without touching the global Log.
// A nil console writes no console output.
//
// Parameters:
//   - level: one of debug, info, warn, error
//   - rot: rotating file settings, ignored when rot.Path is empty
//   - console: the console sink, usually os.Stdout
//
// Returns:
//   - *zap.Logger: the configured logger
//   - error: an error if the level is not recognised
func New(level string, rot RotationConfig, console zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core
	if console != nil {
		enc := zapcore.NewConsoleEncoder(encoderConfig(zapcore.TimeEncoderOfLayout("15:04:05.000"), zapcore.CapitalColorLevelEncoder))
		cores = append(cores, zapcore.NewCore(enc, console, lvl))
	}
	if rot.Path != "" {
		w := &lumberjack.Logger{
			Filename:   rot.Path,
			MaxSize:    rot.MaxSizeMB,
			MaxBackups: rot.MaxBackups,
			MaxAge:     rot.MaxAgeDays,
			Compress:   rot.Compress,
			LocalTime:  true,
		}
		enc := zapcore.NewConsoleEncoder(encoderConfig(zapcore.ISO8601TimeEncoder, zapcore.CapitalLevelEncoder))
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func encoderConfig(timeEnc zapcore.TimeEncoder, levelEnc zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       timeEnc,
		EncodeLevel:      levelEnc,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// ParseLevel converts a textual level into a zapcore.Level. An empty string is treated as info.
//
// Parameters:
//   - level: the level name, case insensitive
//
// Returns:
//   - zapcore.Level: the parsed level
//   - error: an error if the name is unknown
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Named returns a child of Log tagged with the component name.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Sync flushes buffered entries of the global logger.
func Sync() {
	_ = Log.Sync()
}
