package slogutil

import (
	"io"
	"log/slog"

	"mdiff/internal/config"
)

// LoggerFactory builds the process logger. Precedence for the level:
// CLI flags > config > info.
type LoggerFactory struct {
	cfg      config.LoggingConfig
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a factory. cliLevel is nil when no CLI override
// was given.
func NewLoggerFactory(cfg config.LoggingConfig, cliLevel *slog.Level) *LoggerFactory {
	return &LoggerFactory{cfg: cfg, cliLevel: cliLevel}
}

// Logger returns a logger writing to w and, when logging.file is set, to
// that file as well (rotated per logging.maxSize/maxBackups). A file that
// cannot be opened is reported but the console logger is still returned.
func (f *LoggerFactory) Logger(w io.Writer) (*slog.Logger, error) {
	level := f.EffectiveLevel()
	console := NewHandler(w, f.cfg.Format, level)
	if f.cfg.File == "" {
		return slog.New(console), nil
	}

	rf, err := OpenRotatingFile(f.cfg.File, ParseSize(f.cfg.MaxSize), f.cfg.MaxBackups)
	if err != nil {
		return slog.New(console), err
	}
	f.closers = append(f.closers, rf)

	// the file always records at the configured level, even under -q
	fileLevel := LevelFromString(f.cfg.Level)
	file := NewHandler(rf, f.cfg.Format, fileLevel)
	return slog.New(NewTeeHandler(console, file)), nil
}

// EffectiveLevel returns the console level.
func (f *LoggerFactory) EffectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.cfg.Level != "" {
		return LevelFromString(f.cfg.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
