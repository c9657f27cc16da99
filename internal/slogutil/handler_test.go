package slogutil

import (
	"bytes"
	"context"
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mdiff/internal/config"
)

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Comparison finished", "records", 3, "old", "v1.0")

	output := buf.String()
	for _, want := range []string{"[info]", "Comparison finished", " | ", "records=3", "old=v1.0"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLineHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("messages below warn should be filtered: %s", output)
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("warn and error should be kept: %s", output)
	}
}

func TestLineHandler_WithGroupAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("runId", "r1").WithGroup("entry")

	logger.Info("Skipped", "path", "A.java")

	output := buf.String()
	if !strings.Contains(output, "runId=r1") {
		t.Errorf("expected runId attr, got: %s", output)
	}
	if !strings.Contains(output, "entry.path=A.java") {
		t.Errorf("expected grouped key, got: %s", output)
	}
}

func TestLineHandler_Values(t *testing.T) {
	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{"no fields", func(l *slog.Logger) { l.Info("done") }, "[info] done\n"},
		{"spaces quoted", func(l *slog.Logger) { l.Info("m", "err", "exit status 1") }, `[info] m | err="exit status 1"` + "\n"},
		{"equals quoted", func(l *slog.Logger) { l.Info("m", "expr", "a=b") }, `[info] m | expr="a=b"` + "\n"},
		{"empty quoted", func(l *slog.Logger) { l.Info("m", "name", "") }, `[info] m | name=""` + "\n"},
		{"numbers and bools", func(l *slog.Logger) { l.Warn("m", "n", -3, "u", uint64(7), "ok", true) }, "[warn] m | n=-3 u=7 ok=true\n"},
		{"duration", func(l *slog.Logger) { l.Info("m", "took", 1500*time.Millisecond) }, "[info] m | took=1.5s\n"},
		{"inline group", func(l *slog.Logger) {
			l.Info("m", slog.Group("entry", "path", "A.java", slog.Group("hunk", "start", 3)))
		}, "[info] m | entry.path=A.java entry.hunk.start=3\n"},
		{"empty group dropped", func(l *slog.Logger) { l.Info("m", slog.Group("g")) }, "[info] m\n"},
		{"nested WithGroup", func(l *slog.Logger) {
			l.WithGroup("a").With("x", 1).WithGroup("b").Info("m", "y", 2)
		}, "[info] m | a.x=1 a.b.y=2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewLineHandler(&buf, nil)
			tt.log(slog.New(h))

			// drop the timestamp
			got := buf.String()
			if i := strings.Index(got, "["); i >= 0 {
				got = got[i:]
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, slog.LevelInfo).With("run", "r1")
	a := base.With("side", "old")
	b := base.With("side", "new")

	a.Info("first")
	b.Info("second")
	base.Info("third")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", lines)
	}
	for i, want := range []string{"run=r1 side=old", "run=r1 side=new"} {
		if !strings.HasSuffix(lines[i], want) {
			t.Errorf("line %d = %q, want suffix %q", i, lines[i], want)
		}
	}
	if strings.Contains(lines[2], "side=") {
		t.Errorf("sibling attrs leaked into parent: %q", lines[2])
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "json", slog.LevelInfo))

	logger.Info("hello", "n", 1)

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if decoded["msg"] != "hello" {
		t.Errorf("msg = %v", decoded["msg"])
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" Warning ", slog.LevelWarn},
		{"info+2", slog.LevelInfo + 2},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, slog.LevelDebug},
		{-1, false, slog.LevelWarn},
		{0, true, LevelSilent},
		{5, true, LevelSilent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewLineHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewLineHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewTeeHandler(h1, h2))
	logger.Info("info message")
	logger.Warn("warn message")

	if !strings.Contains(buf1.String(), "info message") || !strings.Contains(buf1.String(), "warn message") {
		t.Errorf("buf1 should contain both messages: %s", buf1.String())
	}
	if strings.Contains(buf2.String(), "info message") {
		t.Error("buf2 should not contain info message")
	}
	if !strings.Contains(buf2.String(), "warn message") {
		t.Error("buf2 should contain warn message")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

var errWrite = goerrors.New("disk full")

func TestTeeHandler_JoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	tee := NewTeeHandler(NewLineHandler(failingWriter{}, nil), NewLineHandler(&buf, nil))

	err := slog.New(tee).With("k", "v").Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "m", 0))
	if !goerrors.Is(err, errWrite) {
		t.Errorf("Handle() error = %v, want %v", err, errWrite)
	}
	if !strings.Contains(buf.String(), "m | k=v") {
		t.Errorf("a failing handler must not stop the others: %q", buf.String())
	}
	if tee.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("no handler is enabled for debug")
	}
}

func TestLoggerFactory_FileAndOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mdiff.log")
	quiet := LevelSilent
	factory := NewLoggerFactory(config.LoggingConfig{Format: "human", Level: "info", File: path}, &quiet)
	defer factory.Close()

	var console bytes.Buffer
	logger, err := factory.Logger(&console)
	if err != nil {
		t.Fatalf("Logger() error = %v", err)
	}

	logger.Info("written to file only")

	if console.Len() != 0 {
		t.Errorf("console should be silent, got: %s", console.String())
	}
	if err := factory.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file only") {
		t.Errorf("log file missing record: %s", data)
	}
}

func TestLoggerFactory_EffectiveLevel(t *testing.T) {
	if got := NewLoggerFactory(config.LoggingConfig{Level: "debug"}, nil).EffectiveLevel(); got != slog.LevelDebug {
		t.Errorf("config level = %v, want debug", got)
	}
	warn := slog.LevelWarn
	if got := NewLoggerFactory(config.LoggingConfig{Level: "debug"}, &warn).EffectiveLevel(); got != slog.LevelWarn {
		t.Errorf("cli override = %v, want warn", got)
	}
	if got := NewLoggerFactory(config.LoggingConfig{}, nil).EffectiveLevel(); got != slog.LevelInfo {
		t.Errorf("default = %v, want info", got)
	}
}
