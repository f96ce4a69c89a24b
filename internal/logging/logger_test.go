package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()

	logger, err := New(&Config{
		LogDir:     t.TempDir(),
		Level:      LevelDebug,
		MaxHistory: 10,
		Console:    false,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestNewCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(&Config{LogDir: dir, Level: LevelInfo, MaxHistory: 10})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Close()

	if filepath.Dir(logger.LogPath()) != dir {
		t.Errorf("log path %q not under %q", logger.LogPath(), dir)
	}
	if _, err := os.Stat(logger.LogPath()); err != nil {
		t.Errorf("log file not created: %v", err)
	}

	testLog := logger.Component("test")
	testLog.Info().Msg("hello")
	data, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   LogLevel
		want zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHistoryBounded(t *testing.T) {
	logger := newTestLogger(t)

	for i := 0; i < 25; i++ {
		logger.Record(LevelInfo, "test", fmt.Sprintf("entry %d", i))
	}

	history := logger.History(0)
	if len(history) != 10 {
		t.Fatalf("history length = %d, want max 10", len(history))
	}
	if history[len(history)-1].Message != "entry 24" {
		t.Errorf("newest entry = %q, want entry 24", history[len(history)-1].Message)
	}
	if history[0].Message != "entry 15" {
		t.Errorf("oldest kept entry = %q, want entry 15", history[0].Message)
	}
}

func TestHistoryLimit(t *testing.T) {
	logger := newTestLogger(t)

	for i := 0; i < 5; i++ {
		logger.Record(LevelInfo, "test", fmt.Sprintf("entry %d", i))
	}

	got := logger.History(2)
	if len(got) != 2 {
		t.Fatalf("History(2) returned %d entries", len(got))
	}
	if got[1].Message != "entry 4" {
		t.Errorf("newest = %q, want entry 4", got[1].Message)
	}
}

func TestComponentLoggerFeedsHistory(t *testing.T) {
	logger := newTestLogger(t)

	sessionLog := logger.Component("session")
	sessionLog.Warn().Msg("processing timed out")

	history := logger.History(0)
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	entry := history[0]
	if entry.Component != "session" || entry.Message != "processing timed out" || entry.Level != string(LevelWarn) {
		t.Errorf("entry = %+v", entry)
	}
}

func TestZerologFeedsHistory(t *testing.T) {
	logger := newTestLogger(t)

	zlog := logger.Zerolog()
	zlog.Info().Str("component", "speech-bridge").Msg("connected")

	history := logger.History(0)
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	if history[0].Message != "connected" {
		t.Errorf("entry = %+v", history[0])
	}
}

func TestHistoryHookHonorsLevel(t *testing.T) {
	logger, err := New(&Config{
		LogDir:     t.TempDir(),
		Level:      LevelWarn,
		MaxHistory: 10,
		Console:    false,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Close()

	log := logger.Component("quiet")
	log.Debug().Msg("suppressed")
	log.Error().Msg("kept")

	history := logger.History(0)
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want only the error", len(history))
	}
	if history[0].Message != "kept" {
		t.Errorf("entry = %+v", history[0])
	}
}

func TestOnLogCallback(t *testing.T) {
	logger := newTestLogger(t)

	received := make(chan Entry, 1)
	logger.SetOnLog(func(e Entry) { received <- e })

	logger.Record(LevelWarn, "bridge", "disconnected")

	select {
	case e := <-received:
		if e.Component != "bridge" || e.Message != "disconnected" {
			t.Errorf("unexpected entry: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("callback never invoked")
	}
}
