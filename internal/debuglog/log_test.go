package debuglog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel.String() = %q, want %q", got, test.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{" INFO ", LevelInfo},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"", LevelOff},
		{"INVALID", LevelInfo},
	}

	for _, test := range tests {
		if got := ParseLogLevel(test.input); got != test.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", test.input, got, test.expected)
		}
	}
}

func TestSetupWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	if err := Setup(LevelInfo, logPath); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { _ = Setup(LevelOff) })

	Debugf("debug message")
	Infof("info message")
	Errorf("error message")

	if err := Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	logContent := string(content)
	if strings.Contains(logContent, "debug message") {
		t.Error("DEBUG message should not appear with INFO level")
	}
	if !strings.Contains(logContent, "[INFO] info message") {
		t.Error("INFO message should appear with INFO level")
	}
	if !strings.Contains(logContent, "[ERROR] error message") {
		t.Error("ERROR message should appear with INFO level")
	}
}

func TestLevelOffDropsEverything(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelOff, &buf)
	t.Cleanup(func() { SetOutput(LevelOff, nil) })

	Errorf("should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestWithFieldsSortedKeys(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelDebug, &buf)
	t.Cleanup(func() { SetOutput(LevelOff, nil) })

	WithFields(map[string]any{"feed": "f1", "entry": 7}).Warnf("mark read failed")

	if !strings.Contains(buf.String(), "[WARN] mark read failed [entry=7 feed=f1]") {
		t.Errorf("unexpected log line %q", buf.String())
	}
}
