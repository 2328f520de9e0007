package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetLevel(WARN)

	Debug("hidden")
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	Error("also shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["level"] != "warn" || lines[0]["message"] != "shown 2" {
		t.Fatalf("unexpected first line %v", lines[0])
	}
	if lines[1]["level"] != "error" {
		t.Fatalf("unexpected second line %v", lines[1])
	}
}

func TestCallerPointsAtCallSite(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	Info("where am I")

	lines := decodeLines(t, &buf)
	caller, _ := lines[0]["caller"].(string)
	if !strings.Contains(caller, "logger_test.go") {
		t.Fatalf("caller = %q, want this test file", caller)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		" INFO ":  INFO,
		"warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Init(Options{FilePath: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(Close)
	SetLevel(INFO)

	Info("to file")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("log file missing message: %s", data)
	}

	if err := Init(Options{}); err == nil {
		t.Fatal("expected error without any output")
	}
}
