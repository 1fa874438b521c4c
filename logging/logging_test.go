package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRedactKey(t *testing.T) {
	tests := map[string]string{
		"":                    "",
		"short":               "********",
		"sk-1234567890abcdef": "sk-1...cdef",
	}
	for in, want := range tests {
		if got := RedactKey(in); got != want {
			t.Errorf("RedactKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetup_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := Setup(Options{Level: "warn", Console: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "api_key", "sk-1234567890abcdef")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn missing from output: %q", out)
	}
	if strings.Contains(out, "1234567890") || !strings.Contains(out, "sk-1...cdef") {
		t.Errorf("api key not redacted: %q", out)
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := Console(&buf, slog.LevelWarn, true)

	logger.Info("hidden")
	logger.Warn("config ignored", "token", "abcdefghijkl")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "config ignored") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "abcdefghijkl") {
		t.Errorf("token not redacted: %q", out)
	}

	if Console(nil, slog.LevelDebug, false) == nil {
		t.Fatal("Console(nil) should return a usable logger")
	}
	Console(nil, slog.LevelDebug, false).Error("discarded")
}

func TestSetup_FanOut(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "translator.log")

	logger, closer, err := Setup(Options{Level: "info", Console: &console, NoColor: true, FilePath: path})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.With("provider", "google").Debug("probe")
	logger.Info("translated")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	file := string(data)
	if !strings.Contains(file, "probe") || !strings.Contains(file, "provider=google") {
		t.Errorf("file should keep debug records: %q", file)
	}
	if !strings.Contains(file, "translated") {
		t.Errorf("file missing info record: %q", file)
	}
	if strings.Contains(console.String(), "probe") {
		t.Error("console should honor its level")
	}
	if !strings.Contains(console.String(), "translated") {
		t.Errorf("console missing info record: %q", console.String())
	}
}

func TestSetup_Nothing(t *testing.T) {
	logger, closer, err := Setup(Options{})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Error("discarded")
	if err := closer.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestSetup_BadLevel(t *testing.T) {
	if _, _, err := Setup(Options{Level: "chatty"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
