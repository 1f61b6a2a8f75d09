package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrettyHandlerFormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, ParseLevel("debug"))).With("component", "rpc")
	logger.WithGroup("req").Debug("rpc request", "path", "/notebooks", "body", `{"name":"test"}`)

	out := buf.String()
	if !strings.Contains(out, "DEBUG rpc request\n") {
		t.Fatalf("expected header line, got %q", out)
	}
	if !strings.Contains(out, "  component: rpc\n") {
		t.Fatalf("expected handler attr, got %q", out)
	}
	if !strings.Contains(out, "  req.path: /notebooks\n") {
		t.Fatalf("expected grouped attr, got %q", out)
	}
	if !strings.Contains(out, "    {\n      \"name\": \"test\"\n    }\n") {
		t.Fatalf("expected indented json body, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no colors for a buffer, got %q", out)
	}
}

func TestPrettyHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, ParseLevel("warn")))
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw).Level(); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestSetupTeesToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "gpad.log")
	closeLog, err := Setup(&console, Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	slog.Debug("only in file", "n", 1)
	slog.Info("everywhere")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if strings.Contains(console.String(), "only in file") {
		t.Fatalf("debug record reached console: %q", console.String())
	}
	if !strings.Contains(console.String(), `"msg":"everywhere"`) {
		t.Fatalf("expected json console record, got %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "only in file") || !strings.Contains(string(data), "everywhere") {
		t.Fatalf("unexpected log file %q", data)
	}
}
