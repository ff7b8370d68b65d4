package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.With("stage", "assemble").Debug("assembled graph", "vertices", 2, "cluster", "type I interferon")

	line := buf.String()
	if !strings.HasPrefix(line, "[DEBUG] ") {
		t.Errorf("Expected DEBUG prefix, got %q", line)
	}
	for _, want := range []string{"[assemble] assembled graph |", "vertices=2", `cluster="type I interferon"`} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
}

func TestCompactHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("Info message should be filtered at WARN level")
	}
	if !strings.HasPrefix(buf.String(), "[WARN]  ") {
		t.Errorf("Expected WARN line, got %q", buf.String())
	}
}

func TestCompactHandlerGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil))

	log.WithGroup("pipeline").Info("run", "edges", 3)

	if !strings.Contains(buf.String(), "pipeline.edges=3") {
		t.Errorf("Expected grouped key, got %q", buf.String())
	}
}

func TestCompactHandlerSpecialKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil))

	log.Info("request completed", requestIDAttr, "0123456789abcdef", "durationMs", 42, "stage", "load_nodes")

	line := buf.String()
	for _, want := range []string{"[load_nodes] request completed |", "req=01234567", "duration=42ms"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "stage=") {
		t.Errorf("Stage should render as a tag, got %q", line)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		verbosity string
		count     int
		want      slog.Level
		wantErr   bool
	}{
		{verbosity: "debug", want: slog.LevelDebug},
		{verbosity: "TRACE", want: LevelTrace},
		{verbosity: "warning", want: slog.LevelWarn},
		{verbosity: "", count: 0, want: slog.LevelInfo},
		{verbosity: "", count: 1, want: slog.LevelDebug},
		{verbosity: "", count: 3, want: LevelTrace},
		{verbosity: "loud", wantErr: true, want: slog.LevelInfo},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.verbosity, tt.count)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q, %d) error = %v, wantErr %v", tt.verbosity, tt.count, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q, %d) = %v, want %v", tt.verbosity, tt.count, got, tt.want)
		}
	}
}

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf})
	defer SetLevel(slog.LevelInfo)

	Info("pipeline complete", "edges", 1)

	if !strings.Contains(buf.String(), `"msg":"pipeline complete"`) {
		t.Errorf("Expected JSON output, got %q", buf.String())
	}
}
