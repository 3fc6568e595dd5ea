package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("nonexistent.yaml")
	if err != nil {
		t.Fatalf("LoadConfig returned error for missing file: %v", err)
	}

	if config.Level != "INFO" {
		t.Errorf("Default level = %q, want %q", config.Level, "INFO")
	}
	if !config.ConsoleEnabled {
		t.Error("Default ConsoleEnabled = false, want true")
	}
	if config.FileEnabled {
		t.Error("Default FileEnabled = true, want false")
	}
	if config.FilePath != "logs/levelgen.log" {
		t.Errorf("Default FilePath = %q, want %q", config.FilePath, "logs/levelgen.log")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	content := `logging:
  level: DEBUG
  console_format: json
  file_enabled: true
  file_path: gen.log
  file_max_size_mb: 20
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Level != "DEBUG" {
		t.Errorf("Level = %q, want DEBUG", config.Level)
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want json", config.ConsoleFormat)
	}
	// console_enabled omitted: default kept
	if !config.ConsoleEnabled {
		t.Error("ConsoleEnabled should keep its default when omitted")
	}
	if !config.FileEnabled {
		t.Error("FileEnabled = false, want true")
	}
	if config.FilePath != "gen.log" {
		t.Errorf("FilePath = %q, want gen.log", config.FilePath)
	}
	if config.FileMaxSizeMB != 20 {
		t.Errorf("FileMaxSizeMB = %d, want 20", config.FileMaxSizeMB)
	}
}

func TestEnvVarOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_CONSOLE_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "true")
	t.Setenv("LOG_FILE_PATH", "/custom/path.log")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", config.Level)
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want json", config.ConsoleFormat)
	}
	if !config.FileEnabled {
		t.Error("FileEnabled = false, want true")
	}
	if config.FilePath != "/custom/path.log" {
		t.Errorf("FilePath = %q, want /custom/path.log", config.FilePath)
	}
}

func TestSetOutputText(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "text", "INFO")
	defer Disable()

	Info("level generated", "level", "crypt")
	Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "level generated") || !strings.Contains(out, "level=crypt") {
		t.Errorf("missing info record: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at INFO: %s", out)
	}
}

func TestReportBypassesLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "text", "ERROR")
	defer Disable()

	Info("skipped")
	Warning("skipped too")
	Report("generation finished", "success", true)

	out := buf.String()
	if strings.Contains(out, "skipped") {
		t.Errorf("records below ERROR were written: %s", out)
	}
	if !strings.Contains(out, "generation finished") {
		t.Error("report record missing")
	}
	if !strings.Contains(out, "level=REPORT") {
		t.Errorf("report level not renamed: %s", out)
	}
}

func TestFormattedLogging(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "json", "DEBUG")
	defer Disable()

	Debugf("cells: %d", 25)
	Infof("seed %d", 42)
	Warningf("retry %d/%d", 1, 3)
	Errorf("failed: %v", "no spawn")

	out := buf.String()
	for _, want := range []string{"cells: 25", "seed 42", "retry 1/3", "failed: no spawn"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := slog.NewTextHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewTextHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelError})
	logger = slog.New(newMultiHandler(h1, h2))
	defer Disable()

	Info("to first only", "field", "value")
	Error("to both")

	if !strings.Contains(buf1.String(), "to first only") || !strings.Contains(buf1.String(), "field=value") {
		t.Error("first handler did not receive info record")
	}
	if strings.Contains(buf2.String(), "to first only") {
		t.Error("second handler received record below its level")
	}
	if !strings.Contains(buf2.String(), "to both") {
		t.Error("second handler missing error record")
	}
}

func TestInitializeFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gen.log")
	cfg := DefaultConfig()
	cfg.ConsoleEnabled = false
	cfg.FileEnabled = true
	cfg.FilePath = path

	if err := Initialize(cfg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Disable()

	Info("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"written to file"`) {
		t.Errorf("log file missing json record: %s", data)
	}
}

func TestNilLogger(t *testing.T) {
	Disable()
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("logging with nil logger panicked: %v", r)
		}
	}()

	Debug("debug")
	Info("info")
	Warning("warning")
	Error("error")
	Report("report")
}
