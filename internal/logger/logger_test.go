package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:     DEBUG,
		Format:    JSONFormat,
		Output:    &buf,
		Component: "test",
	})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 log lines, got %d", len(lines))
	}

	for i, line := range lines {
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Errorf("Line %d is not valid JSON: %v", i+1, err)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:  WARN,
		Format: JSONFormat,
		Output: &buf,
	})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected 2 log lines with WARN level, got %d", len(lines))
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:     INFO,
		Format:    JSONFormat,
		Output:    &buf,
		Component: "fetcher",
	})

	logger.Info("upstream fetched", Fields{
		"source": "solar_flare",
		"rows":   42,
	})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Expected level INFO, got %s", entry.Level)
	}
	if entry.Message != "upstream fetched" {
		t.Errorf("Expected message 'upstream fetched', got %s", entry.Message)
	}
	if entry.Component != "fetcher" {
		t.Errorf("Expected component 'fetcher', got %s", entry.Component)
	}
	if entry.Fields["source"] != "solar_flare" {
		t.Errorf("Expected field source='solar_flare', got %v", entry.Fields["source"])
	}
	if entry.Fields["rows"] != float64(42) { // JSON numbers are float64
		t.Errorf("Expected field rows=42, got %v", entry.Fields["rows"])
	}
	if entry.File != "logger_test.go" {
		t.Errorf("Expected caller file logger_test.go, got %q", entry.File)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:     INFO,
		Format:    TextFormat,
		Output:    &buf,
		Component: "normalizer",
	})

	logger.Info("rows skipped", Fields{
		"source":  "geomagnetic",
		"skipped": 1,
	})

	output := buf.String()
	for _, want := range []string{"INFO", "[normalizer]", "rows skipped", "fields={skipped=1, source=geomagnetic}"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %q", want, output)
		}
	}
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer

	base := New(Config{
		Level:     INFO,
		Format:    JSONFormat,
		Output:    &buf,
		Component: "base",
	})

	child := base.WithComponent("server").With(Fields{"request_id": "abc"})
	child.Info("request served", Fields{"status": 200})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if entry.Component != "server" {
		t.Errorf("Expected component 'server', got %s", entry.Component)
	}
	if entry.Fields["request_id"] != "abc" {
		t.Errorf("Expected request_id field, got %v", entry.Fields)
	}
	if entry.Fields["status"] != float64(200) {
		t.Errorf("Expected status field 200, got %v", entry.Fields["status"])
	}

	buf.Reset()
	base.Info("parent untouched")
	var parent LogEntry
	if err := json.Unmarshal(buf.Bytes(), &parent); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}
	if _, ok := parent.Fields["request_id"]; ok {
		t.Error("With must not leak fields into the parent logger")
	}
}

func TestErrorLogging(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:  ERROR,
		Format: JSONFormat,
		Output: &buf,
	})

	logger.Error("report failed", errors.New("malformed flare row"), Fields{
		"operation": "build_report",
	})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if entry.Error != "malformed flare row" {
		t.Errorf("Expected error 'malformed flare row', got %s", entry.Error)
	}
	if entry.Fields["operation"] != "build_report" {
		t.Errorf("Expected operation field 'build_report', got %v", entry.Fields["operation"])
	}
}

func TestFormattedLogging(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:  INFO,
		Format: JSONFormat,
		Output: &buf,
	})

	logger.Infof("Listening on %s:%d", "0.0.0.0", 8000)

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if entry.Message != "Listening on 0.0.0.0:8000" {
		t.Errorf("Unexpected message %q", entry.Message)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	tests := []struct {
		input string
		level LogLevel
		ok    bool
	}{
		{"DEBUG", DEBUG, true},
		{"debug", DEBUG, true},
		{"warning", WARN, true},
		{" error ", ERROR, true},
		{"verbose", INFO, false},
	}

	for _, tt := range tests {
		level, ok := ParseLevel(tt.input)
		if level != tt.level || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.input, level, ok, tt.level, tt.ok)
		}
	}

	if f, ok := ParseFormat("TEXT"); !ok || f != TextFormat {
		t.Errorf("Expected TextFormat for 'TEXT', got %v", f)
	}
	if f, ok := ParseFormat("yaml"); ok || f != JSONFormat {
		t.Errorf("Expected JSON fallback for unknown format, got %v", f)
	}
}

func TestNewFromStrings(t *testing.T) {
	var buf bytes.Buffer

	logger := NewFromStrings("warn", "text", &buf)
	if logger.Level() != WARN {
		t.Errorf("Expected WARN level, got %v", logger.Level())
	}

	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped", errors.New("boom"))
	logger.Fatal("also dropped", nil)
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{FATAL, "FATAL"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		if test.level.String() != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, test.level.String())
		}
	}
}

func BenchmarkJSONLogging(b *testing.B) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  INFO,
		Format: JSONFormat,
		Output: &buf,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", Fields{
			"iteration": i,
			"benchmark": true,
		})
	}
}

func BenchmarkLevelFiltering(b *testing.B) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  WARN,
		Format: JSONFormat,
		Output: &buf,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("debug message that should be filtered")
	}
}
