package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON output, got error: %v (output %q)", err, buf.String())
	}
	return entry
}

func TestNew_ProductionMode(t *testing.T) {
	logger := New("production")

	if logger == nil {
		t.Fatal("Expected logger to be created")
	}
	if logger.GetZerolog() == nil {
		t.Error("Expected zerolog instance to be available")
	}
}

func TestNewWithWriter_DevelopmentIsConsoleFormatted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("development", &buf)

	logger.Debug("debug visible in development", nil)

	output := buf.String()
	if !strings.Contains(output, "debug visible in development") {
		t.Error("Expected debug message in development output")
	}
	if json.Valid(buf.Bytes()) {
		t.Error("Expected console (non-JSON) output in development")
	}
}

func TestNewWithWriter_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("production", &buf)

	logger.Info("test json", map[string]interface{}{"key": "value"})

	entry := decodeLine(t, &buf)
	if entry["message"] != "test json" {
		t.Error("Expected JSON to contain message field")
	}
	if entry["key"] != "value" {
		t.Error("Expected JSON to contain custom field")
	}
	if entry["service"] != "proptax-api" {
		t.Error("Expected JSON to contain service field")
	}
}

func TestLogLevels_Production(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("production", &buf)

	logger.Debug("debug message", nil)
	if strings.Contains(buf.String(), "debug message") {
		t.Error("Debug message should not appear in production logging")
	}

	logger.Info("info message", nil)
	if !strings.Contains(buf.String(), "info message") {
		t.Error("Info message should appear in production logging")
	}
}

func TestLogLevels_Test(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("test", &buf)

	logger.Info("info message", nil)
	if buf.Len() != 0 {
		t.Errorf("Expected info to be suppressed in test mode, got %q", buf.String())
	}

	logger.Warn("warning message", map[string]interface{}{"warning_type": "rate_limit"})
	if !strings.Contains(buf.String(), "rate_limit") {
		t.Error("Expected warnings to be emitted in test mode")
	}
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("production", &buf)

	logger.Error("error occurred", errors.New("upstream failed"), map[string]interface{}{
		"context": "llm",
	})

	entry := decodeLine(t, &buf)
	if entry["error"] != "upstream failed" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["context"] != "llm" {
		t.Error("Expected context field")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("production", &buf)

	logger.With(map[string]interface{}{"component": "estimator"}).Info("test message", nil)

	entry := decodeLine(t, &buf)
	if entry["component"] != "estimator" {
		t.Error("Expected log output to contain component field from context")
	}
}

func TestWithRequestIDAndUserID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("production", &buf)

	logger.WithRequestID("req-12345").WithUserID("user-1").Info("request received", nil)

	entry := decodeLine(t, &buf)
	if entry["request_id"] != "req-12345" {
		t.Error("Expected log output to contain request ID")
	}
	if entry["user_id"] != "user-1" {
		t.Error("Expected log output to contain user ID")
	}
}

func TestNilFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("production", &buf)

	// Should not panic with nil fields
	logger.Info("message with nil fields", nil)

	if !strings.Contains(buf.String(), "message with nil fields") {
		t.Error("Expected message to be logged even with nil fields")
	}
}
