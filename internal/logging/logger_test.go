package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerDefaultsToInfoAndStderr(t *testing.T) {
	logger := NewLogger(nil)
	if logger == nil {
		t.Fatal("NewLogger(nil) returned nil")
	}
	if logger.level != LevelInfo {
		t.Errorf("expected default level %d, got %d", LevelInfo, logger.level)
	}
}

func TestLoggerRespectsConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should be dropped")
	logger.Info("should also be dropped")
	if buf.Len() != 0 {
		t.Errorf("expected no output below the configured level, got: %s", buf.String())
	}

	logger.Warn("at the threshold")
	if !strings.Contains(buf.String(), "at the threshold") {
		t.Errorf("expected warn output, got: %s", buf.String())
	}
}

func TestLoggerFormatsKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Error("ByteRing overrun", "dropped_bytes", 128)

	output := buf.String()
	if !strings.Contains(output, "[ERROR]") {
		t.Errorf("expected [ERROR] prefix, got: %s", output)
	}
	if !strings.Contains(output, "ByteRing overrun") {
		t.Errorf("expected message, got: %s", output)
	}
	if !strings.Contains(output, "dropped_bytes=128") {
		t.Errorf("expected dropped_bytes=128, got: %s", output)
	}
}

func TestLoggerPrintfVariants(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Infof("resampled %d frames", 64)
	if !strings.Contains(buf.String(), "resampled 64 frames") {
		t.Errorf("expected formatted message, got: %s", buf.String())
	}

	buf.Reset()
	logger.Printf("pool size %d", 7)
	if !strings.Contains(buf.String(), "[INFO] pool size 7") {
		t.Errorf("expected Printf to behave like Infof, got: %s", buf.String())
	}
}

func TestGlobalLoggerFunctionsUseDefault(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Debug("debug message", "key", "value")
	if !strings.Contains(buf.String(), "debug message") || !strings.Contains(buf.String(), "key=value") {
		t.Errorf("expected debug message with args, got: %s", buf.String())
	}

	buf.Reset()
	Warn("warning message")
	if !strings.Contains(buf.String(), "warning message") {
		t.Errorf("expected warning message, got: %s", buf.String())
	}

	buf.Reset()
	Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected error message, got: %s", buf.String())
	}
}
