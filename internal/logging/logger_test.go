package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in the directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, "debug")
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		logger.Info("hello")

		logPath := filepath.Join(dir, "jamcord.log")
		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("writes to stderr when dir is empty", func(t *testing.T) {
		logger, err := NewLogger("", "info")
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.file != nil {
			t.Error("expected file to be nil when dir is empty")
		}
	})

	t.Run("defaults to INFO for invalid level string", func(t *testing.T) {
		logger, err := NewLogger(t.TempDir(), "invalid")
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.logger == nil {
			t.Error("expected logger to be created")
		}
	})
}

func TestChildLoggerAttributes(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, "debug")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.WithRoom("room-1").WithParticipant("alice").Info("turn claimed")
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, "jamcord.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log entry is not valid JSON: %v\n%s", err, data)
	}
	if entry["room"] != "room-1" {
		t.Errorf("expected room attribute, got %v", entry["room"])
	}
	if entry["participant"] != "alice" {
		t.Errorf("expected participant attribute, got %v", entry["participant"])
	}
	if entry["msg"] != "turn claimed" {
		t.Errorf("expected message, got %v", entry["msg"])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	// Must be safe to use and close without any destination.
	logger.WithRoom("room").Info("ignored")
	if err := logger.Close(); err != nil {
		t.Errorf("Close on nop logger: %v", err)
	}
}
