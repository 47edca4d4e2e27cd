package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewLogger(Config{
		LogDir:  tmpDir,
		Level:   INFO,
		MaxDays: 7,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.level != INFO {
		t.Errorf("Expected level INFO, got %v", logger.level)
	}
	if logger.logDir != tmpDir {
		t.Errorf("Expected logDir %s, got %s", tmpDir, logger.logDir)
	}
}

func TestNewLogger_CreateLogDir(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs", "subdir")

	logger, err := NewLogger(Config{
		LogDir:  logDir,
		Level:   INFO,
		MaxDays: 7,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Error("Log directory was not created")
	}
}

func TestLogger_LogLevels(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewLogger(Config{
		LogDir:  tmpDir,
		Level:   DEBUG,
		MaxDays: 7,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Debug("debug message %d", 1)
	logger.Info("info message %s", "test")
	logger.Warn("warn message")
	logger.Error("error message")

	logger.Close()

	today := time.Now().Format("2006-01-02")
	content, err := os.ReadFile(filepath.Join(tmpDir, "sidekick-"+today+".log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	logContent := string(content)
	if !strings.Contains(logContent, "[DEBUG] debug message 1") {
		t.Error("Log should contain DEBUG message")
	}
	if !strings.Contains(logContent, "[INFO] info message test") {
		t.Error("Log should contain INFO message")
	}
	if !strings.Contains(logContent, "[WARN] warn message") {
		t.Error("Log should contain WARN message")
	}
	if !strings.Contains(logContent, "[ERROR] error message") {
		t.Error("Log should contain ERROR message")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewLogger(Config{
		LogDir:  tmpDir,
		Level:   WARN,
		MaxDays: 7,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	logger.Close()

	today := time.Now().Format("2006-01-02")
	content, err := os.ReadFile(filepath.Join(tmpDir, "sidekick-"+today+".log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	logContent := string(content)
	if strings.Contains(logContent, "[DEBUG]") {
		t.Error("DEBUG messages should be filtered out")
	}
	if strings.Contains(logContent, "[INFO]") {
		t.Error("INFO messages should be filtered out")
	}
	if !strings.Contains(logContent, "[WARN]") {
		t.Error("WARN messages should be logged")
	}
	if !strings.Contains(logContent, "[ERROR]") {
		t.Error("ERROR messages should be logged")
	}
}

func TestLogger_GetWriter(t *testing.T) {
	logger, err := NewLogger(Config{
		LogDir:  t.TempDir(),
		Level:   INFO,
		MaxDays: 7,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	writer := logger.GetWriter(INFO)
	if writer == nil {
		t.Fatal("GetWriter should return a writer")
	}

	msg := []byte("test message via writer\n")
	n, err := writer.Write(msg)
	if err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if n != len(msg) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(msg), n)
	}
}

func TestPackageLevelFunctions_WithNilLogger(t *testing.T) {
	savedLogger := defaultLogger
	defaultLogger = nil
	defer func() { defaultLogger = savedLogger }()

	// These should not panic when the default logger is nil
	Debug("test")
	Info("test")
	Warn("test")
	Error("test")

	if err := Close(); err != nil {
		t.Errorf("Close with nil logger returned error: %v", err)
	}
	if GetDefault() != nil {
		t.Error("GetDefault should return nil when no logger is initialized")
	}
}
