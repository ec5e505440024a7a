package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{
			level:    "error",
			expected: []string{"ERROR"},
			excluded: []string{"WARN", "INFO", "DEBUG"},
		},
		{
			level:    "warn",
			expected: []string{"ERROR", "WARN"},
			excluded: []string{"INFO", "DEBUG"},
		},
		{
			level:    "info",
			expected: []string{"ERROR", "WARN", "INFO"},
			excluded: []string{"DEBUG"},
		},
		{
			level:    "debug",
			expected: []string{"ERROR", "WARN", "INFO", "DEBUG"},
			excluded: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")

			cfg := FileConfig{
				Path:       logFile,
				MaxSizeMB:  10,
				MaxBackups: 1,
				MaxAgeDays: 1,
			}

			if err := InitWithFileConfig(tt.level, cfg, nil); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Log.Debug("debug message")
			Log.Info("info message")
			Log.Warn("warn message")
			Log.Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestUnknownLevel(t *testing.T) {
	if _, err := New("loud", FileConfig{}, nil); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("info", FileConfig{}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("exported group")
	_ = l.Sync()

	if !strings.Contains(buf.String(), "exported group") {
		t.Errorf("console output %q is missing the message", buf.String())
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/test.log")

	if cfg.Path != "/tmp/test.log" {
		t.Errorf("expected path /tmp/test.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 {
		t.Errorf("expected MaxSizeMB 50, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAgeDays != 7 {
		t.Errorf("expected MaxAgeDays 7, got %d", cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}

func TestReport(t *testing.T) {
	r := NewReport(nil)
	if err := r.Err(); err != nil {
		t.Fatalf("empty report: %v", err)
	}

	r.Warn("'%s' is a WaveSet -- only one material is supported", "Pond")
	if got := r.Warnings(); len(got) != 1 || !strings.Contains(got[0], "Pond") {
		t.Errorf("Warnings() = %v", got)
	}

	first := errors.New("too many vertices")
	r.Error(first)
	r.Error(nil)
	err := r.Err()
	if !errors.Is(err, ErrNonfatal) || !errors.Is(err, first) {
		t.Errorf("single error %v should wrap ErrNonfatal and the cause", err)
	}

	second := errors.New("too many uv channels")
	r.Error(second)
	err = r.Err()
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("aggregate %v should wrap every error", err)
	}
	if !strings.Contains(err.Error(), "2 errors") {
		t.Errorf("aggregate message %q should count errors", err.Error())
	}
}
