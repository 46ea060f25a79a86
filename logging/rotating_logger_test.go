package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rawmatterx/oncostaging/config"
)

func currentLogFile(dir string) string {
	return filepath.Join(dir, weekFileName(getWeekKey(time.Now())))
}

func TestRotatingLogger(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(tempDir, 1)

	testMessage := "staging request completed"
	if _, err := rl.Write([]byte(testMessage)); err != nil {
		t.Fatalf("Failed to write to log: %v", err)
	}

	content, err := os.ReadFile(currentLogFile(tempDir))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), testMessage) {
		t.Errorf("Log file does not contain test message: %s", string(content))
	}

	if err := rl.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}
}

func TestGetWeekKey(t *testing.T) {
	testTime := time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)
	if got := getWeekKey(testTime); got != "2025-W41" {
		t.Errorf("Expected week key 2025-W41, got %s", got)
	}

	// ISO week of Jan 1st 2027 still belongs to 2026.
	if got := getWeekKey(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)); got != "2026-W53" {
		t.Errorf("Expected week key 2026-W53, got %s", got)
	}
}

func TestRotatingLoggerWithDifferentWeeks(t *testing.T) {
	tempDir := t.TempDir()

	for _, week := range []string{"2025-W40", "2025-W41"} {
		rl := NewRotatingLogger(tempDir, 1)
		rl.mu.Lock()
		err := rl.doRotate(week)
		rl.mu.Unlock()
		if err != nil {
			t.Fatalf("Failed to rotate to %s: %v", week, err)
		}
		_ = rl.Close()

		if _, err := os.Stat(filepath.Join(tempDir, weekFileName(week))); os.IsNotExist(err) {
			t.Errorf("Expected log file for %s was not created", week)
		}
	}
}

func TestGlobalLoggingService(t *testing.T) {
	tempDir := t.TempDir()
	ResetForTest(t, tempDir, config.EnvTest, "", 2, 100*1024*1024)

	if DefaultLoggingService == nil {
		t.Fatal("DefaultLoggingService was not initialized")
	}

	Info("Test message from global logger")
	Debug("Debug detail goes to the file")

	content, err := os.ReadFile(currentLogFile(tempDir))
	if err != nil {
		t.Fatalf("Expected log file to exist: %v", err)
	}
	if !strings.Contains(string(content), "Debug detail goes to the file") {
		t.Errorf("Expected debug line in file log, got: %s", string(content))
	}
}

func TestCleanupOldLogs(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(tempDir, 1)

	oldFile := filepath.Join(tempDir, weekFileName("2025-W30"))
	newFile := currentLogFile(tempDir)
	foreignFile := filepath.Join(tempDir, "other-2025-W30.log")

	for _, f := range []string{oldFile, newFile, foreignFile} {
		if err := os.WriteFile(f, []byte("content"), 0o644); err != nil {
			t.Fatalf("Failed to create %s: %v", f, err)
		}
	}
	threeWeeksAgo := time.Now().AddDate(0, 0, -21)
	for _, f := range []string{oldFile, foreignFile} {
		if err := os.Chtimes(f, threeWeeksAgo, threeWeeksAgo); err != nil {
			t.Fatalf("Failed to age %s: %v", f, err)
		}
	}

	deleted, err := rl.cleanupOldLogs()
	if err != nil {
		t.Fatalf("Failed to cleanup old logs: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted file, got %d", deleted)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Errorf("Old log file %s was not deleted", oldFile)
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Errorf("New log file %s was incorrectly deleted", newFile)
	}
	if _, err := os.Stat(foreignFile); err != nil {
		t.Errorf("File without our prefix %s should be left alone", foreignFile)
	}
}

func TestRotatingLoggerWithSizeLimit(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLoggerWithSizeLimit(tempDir, 1, 100)
	defer func() { _ = rl.Close() }()

	if _, err := rl.Write([]byte("Small message")); err != nil {
		t.Fatalf("Failed to write small message: %v", err)
	}

	largeMessage := strings.Repeat("This is a long log line that should trigger rotation. ", 10)
	if _, err := rl.Write([]byte(largeMessage)); err != nil {
		t.Fatalf("Failed to write large message: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}

	numbered := regexp.MustCompile(`^oncostaging-\d{4}-W\d{2}_\d{2}\.log$`)
	logFiles, numberedFiles := 0, 0
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), filePrefix) {
			logFiles++
		}
		if numbered.MatchString(entry.Name()) {
			numberedFiles++
		}
	}
	if logFiles < 2 {
		t.Errorf("Expected at least 2 log files due to size rotation, got %d", logFiles)
	}
	if numberedFiles == 0 {
		t.Error("Expected at least one numbered file due to large write")
	}
}

func TestRotatingLoggerErrorCases(t *testing.T) {
	rl := NewRotatingLogger("/invalid/directory/that/does/not/exist", 1)
	defer func() { _ = rl.Close() }()

	if _, err := rl.Write([]byte("test message")); err == nil {
		t.Error("Expected error when writing with invalid directory, got nil")
	}
}

func TestRotatingLoggerConcurrentWrites(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLoggerWithSizeLimit(tempDir, 1, 1000)
	defer func() { _ = rl.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := rl.Write([]byte("concurrent log line\n")); err != nil {
					t.Errorf("Concurrent write failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	var total int64
	entries, _ := os.ReadDir(tempDir)
	for _, entry := range entries {
		info, err := entry.Info()
		if err == nil {
			total += info.Size()
		}
	}
	if want := int64(10 * 20 * len("concurrent log line\n")); total != want {
		t.Errorf("Expected %d bytes across files, got %d", want, total)
	}
}

func TestMultiHandlerMethods(t *testing.T) {
	var a, b strings.Builder
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	if !multi.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected Enabled() to return true for info level")
	}
	if multi.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected Enabled() to return false for debug level")
	}

	logger := slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "staging")}).WithGroup("req"))
	logger.Info("info only", "id", 1)
	logger.Error("both", "id", 2)

	if !strings.Contains(a.String(), "info only") || !strings.Contains(a.String(), "both") {
		t.Errorf("Text handler missed records: %s", a.String())
	}
	if strings.Contains(b.String(), "info only") {
		t.Errorf("JSON handler should drop info records: %s", b.String())
	}
	if !strings.Contains(b.String(), `"component":"staging"`) {
		t.Errorf("Expected attrs carried to JSON handler: %s", b.String())
	}
}
