package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	filePrefix         = "oncostaging-"
	defaultMaxFileSize = 100 * 1024 * 1024
)

var numberedFileRe = regexp.MustCompile(`^` + filePrefix + `\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger writes JSON log lines to one file per ISO week, rolling over
// to numbered files when the size limit is reached.
type RotatingLogger struct {
	logDir      string
	currentFile *os.File
	currentWeek string
	retention   time.Duration
	maxFileSize int64
	currentSize atomic.Int64
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
	cleanupOnce sync.Once
}

// NewRotatingLogger creates a rotating logger with the default 100MB size limit.
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger with a custom size limit.
// A zero limit disables size based rollover.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// getWeekKey returns the ISO week key, YYYY-Www.
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func weekFileName(week string) string {
	return filePrefix + week + ".log"
}

// doRotate switches to the right file for targetWeek. Caller holds mu.
func (rl *RotatingLogger) doRotate(targetWeek string) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rl.currentFile = nil
	}

	isSizeRotation := rl.maxFileSize > 0 && rl.currentSize.Load() >= rl.maxFileSize
	fileName, fresh := rl.pickLogFile(targetWeek, isSizeRotation)

	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentWeek = targetWeek

	if fresh {
		rl.currentSize.Store(0)
	} else if info, err := os.Stat(logPath); err == nil {
		rl.currentSize.Store(info.Size())
	}

	return nil
}

// pickLogFile returns the file name to append to and whether it is a new file.
func (rl *RotatingLogger) pickLogFile(targetWeek string, isSizeRotation bool) (string, bool) {
	base := weekFileName(targetWeek)

	if !isSizeRotation {
		info, err := os.Stat(filepath.Join(rl.logDir, base))
		if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
			return base, false
		}
	}

	highest, lastPath, lastSize := rl.highestNumberedFile(targetWeek)
	if lastPath != "" && lastSize < rl.maxFileSize {
		return filepath.Base(lastPath), false
	}

	return fmt.Sprintf("%s%s_%02d.log", filePrefix, targetWeek, highest+1), true
}

func (rl *RotatingLogger) highestNumberedFile(targetWeek string) (int, string, int64) {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, filePrefix+targetWeek+"_??.log"))

	highest := 0
	var lastPath string
	var lastSize int64
	for _, match := range matches {
		m := numberedFileRe.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num <= highest {
			continue
		}
		highest = num
		lastPath = match
		lastSize = 0
		if info, err := os.Stat(match); err == nil {
			lastSize = info.Size()
		}
	}
	return highest, lastPath, lastSize
}

// Write appends p to the current file, rotating first when needed.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	needsRotation := rl.currentFile == nil || rl.currentWeek != week
	if rl.maxFileSize > 0 && !needsRotation {
		size := rl.currentSize.Load()
		if size+int64(len(p)) > rl.maxFileSize {
			needsRotation = true
			rl.currentSize.Store(rl.maxFileSize)
		}
	}

	if needsRotation {
		if err := rl.doRotate(week); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes our log files older than the retention period.
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// startCleanup runs cleanupOldLogs every interval until Close.
func (rl *RotatingLogger) startCleanup(interval time.Duration) {
	rl.cleanupOnce.Do(func() {
		go func() {
			defer close(rl.cleanupDone)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-rl.ctx.Done():
					return
				case <-ticker.C:
					if n, err := rl.cleanupOldLogs(); err != nil {
						fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
					} else if n > 0 {
						fmt.Fprintf(os.Stderr, "cleaned up %d old log files\n", n)
					}
				}
			}
		}()
	})
}

// Close stops the cleanup goroutine and closes the current file.
func (rl *RotatingLogger) Close() error {
	rl.cancel()

	// Never started: nothing will close the channel for us.
	rl.cleanupOnce.Do(func() { close(rl.cleanupDone) })
	select {
	case <-rl.cleanupDone:
	case <-time.After(2 * time.Second):
		fmt.Fprintln(os.Stderr, "log cleanup goroutine did not stop in time")
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.currentFile != nil {
		err := rl.currentFile.Close()
		rl.currentFile = nil
		return err
	}
	return nil
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
