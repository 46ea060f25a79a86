package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rawmatterx/oncostaging/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var (
	DefaultLoggingService *LoggingService
	initMu                sync.Mutex
)

// InitLogger initializes the global logger with dev defaults.
func InitLogger(logDir string) {
	InitLoggerWithRetentionAndSize(logDir, config.EnvDevelopment, "", 4, defaultMaxFileSize, false)
}

// InitLoggerWithRetentionAndSize builds the console + rotating file logger and
// installs it as the package and slog default.
func InitLoggerWithRetentionAndSize(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64, verbose bool) {
	initMu.Lock()
	defer initMu.Unlock()

	if DefaultLoggingService != nil {
		_ = DefaultLoggingService.Close()
	}

	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(env, logLevel, verbose),
	})

	svc := &LoggingService{}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		svc.Logger = slog.New(consoleHandler)
		svc.Logger.Error("Failed to create logs directory, logging to console only", "dir", logDir, "error", err)
	} else {
		rl := NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, maxFileSize)
		rl.mu.Lock()
		err := rl.doRotate(getWeekKey(time.Now()))
		rl.mu.Unlock()
		if err != nil {
			svc.Logger = slog.New(consoleHandler)
			svc.Logger.Error("Failed to initialize rotating logger", "error", err)
		} else {
			rl.startCleanup(24 * time.Hour)
			fileHandler := slog.NewJSONHandler(rl, &slog.HandlerOptions{Level: GetFileLogLevel()})
			svc.rotating = rl
			svc.Logger = slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
		}
	}

	DefaultLoggingService = svc
	slog.SetDefault(svc.Logger)
}

// InitConsoleLogger installs a console only logger writing to w. Command line
// tools use it so stdout stays free for their output.
func InitConsoleLogger(w io.Writer, logLevel string) {
	initMu.Lock()
	defer initMu.Unlock()

	if DefaultLoggingService != nil {
		_ = DefaultLoggingService.Close()
	}

	svc := &LoggingService{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(logLevel)})),
	}
	DefaultLoggingService = svc
	slog.SetDefault(svc.Logger)
}

// Close releases the log file, if any.
func (s *LoggingService) Close() error {
	if s == nil || s.rotating == nil {
		return nil
	}
	return s.rotating.Close()
}

// Close shuts down the global logger's file output.
func Close() error {
	initMu.Lock()
	defer initMu.Unlock()
	return DefaultLoggingService.Close()
}

// ResetForTest installs a fresh logger in dir and tears it down when the test ends.
func ResetForTest(t testing.TB, dir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	t.Helper()
	InitLoggerWithRetentionAndSize(dir, env, logLevel, retentionWeeks, maxFileSize, testing.Verbose())
	t.Cleanup(func() {
		initMu.Lock()
		defer initMu.Unlock()
		_ = DefaultLoggingService.Close()
		DefaultLoggingService = nil
	})
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. Test runs stay quiet unless
// verbose, and an explicit level wins everywhere else.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}
	if logLevel != "" {
		return parseLogLevel(logLevel)
	}
	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file level; files always keep debug detail.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return DefaultLoggingService.Logger
}

// Logger returns the active logger, falling back to stderr when uninitialized.
func Logger() *slog.Logger { return logger() }

func Info(msg string, args ...any)  { logger().Info(msg, args...) }
func Error(msg string, args ...any) { logger().Error(msg, args...) }
func Warn(msg string, args ...any)  { logger().Warn(msg, args...) }
func Debug(msg string, args ...any) { logger().Debug(msg, args...) }
