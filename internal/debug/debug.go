// Package debug provides debug logging infrastructure for themekeeper.
// Logging is only enabled when --debug flag (or the debug config key) is set.
// Logs are written to ~/.themekeeper/debug.log, truncated on each launch.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogFileName is the name of the debug log file.
	LogFileName = "debug.log"
	// LogDirName is the name of the directory containing the log file.
	LogDirName = ".themekeeper"
)

var (
	mu      sync.RWMutex
	enabled bool
	logger  *zap.SugaredLogger
	logFile *os.File

	// getLogPath is a function variable to allow overriding in tests.
	getLogPath = defaultGetLogPath
)

// Init initializes the debug logging system.
// If enable is false, all logging operations become no-ops.
// If enable is true, the log file is created/truncated at ~/.themekeeper/debug.log.
func Init(enable bool) error {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	if !enable {
		logger = zap.NewNop().Sugar()
		return nil
	}

	logPath, err := getLogPath()
	if err != nil {
		return fmt.Errorf("determine log path: %w", err)
	}

	dir := filepath.Dir(logPath)
	//nolint:gosec // G301: User config directory needs standard permissions
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	//nolint:gosec // G304: Log path is computed from user home, not user input
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)
	logger = zap.New(core).Sugar()
	logger.Infof("=== themekeeper debug log started at %s ===", time.Now().Format(time.RFC3339))

	return nil
}

// Close flushes and closes the debug log file if open.
// Safe to call even if logging is disabled.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		_ = logger.Sync()
		logger = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Log writes a debug message if debug logging is enabled.
// Arguments are handled in the manner of fmt.Sprint.
func Log(v ...any) {
	mu.RLock()
	defer mu.RUnlock()

	if !enabled || logger == nil {
		return
	}
	logger.Debug(v...)
}

// Logf writes a formatted debug message if debug logging is enabled.
// Arguments are handled in the manner of fmt.Printf.
func Logf(format string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()

	if !enabled || logger == nil {
		return
	}
	logger.Debugf(format, v...)
}

// Errorw writes a structured error entry with alternating key/value pairs.
func Errorw(msg string, keysAndValues ...any) {
	mu.RLock()
	defer mu.RUnlock()

	if !enabled || logger == nil {
		return
	}
	logger.Errorw(msg, keysAndValues...)
}

// Enabled returns whether debug logging is currently enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// defaultGetLogPath returns the path to the debug log file.
func defaultGetLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, LogDirName, LogFileName), nil
}

// GetLogPath returns the path to the debug log file.
// Exported for use by other packages that need to know where logs are.
func GetLogPath() (string, error) {
	return getLogPath()
}
