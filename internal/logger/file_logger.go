package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger writes ledger activity for one account to a daily log file
type Logger struct {
	account string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
	logDir  string
	level   LogLevel
	now     func() time.Time
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelRisk    LogLevel = "RISK"
)

// severity orders levels for filtering; trade entries rank with INFO and risk
// blocks with WARN
func (lv LogLevel) severity() int {
	switch lv {
	case LogLevelWarning, LogLevelRisk:
		return 1
	case LogLevelError:
		return 2
	default:
		return 0
	}
}

// ParseLevel converts a LOG_LEVEL value (info, warn, error) into a minimum level
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info", "debug":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarning, nil
	case "error":
		return LogLevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q (want info, warn or error)", s)
	}
}

// NewLogger creates a file logger for the given account under logDir
func NewLogger(logDir, account string) (*Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{
		account: account,
		logDir:  logDir,
		now:     time.Now,
	}

	file, err := os.OpenFile(l.GetLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l.logFile = file
	l.logger = log.New(file, "", 0)

	l.writeSessionHeader()

	return l, nil
}

// NewWriterLogger logs to w without touching the filesystem
func NewWriterLogger(w io.Writer, account string) *Logger {
	return &Logger{
		account: account,
		logger:  log.New(w, "", 0),
		now:     time.Now,
	}
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
LEDGER SESSION STARTED
================================================================================
Account: %s
Started: %s
================================================================================
`, l.account, l.now().Format("2006-01-02 15:04:05"))

	l.logger.Print(header)
}

// SetLevel drops entries below level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if level.severity() < l.level.severity() {
		return
	}

	timestamp := l.now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Println(fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, level, l.account, message))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs a position transition
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Risk logs a risk gate decision
func (l *Logger) Risk(format string, args ...interface{}) {
	l.Log(LogLevelRisk, format, args...)
}

// LogPositionOpened logs a new open position
func (l *Logger) LogPositionOpened(positionID, instrument, direction string, entry, stop, target float64) {
	l.Trade("OPEN %s %s %s entry=%.5f stop=%.5f target=%.5f",
		positionID, instrument, strings.ToUpper(direction), entry, stop, target)
}

// LogTradeClosed logs a settled position with the resulting equity
func (l *Logger) LogTradeClosed(positionID, outcome string, pnl, equity, dailyPnL float64) {
	l.Trade("CLOSE %s outcome=%s pnl=%.2f equity=%.2f daily_pnl=%.2f",
		positionID, strings.ToUpper(outcome), pnl, equity, dailyPnL)
}

// LogRiskBlock logs a trade rejected by a risk gate
func (l *Logger) LogRiskBlock(reason string) {
	l.Risk("BLOCKED %s", reason)
}

// LogStateSaved logs a persisted state version
func (l *Logger) LogStateSaved(version int64, trades, open int) {
	l.Info("state saved version=%d trades=%d open=%d", version, trades, open)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close closes the log file
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		footer := fmt.Sprintf(`
================================================================================
LEDGER SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, l.now().Format("2006-01-02 15:04:05"))
		l.logger.Print(footer)

		err := l.logFile.Close()
		l.logFile = nil
		return err
	}
	return nil
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	filename := fmt.Sprintf("%s_%s.log", SafeName(l.account), l.now().Format("2006-01-02"))
	return filepath.Join(l.logDir, filename)
}

// SafeName turns an account key such as an email address into a file-safe
// name. Keys that need characters replaced get a hash suffix so two different
// keys never share a name. SafeName(SafeName(k)) == SafeName(k).
func SafeName(key string) string {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "default"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '@', r == '.', r == '-', r == '_', r == '~':
			return r
		default:
			return '_'
		}
	}, key)
	if safe == key {
		return safe
	}
	sum := sha256.Sum256([]byte(key))
	return safe + "~" + hex.EncodeToString(sum[:6])
}
