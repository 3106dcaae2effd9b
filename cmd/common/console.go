package common

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// LogLevel represents different console verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Console prints human-facing CLI messages. Ledger events go to the
// account's log file instead.
type Console struct {
	Level      LogLevel
	ShowEmojis bool
	SilentMode bool

	out io.Writer
	err io.Writer
}

func NewConsole(out, errOut io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Console{
		Level:      LogLevelInfo,
		ShowEmojis: true,
		out:        out,
		err:        errOut,
	}
}

func (c *Console) SetSilentMode(silent bool) {
	c.SilentMode = silent
}

func (c *Console) prefix(emoji, plain string) string {
	if c.ShowEmojis {
		return emoji
	}
	return plain
}

// Header prints a formatted header
func (c *Console) Header(title string) {
	if c.SilentMode {
		return
	}
	fmt.Fprintf(c.out, "\n%s %s\n", c.prefix("🎯", "***"), strings.ToUpper(title))
	fmt.Fprintf(c.out, "%s\n", strings.Repeat("=", len(title)+5))
}

func (c *Console) Info(format string, args ...interface{}) {
	if c.SilentMode || c.Level < LogLevelInfo {
		return
	}
	fmt.Fprintf(c.out, "%s  %s\n", c.prefix("ℹ️", "[INFO]"), fmt.Sprintf(format, args...))
}

// Error always prints, even in silent mode
func (c *Console) Error(format string, args ...interface{}) {
	fmt.Fprintf(c.err, "%s %s\n", c.prefix("❌", "[ERROR]"), fmt.Sprintf(format, args...))
}

func (c *Console) Success(format string, args ...interface{}) {
	if c.SilentMode {
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", c.prefix("✅", "[SUCCESS]"), fmt.Sprintf(format, args...))
}

func (c *Console) Warn(format string, args ...interface{}) {
	if c.Level < LogLevelWarn {
		return
	}
	fmt.Fprintf(c.err, "%s  %s\n", c.prefix("⚠️", "[WARN]"), fmt.Sprintf(format, args...))
}

func (c *Console) Debug(format string, args ...interface{}) {
	if c.Level < LogLevelDebug {
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", c.prefix("🔍", "[DEBUG]"), fmt.Sprintf(format, args...))
}

// FormatCurrency formats a dollar amount with sign, e.g. -$250.00
func FormatCurrency(value float64) string {
	if value < 0 {
		return fmt.Sprintf("-$%.2f", -value)
	}
	return fmt.Sprintf("$%.2f", value)
}
