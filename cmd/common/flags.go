package common

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// CommonFlags contains flags that are shared across every ledger command
type CommonFlags struct {
	// Environment and configuration
	EnvFile string
	DataDir string
	Account string

	// Logging and output
	Verbose  bool
	Silent   bool
	NoEmojis bool
}

// RegisterCommonFlags binds the shared flags to fs (usually a command's
// persistent flag set)
func RegisterCommonFlags(fs *pflag.FlagSet) *CommonFlags {
	f := &CommonFlags{}
	fs.StringVar(&f.EnvFile, "env", ".env", "Environment file path")
	fs.StringVar(&f.DataDir, "data-dir", "", "State directory (overrides LEDGER_DATA_DIR)")
	fs.StringVarP(&f.Account, "account", "a", "", "Account key, e.g. an email address (overrides LEDGER_ACCOUNT)")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "Enable verbose output")
	fs.BoolVar(&f.Silent, "silent", false, "Enable silent mode (minimal output)")
	fs.BoolVar(&f.NoEmojis, "no-emojis", false, "Disable emoji output")
	return f
}

// FlagValidator collects flag validation errors
type FlagValidator struct {
	errors []string
}

func NewFlagValidator() *FlagValidator {
	return &FlagValidator{
		errors: make([]string, 0),
	}
}

// ValidateFloat validates a float flag value
func (v *FlagValidator) ValidateFloat(name string, value float64, min, max float64) *FlagValidator {
	if math.IsNaN(value) || value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %.4f and %.4f, got: %.4f", name, min, max, value))
	}
	return v
}

// ValidateFinite rejects NaN and infinities
func (v *FlagValidator) ValidateFinite(name string, value float64) *FlagValidator {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		v.errors = append(v.errors, fmt.Sprintf("%s must be a finite number, got: %v", name, value))
	}
	return v
}

// ValidateRequired rejects blank values
func (v *FlagValidator) ValidateRequired(name, value string) *FlagValidator {
	if strings.TrimSpace(value) == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
	}
	return v
}

// ValidateChoice validates that a string is one of the allowed choices
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	for _, choice := range choices {
		if value == choice {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
	return v
}

// ValidateFile validates that a file exists
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s file does not exist: %s", name, path))
	}
	return v
}

func (v *FlagValidator) AddError(message string) *FlagValidator {
	v.errors = append(v.errors, message)
	return v
}

func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *FlagValidator) GetErrors() []string {
	return v.errors
}

// GetError returns a formatted error message with all validation errors
func (v *FlagValidator) GetError() error {
	if len(v.errors) == 0 {
		return nil
	}

	if len(v.errors) == 1 {
		return fmt.Errorf("validation error: %s", v.errors[0])
	}

	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// SetupConsole configures console output from the common flags
func SetupConsole(c *Console, flags *CommonFlags) {
	c.SetSilentMode(flags.Silent)
	if flags.Verbose {
		c.Level = LogLevelDebug
	}
	if flags.NoEmojis {
		c.ShowEmojis = false
	}
}
