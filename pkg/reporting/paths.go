package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ducminhle1904/prop-ledger/internal/logger"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct{}

func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultOutputDir returns results/<account>
func (p *DefaultPathManager) GetDefaultOutputDir(account string) string {
	return filepath.Join("results", logger.SafeName(account))
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	return ensureDir(path)
}

// DefaultOutputDir is the package-level convenience function
func DefaultOutputDir(account string) string {
	return NewDefaultPathManager().GetDefaultOutputDir(account)
}

// DefaultExportPath builds results/<account>/journal_<date>.<ext>
func DefaultExportPath(account, ext string, now time.Time) string {
	return filepath.Join(DefaultOutputDir(account), fmt.Sprintf("journal_%s.%s", now.Format("20060102_150405"), ext))
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
