package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
	"github.com/ducminhle1904/prop-ledger/internal/logger"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

const (
	component = "file_storage"

	// KeyPrefix is prepended to every per-account state document name
	KeyPrefix = "trading_state_"
	fileExt   = ".json"
)

// StateStore persists one TradingState per account key
type StateStore interface {
	Load(account string) (*trading.TradingState, error)
	Save(account string, state *trading.TradingState) error
	Exists(account string) bool
}

// FileStorage keeps each account's state in its own JSON file under dir
type FileStorage struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time
}

// NewFileStorage creates a file-based state store rooted at dir
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, ledgererrors.NewStorageError(component, "init", err)
	}
	return &FileStorage{dir: dir, now: time.Now}, nil
}

// Key returns the storage key for an account, e.g. trading_state_trader@example.com
func Key(account string) string {
	return KeyPrefix + logger.SafeName(account)
}

// Path returns the state file path for an account
func (f *FileStorage) Path(account string) string {
	return filepath.Join(f.dir, Key(account)+fileExt)
}

// Exists reports whether a state document exists for the account
func (f *FileStorage) Exists(account string) bool {
	_, err := os.Stat(f.Path(account))
	return err == nil
}

// Load reads and validates the account's state
func (f *FileStorage) Load(account string) (*trading.TradingState, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.readState(f.Path(account), "load")
}

// Save validates state, rejects it when its version is stale, then writes it
// atomically. On success state.Version is the newly stored version.
func (f *FileStorage) Save(account string, state *trading.TradingState) error {
	if state == nil {
		return ledgererrors.NewValidationError(component, "save", "cannot save nil state")
	}
	if err := trading.Validate(*state); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.Path(account)
	stored := int64(0)
	current, err := f.readState(path, "save")
	switch {
	case err == nil:
		stored = current.Version
	case ledgererrors.IsNotFound(err):
	default:
		// an unreadable document is overwritten only by a fresh state
		if state.Version != 0 {
			return err
		}
	}

	if state.Version != stored {
		return ledgererrors.NewConflictError(component, "save",
			fmt.Sprintf("state version %d is stale, stored version is %d", state.Version, stored)).
			WithContext("account", account)
	}

	next := *state
	next.Version = stored + 1

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return ledgererrors.NewStorageError(component, "save", fmt.Errorf("failed to marshal trading state: %w", err))
	}

	if err := writeAtomic(path, data, "save"); err != nil {
		return err
	}

	state.Version = next.Version
	return nil
}

// Backup copies the account's state file next to it with a timestamp suffix
func (f *FileStorage) Backup(account string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	path := f.Path(account)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", ledgererrors.NewNotFoundError(component, "backup", "no state file to backup for "+account)
	}
	if err != nil {
		return "", ledgererrors.NewStorageError(component, "backup", fmt.Errorf("failed to read state file for backup: %w", err))
	}

	backupPath := fmt.Sprintf("%s.backup_%s", path, f.now().Format("20060102_150405.000000000"))
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", ledgererrors.NewStorageError(component, "backup", fmt.Errorf("failed to create backup file: %w", err))
	}

	return backupPath, nil
}

// Restore replaces the account's state with a validated backup. The restored
// document keeps counting versions from the current one so holders of the
// pre-restore state get a conflict instead of silently overwriting it.
func (f *FileStorage) Restore(account, backupPath string) (*trading.TradingState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	restored, err := f.readState(backupPath, "restore")
	if err != nil {
		return nil, err
	}

	path := f.Path(account)
	if current, err := f.readState(path, "restore"); err == nil {
		restored.Version = current.Version + 1
	}

	data, err := json.MarshalIndent(restored, "", "  ")
	if err != nil {
		return nil, ledgererrors.NewStorageError(component, "restore", err)
	}
	if err := writeAtomic(path, data, "restore"); err != nil {
		return nil, err
	}

	return restored, nil
}

// List returns the sanitized account names that have a state document
func (f *FileStorage) List() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, ledgererrors.NewStorageError(component, "list", err)
	}

	var accounts []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, KeyPrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, KeyPrefix), fileExt))
	}
	sort.Strings(accounts)
	return accounts, nil
}

// writeAtomic replaces path through a temporary file and rename so readers
// never see a partially written document
func writeAtomic(path string, data []byte, operation string) error {
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return ledgererrors.NewStorageError(component, operation, fmt.Errorf("failed to write temporary state file: %w", err))
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return ledgererrors.NewStorageError(component, operation, fmt.Errorf("failed to commit state file: %w", err))
	}
	return nil
}

func (f *FileStorage) readState(path, operation string) (*trading.TradingState, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ledgererrors.NewNotFoundError(component, operation, "state file does not exist: "+path)
	}
	if err != nil {
		return nil, ledgererrors.NewStorageError(component, operation, fmt.Errorf("failed to read state file: %w", err))
	}

	var state trading.TradingState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, ledgererrors.NewStorageError(component, operation, fmt.Errorf("failed to unmarshal trading state: %w", err))
	}
	if state.Trades == nil {
		state.Trades = []trading.ClosedTrade{}
	}
	if state.OpenPositions == nil {
		state.OpenPositions = []trading.OpenPosition{}
	}

	if err := trading.Validate(state); err != nil {
		return nil, ledgererrors.WrapError(err, ledgererrors.ErrorCategoryStorage, component, operation).
			WithContext("path", path)
	}

	return &state, nil
}
