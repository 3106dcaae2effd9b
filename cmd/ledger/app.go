package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ducminhle1904/prop-ledger/cmd/common"
	"github.com/ducminhle1904/prop-ledger/internal/config"
	"github.com/ducminhle1904/prop-ledger/internal/ledger"
	"github.com/ducminhle1904/prop-ledger/internal/logger"
	"github.com/ducminhle1904/prop-ledger/internal/monitoring"
	"github.com/ducminhle1904/prop-ledger/internal/notifications"
	"github.com/ducminhle1904/prop-ledger/internal/storage"
	"github.com/ducminhle1904/prop-ledger/pkg/reporting"
)

// app holds what every command needs once flags and environment are loaded
type app struct {
	out     io.Writer
	errOut  io.Writer
	flags   *common.CommonFlags
	console *common.Console

	cfg    *config.Config
	store  *storage.FileStorage
	health *monitoring.HealthChecker
	logger *logger.Logger
	now    func() time.Time
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:     out,
		errOut:  errOut,
		console: common.NewConsole(out, errOut),
		health:  monitoring.NewHealthChecker(),
		now:     func() time.Time { return time.Now().UTC().Round(0) },
	}
}

// setup loads .env, the environment config and the state store
func (a *app) setup() error {
	common.SetupConsole(a.console, a.flags)

	if err := common.NewEnvLoader(a.console).LoadEnvFile(a.flags.EnvFile); err != nil {
		return err
	}

	a.cfg = config.Load()
	if a.flags.DataDir != "" {
		a.cfg.Storage.DataDir = a.flags.DataDir
	}
	if a.flags.Account != "" {
		a.cfg.Account = a.flags.Account
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	store, err := storage.NewFileStorage(a.cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	a.store = store
	return nil
}

func (a *app) account() (string, error) {
	account := strings.TrimSpace(a.cfg.Account)
	if account == "" {
		return "", fmt.Errorf("no account given: pass --account or set LEDGER_ACCOUNT")
	}
	return account, nil
}

// ledgerFor opens the account's log file and builds a ledger around the store
func (a *app) ledgerFor(account string) (*ledger.Ledger, error) {
	if a.logger == nil {
		lg, err := logger.NewLogger(a.cfg.Logging.Dir, account)
		if err != nil {
			return nil, err
		}
		lg.SetLevel(a.cfg.LogLevel())
		a.logger = lg
	}

	opts := []ledger.Option{
		ledger.WithLogger(a.logger),
		ledger.WithHealthChecker(a.health),
		ledger.WithLocation(a.cfg.Location()),
		ledger.WithClock(a.now),
		ledger.WithBackupOnSave(a.cfg.Storage.BackupOnSave),
		ledger.WithDefaults(ledger.Defaults{
			AccountSize: a.cfg.Trading.DefaultAccountSize,
			Risk:        a.cfg.DefaultRiskSettings(),
		}),
	}

	notifier := notifications.NewTelegramNotifier(a.cfg.Notifications.TelegramToken, a.cfg.Notifications.TelegramChatID)
	if notifier.Enabled() {
		opts = append(opts, ledger.WithNotifier(notifications.NewGuardedNotifier(notifier, nil)))
	}

	return ledger.New(a.store, opts...), nil
}

func (a *app) reporter() *reporting.DefaultReporter {
	return reporting.NewDefaultReporter(a.out)
}

func (a *app) close() {
	if a.logger != nil {
		a.logger.Close()
		a.logger = nil
	}
}
