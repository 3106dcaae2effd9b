package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/prop-ledger/internal/config"
	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
	"github.com/ducminhle1904/prop-ledger/internal/logger"
	"github.com/ducminhle1904/prop-ledger/internal/monitoring"
	"github.com/ducminhle1904/prop-ledger/internal/notifications"
	"github.com/ducminhle1904/prop-ledger/internal/recovery"
	"github.com/ducminhle1904/prop-ledger/internal/risk"
	"github.com/ducminhle1904/prop-ledger/internal/storage"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

const component = "ledger"

// Backupper is implemented by stores that can snapshot an account's document
type Backupper interface {
	Backup(account string) (string, error)
}

// Defaults seed accounts whose profile leaves a value unanswered
type Defaults struct {
	AccountSize float64
	Risk        trading.RiskSettings
}

// Ledger runs every account transition as load, roll trading day, gate,
// transition, save. Transitions are serialized within the process; the store's
// version check catches writers in other processes.
type Ledger struct {
	mu sync.Mutex

	store    storage.StateStore
	risk     risk.RiskManager
	trades   *trading.TradeManager
	logger   *logger.Logger
	health   *monitoring.HealthChecker
	notifier notifications.Notifier
	recovery *recovery.RecoveryHandler

	defaults     Defaults
	backupOnSave bool
	now          func() time.Time
	loc          *time.Location
}

type Option func(*Ledger)

func WithRiskManager(rm risk.RiskManager) Option { return func(l *Ledger) { l.risk = rm } }

func WithTradeManager(tm *trading.TradeManager) Option { return func(l *Ledger) { l.trades = tm } }

func WithLogger(lg *logger.Logger) Option { return func(l *Ledger) { l.logger = lg } }

func WithHealthChecker(h *monitoring.HealthChecker) Option { return func(l *Ledger) { l.health = h } }

// WithNotifier sends an alert whenever a risk gate refuses a trade
func WithNotifier(n notifications.Notifier) Option { return func(l *Ledger) { l.notifier = n } }

func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// WithLocation sets the time zone whose calendar day delimits a trading day
func WithLocation(loc *time.Location) Option { return func(l *Ledger) { l.loc = loc } }

func WithDefaults(d Defaults) Option { return func(l *Ledger) { l.defaults = d } }

// WithBackupOnSave snapshots the previous document before every save
func WithBackupOnSave(enabled bool) Option { return func(l *Ledger) { l.backupOnSave = enabled } }

func New(store storage.StateStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		risk:   risk.NewRiskManager(),
		trades: trading.NewTradeManager(),
		now:    func() time.Time { return time.Now().UTC().Round(0) },
		loc:    time.UTC,
		defaults: Defaults{
			AccountSize: config.DefaultAccountSize,
			Risk: trading.RiskSettings{
				RiskPerTrade:           config.DefaultRiskPerTrade,
				DailyLossLimit:         config.DefaultDailyLossLimit,
				ConsecutiveLossesLimit: config.DefaultConsecutiveLossesLimit,
			},
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.recovery = recovery.NewRecoveryHandler(l.logger)
	return l
}

// Initialize returns the account's stored state, or creates and saves a fresh
// one from profile when none exists. An undecodable document is backed up
// first and then replaced.
func (l *Ledger) Initialize(account string, profile config.AccountProfile) (trading.TradingState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.store.Load(account)
	switch {
	case err == nil:
		return trading.RollDailyStats(*stored, l.now(), l.loc), nil
	case ledgererrors.IsNotFound(err):
	case ledgererrors.IsCategory(err, ledgererrors.ErrorCategoryStorage):
		l.logger.Warning("Stored state for %s is unreadable, recreating: %v", account, err)
		if b, ok := l.store.(Backupper); ok {
			if path, berr := b.Backup(account); berr == nil {
				l.logger.Info("Corrupt state backed up to %s", path)
			} else {
				l.logger.LogError("backup corrupt state", berr)
			}
		}
	default:
		return trading.TradingState{}, l.fail(err)
	}

	if err := profile.Validate(); err != nil {
		return trading.TradingState{}, l.fail(err)
	}

	equity := profile.InitialEquity(l.defaults.AccountSize)
	state := trading.NewTradingState(equity, profile.RiskSettings(l.defaults.Risk), l.now(), l.loc)
	if err := l.save(account, &state); err != nil {
		return trading.TradingState{}, err
	}

	l.logger.Info("Initialized account %s with equity %.2f (risk %.2f%%, daily loss %.2f%%, max %d losses)",
		account, state.InitialEquity, state.RiskSettings.RiskPerTrade,
		state.RiskSettings.DailyLossLimit, state.RiskSettings.ConsecutiveLossesLimit)
	return state, nil
}

// State loads the account and rolls its daily counters to today
func (l *Ledger) State(account string) (trading.TradingState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.load(account)
	if err != nil {
		return trading.TradingState{}, l.fail(err)
	}
	return state, nil
}

// RecordOutcome logs a signal that was taken and settled in one step. The
// risk gate runs first; a blocked or invalid request saves nothing.
func (l *Ledger) RecordOutcome(account string, signal trading.Signal, outcome trading.Outcome, pnl *float64) (trading.TradingState, error) {
	result, err := l.update(account, "record_outcome", func(state trading.TradingState) (trading.TradingState, error) {
		if err := l.gate(state); err != nil {
			return state, err
		}

		opened := l.trades.OpenTrade(state, signal)
		pos := opened.OpenPositions[len(opened.OpenPositions)-1]
		return l.trades.CloseTrade(opened, pos.ID, outcome, pnl)
	})
	if err != nil {
		return trading.TradingState{}, err
	}

	trade := result.Trades[len(result.Trades)-1]
	l.logger.LogPositionOpened(trade.ID, signal.Instrument, string(signal.Direction), signal.Entry, signal.StopLoss, signal.TakeProfit)
	monitoring.RecordPositionOpened(signal.Instrument, string(signal.Direction))
	l.afterClose(account, result, trade)
	return result, nil
}

// OpenPosition gates and opens a position that stays open across calls
func (l *Ledger) OpenPosition(account string, signal trading.Signal) (trading.TradingState, trading.OpenPosition, error) {
	result, err := l.update(account, "open_position", func(state trading.TradingState) (trading.TradingState, error) {
		if err := l.gate(state); err != nil {
			return state, err
		}
		return l.trades.OpenTrade(state, signal), nil
	})
	if err != nil {
		return trading.TradingState{}, trading.OpenPosition{}, err
	}

	pos := result.OpenPositions[len(result.OpenPositions)-1]
	l.logger.LogPositionOpened(pos.ID, signal.Instrument, string(signal.Direction), signal.Entry, signal.StopLoss, signal.TakeProfit)
	monitoring.RecordPositionOpened(signal.Instrument, string(signal.Direction))
	l.publish(account, result)
	return result, pos, nil
}

// ClosePosition settles an open position. Closing is never gated.
func (l *Ledger) ClosePosition(account, positionID string, outcome trading.Outcome, pnl *float64) (trading.TradingState, error) {
	result, err := l.update(account, "close_position", func(state trading.TradingState) (trading.TradingState, error) {
		return l.trades.CloseTrade(state, positionID, outcome, pnl)
	})
	if err != nil {
		return trading.TradingState{}, err
	}

	l.afterClose(account, result, result.Trades[len(result.Trades)-1])
	return result, nil
}

// Violations reports the risk gates currently tripped for the account
func (l *Ledger) Violations(account string) ([]risk.RiskViolation, error) {
	state, err := l.State(account)
	if err != nil {
		return nil, err
	}
	return l.risk.Violations(state), nil
}

// update runs transition against freshly loaded state and saves the result,
// retrying the whole cycle when the save hits a stale version.
func (l *Ledger) update(account, operation string, transition func(trading.TradingState) (trading.TradingState, error)) (trading.TradingState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var saved trading.TradingState
	err := l.recovery.ExecuteWithRecovery(context.Background(), component, operation, func() error {
		state, err := l.load(account)
		if err != nil {
			return err
		}
		next, err := transition(state)
		if err != nil {
			return err
		}
		if err := l.save(account, &next); err != nil {
			return err
		}
		saved = next
		return nil
	})
	if err != nil {
		return trading.TradingState{}, l.fail(err)
	}
	return saved, nil
}

func (l *Ledger) load(account string) (trading.TradingState, error) {
	stored, err := l.store.Load(account)
	if err != nil {
		return trading.TradingState{}, err
	}
	return trading.RollDailyStats(*stored, l.now(), l.loc), nil
}

func (l *Ledger) gate(state trading.TradingState) error {
	err := l.risk.Check(state)
	if err == nil {
		return nil
	}

	reason := string(ledgererrors.CategoryOf(err))
	if lerr := ledgererrors.AsLedgerError(err); lerr != nil {
		if v, ok := lerr.Context["violation"]; ok {
			reason = fmt.Sprint(v)
		}
	}
	monitoring.RecordRiskBlock(reason)
	l.logger.LogRiskBlock(err.Error())
	if l.notifier != nil {
		if nerr := l.notifier.SendAlert(notifications.LevelWarning, "Trade blocked: "+err.Error()); nerr != nil {
			l.logger.LogError("notify risk block", nerr)
		}
	}
	return err
}

func (l *Ledger) save(account string, state *trading.TradingState) error {
	if l.backupOnSave && state.Version > 0 {
		if b, ok := l.store.(Backupper); ok {
			if _, err := b.Backup(account); err != nil {
				return err
			}
		}
	}

	if err := l.store.Save(account, state); err != nil {
		return err
	}

	l.logger.LogStateSaved(state.Version, len(state.Trades), len(state.OpenPositions))
	if l.health != nil {
		l.health.RecordSave()
	}
	return nil
}

func (l *Ledger) afterClose(account string, state trading.TradingState, trade trading.ClosedTrade) {
	l.logger.LogTradeClosed(trade.ID, string(trade.Outcome), trade.PnL, state.CurrentEquity, state.DailyStats.PnL)
	monitoring.RecordTradeClosed(string(trade.Outcome), trade.PnL)
	if l.health != nil {
		l.health.RecordTrade()
	}
	l.publish(account, state)
}

func (l *Ledger) publish(account string, state trading.TradingState) {
	monitoring.UpdateAccount(logger.SafeName(account), state.CurrentEquity, state.DailyStats.PnL, len(state.OpenPositions))
}

// fail records err for monitoring and returns it unchanged. Risk blocks are
// expected outcomes and are counted separately.
func (l *Ledger) fail(err error) error {
	category := ledgererrors.CategoryOf(err)
	if category == ledgererrors.ErrorCategoryRiskLimit {
		return err
	}
	if category == "" {
		category = "UNKNOWN"
	}
	monitoring.RecordError(string(category))
	if l.health != nil && category == ledgererrors.ErrorCategoryStorage {
		l.health.SetStoreStatus(false)
	}
	l.logger.LogError(component, err)
	return err
}
