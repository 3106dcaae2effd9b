package trading

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
)

const component = "trade_manager"

// maxIDAttempts bounds regeneration when a custom id source repeats itself
const maxIDAttempts = 8

// TradeManager applies position transitions to a TradingState. It holds no
// account data of its own, only the clock and id source used to stamp new records.
type TradeManager struct {
	now   func() time.Time
	newID func() string
}

// Option configures a TradeManager
type Option func(*TradeManager)

// WithClock overrides the time source used for openedAt/closedAt
func WithClock(now func() time.Time) Option {
	return func(m *TradeManager) { m.now = now }
}

// WithIDGenerator overrides the position id source
func WithIDGenerator(newID func() string) Option {
	return func(m *TradeManager) { m.newID = newID }
}

// NewTradeManager creates a trade manager using UTC wall time and random UUIDs by default
func NewTradeManager(opts ...Option) *TradeManager {
	m := &TradeManager{
		now:   func() time.Time { return time.Now().UTC().Round(0) },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultManager = NewTradeManager()

// OpenTrade opens a position on signal using the default manager
func OpenTrade(state TradingState, signal Signal) TradingState {
	return defaultManager.OpenTrade(state, signal)
}

// CloseTrade settles an open position using the default manager
func CloseTrade(state TradingState, positionID string, outcome Outcome, pnl *float64) (TradingState, error) {
	return defaultManager.CloseTrade(state, positionID, outcome, pnl)
}

// OpenTrade returns a copy of state with a new OpenPosition for signal appended
// to OpenPositions. Risk limits are not consulted here; callers gate first.
func (m *TradeManager) OpenTrade(state TradingState, signal Signal) TradingState {
	next := state.Clone()
	next.OpenPositions = append(next.OpenPositions, OpenPosition{
		ID:       m.uniqueID(state),
		Signal:   signal,
		OpenedAt: m.now(),
	})
	return next
}

// CloseTrade moves the open position positionID into the trade history with the
// given outcome and realized pnl (0 when nil), then recomputes equity, metrics
// and the daily counters. On error the returned state is the unchanged input.
func (m *TradeManager) CloseTrade(state TradingState, positionID string, outcome Outcome, pnl *float64) (TradingState, error) {
	realized := 0.0
	if pnl != nil {
		realized = *pnl
	}

	idx := state.FindOpenPosition(positionID)
	if idx < 0 {
		return state, ledgererrors.NewNotFoundError(component, "close_trade",
			fmt.Sprintf("position %s is not open", positionID)).
			WithContext("position_id", positionID)
	}

	if err := validateClose(outcome, realized); err != nil {
		return state, err.WithContext("position_id", positionID)
	}

	next := state.Clone()
	pos := next.OpenPositions[idx]
	next.OpenPositions = append(next.OpenPositions[:idx], next.OpenPositions[idx+1:]...)

	next.Trades = append(next.Trades, ClosedTrade{
		ID:       pos.ID,
		Signal:   pos.Signal,
		Outcome:  outcome,
		PnL:      realized,
		OpenedAt: pos.OpenedAt,
		ClosedAt: m.now(),
	})

	next.CurrentEquity = addMoney(next.CurrentEquity, realized)
	next.PerformanceMetrics = ComputeMetrics(next.InitialEquity, next.Trades)
	next.DailyStats.PnL = addMoney(next.DailyStats.PnL, realized)
	next.DailyStats.Trades++

	return next, nil
}

func validateClose(outcome Outcome, pnl float64) *ledgererrors.LedgerError {
	if !outcome.Valid() {
		return ledgererrors.NewValidationError(component, "close_trade",
			fmt.Sprintf("unknown outcome %q", outcome))
	}
	if math.IsNaN(pnl) || math.IsInf(pnl, 0) {
		return ledgererrors.NewValidationError(component, "close_trade", "pnl must be a finite number")
	}
	if outcome == OutcomeWin && pnl < 0 {
		return ledgererrors.NewValidationError(component, "close_trade",
			fmt.Sprintf("a win cannot realize negative pnl %.2f", pnl)).WithContext("outcome", outcome)
	}
	if outcome == OutcomeLoss && pnl > 0 {
		return ledgererrors.NewValidationError(component, "close_trade",
			fmt.Sprintf("a loss cannot realize positive pnl %.2f", pnl)).WithContext("outcome", outcome)
	}
	return nil
}

func (m *TradeManager) uniqueID(state TradingState) string {
	for i := 0; i < maxIDAttempts; i++ {
		if id := m.newID(); id != "" && !state.HasID(id) {
			return id
		}
	}
	// the configured source keeps colliding; random UUIDs do not
	for {
		if id := uuid.NewString(); !state.HasID(id) {
			return id
		}
	}
}

func addMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}
