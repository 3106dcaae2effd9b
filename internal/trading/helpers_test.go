package trading

import (
	"fmt"
	"time"
)

var testEpoch = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// newTestManager returns a manager with a ticking clock and sequential ids
func newTestManager() *TradeManager {
	tick := 0
	seq := 0
	return NewTradeManager(
		WithClock(func() time.Time {
			tick++
			return testEpoch.Add(time.Duration(tick) * time.Minute)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("pos-%d", seq)
		}),
	)
}

func newTestState(equity float64) TradingState {
	return NewTradingState(equity, RiskSettings{
		RiskPerTrade:           1,
		DailyLossLimit:         5,
		ConsecutiveLossesLimit: 3,
	}, testEpoch, time.UTC)
}

func testSignal(name string) Signal {
	return Signal{
		ID:         name,
		Instrument: "EURUSD",
		Direction:  DirectionLong,
		Entry:      1.0850,
		StopLoss:   1.0820,
		TakeProfit: 1.0910,
		CreatedAt:  testEpoch,
	}
}

func pnl(v float64) *float64 { return &v }

// takeTrade mirrors the dashboard convention: open then settle immediately
func takeTrade(m *TradeManager, s TradingState, sig Signal, outcome Outcome, p float64) (TradingState, error) {
	opened := m.OpenTrade(s, sig)
	id := opened.OpenPositions[len(opened.OpenPositions)-1].ID
	return m.CloseTrade(opened, id, outcome, pnl(p))
}
