package trading

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
)

func TestOpenTrade_AppendsPositionWithoutMutatingInput(t *testing.T) {
	m := newTestManager()
	s := newTestState(100000)

	next := m.OpenTrade(s, testSignal("S1"))

	assert.Empty(t, s.OpenPositions, "input state must not change")
	require.Len(t, next.OpenPositions, 1)
	assert.Equal(t, "pos-1", next.OpenPositions[0].ID)
	assert.Equal(t, "S1", next.OpenPositions[0].Signal.ID)
	assert.False(t, next.OpenPositions[0].OpenedAt.IsZero())

	assert.Equal(t, s.CurrentEquity, next.CurrentEquity)
	assert.Equal(t, s.PerformanceMetrics, next.PerformanceMetrics)
	assert.Equal(t, s.DailyStats, next.DailyStats)
	assert.Empty(t, next.Trades)
}

func TestOpenTrade_TailOrderAndUniqueIDs(t *testing.T) {
	m := newTestManager()
	s := newTestState(50000)
	for i := 0; i < 5; i++ {
		s = m.OpenTrade(s, testSignal("S"))
	}

	require.Len(t, s.OpenPositions, 5)
	ids := map[string]bool{}
	for i, p := range s.OpenPositions {
		assert.False(t, ids[p.ID], "duplicate id %s", p.ID)
		ids[p.ID] = true
		if i > 0 {
			assert.True(t, p.OpenedAt.After(s.OpenPositions[i-1].OpenedAt))
		}
	}
}

func TestOpenTrade_RegeneratesCollidingIDs(t *testing.T) {
	m := NewTradeManager(WithIDGenerator(func() string { return "fixed" }))
	s := newTestState(10000)

	s = m.OpenTrade(s, testSignal("A"))
	s = m.OpenTrade(s, testSignal("B"))

	require.Len(t, s.OpenPositions, 2)
	assert.Equal(t, "fixed", s.OpenPositions[0].ID)
	assert.NotEqual(t, "fixed", s.OpenPositions[1].ID)
}

func TestCloseTrade_ScenarioA_Win(t *testing.T) {
	m := newTestManager()
	s, err := takeTrade(m, newTestState(100000), testSignal("S1"), OutcomeWin, 500)
	require.NoError(t, err)

	assert.Equal(t, 100500.0, s.CurrentEquity)
	require.Len(t, s.Trades, 1)
	assert.Equal(t, 500.0, s.Trades[0].PnL)
	assert.Equal(t, OutcomeWin, s.Trades[0].Outcome)
	assert.Empty(t, s.OpenPositions)

	pm := s.PerformanceMetrics
	assert.Equal(t, 1.0, pm.WinRate)
	assert.Equal(t, 1, pm.WinningTrades)
	assert.Equal(t, 1, pm.TotalTrades)
	assert.Equal(t, 0.0, pm.ProfitFactor, "no losses yet, profit factor stays finite")

	assert.Equal(t, 500.0, s.DailyStats.PnL)
	assert.Equal(t, 1, s.DailyStats.Trades)
}

func TestCloseTrade_ScenarioB_LossAfterWin(t *testing.T) {
	m := newTestManager()
	s, err := takeTrade(m, newTestState(100000), testSignal("S1"), OutcomeWin, 500)
	require.NoError(t, err)
	s, err = takeTrade(m, s, testSignal("S2"), OutcomeLoss, -1000)
	require.NoError(t, err)

	assert.Equal(t, 99500.0, s.CurrentEquity)
	pm := s.PerformanceMetrics
	assert.Equal(t, 0.5, pm.ProfitFactor)
	assert.Equal(t, 1, pm.ConsecutiveLosses)
	assert.Equal(t, 0, pm.ConsecutiveWins)
	assert.Equal(t, 0.5, pm.WinRate)
	assert.Equal(t, 1000.0, pm.MaxDrawdown)
	assert.Equal(t, 1000.0, pm.CurrentDrawdown)
	assert.Equal(t, -500.0, s.DailyStats.PnL)
}

func TestCloseTrade_NotFoundLeavesStateUnchanged(t *testing.T) {
	m := newTestManager()
	s := m.OpenTrade(newTestState(100000), testSignal("S1"))

	next, err := m.CloseTrade(s, "missing", OutcomeWin, pnl(10))

	require.Error(t, err)
	assert.True(t, ledgererrors.IsNotFound(err))
	assert.Equal(t, s, next)
}

func TestCloseTrade_NoDoubleClose(t *testing.T) {
	m := newTestManager()
	s := m.OpenTrade(newTestState(100000), testSignal("S1"))
	id := s.OpenPositions[0].ID

	s, err := m.CloseTrade(s, id, OutcomeLoss, pnl(-200))
	require.NoError(t, err)

	again, err := m.CloseTrade(s, id, OutcomeLoss, pnl(-200))
	require.Error(t, err)
	assert.True(t, ledgererrors.IsNotFound(err))
	assert.Len(t, again.Trades, 1)
	assert.Equal(t, 99800.0, again.CurrentEquity)
}

func TestCloseTrade_UnknownIDReportedBeforeBadInput(t *testing.T) {
	m := newTestManager()
	s := m.OpenTrade(newTestState(100000), testSignal("S1"))
	id := s.OpenPositions[0].ID

	s, err := m.CloseTrade(s, id, OutcomeWin, pnl(300))
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      string
		outcome Outcome
		pnl     *float64
	}{
		{"closed id with sign mismatch", id, OutcomeWin, pnl(-50)},
		{"closed id with unknown outcome", id, Outcome("draw"), nil},
		{"never opened id with loss above zero", "pos-404", OutcomeLoss, pnl(25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := m.CloseTrade(s, tt.id, tt.outcome, tt.pnl)
			require.Error(t, err)
			assert.True(t, ledgererrors.IsNotFound(err))
			assert.Equal(t, s, next)
		})
	}
}

func TestCloseTrade_Validation(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		pnl     *float64
	}{
		{"win with negative pnl", OutcomeWin, pnl(-1)},
		{"loss with positive pnl", OutcomeLoss, pnl(1)},
		{"unknown outcome", Outcome("scratch"), pnl(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager()
			s := m.OpenTrade(newTestState(100000), testSignal("S1"))

			next, err := m.CloseTrade(s, s.OpenPositions[0].ID, tt.outcome, tt.pnl)

			require.Error(t, err)
			assert.True(t, ledgererrors.IsValidation(err))
			assert.Equal(t, s, next)
		})
	}
}

func TestCloseTrade_MissingPnLDefaultsToZero(t *testing.T) {
	m := newTestManager()
	s := m.OpenTrade(newTestState(25000), testSignal("S1"))

	s, err := m.CloseTrade(s, s.OpenPositions[0].ID, OutcomeWin, nil)
	require.NoError(t, err)

	assert.Equal(t, 25000.0, s.CurrentEquity)
	assert.Equal(t, 0.0, s.Trades[0].PnL)
	assert.Equal(t, 1, s.PerformanceMetrics.WinningTrades)
	assert.Equal(t, 1, s.PerformanceMetrics.ConsecutiveWins)
}

func TestCloseTrade_KeepsOtherOpenPositions(t *testing.T) {
	m := newTestManager()
	s := newTestState(100000)
	s = m.OpenTrade(s, testSignal("A"))
	s = m.OpenTrade(s, testSignal("B"))
	s = m.OpenTrade(s, testSignal("C"))

	next, err := m.CloseTrade(s, "pos-2", OutcomeBreakeven, pnl(0))
	require.NoError(t, err)

	require.Len(t, next.OpenPositions, 2)
	assert.Equal(t, "pos-1", next.OpenPositions[0].ID)
	assert.Equal(t, "pos-3", next.OpenPositions[1].ID)
	assert.Len(t, s.OpenPositions, 3, "input state must not change")
	assert.Equal(t, next.Trades[0].OpenedAt, s.OpenPositions[1].OpenedAt)
}

// TestTransitions_RandomSequencesHoldInvariants drives random open/close
// sequences and checks equity conservation, disjointness and metric counts
// after every step.
func TestTransitions_RandomSequencesHoldInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	outcomes := []Outcome{OutcomeWin, OutcomeLoss, OutcomeBreakeven}

	for run := 0; run < 50; run++ {
		m := newTestManager()
		s := newTestState(100000)
		closedIDs := map[string]int{}
		realized := 0.0

		for step := 0; step < 40; step++ {
			if len(s.OpenPositions) == 0 || rng.Intn(3) == 0 {
				s = m.OpenTrade(s, testSignal("R"))
			} else {
				p := s.OpenPositions[rng.Intn(len(s.OpenPositions))]
				o := outcomes[rng.Intn(len(outcomes))]
				amount := float64(rng.Intn(200000)) / 100
				switch o {
				case OutcomeLoss:
					amount = -amount
				case OutcomeBreakeven:
					amount = 0
				}

				var err error
				s, err = m.CloseTrade(s, p.ID, o, pnl(amount))
				require.NoError(t, err)
				closedIDs[p.ID]++
				realized += amount
			}

			require.NoError(t, Validate(s))
			assert.InDelta(t, s.InitialEquity+realized, s.CurrentEquity, 1e-6)
			assert.Equal(t, len(s.Trades), s.PerformanceMetrics.TotalTrades)
			assert.LessOrEqual(t, s.PerformanceMetrics.WinningTrades+s.PerformanceMetrics.LosingTrades,
				s.PerformanceMetrics.TotalTrades)
			for _, p := range s.OpenPositions {
				assert.Zero(t, closedIDs[p.ID], "position %s is open and closed", p.ID)
			}
		}

		for id, n := range closedIDs {
			assert.Equal(t, 1, n, "position %s closed %d times", id, n)
		}
	}
}
