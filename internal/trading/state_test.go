package trading

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
)

func TestNewTradingState(t *testing.T) {
	s := newTestState(100000)

	assert.Equal(t, 100000.0, s.InitialEquity)
	assert.Equal(t, 100000.0, s.CurrentEquity)
	assert.NotNil(t, s.Trades)
	assert.NotNil(t, s.OpenPositions)
	assert.Equal(t, PerformanceMetrics{}, s.PerformanceMetrics)
	assert.Equal(t, DailyStats{InitialEquity: 100000, Date: "2025-03-14"}, s.DailyStats)
	assert.NoError(t, Validate(s))
}

func TestTradingState_JSONRoundTrip(t *testing.T) {
	m := newTestManager()
	s, err := takeTrade(m, newTestState(100000), testSignal("S1"), OutcomeWin, 512.37)
	require.NoError(t, err)
	s, err = takeTrade(m, s, testSignal("S2"), OutcomeLoss, -1000.1)
	require.NoError(t, err)
	s = m.OpenTrade(s, testSignal("S3"))
	s.Version = 7

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded TradingState
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, s, decoded)
}

func TestTradingState_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(newTestState(1000))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"initialEquity", "currentEquity", "trades", "openPositions",
		"riskSettings", "performanceMetrics", "dailyStats",
	} {
		assert.Contains(t, raw, key)
	}
	assert.JSONEq(t, `[]`, string(raw["trades"]))
}

func TestValidate_Violations(t *testing.T) {
	base := func() TradingState {
		m := newTestManager()
		s, err := takeTrade(m, newTestState(10000), testSignal("S1"), OutcomeWin, 100)
		require.NoError(t, err)
		return m.OpenTrade(s, testSignal("S2"))
	}

	tests := []struct {
		name   string
		mutate func(*TradingState)
	}{
		{"equity drift", func(s *TradingState) { s.CurrentEquity += 1 }},
		{"open and closed overlap", func(s *TradingState) { s.OpenPositions[0].ID = s.Trades[0].ID }},
		{"metrics count", func(s *TradingState) { s.PerformanceMetrics.TotalTrades = 3 }},
		{"non-positive initial equity", func(s *TradingState) { s.InitialEquity = 0 }},
		{"unknown outcome", func(s *TradingState) { s.Trades[0].Outcome = "maybe" }},
		{"both streaks", func(s *TradingState) { s.PerformanceMetrics.ConsecutiveLosses = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			require.NoError(t, Validate(s))
			tt.mutate(&s)
			err := Validate(s)
			require.Error(t, err)
			assert.True(t, ledgererrors.IsValidation(err))
		})
	}
}

func TestDayKey_UsesLocation(t *testing.T) {
	ny := time.FixedZone("EST", -5*60*60)

	ts := time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-15", DayKey(ts, time.UTC))
	assert.Equal(t, "2025-03-14", DayKey(ts, ny))
	assert.Equal(t, "2025-03-15", DayKey(ts, nil))
}
