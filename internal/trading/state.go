package trading

import (
	"fmt"
	"math"
	"time"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
)

// equityTolerance absorbs float rounding when checking equity conservation
const equityTolerance = 1e-6

// NewTradingState creates the onboarding state for an account of the given size
func NewTradingState(initialEquity float64, settings RiskSettings, now time.Time, loc *time.Location) TradingState {
	return TradingState{
		InitialEquity: initialEquity,
		CurrentEquity: initialEquity,
		Trades:        []ClosedTrade{},
		OpenPositions: []OpenPosition{},
		RiskSettings:  settings,
		DailyStats: DailyStats{
			InitialEquity: initialEquity,
			Date:          DayKey(now, loc),
		},
	}
}

// DayKey returns the calendar day of t in loc as YYYY-MM-DD
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// Clone returns a copy that shares no slice storage with s
func (s TradingState) Clone() TradingState {
	out := s
	out.Trades = append(make([]ClosedTrade, 0, len(s.Trades)+1), s.Trades...)
	out.OpenPositions = append(make([]OpenPosition, 0, len(s.OpenPositions)+1), s.OpenPositions...)
	return out
}

// FindOpenPosition returns the index of the open position with id, or -1
func (s TradingState) FindOpenPosition(id string) int {
	for i, p := range s.OpenPositions {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// HasID reports whether id is used by an open position or a closed trade
func (s TradingState) HasID(id string) bool {
	if s.FindOpenPosition(id) >= 0 {
		return true
	}
	for _, t := range s.Trades {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants every persisted state must satisfy
func Validate(s TradingState) error {
	fail := func(format string, args ...interface{}) error {
		return ledgererrors.NewValidationError("trading_state", "validate", fmt.Sprintf(format, args...))
	}

	if s.InitialEquity <= 0 || math.IsNaN(s.InitialEquity) || math.IsInf(s.InitialEquity, 0) {
		return fail("initial equity must be positive, got %.2f", s.InitialEquity)
	}

	seen := make(map[string]struct{}, len(s.Trades)+len(s.OpenPositions))
	sum := 0.0
	for _, t := range s.Trades {
		if t.ID == "" {
			return fail("closed trade without id")
		}
		if _, dup := seen[t.ID]; dup {
			return fail("duplicate trade id %s", t.ID)
		}
		if !t.Outcome.Valid() {
			return fail("trade %s has unknown outcome %q", t.ID, t.Outcome)
		}
		seen[t.ID] = struct{}{}
		sum += t.PnL
	}
	for _, p := range s.OpenPositions {
		if p.ID == "" {
			return fail("open position without id")
		}
		if _, dup := seen[p.ID]; dup {
			return fail("position id %s is both open and closed, or duplicated", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	if math.Abs(s.CurrentEquity-(s.InitialEquity+sum)) > equityTolerance {
		return fail("current equity %.2f does not match initial equity %.2f plus realized pnl %.2f",
			s.CurrentEquity, s.InitialEquity, sum)
	}

	m := s.PerformanceMetrics
	if m.TotalTrades != len(s.Trades) {
		return fail("metrics count %d trades, history has %d", m.TotalTrades, len(s.Trades))
	}
	if m.WinningTrades+m.LosingTrades > m.TotalTrades {
		return fail("wins %d + losses %d exceed total %d", m.WinningTrades, m.LosingTrades, m.TotalTrades)
	}
	if m.ConsecutiveWins > 0 && m.ConsecutiveLosses > 0 {
		return fail("win and loss streaks cannot both be active")
	}

	return nil
}
