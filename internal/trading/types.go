package trading

import (
	"fmt"
	"time"
)

// Outcome is the self-reported result of a settled trade
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
)

// Valid reports whether o is one of the known outcomes
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeWin, OutcomeLoss, OutcomeBreakeven:
		return true
	default:
		return false
	}
}

// ParseOutcome converts user input into an Outcome
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown outcome %q (want win, loss or breakeven)", s)
	}
	return o, nil
}

// Direction of a proposed trade
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Signal is an externally supplied trade proposal. The ledger never modifies it.
type Signal struct {
	ID         string    `json:"id"`
	Instrument string    `json:"instrument"`
	Direction  Direction `json:"direction"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stopLoss"`
	TakeProfit float64   `json:"takeProfit"`
	CreatedAt  time.Time `json:"createdAt"`
}

// OpenPosition is a trade that was entered but has no outcome yet
type OpenPosition struct {
	ID       string    `json:"id"`
	Signal   Signal    `json:"signal"`
	OpenedAt time.Time `json:"openedAt"`
}

// ClosedTrade is a settled position. Immutable once appended to the history.
type ClosedTrade struct {
	ID       string    `json:"id"`
	Signal   Signal    `json:"signal"`
	Outcome  Outcome   `json:"outcome"`
	PnL      float64   `json:"pnl"`
	OpenedAt time.Time `json:"openedAt"`
	ClosedAt time.Time `json:"closedAt"`
}

// RiskSettings is the account's risk plan. Percent fields are 0-100.
type RiskSettings struct {
	RiskPerTrade           float64 `json:"riskPerTrade"`
	DailyLossLimit         float64 `json:"dailyLossLimit"`
	ConsecutiveLossesLimit int     `json:"consecutiveLossesLimit"`
}

// DailyStats accumulates the current trading day
type DailyStats struct {
	PnL           float64 `json:"pnl"`
	Trades        int     `json:"trades"`
	InitialEquity float64 `json:"initialEquity"`
	Date          string  `json:"date"`
}

// PerformanceMetrics is derived from the closed-trade history and never edited directly
type PerformanceMetrics struct {
	TotalPnL               float64 `json:"totalPnl"`
	WinRate                float64 `json:"winRate"`
	TotalTrades            int     `json:"totalTrades"`
	WinningTrades          int     `json:"winningTrades"`
	LosingTrades           int     `json:"losingTrades"`
	AverageWin             float64 `json:"averageWin"`
	AverageLoss            float64 `json:"averageLoss"`
	ProfitFactor           float64 `json:"profitFactor"`
	MaxDrawdown            float64 `json:"maxDrawdown"`
	CurrentDrawdown        float64 `json:"currentDrawdown"`
	MaxDrawdownPercent     float64 `json:"maxDrawdownPercent"`
	CurrentDrawdownPercent float64 `json:"currentDrawdownPercent"`
	GrossProfit            float64 `json:"grossProfit"`
	GrossLoss              float64 `json:"grossLoss"`
	ConsecutiveWins        int     `json:"consecutiveWins"`
	ConsecutiveLosses      int     `json:"consecutiveLosses"`
}

// TradingState is the per-account aggregate. It is treated as a value: every
// transition returns a new TradingState and leaves its input untouched.
type TradingState struct {
	// Version is owned by the persistence layer and bumped on every save
	Version int64 `json:"version"`

	InitialEquity      float64            `json:"initialEquity"`
	CurrentEquity      float64            `json:"currentEquity"`
	Trades             []ClosedTrade      `json:"trades"`
	OpenPositions      []OpenPosition     `json:"openPositions"`
	RiskSettings       RiskSettings       `json:"riskSettings"`
	PerformanceMetrics PerformanceMetrics `json:"performanceMetrics"`
	DailyStats         DailyStats         `json:"dailyStats"`
}
