package trading

import (
	"github.com/shopspring/decimal"
)

// ComputeMetrics folds the full closed-trade history, in order, into PerformanceMetrics.
//
// Gross profit and loss are taken per outcome: winning trades feed GrossProfit,
// losing trades feed GrossLoss (as a magnitude), breakeven trades feed neither but
// still move the equity curve. ProfitFactor is 0 rather than +Inf when there are
// no losses so dashboards always have a finite number to show.
func ComputeMetrics(initialEquity float64, trades []ClosedTrade) PerformanceMetrics {
	var m PerformanceMetrics
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return m
	}

	total := decimal.Zero
	grossProfit := decimal.Zero
	grossLoss := decimal.Zero

	equity := decimal.NewFromFloat(initialEquity)
	peak := equity
	maxDD := decimal.Zero
	maxDDPct := 0.0

	for _, t := range trades {
		pnl := decimal.NewFromFloat(t.PnL)
		total = total.Add(pnl)

		switch t.Outcome {
		case OutcomeWin:
			m.WinningTrades++
			grossProfit = grossProfit.Add(pnl)
			m.ConsecutiveWins++
			m.ConsecutiveLosses = 0
		case OutcomeLoss:
			m.LosingTrades++
			grossLoss = grossLoss.Add(pnl.Abs())
			m.ConsecutiveLosses++
			m.ConsecutiveWins = 0
		default:
			m.ConsecutiveWins = 0
			m.ConsecutiveLosses = 0
		}

		equity = equity.Add(pnl)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		dd := peak.Sub(equity)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
		if peak.IsPositive() {
			if pct := dd.Div(peak).InexactFloat64() * 100; pct > maxDDPct {
				maxDDPct = pct
			}
		}
	}

	m.TotalPnL = total.InexactFloat64()
	m.GrossProfit = grossProfit.InexactFloat64()
	m.GrossLoss = grossLoss.InexactFloat64()
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)

	if m.WinningTrades > 0 {
		m.AverageWin = grossProfit.Div(decimal.NewFromInt(int64(m.WinningTrades))).InexactFloat64()
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = grossLoss.Div(decimal.NewFromInt(int64(m.LosingTrades))).InexactFloat64()
	}
	if grossLoss.IsPositive() {
		m.ProfitFactor = grossProfit.Div(grossLoss).InexactFloat64()
	}

	current := peak.Sub(equity)
	m.MaxDrawdown = maxDD.InexactFloat64()
	m.CurrentDrawdown = current.InexactFloat64()
	m.MaxDrawdownPercent = maxDDPct
	if peak.IsPositive() {
		m.CurrentDrawdownPercent = current.Div(peak).InexactFloat64() * 100
	}

	return m
}

// TrailingLossStreak counts consecutive losses at the tail of trades.
// A win or breakeven ends the streak.
func TrailingLossStreak(trades []ClosedTrade) int {
	n := 0
	for i := len(trades) - 1; i >= 0; i-- {
		if trades[i].Outcome != OutcomeLoss {
			break
		}
		n++
	}
	return n
}
