package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/prop-ledger/internal/risk"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

// DefaultConsoleReporter renders tables to an io.Writer (stdout by default)
type DefaultConsoleReporter struct {
	out io.Writer
}

func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return NewConsoleReporter(os.Stdout)
}

func NewConsoleReporter(out io.Writer) *DefaultConsoleReporter {
	return &DefaultConsoleReporter{out: out}
}

func (r *DefaultConsoleReporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// OutputSummary prints the account's equity, daily counters and metrics
func (r *DefaultConsoleReporter) OutputSummary(account string, state trading.TradingState) {
	m := state.PerformanceMetrics
	s := state.RiskSettings

	t := r.newTable("ACCOUNT " + strings.ToUpper(account))

	t.AppendRows([]table.Row{
		{"Initial Equity", money(state.InitialEquity)},
		{"Current Equity", money(state.CurrentEquity)},
		{"Total PnL", signedMoney(m.TotalPnL)},
		{"Open Positions", len(state.OpenPositions)},
	})

	t.AppendSeparator()

	dailyLimit := "n/a"
	if threshold, ok := risk.DailyLossThreshold(state); ok {
		dailyLimit = signedMoney(threshold)
	}
	t.AppendRows([]table.Row{
		{"Trading Day", state.DailyStats.Date},
		{"Daily PnL", signedMoney(state.DailyStats.PnL)},
		{"Daily Trades", state.DailyStats.Trades},
		{"Daily Loss Stop", dailyLimit},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"Trades", fmt.Sprintf("%d (W %d / L %d)", m.TotalTrades, m.WinningTrades, m.LosingTrades)},
		{"Win Rate", fmt.Sprintf("%.1f%%", m.WinRate*100)},
		{"Average Win", money(m.AverageWin)},
		{"Average Loss", money(m.AverageLoss)},
		{"Profit Factor", fmt.Sprintf("%.2f", m.ProfitFactor)},
		{"Max Drawdown", fmt.Sprintf("%s (%.2f%%)", money(m.MaxDrawdown), m.MaxDrawdownPercent)},
		{"Current Drawdown", fmt.Sprintf("%s (%.2f%%)", money(m.CurrentDrawdown), m.CurrentDrawdownPercent)},
		{"Streak", streak(m)},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"Risk Per Trade", fmt.Sprintf("%.2f%%", s.RiskPerTrade)},
		{"Daily Loss Limit", fmt.Sprintf("%.2f%%", s.DailyLossLimit)},
		{"Max Losing Streak", s.ConsecutiveLossesLimit},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, WidthMax: 40, Align: text.AlignRight},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

// OutputTrades prints the most recent limit closed trades, newest last.
// limit <= 0 prints all of them.
func (r *DefaultConsoleReporter) OutputTrades(state trading.TradingState, limit int) {
	trades := state.Trades
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	t := r.newTable("CLOSED TRADES")
	t.AppendHeader(table.Row{"#", "Closed", "Instrument", "Dir", "Outcome", "PnL", "Equity"})

	equity := state.CurrentEquity
	for _, tr := range trades {
		equity -= tr.PnL
	}
	offset := len(state.Trades) - len(trades)
	for i, tr := range trades {
		equity += tr.PnL
		t.AppendRow(table.Row{
			offset + i + 1,
			tr.ClosedAt.Format("2006-01-02 15:04"),
			tr.Signal.Instrument,
			strings.ToUpper(string(tr.Signal.Direction)),
			strings.ToUpper(string(tr.Outcome)),
			signedMoney(tr.PnL),
			money(equity),
		})
	}
	if len(trades) == 0 {
		t.AppendRow(table.Row{"", "no trades yet", "", "", "", "", ""})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

func (r *DefaultConsoleReporter) OutputOpenPositions(state trading.TradingState) {
	if len(state.OpenPositions) == 0 {
		fmt.Fprintln(r.out, "No open positions")
		return
	}

	t := r.newTable("OPEN POSITIONS")
	t.AppendHeader(table.Row{"ID", "Opened", "Instrument", "Dir", "Entry", "Stop", "Target"})
	for _, p := range state.OpenPositions {
		t.AppendRow(table.Row{
			p.ID,
			p.OpenedAt.Format("2006-01-02 15:04"),
			p.Signal.Instrument,
			strings.ToUpper(string(p.Signal.Direction)),
			p.Signal.Entry,
			p.Signal.StopLoss,
			p.Signal.TakeProfit,
		})
	}
	t.Render()
	fmt.Fprintln(r.out)
}

// OutputViolations lists the tripped risk gates, if any
func (r *DefaultConsoleReporter) OutputViolations(violations []risk.RiskViolation) {
	if len(violations) == 0 {
		fmt.Fprintln(r.out, "Trading allowed: no risk limit reached")
		return
	}

	t := r.newTable("RISK LIMITS REACHED")
	t.AppendHeader(table.Row{"Gate", "Detail"})
	for _, v := range violations {
		t.AppendRow(table.Row{v.Type, v.Description})
	}
	t.Render()
	fmt.Fprintln(r.out)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func signedMoney(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}

func streak(m trading.PerformanceMetrics) string {
	switch {
	case m.ConsecutiveWins > 0:
		return fmt.Sprintf("%d win(s)", m.ConsecutiveWins)
	case m.ConsecutiveLosses > 0:
		return fmt.Sprintf("%d loss(es)", m.ConsecutiveLosses)
	default:
		return "none"
	}
}
