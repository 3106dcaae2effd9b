package reporting

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

// DefaultCSVReporter writes the closed-trade journal as CSV
type DefaultCSVReporter struct{}

func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

var journalHeaders = []string{
	"Trade_ID",
	"Signal_ID",
	"Instrument",
	"Direction",
	"Entry",
	"Stop_Loss",
	"Take_Profit",
	"Opened_At",
	"Closed_At",
	"Outcome",
	"PnL",
	"Equity_After",
}

// WriteTradesCSV writes one row per closed trade with the running equity
func (r *DefaultCSVReporter) WriteTradesCSV(state trading.TradingState, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	// If the user requests an Excel file, delegate to Excel writer
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteTradesXLSX(state, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(journalHeaders); err != nil {
		return err
	}

	for _, row := range journalRows(state) {
		if err := w.Write([]string{
			row.Trade.ID,
			row.Trade.Signal.ID,
			row.Trade.Signal.Instrument,
			string(row.Trade.Signal.Direction),
			formatFloat(row.Trade.Signal.Entry),
			formatFloat(row.Trade.Signal.StopLoss),
			formatFloat(row.Trade.Signal.TakeProfit),
			row.Trade.OpenedAt.Format(time.RFC3339),
			row.Trade.ClosedAt.Format(time.RFC3339),
			string(row.Trade.Outcome),
			strconv.FormatFloat(row.Trade.PnL, 'f', 2, 64),
			strconv.FormatFloat(row.EquityAfter, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteTradesCSV is the package-level convenience wrapper
func WriteTradesCSV(state trading.TradingState, path string) error {
	return NewDefaultCSVReporter().WriteTradesCSV(state, path)
}

type journalRow struct {
	Trade       trading.ClosedTrade
	EquityAfter float64
}

func journalRows(state trading.TradingState) []journalRow {
	rows := make([]journalRow, 0, len(state.Trades))
	equity := state.InitialEquity
	for _, t := range state.Trades {
		equity += t.PnL
		rows = append(rows, journalRow{Trade: t, EquityAfter: equity})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
