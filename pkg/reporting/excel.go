package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

const (
	tradesSheet  = "Trades"
	summarySheet = "Summary"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteTradesXLSX writes a workbook with a Trades journal and a Summary sheet
func (r *DefaultExcelReporter) WriteTradesXLSX(state trading.TradingState, path string) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, state, styles); err != nil {
		return err
	}
	if err := r.writeSummarySheet(fx, state, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// WriteTradesXLSX is the package-level convenience wrapper
func WriteTradesXLSX(state trading.TradingState, path string) error {
	return NewDefaultExcelReporter().WriteTradesXLSX(state, path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	thin := func(color string) []excelize.Border {
		return []excelize.Border{
			{Type: "left", Color: color, Style: 1},
			{Type: "right", Color: color, Style: 1},
			{Type: "top", Color: color, Style: 1},
			{Type: "bottom", Color: color, Style: 1},
		}
	}

	// Header style - Dark blue background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin("000000"),
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thin("E0E0E0"),
	})
	if err != nil {
		return styles, err
	}

	// Percentages are stored as whole numbers (5 means 5%)
	customPct := `0.00"%"`
	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &customPct,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       thin("E0E0E0"),
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: thin("E0E0E0")})
	if err != nil {
		return styles, err
	}

	styles.WinStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "006100"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border: thin("E0E0E0"),
	})
	if err != nil {
		return styles, err
	}

	styles.LossStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "9C0006"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border: thin("E0E0E0"),
	})
	if err != nil {
		return styles, err
	}

	styles.SummaryStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Border: thin("B4C6E7"),
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, state trading.TradingState, styles ExcelStyles) error {
	widths := []float64{38, 14, 12, 10, 12, 12, 12, 20, 20, 11, 12, 14}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := fx.SetColWidth(tradesSheet, col, col, w); err != nil {
			return err
		}
	}

	for i, h := range journalHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(tradesSheet, cell, h)
		fx.SetCellStyle(tradesSheet, cell, cell, styles.HeaderStyle)
	}

	for i, row := range journalRows(state) {
		n := i + 2
		t := row.Trade
		values := []interface{}{
			t.ID,
			t.Signal.ID,
			t.Signal.Instrument,
			string(t.Signal.Direction),
			t.Signal.Entry,
			t.Signal.StopLoss,
			t.Signal.TakeProfit,
			t.OpenedAt.Format("2006-01-02 15:04:05"),
			t.ClosedAt.Format("2006-01-02 15:04:05"),
			string(t.Outcome),
			t.PnL,
			row.EquityAfter,
		}
		start, _ := excelize.CoordinatesToCellName(1, n)
		if err := fx.SetSheetRow(tradesSheet, start, &values); err != nil {
			return err
		}

		end, _ := excelize.CoordinatesToCellName(len(values), n)
		fx.SetCellStyle(tradesSheet, start, end, styles.BaseStyle)

		outcomeCell, _ := excelize.CoordinatesToCellName(10, n)
		switch t.Outcome {
		case trading.OutcomeWin:
			fx.SetCellStyle(tradesSheet, outcomeCell, outcomeCell, styles.WinStyle)
		case trading.OutcomeLoss:
			fx.SetCellStyle(tradesSheet, outcomeCell, outcomeCell, styles.LossStyle)
		}

		pnlCell, _ := excelize.CoordinatesToCellName(11, n)
		fx.SetCellStyle(tradesSheet, pnlCell, end, styles.CurrencyStyle)
	}

	if len(state.Trades) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(journalHeaders), len(state.Trades)+1)
		if err := fx.AutoFilter(tradesSheet, "A1:"+last, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}

	return fx.SetPanes(tradesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

type summaryLine struct {
	label string
	value interface{}
	style func(ExcelStyles) int
}

func currency(s ExcelStyles) int { return s.CurrencyStyle }
func percent(s ExcelStyles) int  { return s.PercentStyle }
func base(s ExcelStyles) int     { return s.BaseStyle }

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, state trading.TradingState, styles ExcelStyles) error {
	m := state.PerformanceMetrics
	s := state.RiskSettings

	sections := []struct {
		title string
		lines []summaryLine
	}{
		{"Account", []summaryLine{
			{"Initial Equity", state.InitialEquity, currency},
			{"Current Equity", state.CurrentEquity, currency},
			{"Total PnL", m.TotalPnL, currency},
			{"Open Positions", len(state.OpenPositions), base},
		}},
		{"Performance", []summaryLine{
			{"Total Trades", m.TotalTrades, base},
			{"Winning Trades", m.WinningTrades, base},
			{"Losing Trades", m.LosingTrades, base},
			{"Win Rate", m.WinRate * 100, percent},
			{"Gross Profit", m.GrossProfit, currency},
			{"Gross Loss", m.GrossLoss, currency},
			{"Average Win", m.AverageWin, currency},
			{"Average Loss", m.AverageLoss, currency},
			{"Profit Factor", m.ProfitFactor, base},
			{"Max Drawdown", m.MaxDrawdown, currency},
			{"Max Drawdown %", m.MaxDrawdownPercent, percent},
			{"Current Drawdown", m.CurrentDrawdown, currency},
			{"Current Drawdown %", m.CurrentDrawdownPercent, percent},
			{"Consecutive Wins", m.ConsecutiveWins, base},
			{"Consecutive Losses", m.ConsecutiveLosses, base},
		}},
		{"Trading Day", []summaryLine{
			{"Date", state.DailyStats.Date, base},
			{"Daily PnL", state.DailyStats.PnL, currency},
			{"Daily Trades", state.DailyStats.Trades, base},
			{"Day Start Equity", state.DailyStats.InitialEquity, currency},
		}},
		{"Risk Plan", []summaryLine{
			{"Risk Per Trade", s.RiskPerTrade, percent},
			{"Daily Loss Limit", s.DailyLossLimit, percent},
			{"Consecutive Losses Limit", s.ConsecutiveLossesLimit, base},
		}},
	}

	fx.SetColWidth(summarySheet, "A", "A", 28)
	fx.SetColWidth(summarySheet, "B", "B", 18)

	row := 1
	for _, section := range sections {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(2, row)
		fx.SetCellValue(summarySheet, cell, section.title)
		if err := fx.MergeCell(summarySheet, cell, end); err != nil {
			return err
		}
		fx.SetCellStyle(summarySheet, cell, end, styles.HeaderStyle)
		row++

		for _, line := range section.lines {
			label, _ := excelize.CoordinatesToCellName(1, row)
			value, _ := excelize.CoordinatesToCellName(2, row)
			fx.SetCellValue(summarySheet, label, line.label)
			fx.SetCellStyle(summarySheet, label, label, styles.SummaryStyle)
			fx.SetCellValue(summarySheet, value, line.value)
			fx.SetCellStyle(summarySheet, value, value, line.style(styles))
			row++
		}
		row++
	}
	return nil
}
