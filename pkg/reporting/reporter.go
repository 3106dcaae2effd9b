package reporting

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ducminhle1904/prop-ledger/internal/risk"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

// DefaultReporter implements the complete Reporter interface
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	paths   *DefaultPathManager
}

func NewDefaultReporter(out io.Writer) *DefaultReporter {
	return &DefaultReporter{
		console: NewConsoleReporter(out),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		paths:   NewDefaultPathManager(),
	}
}

// Console output methods
func (r *DefaultReporter) OutputSummary(account string, state trading.TradingState) {
	r.console.OutputSummary(account, state)
}

func (r *DefaultReporter) OutputTrades(state trading.TradingState, limit int) {
	r.console.OutputTrades(state, limit)
}

func (r *DefaultReporter) OutputOpenPositions(state trading.TradingState) {
	r.console.OutputOpenPositions(state)
}

func (r *DefaultReporter) OutputViolations(violations []risk.RiskViolation) {
	r.console.OutputViolations(violations)
}

// File output methods
func (r *DefaultReporter) WriteTradesCSV(state trading.TradingState, path string) error {
	return r.csv.WriteTradesCSV(state, path)
}

func (r *DefaultReporter) WriteTradesXLSX(state trading.TradingState, path string) error {
	return r.excel.WriteTradesXLSX(state, path)
}

func (r *DefaultReporter) WriteStateJSON(state trading.TradingState, path string) error {
	return WriteStateJSON(state, path)
}

// Path management methods
func (r *DefaultReporter) GetDefaultOutputDir(account string) string {
	return r.paths.GetDefaultOutputDir(account)
}

func (r *DefaultReporter) EnsureDirectoryExists(path string) error {
	return r.paths.EnsureDirectoryExists(path)
}

// Export picks the writer from the file extension: .csv, .xlsx or .json
func (r *DefaultReporter) Export(state trading.TradingState, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return r.WriteTradesCSV(state, path)
	case ".json":
		return r.WriteStateJSON(state, path)
	default:
		return fmt.Errorf("unsupported export format %q (want .csv, .xlsx or .json)", filepath.Ext(path))
	}
}
