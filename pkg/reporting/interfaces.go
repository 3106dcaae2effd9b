package reporting

import (
	"github.com/ducminhle1904/prop-ledger/internal/risk"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

// Package reporting renders ledger state for people: console tables and
// trade journals on disk.

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputSummary(account string, state trading.TradingState)
	OutputTrades(state trading.TradingState, limit int)
	OutputOpenPositions(state trading.TradingState)
	OutputViolations(violations []risk.RiskViolation)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTradesCSV(state trading.TradingState, path string) error
	WriteTradesXLSX(state trading.TradingState, path string) error
	WriteStateJSON(state trading.TradingState, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(account string) string
	EnsureDirectoryExists(path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
	PathManager
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
	BaseStyle     int
	WinStyle      int
	LossStyle     int
	SummaryStyle  int
}
