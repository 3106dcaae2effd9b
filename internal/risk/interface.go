package risk

import "github.com/ducminhle1904/prop-ledger/internal/trading"

// RiskManager decides whether a new trade may be opened on an account
type RiskManager interface {
	// ShouldStopTrading reports whether any risk gate currently blocks new trades
	ShouldStopTrading(state trading.TradingState) bool

	// Check returns nil when trading is allowed, otherwise a categorized error
	// describing the first gate that blocks it
	Check(state trading.TradingState) error

	// Violations lists every gate that currently blocks trading
	Violations(state trading.TradingState) []RiskViolation
}
