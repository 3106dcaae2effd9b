package risk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

const component = "risk_manager"

// dailyLossBase returns the equity the daily loss percentage applies to
func dailyLossBase(state trading.TradingState) float64 {
	if state.DailyStats.InitialEquity > 0 {
		return state.DailyStats.InitialEquity
	}
	return state.InitialEquity
}

func validDailyLossSettings(state trading.TradingState) bool {
	limit := state.RiskSettings.DailyLossLimit
	base := dailyLossBase(state)
	if math.IsNaN(limit) || math.IsInf(limit, 0) || limit <= 0 || limit > 100 {
		return false
	}
	if math.IsNaN(base) || math.IsInf(base, 0) || base <= 0 {
		return false
	}
	return !math.IsNaN(state.DailyStats.PnL)
}

// DailyLossThreshold returns the (negative) daily pnl at which trading stops.
// ok is false when the settings cannot produce a threshold.
func DailyLossThreshold(state trading.TradingState) (threshold float64, ok bool) {
	d, ok := dailyLossThreshold(state)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func dailyLossThreshold(state trading.TradingState) (decimal.Decimal, bool) {
	if !validDailyLossSettings(state) {
		return decimal.Zero, false
	}
	limit := decimal.NewFromFloat(state.RiskSettings.DailyLossLimit)
	base := decimal.NewFromFloat(dailyLossBase(state))
	return limit.Mul(base).Div(decimal.NewFromInt(100)).Neg(), true
}

// IsDailyLossLimitReached reports whether today's realized pnl has fallen to or
// below the configured daily loss limit. Unusable settings count as reached.
func IsDailyLossLimitReached(state trading.TradingState) bool {
	threshold, ok := dailyLossThreshold(state)
	if !ok {
		return true
	}
	return decimal.NewFromFloat(state.DailyStats.PnL).LessThanOrEqual(threshold)
}

// IsConsecutiveLossLimitReached reports whether the trailing loss streak has
// hit the configured limit. A non-positive limit counts as reached.
func IsConsecutiveLossLimitReached(state trading.TradingState) bool {
	limit := state.RiskSettings.ConsecutiveLossesLimit
	if limit <= 0 {
		return true
	}
	return trading.TrailingLossStreak(state.Trades) >= limit
}

// CheckTradingAllowed runs every gate with the default manager
func CheckTradingAllowed(state trading.TradingState) error {
	return defaultManager.Check(state)
}

// PlanManager enforces the account's own risk plan (RiskSettings)
type PlanManager struct{}

var defaultManager RiskManager = NewRiskManager()

// NewRiskManager creates the risk manager that enforces RiskSettings
func NewRiskManager() *PlanManager {
	return &PlanManager{}
}

// ShouldStopTrading reports whether any gate blocks new trades
func (pm *PlanManager) ShouldStopTrading(state trading.TradingState) bool {
	return IsDailyLossLimitReached(state) || IsConsecutiveLossLimitReached(state)
}

// Violations lists the tripped gates, daily loss first
func (pm *PlanManager) Violations(state trading.TradingState) []RiskViolation {
	var violations []RiskViolation
	settings := state.RiskSettings

	if threshold, ok := DailyLossThreshold(state); !ok {
		violations = append(violations, RiskViolation{
			Type: ViolationInvalidSettings,
			Description: fmt.Sprintf("daily loss limit %.2f%% on base equity %.2f is unusable",
				settings.DailyLossLimit, dailyLossBase(state)),
			Current: state.DailyStats.PnL,
			Limit:   settings.DailyLossLimit,
		})
	} else if state.DailyStats.PnL <= threshold {
		violations = append(violations, RiskViolation{
			Type: ViolationDailyLoss,
			Description: fmt.Sprintf("daily pnl %.2f reached the %.2f%% limit (%.2f)",
				state.DailyStats.PnL, settings.DailyLossLimit, threshold),
			Current: state.DailyStats.PnL,
			Limit:   threshold,
		})
	}

	if settings.ConsecutiveLossesLimit <= 0 {
		violations = append(violations, RiskViolation{
			Type:        ViolationInvalidSettings,
			Description: fmt.Sprintf("consecutive losses limit %d must be positive", settings.ConsecutiveLossesLimit),
			Limit:       float64(settings.ConsecutiveLossesLimit),
		})
	} else if streak := trading.TrailingLossStreak(state.Trades); streak >= settings.ConsecutiveLossesLimit {
		violations = append(violations, RiskViolation{
			Type: ViolationConsecutiveLosses,
			Description: fmt.Sprintf("%d consecutive losses reached the limit of %d",
				streak, settings.ConsecutiveLossesLimit),
			Current: float64(streak),
			Limit:   float64(settings.ConsecutiveLossesLimit),
		})
	}

	return violations
}

// Check returns nil when trading is allowed. Malformed settings produce a
// VALIDATION error, a tripped limit a RISK_LIMIT error.
func (pm *PlanManager) Check(state trading.TradingState) error {
	violations := pm.Violations(state)
	if len(violations) == 0 {
		return nil
	}

	v := violations[0]
	var err *ledgererrors.LedgerError
	if v.Type == ViolationInvalidSettings {
		err = ledgererrors.NewValidationError(component, "check", v.Description)
	} else {
		err = ledgererrors.NewRiskLimitError(component, "check", v.Description)
	}
	return err.
		WithContext("violation", v.Type).
		WithContext("current", v.Current).
		WithContext("limit", v.Limit)
}
