package risk

// Violation types
const (
	ViolationDailyLoss         = "daily_loss_limit"
	ViolationConsecutiveLosses = "consecutive_losses_limit"
	ViolationInvalidSettings   = "invalid_risk_settings"
)

// RiskViolation describes one tripped risk gate
type RiskViolation struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Current     float64 `json:"current"`
	Limit       float64 `json:"limit"`
}
