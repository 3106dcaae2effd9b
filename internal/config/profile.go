package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

// AccountProfile holds the onboarding questionnaire and risk plan answers that
// seed a new account. Zero values mean "not answered".
type AccountProfile struct {
	HasAccount          bool    `json:"hasAccount"`
	AccountEquity       float64 `json:"accountEquity,omitempty"`
	AccountSize         float64 `json:"accountSize,omitempty"`
	RiskPercentage      float64 `json:"riskPercentage,omitempty"`
	RiskPlanAccountSize float64 `json:"riskPlanAccountSize,omitempty"`
	Experience          string  `json:"experience,omitempty"`
}

// profileFile accepts the questionnaire's "yes"/"no" strings as well as booleans
type profileFile struct {
	HasAccount          json.RawMessage `json:"hasAccount"`
	AccountEquity       float64         `json:"accountEquity"`
	AccountSize         float64         `json:"accountSize"`
	RiskPercentage      float64         `json:"riskPercentage"`
	RiskPlanAccountSize float64         `json:"riskPlanAccountSize"`
	Experience          string          `json:"experience"`
}

// LoadProfile reads and validates a profile JSON document
func LoadProfile(path string) (AccountProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AccountProfile{}, ledgererrors.WrapError(err, ledgererrors.ErrorCategoryConfiguration, "profile", "load")
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a profile document
func ParseProfile(data []byte) (AccountProfile, error) {
	var raw profileFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return AccountProfile{}, ledgererrors.WrapError(err, ledgererrors.ErrorCategoryConfiguration, "profile", "parse")
	}

	hasAccount, err := parseYesNo(raw.HasAccount)
	if err != nil {
		return AccountProfile{}, ledgererrors.NewValidationError("profile", "parse", err.Error())
	}

	p := AccountProfile{
		HasAccount:          hasAccount,
		AccountEquity:       raw.AccountEquity,
		AccountSize:         raw.AccountSize,
		RiskPercentage:      raw.RiskPercentage,
		RiskPlanAccountSize: raw.RiskPlanAccountSize,
		Experience:          raw.Experience,
	}
	if err := p.Validate(); err != nil {
		return AccountProfile{}, err
	}
	return p, nil
}

func parseYesNo(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("hasAccount must be a boolean or yes/no, got %s", string(raw))
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("hasAccount must be yes or no, got %q", s)
	}
}

// Validate rejects negative or non-finite answers
func (p AccountProfile) Validate() error {
	fields := map[string]float64{
		"accountEquity":       p.AccountEquity,
		"accountSize":         p.AccountSize,
		"riskPercentage":      p.RiskPercentage,
		"riskPlanAccountSize": p.RiskPlanAccountSize,
	}
	for name, v := range fields {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ledgererrors.NewValidationError("profile", "validate",
				fmt.Sprintf("%s must be a non-negative number, got %v", name, v))
		}
	}
	if p.RiskPercentage > 100 {
		return ledgererrors.NewValidationError("profile", "validate",
			fmt.Sprintf("riskPercentage must be at most 100, got %.2f", p.RiskPercentage))
	}
	return nil
}

// InitialEquity picks the starting balance: the live account equity when the
// user already has an account, otherwise the chosen challenge size, then the
// risk plan's size, then fallback.
func (p AccountProfile) InitialEquity(fallback float64) float64 {
	primary := p.AccountSize
	if p.HasAccount {
		primary = p.AccountEquity
	}
	for _, v := range []float64{primary, p.RiskPlanAccountSize} {
		if v > 0 {
			return v
		}
	}
	return fallback
}

// RiskSettings overlays the profile's answers on the configured defaults
func (p AccountProfile) RiskSettings(defaults trading.RiskSettings) trading.RiskSettings {
	settings := defaults
	if p.RiskPercentage > 0 {
		settings.RiskPerTrade = p.RiskPercentage
	}
	return settings
}
