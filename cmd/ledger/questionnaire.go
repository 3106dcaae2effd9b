package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/ducminhle1904/prop-ledger/internal/config"
)

var accountSizes = []string{"10000", "25000", "50000", "100000", "200000"}

// askProfile runs the onboarding questionnaire in the terminal
func askProfile() (config.AccountProfile, error) {
	var profile config.AccountProfile

	if err := survey.AskOne(&survey.Confirm{
		Message: "Do you already have a funded or challenge account?",
		Default: false,
	}, &profile.HasAccount); err != nil {
		return profile, err
	}

	if profile.HasAccount {
		var equity string
		if err := survey.AskOne(&survey.Input{
			Message: "Current account equity:",
			Help:    "The balance shown by your prop firm right now, e.g. 98450.25",
		}, &equity, survey.WithValidator(positiveNumber)); err != nil {
			return profile, err
		}
		profile.AccountEquity, _ = strconv.ParseFloat(strings.TrimSpace(equity), 64)
	} else {
		var size string
		if err := survey.AskOne(&survey.Select{
			Message: "Which account size are you going for?",
			Options: accountSizes,
			Default: "100000",
		}, &size); err != nil {
			return profile, err
		}
		profile.AccountSize, _ = strconv.ParseFloat(size, 64)
	}

	var risk string
	if err := survey.AskOne(&survey.Select{
		Message: "How much do you risk per trade?",
		Options: []string{"0.5", "1", "2"},
		Default: "1",
		Description: func(value string, index int) string {
			return value + "% of the account"
		},
	}, &risk); err != nil {
		return profile, err
	}
	profile.RiskPercentage, _ = strconv.ParseFloat(risk, 64)

	if err := survey.AskOne(&survey.Select{
		Message: "Trading experience:",
		Options: []string{"beginner", "intermediate", "advanced"},
		Default: "intermediate",
	}, &profile.Experience); err != nil {
		return profile, err
	}

	return profile, profile.Validate()
}

func positiveNumber(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("expected text input")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}
