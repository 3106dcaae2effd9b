package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	accountStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	blockTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	blockStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#EF4444")).
			Padding(0, 2).
			Width(72)
)

func renderHeader(title, account string) string {
	return lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render(strings.ToUpper(title)),
		accountStyle.Render(account),
	)
}

// renderRiskBlock draws the banner shown when the risk plan stops trading
func renderRiskBlock(reason string) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		blockTitleStyle.Render("TRADING BLOCKED"),
		"",
		reason,
		"",
		accountStyle.Render("No trade was recorded."),
	)
	return blockStyle.Render(body)
}
