package tui

import "github.com/charmbracelet/lipgloss"

// palette
const (
	colorAccent = lipgloss.Color("#2E86AB")
	colorText   = lipgloss.Color("#F0F0F0")
	colorMuted  = lipgloss.Color("#8A8F98")
	colorFrame  = lipgloss.Color("#4A4F58")
	colorGain   = lipgloss.Color("#3FB950")
	colorLoss   = lipgloss.Color("#F85149")
	colorWait   = lipgloss.Color("#D29922")
)

var (
	TabStyle         = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle   = TabStyle.Bold(true).Foreground(colorText).Background(colorAccent)
	InactiveTabStyle = TabStyle.Foreground(colorMuted)

	ScoreUpStyle   = lipgloss.NewStyle().Foreground(colorGain)
	ScoreDownStyle = lipgloss.NewStyle().Foreground(colorLoss)
	ScoreZeroStyle = lipgloss.NewStyle().Foreground(colorMuted)

	ActionBuyStyle  = ScoreUpStyle.Bold(true)
	ActionSellStyle = ScoreDownStyle.Bold(true)
	ActionHoldStyle = lipgloss.NewStyle().Foreground(colorWait)

	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	SubtextStyle = lipgloss.NewStyle().Foreground(colorMuted)
	BorderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFrame)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorLoss)
	PromptStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	ResultStyle  = lipgloss.NewStyle().Foreground(colorText)

	SpinnerColor = colorAccent

	// heat map cell backgrounds
	HeatGreen   = colorGain
	HeatRed     = colorLoss
	HeatNeutral = colorFrame
)
