package main

import "github.com/charmbracelet/lipgloss"

// Color Palette
// Single source of truth for all REPL colors.
var (
	seafoamGreen = lipgloss.Color("#A8E6CF") // primary accent
	skyBlue      = lipgloss.Color("#A3C9F9") // secondary accent, URLs and selectors
	salmonPink   = lipgloss.Color("#FFB3BA") // errors and warnings
	mutedGray    = lipgloss.Color("#6B7280") // secondary text
	brightWhite  = lipgloss.Color("#F9FAFB") // primary text
)

// Common Styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(seafoamGreen).
			Bold(true)

	tipsStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	promptStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	outputStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	noticeStyle = lipgloss.NewStyle().
			Foreground(seafoamGreen)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(seafoamGreen).
			Padding(0, 1)
)
