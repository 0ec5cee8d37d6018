package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the REPL interface.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.buildHeader()
	tips := m.buildTips()
	topStatus := m.buildTopStatus()
	loadingIndicator := m.buildLoadingIndicator()
	inputBox := inputBoxStyle.Width(m.width - 4).Render(m.textarea.View())
	bottomBar := m.buildBottomBar()

	if m.busy {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			tips,
			topStatus,
			"",
			m.viewport.View(),
			loadingIndicator,
			inputBox,
			bottomBar,
		)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		tips,
		topStatus,
		"",
		m.viewport.View(),
		inputBox,
		bottomBar,
	)
}

// buildHeader renders the Rudder ASCII art header
func (m *model) buildHeader() string {
	return headerStyle.Render(`
	██████╗ ██╗   ██╗██████╗ ██████╗ ███████╗██████╗
	██╔══██╗██║   ██║██╔══██╗██╔══██╗██╔════╝██╔══██╗
	██████╔╝██║   ██║██║  ██║██║  ██║█████╗  ██████╔╝
	██╔══██╗██║   ██║██║  ██║██║  ██║██╔══╝  ██╔══██╗
	██║  ██║╚██████╔╝██████╔╝██████╔╝███████╗██║  ██║
	╚═╝  ╚═╝ ╚═════╝ ╚═════╝ ╚═════╝ ╚══════╝╚═╝  ╚═╝`)
}

// buildTips renders usage hints
func (m *model) buildTips() string {
	return tipsStyle.Render(`  Tips: open <url> to navigate • help for commands • copy puts the last output on the clipboard • Ctrl+C to exit`)
}

// buildTopStatus renders the current page status bar
func (m *model) buildTopStatus() string {
	url := m.pageURL
	if url == "" {
		url = "no page loaded"
	}
	return statusBarStyle.Render(fmt.Sprintf(" %s", url))
}

// buildLoadingIndicator renders the spinner while a command runs
func (m *model) buildLoadingIndicator() string {
	if !m.busy {
		return ""
	}
	loadingMsg := fmt.Sprintf("%s running %s...", m.spinner.View(), m.currentCmd)
	loadingStyle := lipgloss.NewStyle().
		Foreground(seafoamGreen).
		Width(m.width-4).
		Padding(0, 2)
	return loadingStyle.Render(loadingMsg)
}

// buildBottomBar renders backend and tab state
func (m *model) buildBottomBar() string {
	bottomLeft := fmt.Sprintf("%s/%s", m.cfg.Backend, m.cfg.Variant)
	bottomCenter := "Enter to run • help for commands"
	bottomRight := fmt.Sprintf("tab %d/%d", m.currentTab+1, m.tabCount)

	totalUsed := len(bottomLeft) + len(bottomCenter) + len(bottomRight)
	leftPadding := (m.width - totalUsed) / 3
	rightPadding := m.width - totalUsed - leftPadding*2
	if leftPadding < 2 {
		leftPadding = 2
	}
	if rightPadding < 2 {
		rightPadding = 2
	}

	return statusBarStyle.Width(m.width).Render(
		bottomLeft +
			strings.Repeat(" ", leftPadding) +
			bottomCenter +
			strings.Repeat(" ", rightPadding) +
			bottomRight,
	)
}
