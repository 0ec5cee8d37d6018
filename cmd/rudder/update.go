package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all state updates for the REPL.
//
// Uses a pointer receiver so command dispatch can mutate model state that
// must survive across messages.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd      tea.Cmd
		vpCmd      tea.Cmd
		spinnerCmd tea.Cmd
	)

	m.spinner, spinnerCmd = m.spinner.Update(msg)
	m.textarea, tiCmd = m.textarea.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)

	case commandDoneMsg:
		return m.handleCommandDone(msg)

	case tea.MouseMsg:
		// Route mouse events to the viewport for scrolling.
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter(tiCmd, spinnerCmd)
		}
		return m, tea.Batch(tiCmd, spinnerCmd)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)
}

// handleWindowResize recomputes the layout for the new terminal size.
func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.viewport.Width = m.width - 4
	m.viewport.Height = m.calculateViewportHeight()
	m.textarea.SetWidth(m.width - 8)
	m.ready = true
	m.recalculateLayout()
	return m, nil
}

// handleEnter dispatches the typed command.
func (m *model) handleEnter(tiCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, tea.Batch(tiCmd, spinnerCmd)
	}

	// One foreground command at a time.
	if m.busy {
		return m, tea.Batch(tiCmd, spinnerCmd)
	}

	m.textarea.Reset()
	m.appendPrompt(input)

	runCmd := dispatch(m, input)
	return m, tea.Batch(tiCmd, spinnerCmd, runCmd)
}

// handleCommandDone folds a finished command's result into the transcript.
func (m *model) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	if !msg.background {
		m.busy = false
		m.currentCmd = ""
	}

	if msg.err != nil {
		m.log.Warnf("%s failed: %v", msg.command, msg.err)
		m.appendError(msg.err)
	} else {
		m.appendOutput(msg.output)
		if msg.command != "copy" && msg.output != "" {
			m.lastOutput = msg.output
		}
		if msg.elapsed > 2*time.Second {
			m.content.WriteString(tipsStyle.Render(fmt.Sprintf("  (took %s)", msg.elapsed.Round(time.Millisecond))) + "\n")
		}
	}

	if msg.url != "" {
		m.pageURL = msg.url
	}
	if msg.tabCount > 0 {
		m.tabCount = msg.tabCount
		m.currentTab = msg.currentTab
	}

	m.recalculateLayout()
	return m, nil
}

// appendPrompt echoes the typed command into the transcript.
func (m *model) appendPrompt(input string) {
	m.content.WriteString(promptStyle.Render("> ") + input + "\n")
	m.refreshViewport()
}

// appendOutput writes command output, wrapped to the viewport width.
func (m *model) appendOutput(text string) {
	if text != "" {
		wrapped := outputStyle.Width(m.contentWidth()).Render(text)
		m.content.WriteString(wrapped + "\n")
	}
	m.content.WriteString("\n")
	m.refreshViewport()
}

// appendError writes an error line into the transcript.
func (m *model) appendError(err error) {
	m.content.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", err)) + "\n\n")
	m.refreshViewport()
}

// appendNotice writes an informational line into the transcript.
func (m *model) appendNotice(text string) {
	m.content.WriteString(noticeStyle.Render(text) + "\n\n")
	m.refreshViewport()
}

func (m *model) contentWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

func (m *model) refreshViewport() {
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()
}

// calculateViewportHeight computes the viewport height from the fixed chrome
// around it.
func (m *model) calculateViewportHeight() int {
	headerHeight := 10                     // ASCII art (7) + tips (1) + status bar (1) + blank line (1)
	inputHeight := m.textarea.Height() + 2 // textarea height + border
	statusBarHeight := 1
	loadingHeight := 0
	if m.busy {
		loadingHeight = 1
	}

	viewportHeight := m.height - headerHeight - inputHeight - statusBarHeight - loadingHeight
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	return viewportHeight
}

// recalculateLayout updates viewport dimensions and scrolls to bottom.
func (m *model) recalculateLayout() {
	m.viewport.Height = m.calculateViewportHeight()
	m.refreshViewport()
}
