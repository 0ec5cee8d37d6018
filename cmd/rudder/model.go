package main

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/entrhq/rudder/pkg/config"
	"github.com/entrhq/rudder/pkg/logging"
)

// model represents the state of the REPL.
type model struct {
	// Bubble Tea components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Browser session
	session   browser.Browser
	allowlist *allowlist
	cfg       config.Config
	log       *logging.Logger

	// Transcript buffer
	content *strings.Builder

	// Command state
	busy       bool
	currentCmd string
	lastOutput string // most recent command output, target of the copy command

	// Page state mirrored from the last completed command, so View never
	// has to touch the session itself.
	pageURL    string
	tabCount   int
	currentTab int

	// Window dimensions
	width  int
	height int
	ready  bool
}

// commandDoneMsg carries a finished command's result back into the event loop.
type commandDoneMsg struct {
	command string
	output  string
	err     error
	elapsed time.Duration

	// background marks completions of commands that never held the prompt,
	// so they must not clear another command's busy state.
	background bool

	// Refreshed page state, captured after the command ran.
	url        string
	tabCount   int
	currentTab int
}

// initialModel builds the REPL model with all components configured.
func initialModel() model {
	ta := textarea.New()
	ta.Placeholder = "Type a command (help for the list)"
	ta.Prompt = "> "
	ta.Focus()
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.CharLimit = 0
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(seafoamGreen)

	vp := viewport.New(80, 20)

	return model{
		viewport:   vp,
		textarea:   ta,
		spinner:    sp,
		content:    &strings.Builder{},
		tabCount:   1,
		currentTab: 0,
	}
}

// Init starts the cursor blink and spinner tick loops.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}
