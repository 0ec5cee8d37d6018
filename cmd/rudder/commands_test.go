package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/rudder/pkg/logging"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "simple words",
			input: "click #submit",
			want:  []string{"click", "#submit"},
		},
		{
			name:  "double quoted text",
			input: `fill #name "Ada Lovelace"`,
			want:  []string{"fill", "#name", "Ada Lovelace"},
		},
		{
			name:  "single quoted selector with spaces",
			input: `click 'li.item > a'`,
			want:  []string{"click", "li.item > a"},
		},
		{
			name:  "single quotes protect double quotes",
			input: `count 'a[href="/docs"]'`,
			want:  []string{"count", `a[href="/docs"]`},
		},
		{
			name:  "empty quoted argument",
			input: `fill #q ""`,
			want:  []string{"fill", "#q", ""},
		},
		{
			name:  "surrounding whitespace",
			input: "  open   https://example.com  ",
			want:  []string{"open", "https://example.com"},
		},
		{
			name:  "blank line",
			input: "   ",
			want:  nil,
		},
		{
			name:    "unclosed quote",
			input:   `fill #q "half`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitArgs(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandRegistry(t *testing.T) {
	t.Run("aliases resolve to the same command", func(t *testing.T) {
		require.Contains(t, commands, "open")
		require.Contains(t, commands, "goto")
		assert.Same(t, commands["open"], commands["goto"])
		assert.Same(t, commands["refresh"], commands["reload"])
	})

	t.Run("every listed command is complete", func(t *testing.T) {
		for _, c := range commandList {
			assert.Contains(t, commands, c.name)
			assert.NotNil(t, c.run, c.name)
			assert.NotEmpty(t, c.usage, c.name)
			assert.NotEmpty(t, c.description, c.name)
		}
	})

	t.Run("only dialog waits run in the background", func(t *testing.T) {
		for _, c := range commandList {
			if c.name == "alert" {
				assert.True(t, c.background)
			} else {
				assert.False(t, c.background, c.name)
			}
		}
	})
}

// newTestModel builds a model with no browser session, enough for dispatch's
// parse and usage paths. Width is set wide so transcript wrapping never
// splits the strings under test.
func newTestModel() *model {
	m := initialModel()
	m.log = logging.Nop()
	m.width = 120
	m.height = 40
	m.ready = true
	return &m
}

func TestDispatchParseErrors(t *testing.T) {
	t.Run("unknown command", func(t *testing.T) {
		m := newTestModel()
		cmd := dispatch(m, "teleport home")
		assert.Nil(t, cmd)
		assert.Contains(t, m.content.String(), `unknown command "teleport"`)
		assert.False(t, m.busy)
	})

	t.Run("missing arguments", func(t *testing.T) {
		m := newTestModel()
		cmd := dispatch(m, "click")
		assert.Nil(t, cmd)
		assert.Contains(t, m.content.String(), "usage: click <sel>")
	})

	t.Run("too many arguments", func(t *testing.T) {
		m := newTestModel()
		cmd := dispatch(m, "title extra")
		assert.Nil(t, cmd)
		assert.Contains(t, m.content.String(), "usage: title")
	})

	t.Run("unclosed quote", func(t *testing.T) {
		m := newTestModel()
		cmd := dispatch(m, `fill #q "half`)
		assert.Nil(t, cmd)
		assert.Contains(t, m.content.String(), "unclosed quote")
	})
}

func TestDispatchBuiltins(t *testing.T) {
	t.Run("help prints the command list", func(t *testing.T) {
		m := newTestModel()
		cmd := dispatch(m, "help")
		assert.Nil(t, cmd)
		transcript := m.content.String()
		assert.Contains(t, transcript, "Commands:")
		for _, c := range commandList {
			assert.Contains(t, transcript, c.usage)
		}
	})

	t.Run("quit returns the quit command", func(t *testing.T) {
		m := newTestModel()
		cmd := dispatch(m, "quit")
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("exit is an alias for quit", func(t *testing.T) {
		m := newTestModel()
		cmd := dispatch(m, "exit")
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestDispatchMarksForegroundBusy(t *testing.T) {
	m := newTestModel()
	cmd := dispatch(m, "url")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Equal(t, "url", m.currentCmd)
}

func TestHelpTextMentionsQuoting(t *testing.T) {
	help := helpText()
	assert.Contains(t, help, "Quote arguments")
	assert.True(t, strings.Contains(help, "quit"))
}
