package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/entrhq/rudder/pkg/content"
)

// readBudgetBytes caps how much cleaned markup the read command keeps.
const readBudgetBytes = 64 * 1024

// command is one REPL verb.
type command struct {
	name        string
	aliases     []string
	usage       string
	description string
	minArgs     int
	maxArgs     int // -1 for unlimited

	// background commands arm a waiter and leave the prompt usable, so the
	// user can trigger the thing being waited for.
	background bool

	run func(m *model, args []string) (string, error)
}

// commandList holds every command in help order.
var commandList []*command

// commands maps names and aliases to their command.
var commands map[string]*command

func init() {
	commandList = []*command{
		{name: "open", aliases: []string{"goto"}, usage: "open <url>", description: "Navigate the active tab", minArgs: 1, maxArgs: 1, run: cmdOpen},
		{name: "back", usage: "back", description: "Go back in history", minArgs: 0, maxArgs: 0, run: cmdBack},
		{name: "forward", usage: "forward", description: "Go forward in history", minArgs: 0, maxArgs: 0, run: cmdForward},
		{name: "refresh", aliases: []string{"reload"}, usage: "refresh", description: "Reload the page", minArgs: 0, maxArgs: 0, run: cmdRefresh},
		{name: "url", usage: "url", description: "Show the current URL", minArgs: 0, maxArgs: 0, run: cmdURL},
		{name: "title", usage: "title", description: "Show the page title", minArgs: 0, maxArgs: 0, run: cmdTitle},
		{name: "tab", usage: "tab new [url] | close | switch <n> | list", description: "Manage tabs", minArgs: 1, maxArgs: 2, run: cmdTab},
		{name: "tabs", usage: "tabs", description: "Show open tabs", minArgs: 0, maxArgs: 0, run: cmdTabs},
		{name: "click", usage: "click <sel>", description: "Click an element", minArgs: 1, maxArgs: 1, run: cmdClick},
		{name: "dblclick", usage: "dblclick <sel>", description: "Double-click an element", minArgs: 1, maxArgs: 1, run: cmdDblClick},
		{name: "rightclick", usage: "rightclick <sel>", description: "Right-click an element", minArgs: 1, maxArgs: 1, run: cmdRightClick},
		{name: "hover", usage: "hover <sel>", description: "Hover over an element", minArgs: 1, maxArgs: 1, run: cmdHover},
		{name: "fill", usage: "fill <sel> <text>", description: "Clear and type into a field", minArgs: 2, maxArgs: -1, run: cmdFill},
		{name: "clear", usage: "clear <sel>", description: "Clear a field", minArgs: 1, maxArgs: 1, run: cmdClear},
		{name: "submit", usage: "submit <sel>", description: "Submit the enclosing form", minArgs: 1, maxArgs: 1, run: cmdSubmit},
		{name: "drag", usage: "drag <sel> <sel>", description: "Drag one element onto another", minArgs: 2, maxArgs: 2, run: cmdDrag},
		{name: "text", usage: "text <sel>", description: "Show an element's text", minArgs: 1, maxArgs: 1, run: cmdText},
		{name: "value", usage: "value <sel>", description: "Show an input's value", minArgs: 1, maxArgs: 1, run: cmdValue},
		{name: "attr", usage: "attr <sel> <name>", description: "Show an attribute", minArgs: 2, maxArgs: 2, run: cmdAttr},
		{name: "css", usage: "css <sel> <property>", description: "Show a computed style", minArgs: 2, maxArgs: 2, run: cmdCSS},
		{name: "tag", usage: "tag <sel>", description: "Show an element's tag name", minArgs: 1, maxArgs: 1, run: cmdTag},
		{name: "html", usage: "html <sel>", description: "Show an element's markup, highlighted", minArgs: 1, maxArgs: 1, run: cmdHTML},
		{name: "count", usage: "count <sel>", description: "Count matching elements", minArgs: 1, maxArgs: 1, run: cmdCount},
		{name: "wait", usage: "wait <sel> [timeout]", description: "Wait for an element to appear", minArgs: 1, maxArgs: 2, run: cmdWait},
		{name: "eval", usage: "eval <js>", description: "Evaluate a JS function, e.g. eval \"() => document.title\"", minArgs: 1, maxArgs: -1, run: cmdEval},
		{name: "press", usage: "press <key>", description: "Press a key (Enter, Tab, ArrowDown, a)", minArgs: 1, maxArgs: 1, run: cmdPress},
		{name: "type", usage: "type <text>", description: "Type text at the focused element", minArgs: 1, maxArgs: -1, run: cmdType},
		{name: "scroll", usage: "scroll <dx> <dy>", description: "Scroll the page by pixels", minArgs: 2, maxArgs: 2, run: cmdScroll},
		{name: "alert", usage: "alert accept [text] | dismiss", description: "Arm a handler for the next dialog", minArgs: 1, maxArgs: -1, background: true, run: cmdAlert},
		{name: "shot", usage: "shot <path> [full]", description: "Save a screenshot", minArgs: 1, maxArgs: 2, run: cmdShot},
		{name: "pdf", usage: "pdf <path>", description: "Save the page as a verified PDF", minArgs: 1, maxArgs: 1, run: cmdPDF},
		{name: "read", usage: "read", description: "Show the page as cleaned readable text", minArgs: 0, maxArgs: 0, run: cmdRead},
		{name: "links", usage: "links", description: "List links, headings, and forms", minArgs: 0, maxArgs: 0, run: cmdLinks},
		{name: "copy", usage: "copy", description: "Copy the last output to the clipboard", minArgs: 0, maxArgs: 0, run: cmdCopy},
	}

	commands = make(map[string]*command)
	for _, c := range commandList {
		commands[c.name] = c
		for _, a := range c.aliases {
			commands[a] = c
		}
	}
}

// dispatch parses one typed line and launches its command. Parse and usage
// errors go straight to the transcript; anything that touches the browser
// comes back later as a commandDoneMsg.
func dispatch(m *model, input string) tea.Cmd {
	args, err := splitArgs(input)
	if err != nil {
		m.appendError(err)
		return nil
	}
	if len(args) == 0 {
		return nil
	}

	name := strings.ToLower(args[0])
	rest := args[1:]

	switch name {
	case "quit", "exit":
		return tea.Quit
	case "help":
		m.appendOutput(helpText())
		return nil
	}

	c, ok := commands[name]
	if !ok {
		m.appendError(fmt.Errorf("unknown command %q (help lists the commands)", name))
		return nil
	}
	if len(rest) < c.minArgs || (c.maxArgs >= 0 && len(rest) > c.maxArgs) {
		m.appendError(fmt.Errorf("usage: %s", c.usage))
		return nil
	}

	if c.background {
		m.appendNotice("waiting for a dialog; trigger it with click or eval")
		return m.runCommand(c, rest)
	}

	m.busy = true
	m.currentCmd = c.name
	return m.runCommand(c, rest)
}

// runCommand executes the handler off the event loop and reports back.
func (m *model) runCommand(c *command, args []string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		out, err := c.run(m, args)

		msg := commandDoneMsg{
			command:    c.name,
			output:     out,
			err:        err,
			elapsed:    time.Since(start),
			background: c.background,
		}
		if !c.background && m.session != nil && !m.session.Closed() {
			msg.url, _ = m.session.URL(browser.ActionOptions{Timeout: 2 * time.Second})
			msg.tabCount = m.session.TabCount()
			msg.currentTab = m.session.CurrentTab()
		}
		return msg
	}
}

// splitArgs splits a command line into fields, honoring double and single
// quotes so selectors and text with spaces survive as one argument.
func splitArgs(line string) ([]string, error) {
	var args []string
	var cur strings.Builder
	var quote rune
	inArg := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unclosed quote in %q", line)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}

// helpText renders the command listing.
func helpText() string {
	var out strings.Builder
	out.WriteString("Commands:\n")
	for _, c := range commandList {
		out.WriteString(fmt.Sprintf("  %-38s %s\n", c.usage, c.description))
	}
	out.WriteString(fmt.Sprintf("  %-38s %s\n", "help", "Show this list"))
	out.WriteString(fmt.Sprintf("  %-38s %s\n", "quit", "Close the browser and exit"))
	out.WriteString("\nQuote arguments that contain spaces: fill #name \"Ada Lovelace\"")
	return out.String()
}

func cmdOpen(m *model, args []string) (string, error) {
	url := args[0]
	if !m.allowlist.Allows(url) {
		return "", fmt.Errorf("%q is blocked by the allowed_urls list", url)
	}
	if err := m.session.NavigateTo(url); err != nil {
		return "", err
	}
	if title, err := m.session.Title(); err == nil && title != "" {
		return fmt.Sprintf("opened %s (%s)", url, title), nil
	}
	return "opened " + url, nil
}

func cmdBack(m *model, args []string) (string, error) {
	if err := m.session.NavigateBack(); err != nil {
		return "", err
	}
	return "went back", nil
}

func cmdForward(m *model, args []string) (string, error) {
	if err := m.session.NavigateForward(); err != nil {
		return "", err
	}
	return "went forward", nil
}

func cmdRefresh(m *model, args []string) (string, error) {
	if err := m.session.Refresh(); err != nil {
		return "", err
	}
	return "page refreshed", nil
}

func cmdURL(m *model, args []string) (string, error) {
	return m.session.URL()
}

func cmdTitle(m *model, args []string) (string, error) {
	return m.session.Title()
}

func cmdTab(m *model, args []string) (string, error) {
	switch args[0] {
	case "new":
		url := "about:blank"
		if len(args) > 1 {
			url = args[1]
		}
		if url != "about:blank" && !m.allowlist.Allows(url) {
			return "", fmt.Errorf("%q is blocked by the allowed_urls list", url)
		}
		if err := m.session.OpenTab(url); err != nil {
			return "", err
		}
		return fmt.Sprintf("opened tab %d", m.session.CurrentTab()+1), nil
	case "close":
		if err := m.session.CloseTab(); err != nil {
			return "", err
		}
		return "tab closed", nil
	case "switch":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: tab switch <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("tab index must be a number, got %q", args[1])
		}
		if err := m.session.SwitchToTab(n - 1); err != nil {
			return "", err
		}
		return fmt.Sprintf("switched to tab %d", n), nil
	case "list":
		return tabSummary(m), nil
	default:
		return "", fmt.Errorf("usage: tab new [url] | close | switch <n> | list")
	}
}

func cmdTabs(m *model, args []string) (string, error) {
	return tabSummary(m), nil
}

func tabSummary(m *model) string {
	return fmt.Sprintf("%d open tab(s), tab %d active", m.session.TabCount(), m.session.CurrentTab()+1)
}

func cmdClick(m *model, args []string) (string, error) {
	if err := m.session.Selector(args[0]).Click(); err != nil {
		return "", err
	}
	return "clicked " + args[0], nil
}

func cmdDblClick(m *model, args []string) (string, error) {
	if err := m.session.Selector(args[0]).DoubleClick(); err != nil {
		return "", err
	}
	return "double-clicked " + args[0], nil
}

func cmdRightClick(m *model, args []string) (string, error) {
	if err := m.session.Selector(args[0]).RightClick(); err != nil {
		return "", err
	}
	return "right-clicked " + args[0], nil
}

func cmdHover(m *model, args []string) (string, error) {
	if err := m.session.Selector(args[0]).Hover(); err != nil {
		return "", err
	}
	return "hovering over " + args[0], nil
}

func cmdFill(m *model, args []string) (string, error) {
	text := strings.Join(args[1:], " ")
	if err := m.session.Selector(args[0]).Fill(text); err != nil {
		return "", err
	}
	return "filled " + args[0], nil
}

func cmdClear(m *model, args []string) (string, error) {
	if err := m.session.Selector(args[0]).Clear(); err != nil {
		return "", err
	}
	return "cleared " + args[0], nil
}

func cmdSubmit(m *model, args []string) (string, error) {
	if err := m.session.Selector(args[0]).Submit(); err != nil {
		return "", err
	}
	return "submitted " + args[0], nil
}

func cmdDrag(m *model, args []string) (string, error) {
	src := m.session.Selector(args[0])
	if err := src.DragAndDrop(m.session.Selector(args[1])); err != nil {
		return "", err
	}
	return fmt.Sprintf("dragged %s onto %s", args[0], args[1]), nil
}

func cmdText(m *model, args []string) (string, error) {
	return m.session.Selector(args[0]).Text()
}

func cmdValue(m *model, args []string) (string, error) {
	return m.session.Selector(args[0]).Value()
}

func cmdAttr(m *model, args []string) (string, error) {
	return m.session.Selector(args[0]).Attribute(args[1])
}

func cmdCSS(m *model, args []string) (string, error) {
	return m.session.Selector(args[0]).CSSValue(args[1])
}

func cmdTag(m *model, args []string) (string, error) {
	return m.session.Selector(args[0]).TagName()
}

func cmdHTML(m *model, args []string) (string, error) {
	markup, err := m.session.Selector(args[0]).HTML()
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := quick.Highlight(&buf, markup, "html", "terminal256", "monokai"); err != nil {
		return markup, nil
	}
	return buf.String(), nil
}

func cmdCount(m *model, args []string) (string, error) {
	n, err := m.session.Selector(args[0]).Count()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d element(s) match %s", n, args[0]), nil
}

func cmdWait(m *model, args []string) (string, error) {
	opts := browser.ActionOptions{}
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return "", fmt.Errorf("bad timeout %q: %w", args[1], err)
		}
		opts.Timeout = d
	}
	if err := m.session.WaitFor(args[0], opts); err != nil {
		return "", err
	}
	return args[0] + " is ready", nil
}

func cmdEval(m *model, args []string) (string, error) {
	src := strings.Join(args, " ")
	res, err := m.session.Eval(src, nil)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "undefined", nil
	}
	if b, err := json.MarshalIndent(res, "", "  "); err == nil {
		return string(b), nil
	}
	return fmt.Sprintf("%v", res), nil
}

func cmdPress(m *model, args []string) (string, error) {
	if err := m.session.Keyboard().Press(args[0]); err != nil {
		return "", err
	}
	return "pressed " + args[0], nil
}

func cmdType(m *model, args []string) (string, error) {
	text := strings.Join(args, " ")
	if err := m.session.Keyboard().Type(text); err != nil {
		return "", err
	}
	return fmt.Sprintf("typed %d character(s)", len(text)), nil
}

func cmdScroll(m *model, args []string) (string, error) {
	dx, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return "", fmt.Errorf("bad dx %q: %w", args[0], err)
	}
	dy, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return "", fmt.Errorf("bad dy %q: %w", args[1], err)
	}
	if err := m.session.Scroll(dx, dy); err != nil {
		return "", err
	}
	return fmt.Sprintf("scrolled by (%.0f, %.0f)", dx, dy), nil
}

func cmdAlert(m *model, args []string) (string, error) {
	switch args[0] {
	case "accept":
		prompt := ""
		if len(args) > 1 {
			prompt = strings.Join(args[1:], " ")
		}
		d, err := m.session.Alert().Accept(prompt)
		if err != nil {
			return "", err
		}
		return describeDialog(d, "accepted"), nil
	case "dismiss":
		d, err := m.session.Alert().Dismiss()
		if err != nil {
			return "", err
		}
		return describeDialog(d, "dismissed"), nil
	default:
		return "", fmt.Errorf("usage: alert accept [text] | alert dismiss")
	}
}

func describeDialog(d browser.Dialog, verb string) string {
	if d.TimedOut {
		return "no dialog appeared"
	}
	return fmt.Sprintf("%s %s dialog: %q", verb, d.Type, d.Message)
}

func cmdShot(m *model, args []string) (string, error) {
	fullPage := len(args) > 1 && args[1] == "full"
	data, err := m.session.Screenshot(args[0], fullPage)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("saved screenshot to %s (%d bytes)", args[0], len(data)), nil
}

func cmdPDF(m *model, args []string) (string, error) {
	data, err := m.session.PDF(args[0])
	if err != nil {
		return "", err
	}
	pages, err := content.VerifyPDF(args[0])
	if err != nil {
		return "", fmt.Errorf("pdf saved but failed verification: %w", err)
	}
	return fmt.Sprintf("saved %d-page pdf to %s (%d bytes)", pages, args[0], len(data)), nil
}

func cmdRead(m *model, args []string) (string, error) {
	markup, err := m.session.Selector("html").HTML()
	if err != nil {
		return "", err
	}
	page, err := content.Clean(markup, readBudgetBytes)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if page.Title != "" {
		out.WriteString(page.Title + "\n\n")
	}
	out.WriteString(page.Text)
	if page.Truncated {
		out.WriteString("\n\n[content truncated]")
	}
	out.WriteString(fmt.Sprintf("\n\n[%d tokens]", content.CountTokens(page.Text)))
	return out.String(), nil
}

func cmdLinks(m *model, args []string) (string, error) {
	markup, err := m.session.Selector("html").HTML()
	if err != nil {
		return "", err
	}
	outline, err := content.Analyze(markup)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("%d link(s), %d heading(s), %d form(s)",
		len(outline.Links), len(outline.Headings), len(outline.Forms)))
	for _, h := range outline.Headings {
		out.WriteString(fmt.Sprintf("\nh%d %s", h.Level, h.Text))
	}
	for _, l := range outline.Links {
		text := l.Text
		if text == "" {
			text = "(no text)"
		}
		out.WriteString(fmt.Sprintf("\n%-32s %s", text, l.Href))
	}
	for _, f := range outline.Forms {
		out.WriteString(fmt.Sprintf("\nform %s %s fields: %s", f.Method, f.Action, strings.Join(f.Fields, ", ")))
	}
	return out.String(), nil
}

func cmdCopy(m *model, args []string) (string, error) {
	if m.lastOutput == "" {
		return "", fmt.Errorf("nothing to copy yet")
	}
	if err := clipboard.WriteAll(m.lastOutput); err != nil {
		return "", fmt.Errorf("clipboard write failed: %w", err)
	}
	return fmt.Sprintf("copied %d byte(s) to the clipboard", len(m.lastOutput)), nil
}
