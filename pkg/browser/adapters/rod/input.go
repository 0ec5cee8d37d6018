package rod

import (
	"fmt"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// keyMap translates Playwright-style key names to the engine's key model.
// Single characters outside the map are typed directly.
var keyMap = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Delete":     input.Delete,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
	"Space":      input.Space,
}

type mouseActions struct {
	s *Session
}

var _ browser.MouseActions = (*mouseActions)(nil)

func (m *mouseActions) Move(x, y float64, opts ...browser.ActionOptions) error {
	return browser.Run(m.s.policy, fmt.Sprintf("mouse move to (%.0f, %.0f)", x, y), opts, func(a browser.Action) error {
		t, err := m.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse.MoveLinear(proto.Point{X: x, Y: y}, 1)
	})
}

func (m *mouseActions) Down(opts ...browser.ActionOptions) error {
	return browser.Run(m.s.policy, "mouse down", opts, func(a browser.Action) error {
		t, err := m.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse.Down(proto.InputMouseButtonLeft, 1)
	})
}

func (m *mouseActions) Up(opts ...browser.ActionOptions) error {
	return browser.Run(m.s.policy, "mouse up", opts, func(a browser.Action) error {
		t, err := m.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse.Up(proto.InputMouseButtonLeft, 1)
	})
}

func (m *mouseActions) Click(x, y float64, opts ...browser.ActionOptions) error {
	return browser.Run(m.s.policy, fmt.Sprintf("mouse click at (%.0f, %.0f)", x, y), opts, func(a browser.Action) error {
		t, err := m.s.currentTab()
		if err != nil {
			return err
		}
		if err := t.page.Mouse.MoveLinear(proto.Point{X: x, Y: y}, 1); err != nil {
			return fmt.Errorf("failed to move before click: %w", err)
		}
		return t.page.Mouse.Click(proto.InputMouseButtonLeft, 1)
	})
}

type keyboardActions struct {
	s *Session
}

var _ browser.KeyboardActions = (*keyboardActions)(nil)

func (k *keyboardActions) Press(key string, opts ...browser.ActionOptions) error {
	return browser.Run(k.s.policy, "press "+key, opts, func(a browser.Action) error {
		t, err := k.s.currentTab()
		if err != nil {
			return err
		}
		if code, ok := keyMap[key]; ok {
			return t.page.Keyboard.Press(code)
		}
		runes := []rune(key)
		if len(runes) == 1 {
			return t.page.Keyboard.Type(input.Key(runes[0]))
		}
		return fmt.Errorf("unknown key: %s (use Enter, Tab, Escape, ArrowDown, etc.)", key)
	})
}

func (k *keyboardActions) Type(text string, opts ...browser.ActionOptions) error {
	return browser.Run(k.s.policy, fmt.Sprintf("type %d characters", len(text)), opts, func(a browser.Action) error {
		t, err := k.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.InsertText(text)
	})
}

type alertActions struct {
	s *Session
}

var _ browser.AlertActions = (*alertActions)(nil)

func (al *alertActions) Accept(promptText string, opts ...browser.ActionOptions) (browser.Dialog, error) {
	return al.s.awaitDialog("accept next dialog", true, promptText, opts)
}

func (al *alertActions) Dismiss(opts ...browser.ActionOptions) (browser.Dialog, error) {
	return al.s.awaitDialog("dismiss next dialog", false, "", opts)
}

// awaitDialog subscribes to dialog-opening events on the current tab and
// handles the first one that fires. The wait is bounded by the caller's
// explicit Timeout option, defaulting to DefaultDialogTimeout rather than
// the session action timeout; waiting on a dialog that may never come is a
// different patience budget than clicking a button. The engine parks the
// script that triggered the dialog until it is handled, so an elapsed wait
// resolves to Dialog{TimedOut: true} with a nil error instead of failing.
func (s *Session) awaitDialog(name string, accept bool, promptText string, opts []browser.ActionOptions) (browser.Dialog, error) {
	return browser.RunValue(s.policy, name, opts, func(a browser.Action) (browser.Dialog, error) {
		t, err := s.currentTab()
		if err != nil {
			return browser.Dialog{}, err
		}

		wait := browser.DefaultDialogTimeout
		for _, o := range opts {
			if o.Timeout > 0 {
				wait = o.Timeout
			}
		}

		var (
			info    browser.Dialog
			handled bool
		)
		waitEvent := t.page.Timeout(wait).EachEvent(func(e *proto.PageJavascriptDialogOpening) bool {
			info = browser.Dialog{
				Type:         string(e.Type),
				Message:      e.Message,
				DefaultValue: e.DefaultPrompt,
			}
			// Handle on the unbounded page so a nearly-elapsed wait
			// cannot cancel the reply and leave the dialog parked.
			reply := proto.PageHandleJavaScriptDialog{Accept: accept}
			if accept && promptText != "" {
				reply.PromptText = promptText
			}
			if err := reply.Call(t.page); err != nil {
				s.log.Warnf("dialog reply failed: %v", err)
			}
			handled = true
			return true
		})
		waitEvent()

		if !handled {
			return browser.Dialog{TimedOut: true}, nil
		}
		return info, nil
	})
}
