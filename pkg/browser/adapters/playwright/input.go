package playwright

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/playwright-community/playwright-go"
)

type mouseActions struct {
	s *Session
}

func (m *mouseActions) Move(x, y float64, opts ...browser.ActionOptions) error {
	return browser.Run(m.s.policy, fmt.Sprintf("mouse move to (%.0f, %.0f)", x, y), opts, func(a browser.Action) error {
		t, err := m.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse().Move(x, y)
	})
}

func (m *mouseActions) Down(opts ...browser.ActionOptions) error {
	return browser.Run(m.s.policy, "mouse down", opts, func(a browser.Action) error {
		t, err := m.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse().Down()
	})
}

func (m *mouseActions) Up(opts ...browser.ActionOptions) error {
	return browser.Run(m.s.policy, "mouse up", opts, func(a browser.Action) error {
		t, err := m.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse().Up()
	})
}

func (m *mouseActions) Click(x, y float64, opts ...browser.ActionOptions) error {
	return browser.Run(m.s.policy, fmt.Sprintf("mouse click at (%.0f, %.0f)", x, y), opts, func(a browser.Action) error {
		t, err := m.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse().Click(x, y)
	})
}

type keyboardActions struct {
	s *Session
}

// Press sends one key chord using Playwright key names ("Enter", "Control+a").
func (k *keyboardActions) Press(key string, opts ...browser.ActionOptions) error {
	return browser.Run(k.s.policy, "press "+key, opts, func(a browser.Action) error {
		t, err := k.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Keyboard().Press(key)
	})
}

// Type sends text character by character to the focused node.
func (k *keyboardActions) Type(text string, opts ...browser.ActionOptions) error {
	return browser.Run(k.s.policy, fmt.Sprintf("type %d characters", len(text)), opts, func(a browser.Action) error {
		t, err := k.s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Keyboard().Type(text)
	})
}

type alertActions struct {
	s *Session
}

func (al *alertActions) Accept(promptText string, opts ...browser.ActionOptions) (browser.Dialog, error) {
	return al.s.awaitDialog("accept next dialog", true, promptText, opts)
}

func (al *alertActions) Dismiss(opts ...browser.ActionOptions) (browser.Dialog, error) {
	return al.s.awaitDialog("dismiss next dialog", false, "", opts)
}

// awaitDialog arms the current tab's dialog slot and blocks for the next
// dialog. Playwright parks the triggering script until the dialog is
// handled, so the trigger must run on another goroutine. A wait that sees
// no dialog resolves to Dialog{TimedOut: true} with a nil error.
func (s *Session) awaitDialog(name string, accept bool, promptText string, opts []browser.ActionOptions) (browser.Dialog, error) {
	return browser.RunValue(s.policy, name, opts, func(a browser.Action) (browser.Dialog, error) {
		t, err := s.currentTab()
		if err != nil {
			return browser.Dialog{}, err
		}

		// Dialog waits use their own default bound rather than the session
		// action timeout; an explicit per-call timeout still wins.
		wait := browser.DefaultDialogTimeout
		for _, o := range opts {
			if o.Timeout > 0 {
				wait = o.Timeout
			}
		}

		w := &dialogWaiter{accept: accept, promptText: promptText, result: make(chan browser.Dialog, 1)}
		if err := t.waiters.arm(w); err != nil {
			return browser.Dialog{}, err
		}

		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case d := <-w.result:
			return d, nil
		case <-timer.C:
			if t.waiters.disarm(w) {
				// The handler claimed the waiter right at the deadline; the
				// result is already on its way.
				return <-w.result, nil
			}
			return browser.Dialog{TimedOut: true}, nil
		}
	})
}

// dialogWaiter is one pending Accept or Dismiss call.
type dialogWaiter struct {
	accept     bool
	promptText string
	result     chan browser.Dialog
}

// dialogSlot holds at most one pending waiter per tab. The page's dialog
// handler runs on the driver's event goroutine, hence the lock.
type dialogSlot struct {
	mu     sync.Mutex
	waiter *dialogWaiter
}

func newDialogSlot() *dialogSlot {
	return &dialogSlot{}
}

// handle consumes every dialog the page raises. Dialogs with no armed
// waiter are dismissed immediately so the page never hangs on them.
func (d *dialogSlot) handle(dialog playwright.Dialog) {
	d.mu.Lock()
	w := d.waiter
	d.waiter = nil
	d.mu.Unlock()

	if w == nil {
		_ = dialog.Dismiss()
		return
	}

	info := browser.Dialog{
		Type:         dialog.Type(),
		Message:      dialog.Message(),
		DefaultValue: dialog.DefaultValue(),
	}
	if w.accept {
		if w.promptText != "" {
			_ = dialog.Accept(w.promptText)
		} else {
			_ = dialog.Accept()
		}
	} else {
		_ = dialog.Dismiss()
	}
	w.result <- info
}

// arm registers w as the consumer of the next dialog.
func (d *dialogSlot) arm(w *dialogWaiter) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.waiter != nil {
		return fmt.Errorf("a dialog wait is already armed on this tab")
	}
	d.waiter = w
	return nil
}

// disarm withdraws w after a timeout. It reports whether the handler
// already claimed w, in which case the result channel will deliver.
func (d *dialogSlot) disarm(w *dialogWaiter) (claimed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.waiter == w {
		d.waiter = nil
		return false
	}
	return true
}
