package browser

// Browser is the session capability set: one engine process, one browsing
// context, and an ordered tab sequence with a current-tab pointer. Every
// operation routes through the session's action policy, so timeout, logging,
// and throw-vs-swallow behavior are uniform across backends.
//
// Sessions are built by the backends package; there is no public adapter
// constructor. One cooperative caller drives a session at a time.
type Browser interface {
	// Backend identifies the engine driving this session.
	Backend() Backend

	// Selector returns an Element recipe scoped to the current tab.
	Selector(sel string) Element

	// Navigation, current tab only. URLs are handed to the engine as-is;
	// malformed URLs surface as engine-reported failures.
	NavigateTo(url string, opts ...ActionOptions) error
	NavigateBack(opts ...ActionOptions) error
	NavigateForward(opts ...ActionOptions) error
	Refresh(opts ...ActionOptions) error

	// OpenTab appends a new tab, makes it current, and navigates it when
	// url is non-empty.
	OpenTab(url string, opts ...ActionOptions) error
	// CloseTab closes the current tab and re-selects the most recently
	// opened remaining tab. Closing the last tab releases the context and
	// process: the session is closed and every further operation fails with
	// ErrSessionClosed.
	CloseTab(opts ...ActionOptions) error
	// SwitchToTab makes tab i current; ErrTabNotFound outside
	// [0, TabCount()-1].
	SwitchToTab(i int, opts ...ActionOptions) error
	TabCount() int
	// CurrentTab reports the current tab index, -1 once the session closes.
	CurrentTab() int

	URL(opts ...ActionOptions) (string, error)
	Title(opts ...ActionOptions) (string, error)

	// Input sub-contracts, scoped to the current tab.
	Mouse() MouseActions
	Keyboard() KeyboardActions
	Scroll(dx, dy float64, opts ...ActionOptions) error
	Alert() AlertActions
	// WaitFor blocks until sel resolves at least one node, using the
	// engine's native wait. ErrElementNotFound wraps the engine's timeout.
	WaitFor(sel string, opts ...ActionOptions) error

	// Eval executes fn in the page's JavaScript context and returns its
	// result. fn must be a function literal, for example
	// "(n) => document.title + n". This is the deliberate escape hatch for
	// operations the capability set does not cover.
	Eval(fn string, arg any, opts ...ActionOptions) (any, error)

	// Screenshot captures the current tab, writing to path when non-empty,
	// and returns the image bytes.
	Screenshot(path string, fullPage bool, opts ...ActionOptions) ([]byte, error)
	// PDF renders the current tab to PDF (Chromium variants only; other
	// variants surface the engine's error), writing to path when non-empty.
	PDF(path string, opts ...ActionOptions) ([]byte, error)

	// CloseBrowser releases the context and process unconditionally. The
	// session is unusable afterwards; further calls fail with
	// ErrSessionClosed.
	CloseBrowser() error
	// Closed reports whether the session reached the terminal state, via
	// CloseBrowser or by closing the last tab.
	Closed() bool
}

// MouseActions drives the current tab's pointer. Coordinates are page
// coordinates.
type MouseActions interface {
	Move(x, y float64, opts ...ActionOptions) error
	Down(opts ...ActionOptions) error
	Up(opts ...ActionOptions) error
	Click(x, y float64, opts ...ActionOptions) error
}

// KeyboardActions drives the current tab's keyboard. Press takes Playwright
// key names ("Enter", "Tab", "ArrowDown", single characters); adapters map
// them to their engine's key model.
type KeyboardActions interface {
	Press(key string, opts ...ActionOptions) error
	Type(text string, opts ...ActionOptions) error
}

// AlertActions waits for native JavaScript dialogs on the current tab. Both
// calls block until the next dialog fires or the bounded wait (Timeout
// option, default 30s) elapses; a timeout resolves to Dialog{TimedOut: true}
// with a nil error rather than failing, so callers never hang on a dialog
// that never comes.
//
// Both engines block the action that triggers a dialog until the dialog is
// handled, so arm the wait first and run the triggering action from another
// goroutine.
type AlertActions interface {
	// Accept confirms the next dialog, submitting promptText to prompts.
	Accept(promptText string, opts ...ActionOptions) (Dialog, error)
	// Dismiss cancels the next dialog.
	Dismiss(opts ...ActionOptions) (Dialog, error)
}
