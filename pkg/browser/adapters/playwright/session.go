package playwright

import (
	"fmt"
	"io"
	"time"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/entrhq/rudder/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// Options configures a new Playwright-backed session.
type Options struct {
	// Variant selects the browser flavor. Empty defaults to chromium.
	Variant  browser.Variant
	Headless bool

	// ViewportWidth and ViewportHeight size the browsing context. Zero
	// values fall back to 1280x720.
	ViewportWidth  int
	ViewportHeight int

	// Defaults is the session's action policy configuration.
	Defaults browser.Defaults

	// Logger receives session lifecycle and action logs. Nil disables
	// logging.
	Logger *logging.Logger
}

// Session drives one browser process and browsing context through the
// Playwright protocol. It implements browser.Browser.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext

	tabs    *browser.Tabs[*tab]
	policy  *browser.Policy
	log     *logging.Logger
	timeout time.Duration
	closed  bool
}

// tab pairs an engine page with its dialog waiter slot. The dialog handler
// runs on the driver's event goroutine, so the slot has its own lock.
type tab struct {
	page    playwright.Page
	waiters *dialogSlot
}

var _ browser.Browser = (*Session)(nil)

// Connect installs the Playwright driver if needed, launches a browser for
// the requested variant, and opens a context with a single blank tab.
func Connect(opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	// Driver output goes nowhere so stdout stays clean for TUI callers.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch opts.Variant {
	case browser.VariantFirefox:
		browserType = pw.Firefox
	case browser.VariantWebKit:
		browserType = pw.WebKit
	case browser.VariantChromium, "":
		browserType = pw.Chromium
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: unknown variant %q", browser.ErrUnsupportedBackend, opts.Variant)
	}

	engine, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	width, height := opts.ViewportWidth, opts.ViewportHeight
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	context, err := engine.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: width, Height: height},
	})
	if err != nil {
		_ = engine.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	defaults := opts.Defaults
	if defaults == (browser.Defaults{}) {
		defaults = browser.StandardDefaults()
	}
	if defaults.Timeout == 0 {
		defaults.Timeout = browser.DefaultTimeout
	}

	s := &Session{
		pw:      pw,
		browser: engine,
		context: context,
		tabs:    browser.NewTabs[*tab](),
		policy:  browser.NewPolicy(defaults, log),
		log:     log,
		timeout: defaults.Timeout,
	}

	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		_ = engine.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	s.tabs.Append(s.newTab(page))

	log.Infof("playwright session started (variant=%s headless=%v)", browserType.Name(), opts.Headless)
	return s, nil
}

// newTab wires the page's dialog handler and registers it with the session.
func (s *Session) newTab(page playwright.Page) *tab {
	page.SetDefaultTimeout(float64(s.timeout.Milliseconds()))
	t := &tab{page: page, waiters: newDialogSlot()}
	page.OnDialog(t.waiters.handle)
	return t
}

// Backend identifies this session's engine.
func (s *Session) Backend() browser.Backend {
	return browser.BackendPlaywright
}

// Selector returns an element recipe rooted at the current tab.
func (s *Session) Selector(sel string) browser.Element {
	t, err := s.currentTab()
	if err != nil {
		return &element{s: s, desc: sel, err: err}
	}
	return &element{s: s, tab: t, loc: t.page.Locator(sel), desc: sel}
}

func (s *Session) currentTab() (*tab, error) {
	if s.closed {
		return nil, fmt.Errorf("session closed: %w", browser.ErrSessionClosed)
	}
	return s.tabs.Current()
}

// NavigateTo loads url in the current tab.
func (s *Session) NavigateTo(url string, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("navigate to %s", url), opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		_, err = t.page.Goto(url, playwright.PageGotoOptions{Timeout: pwTimeout(a)})
		return err
	})
}

// NavigateBack goes one entry back in the current tab's history. Without
// history it is a no-op.
func (s *Session) NavigateBack(opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, "navigate back", opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		_, err = t.page.GoBack(playwright.PageGoBackOptions{Timeout: pwTimeout(a)})
		return err
	})
}

// NavigateForward goes one entry forward in the current tab's history.
func (s *Session) NavigateForward(opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, "navigate forward", opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		_, err = t.page.GoForward(playwright.PageGoForwardOptions{Timeout: pwTimeout(a)})
		return err
	})
}

// Refresh reloads the current tab.
func (s *Session) Refresh(opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, "refresh", opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		_, err = t.page.Reload(playwright.PageReloadOptions{Timeout: pwTimeout(a)})
		return err
	})
}

// OpenTab appends a new tab, selects it, and navigates it when url is
// non-empty.
func (s *Session) OpenTab(url string, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("open tab %s", url), opts, func(a browser.Action) error {
		if _, err := s.currentTab(); err != nil {
			return err
		}
		page, err := s.context.NewPage()
		if err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
		s.tabs.Append(s.newTab(page))
		_ = page.BringToFront()
		if url == "" {
			return nil
		}
		_, err = page.Goto(url, playwright.PageGotoOptions{Timeout: pwTimeout(a)})
		return err
	})
}

// CloseTab closes the current tab. The most recently opened remaining tab
// becomes current; closing the last tab shuts the session down.
func (s *Session) CloseTab(opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, "close tab", opts, func(a browser.Action) error {
		if s.closed {
			return fmt.Errorf("session closed: %w", browser.ErrSessionClosed)
		}
		t, err := s.tabs.CloseCurrent()
		if err != nil {
			return err
		}
		closeErr := t.page.Close()
		if s.tabs.Len() == 0 {
			return s.shutdown()
		}
		if cur, err := s.tabs.Current(); err == nil {
			_ = cur.page.BringToFront()
		}
		return closeErr
	})
}

// SwitchToTab makes tab i current.
func (s *Session) SwitchToTab(i int, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("switch to tab %d", i), opts, func(a browser.Action) error {
		if s.closed {
			return fmt.Errorf("session closed: %w", browser.ErrSessionClosed)
		}
		if err := s.tabs.Switch(i); err != nil {
			return err
		}
		t, err := s.tabs.Current()
		if err != nil {
			return err
		}
		return t.page.BringToFront()
	})
}

// TabCount reports the number of open tabs, 0 once the session closes.
func (s *Session) TabCount() int {
	return s.tabs.Len()
}

// CurrentTab reports the current tab index, -1 once the session closes.
func (s *Session) CurrentTab() int {
	return s.tabs.CurrentIndex()
}

// URL reports the current tab's URL.
func (s *Session) URL(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(s.policy, "get url", opts, func(a browser.Action) (string, error) {
		t, err := s.currentTab()
		if err != nil {
			return "", err
		}
		return t.page.URL(), nil
	})
}

// Title reports the current tab's document title.
func (s *Session) Title(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(s.policy, "get title", opts, func(a browser.Action) (string, error) {
		t, err := s.currentTab()
		if err != nil {
			return "", err
		}
		return t.page.Title()
	})
}

// Scroll wheels the current tab by the given deltas.
func (s *Session) Scroll(dx, dy float64, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("scroll by (%.0f, %.0f)", dx, dy), opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse().Wheel(dx, dy)
	})
}

// WaitFor blocks until sel attaches at least one node to the current tab's
// DOM. The engine's wait timeout maps to ErrElementNotFound.
func (s *Session) WaitFor(sel string, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("wait for %s", sel), opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		state := playwright.WaitForSelectorStateAttached
		_, err = t.page.WaitForSelector(sel, playwright.PageWaitForSelectorOptions{
			State:   &state,
			Timeout: pwTimeout(a),
		})
		if err != nil {
			return fmt.Errorf("%w: %q: %v", browser.ErrElementNotFound, sel, err)
		}
		return nil
	})
}

// Eval runs fn in the current tab's JavaScript context. fn must be a
// function literal; arg is passed as its argument when non-nil.
func (s *Session) Eval(fn string, arg any, opts ...browser.ActionOptions) (any, error) {
	return browser.RunValue(s.policy, "evaluate script", opts, func(a browser.Action) (any, error) {
		t, err := s.currentTab()
		if err != nil {
			return nil, err
		}
		if arg == nil {
			return t.page.Evaluate(fn)
		}
		return t.page.Evaluate(fn, arg)
	})
}

// Screenshot captures the current tab, writing the image to path when path
// is non-empty, and returns the PNG bytes.
func (s *Session) Screenshot(path string, fullPage bool, opts ...browser.ActionOptions) ([]byte, error) {
	return browser.RunValue(s.policy, "screenshot", opts, func(a browser.Action) ([]byte, error) {
		t, err := s.currentTab()
		if err != nil {
			return nil, err
		}
		shotOpts := playwright.PageScreenshotOptions{
			FullPage: playwright.Bool(fullPage),
			Timeout:  pwTimeout(a),
		}
		if path != "" {
			shotOpts.Path = playwright.String(path)
		}
		return t.page.Screenshot(shotOpts)
	})
}

// PDF renders the current tab to PDF, writing to path when non-empty.
// Playwright supports PDF rendering on headless chromium only.
func (s *Session) PDF(path string, opts ...browser.ActionOptions) ([]byte, error) {
	return browser.RunValue(s.policy, "render pdf", opts, func(a browser.Action) ([]byte, error) {
		t, err := s.currentTab()
		if err != nil {
			return nil, err
		}
		pdfOpts := playwright.PagePdfOptions{}
		if path != "" {
			pdfOpts.Path = playwright.String(path)
		}
		return t.page.PDF(pdfOpts)
	})
}

// Mouse returns the current tab's pointer contract.
func (s *Session) Mouse() browser.MouseActions {
	return &mouseActions{s: s}
}

// Keyboard returns the current tab's keyboard contract.
func (s *Session) Keyboard() browser.KeyboardActions {
	return &keyboardActions{s: s}
}

// Alert returns the current tab's dialog contract.
func (s *Session) Alert() browser.AlertActions {
	return &alertActions{s: s}
}

// CloseBrowser releases the context, browser process, and driver.
func (s *Session) CloseBrowser() error {
	if s.closed {
		return fmt.Errorf("session closed: %w", browser.ErrSessionClosed)
	}
	return s.shutdown()
}

// Closed reports whether the session reached its terminal state.
func (s *Session) Closed() bool {
	return s.closed
}

// shutdown closes every remaining tab, then the context, browser, and
// driver, collecting errors rather than stopping at the first.
func (s *Session) shutdown() error {
	s.closed = true

	var errs []error
	for s.tabs.Len() > 0 {
		t, err := s.tabs.CloseCurrent()
		if err != nil {
			break
		}
		if err := t.page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, err)
	}

	s.log.Infof("playwright session closed")
	if len(errs) > 0 {
		return fmt.Errorf("errors closing session: %v", errs)
	}
	return nil
}

// pwTimeout converts a resolved action timeout to Playwright's millisecond
// convention.
func pwTimeout(a browser.Action) *float64 {
	return playwright.Float(float64(a.Timeout.Milliseconds()))
}
