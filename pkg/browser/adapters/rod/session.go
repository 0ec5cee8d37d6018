package rod

import (
	"fmt"
	"io"
	"os"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/entrhq/rudder/pkg/logging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures a new rod-backed session.
type Options struct {
	// Variant must be empty or chromium; rod cannot drive other flavors.
	Variant  browser.Variant
	Headless bool

	// Bin overrides the Chromium binary. Empty lets the launcher find or
	// download one.
	Bin string

	// ViewportWidth and ViewportHeight size every page. Zero values fall
	// back to 1280x720.
	ViewportWidth  int
	ViewportHeight int

	// Defaults is the session's action policy configuration.
	Defaults browser.Defaults

	// Logger receives session lifecycle and action logs. Nil disables
	// logging.
	Logger *logging.Logger
}

// Session drives one Chromium process over the DevTools protocol. It
// implements browser.Browser.
type Session struct {
	launch *launcher.Launcher
	engine *rod.Browser

	tabs   *browser.Tabs[*tab]
	policy *browser.Policy
	log    *logging.Logger
	width  int
	height int
	closed bool
}

type tab struct {
	page *rod.Page
}

var _ browser.Browser = (*Session)(nil)

// Connect launches Chromium and opens a session with a single blank tab.
func Connect(opts Options) (*Session, error) {
	if opts.Variant != "" && opts.Variant != browser.VariantChromium {
		return nil, fmt.Errorf("%w: rod drives chromium only, got variant %q", browser.ErrUnsupportedBackend, opts.Variant)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	defaults := opts.Defaults
	if defaults == (browser.Defaults{}) {
		defaults = browser.StandardDefaults()
	}
	if defaults.Timeout == 0 {
		defaults.Timeout = browser.DefaultTimeout
	}

	width, height := opts.ViewportWidth, opts.ViewportHeight
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}

	launch := launcher.New().Headless(opts.Headless)
	if opts.Bin != "" {
		launch = launch.Bin(opts.Bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	engine := rod.New().ControlURL(controlURL)
	if err := engine.Connect(); err != nil {
		launch.Kill()
		return nil, fmt.Errorf("failed to connect to chromium: %w", err)
	}

	s := &Session{
		launch: launch,
		engine: engine,
		tabs:   browser.NewTabs[*tab](),
		policy: browser.NewPolicy(defaults, log),
		log:    log,
		width:  width,
		height: height,
	}

	page, err := s.newPage()
	if err != nil {
		_ = engine.Close()
		launch.Kill()
		return nil, err
	}
	s.tabs.Append(&tab{page: page})

	log.Infof("rod session started (headless=%v)", opts.Headless)
	return s, nil
}

// newPage opens a blank page with the session viewport applied before any
// navigation.
func (s *Session) newPage() (*rod.Page, error) {
	page, err := s.engine.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.width,
		Height:            s.height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	return page, nil
}

// Backend identifies this session's engine.
func (s *Session) Backend() browser.Backend {
	return browser.BackendRod
}

// Selector returns an element recipe rooted at the current tab.
func (s *Session) Selector(sel string) browser.Element {
	t, err := s.currentTab()
	if err != nil {
		return &element{s: s, desc: sel, err: err}
	}
	return &element{s: s, tab: t, chain: []part{{sel: sel}}, desc: sel}
}

func (s *Session) currentTab() (*tab, error) {
	if s.closed {
		return nil, fmt.Errorf("session closed: %w", browser.ErrSessionClosed)
	}
	return s.tabs.Current()
}

// navigate loads url in the tab and waits for the load event, bounded by
// the action timeout.
func navigate(t *tab, url string, a browser.Action) error {
	page := t.page.Timeout(a.Timeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return page.WaitLoad()
}

// NavigateTo loads url in the current tab.
func (s *Session) NavigateTo(url string, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("navigate to %s", url), opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		return navigate(t, url, a)
	})
}

// NavigateBack goes one entry back in the current tab's history.
func (s *Session) NavigateBack(opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, "navigate back", opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		page := t.page.Timeout(a.Timeout)
		if err := page.NavigateBack(); err != nil {
			return err
		}
		return page.WaitLoad()
	})
}

// NavigateForward goes one entry forward in the current tab's history.
func (s *Session) NavigateForward(opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, "navigate forward", opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		page := t.page.Timeout(a.Timeout)
		if err := page.NavigateForward(); err != nil {
			return err
		}
		return page.WaitLoad()
	})
}

// Refresh reloads the current tab.
func (s *Session) Refresh(opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, "refresh", opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		page := t.page.Timeout(a.Timeout)
		if err := page.Reload(); err != nil {
			return err
		}
		return page.WaitLoad()
	})
}

// OpenTab appends a new tab, selects it, and navigates it when url is
// non-empty.
func (s *Session) OpenTab(url string, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("open tab %s", url), opts, func(a browser.Action) error {
		if _, err := s.currentTab(); err != nil {
			return err
		}
		page, err := s.newPage()
		if err != nil {
			return err
		}
		t := &tab{page: page}
		s.tabs.Append(t)
		if _, err := page.Activate(); err != nil {
			return err
		}
		if url == "" {
			return nil
		}
		return navigate(t, url, a)
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
			_, _ = cur.page.Activate()
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
		_, err = t.page.Activate()
		return err
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
		info, err := t.page.Info()
		if err != nil {
			return "", err
		}
		return info.URL, nil
	})
}

// Title reports the current tab's document title.
func (s *Session) Title(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(s.policy, "get title", opts, func(a browser.Action) (string, error) {
		t, err := s.currentTab()
		if err != nil {
			return "", err
		}
		info, err := t.page.Info()
		if err != nil {
			return "", err
		}
		return info.Title, nil
	})
}

// Scroll wheels the current tab by the given deltas.
func (s *Session) Scroll(dx, dy float64, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("scroll by (%.0f, %.0f)", dx, dy), opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		return t.page.Mouse.Scroll(dx, dy, 1)
	})
}

// WaitFor blocks until sel resolves at least one node on the current tab.
// The engine's deadline maps to ErrElementNotFound.
func (s *Session) WaitFor(sel string, opts ...browser.ActionOptions) error {
	return browser.Run(s.policy, fmt.Sprintf("wait for %s", sel), opts, func(a browser.Action) error {
		t, err := s.currentTab()
		if err != nil {
			return err
		}
		if _, err := t.page.Timeout(a.Timeout).Element(sel); err != nil {
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
		page := t.page.Timeout(a.Timeout)
		var res *proto.RuntimeRemoteObject
		if arg == nil {
			res, err = page.Eval(fn)
		} else {
			res, err = page.Eval(fn, arg)
		}
		if err != nil {
			return nil, err
		}
		return res.Value.Val(), nil
	})
}

// Screenshot captures the current tab, writing the image to path when
// non-empty, and returns the PNG bytes.
func (s *Session) Screenshot(path string, fullPage bool, opts ...browser.ActionOptions) ([]byte, error) {
	return browser.RunValue(s.policy, "screenshot", opts, func(a browser.Action) ([]byte, error) {
		t, err := s.currentTab()
		if err != nil {
			return nil, err
		}
		data, err := t.page.Timeout(a.Timeout).Screenshot(fullPage, nil)
		if err != nil {
			return nil, fmt.Errorf("screenshot failed: %w", err)
		}
		if path != "" {
			if err := os.WriteFile(path, data, 0644); err != nil {
				return nil, fmt.Errorf("failed to write screenshot: %w", err)
			}
		}
		return data, nil
	})
}

// PDF renders the current tab to PDF, writing to path when non-empty.
func (s *Session) PDF(path string, opts ...browser.ActionOptions) ([]byte, error) {
	return browser.RunValue(s.policy, "render pdf", opts, func(a browser.Action) ([]byte, error) {
		t, err := s.currentTab()
		if err != nil {
			return nil, err
		}
		reader, err := t.page.Timeout(a.Timeout).PDF(&proto.PagePrintToPDF{
			PrintBackground: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate pdf: %w", err)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read pdf stream: %w", err)
		}
		if path != "" {
			if err := os.WriteFile(path, data, 0644); err != nil {
				return nil, fmt.Errorf("failed to write pdf: %w", err)
			}
		}
		return data, nil
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

// CloseBrowser releases the Chromium process unconditionally.
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
	if err := s.engine.Close(); err != nil {
		errs = append(errs, err)
	}
	s.launch.Kill()
	s.launch.Cleanup()

	s.log.Infof("rod session closed")
	if len(errs) > 0 {
		return fmt.Errorf("errors closing session: %v", errs)
	}
	return nil
}
