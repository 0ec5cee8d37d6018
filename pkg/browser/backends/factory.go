// Package backends constructs browser sessions from configuration. It is
// the single entry point for opening a session: it validates the engine
// selection before anything launches and dispatches to the matching adapter.
package backends

import (
	"fmt"

	"github.com/entrhq/rudder/pkg/browser"
	pwadapter "github.com/entrhq/rudder/pkg/browser/adapters/playwright"
	rodadapter "github.com/entrhq/rudder/pkg/browser/adapters/rod"
	"github.com/entrhq/rudder/pkg/config"
	"github.com/entrhq/rudder/pkg/logging"
)

// Open launches the configured engine and returns a live session with one
// blank tab. Unknown backends and variants fail with ErrUnsupportedBackend
// before any launch; rod additionally refuses non-Chromium variants. A nil
// logger disables logging.
func Open(cfg config.Config, log *logging.Logger) (browser.Browser, error) {
	backend, err := browser.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	variant, err := browser.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logging.Nop()
	}

	timeout := cfg.ActionTimeout
	if timeout == 0 {
		timeout = browser.DefaultTimeout
	}
	defaults := browser.Defaults{
		Timeout:     timeout,
		Log:         cfg.LogActions,
		ThrowOnFail: cfg.ThrowOnFail,
	}

	switch backend {
	case browser.BackendPlaywright:
		return pwadapter.Connect(pwadapter.Options{
			Variant:        variant,
			Headless:       cfg.Headless,
			ViewportWidth:  cfg.Viewport.Width,
			ViewportHeight: cfg.Viewport.Height,
			Defaults:       defaults,
			Logger:         log,
		})
	case browser.BackendRod:
		return rodadapter.Connect(rodadapter.Options{
			Variant:        variant,
			Headless:       cfg.Headless,
			Bin:            cfg.BrowserBinary,
			ViewportWidth:  cfg.Viewport.Width,
			ViewportHeight: cfg.Viewport.Height,
			Defaults:       defaults,
			Logger:         log,
		})
	default:
		return nil, fmt.Errorf("%w: %q", browser.ErrUnsupportedBackend, backend)
	}
}
