// Package browser defines the engine-agnostic browser automation contracts.
//
// The package exposes one capability set, Browser and Element, that can be
// backed interchangeably by structurally different automation engines.
// Calling code written against these interfaces runs unchanged on either
// backend; the differences between a lazy re-resolving locator model and a
// captured-handle model stay inside the adapters.
//
// # Architecture
//
// The package is built around four pieces:
//
//  1. Browser: one engine process, one browsing context, an ordered tab
//     sequence with a current-tab pointer, and the top-level navigation and
//     input operations.
//  2. Element: an immutable selector recipe scoped to a session. Operations
//     re-evaluate the recipe against the live DOM, so collection results are
//     never stale captures.
//  3. Policy: the per-call execution wrapper resolving timeout, logging, and
//     throw-vs-swallow configuration as defaults merged with call-site
//     overrides.
//  4. Tabs: the shared tab-lifecycle state machine both adapters delegate
//     to, keeping 0 <= current < len(tabs) and the terminal close-last-tab
//     transition identical across engines.
//
// Sessions are constructed by the backends package:
//
//	cfg := config.Default()
//	cfg.Backend = "playwright"
//	b, err := backends.Open(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer b.CloseBrowser()
//
//	if err := b.NavigateTo("https://example.com"); err != nil {
//	    return err
//	}
//	title, err := b.Selector("h1").Text()
//
// # Failure policy
//
// Every operation accepts trailing ActionOptions. With ThrowOnFail true (the
// default) failures propagate as wrapped errors; with it false, failures are
// logged and the operation returns its zero result with a nil error. There
// is no retry path in either mode. Sentinel errors (ErrElementNotFound,
// ErrTabNotFound, ...) support errors.Is across both backends.
package browser
