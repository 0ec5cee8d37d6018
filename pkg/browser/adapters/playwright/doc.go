// Package playwright drives browser sessions through the Playwright
// protocol. It supports the chromium, firefox, and webkit variants.
//
// Elements are backed by Playwright locators: lazy references that
// re-resolve against the live DOM on every operation. Locator operations
// run in strict mode, so a selector that matches more than one node makes
// single-target operations fail with the engine's ambiguity error rather
// than silently picking a match. Scope with Selector and Nth when a
// selector is not unique.
//
// Import under a name when combining with the rod adapter:
//
//	import pwadapter "github.com/entrhq/rudder/pkg/browser/adapters/playwright"
package playwright
