package browser

import "errors"

// Sentinel errors for the failure classes callers are expected to branch on.
// Adapters wrap these with fmt.Errorf("...: %w", ...) so errors.Is works
// across backends; engine-reported failures (timeouts, navigation errors,
// stale handles) pass through unwrapped.
var (
	// ErrUnsupportedBackend reports an unrecognized backend name or an
	// engine variant the chosen backend cannot drive.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrTabNotFound reports a tab index outside [0, TabCount()-1].
	ErrTabNotFound = errors.New("tab not found")

	// ErrElementNotFound reports a selector that resolved zero nodes.
	ErrElementNotFound = errors.New("element not found")

	// ErrElementNotVisible reports an element with no bounding geometry
	// (not rendered).
	ErrElementNotVisible = errors.New("element not visible")

	// ErrSessionClosed reports an operation on a session whose last tab
	// was closed or whose browser was shut down.
	ErrSessionClosed = errors.New("browser session closed")
)
