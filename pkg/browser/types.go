package browser

import (
	"fmt"
	"time"
)

// Backend identifies the automation engine driving a session.
type Backend string

const (
	// BackendPlaywright drives browsers through the Playwright protocol.
	// Elements are lazy locators that re-resolve on every operation.
	BackendPlaywright Backend = "playwright"

	// BackendRod drives Chromium over the DevTools protocol. Elements are
	// captured handles, re-captured per operation so stale references never
	// leak into callers.
	BackendRod Backend = "rod"
)

// Variant selects the browser flavor a backend launches.
type Variant string

const (
	VariantChromium Variant = "chromium"
	VariantFirefox  Variant = "firefox"
	VariantWebKit   Variant = "webkit"
)

// Default policy values applied when neither the session configuration nor
// the call site overrides them.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultDialogTimeout = 30 * time.Second
)

// ParseBackend validates a backend name from configuration.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendPlaywright, BackendRod:
		return Backend(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, s)
	}
}

// ParseVariant validates an engine variant name from configuration.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantChromium, VariantFirefox, VariantWebKit:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("%w: unknown variant %q", ErrUnsupportedBackend, s)
	}
}

// Rect is an element's bounding geometry in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rectangle, the coordinate input
// gestures target.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Dialog describes the outcome of waiting for a native JavaScript dialog.
// A bounded wait that saw no dialog reports TimedOut=true with a nil error;
// callers that need to distinguish must check the flag.
type Dialog struct {
	Type         string
	Message      string
	DefaultValue string
	TimedOut     bool
}
