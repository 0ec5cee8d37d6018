// Package rod drives Chromium sessions over the DevTools protocol using
// go-rod. Firefox and WebKit variants are not available on this backend.
//
// Elements are captured handles: every operation re-resolves the selector
// recipe against the live DOM, takes a fresh handle, and acts on it, so a
// handle from a previous call never goes stale in caller hands. When a
// selector matches more than one node, single-target operations act on the
// first match in document order. Scope with Selector and Nth when that is
// not the node you mean.
//
// Import under a name when combining with the playwright adapter:
//
//	import rodadapter "github.com/entrhq/rudder/pkg/browser/adapters/rod"
package rod
