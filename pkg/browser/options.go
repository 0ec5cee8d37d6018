package browser

import "time"

// ActionOptions is the per-call configuration overlay accepted by every
// Browser and Element operation. Zero values mean "inherit": resolution
// merges package defaults, then the session's configured defaults, then the
// call-site overlay, with the call site winning.
//
// Timeout is advisory. It is handed to the engine call (locator timeouts,
// handle-resolution deadlines); this layer never races a watchdog against
// the backend.
type ActionOptions struct {
	// Timeout bounds the engine-side wait for this call. 0 inherits the
	// session default.
	Timeout time.Duration

	// Log, when set, overrides whether the resolved action message is
	// emitted before execution.
	Log *bool

	// ThrowOnFail, when set, overrides the failure policy: true propagates
	// errors to the caller, false records them and returns the operation's
	// zero result.
	ThrowOnFail *bool

	// Message replaces the operation's generated log line.
	Message string
}

// Bool returns a pointer to v, for filling the tri-state option fields.
func Bool(v bool) *bool {
	b := v
	return &b
}

// Defaults holds a session's resolved policy configuration.
type Defaults struct {
	Timeout     time.Duration
	Log         bool
	ThrowOnFail bool
}

// StandardDefaults returns the package-level policy: 30s advisory timeout,
// quiet, fail-closed.
func StandardDefaults() Defaults {
	return Defaults{
		Timeout:     DefaultTimeout,
		Log:         false,
		ThrowOnFail: true,
	}
}

// Action is one call's fully resolved policy.
type Action struct {
	Timeout     time.Duration
	Log         bool
	ThrowOnFail bool
	Message     string
}

// Resolve merges the session defaults with the call-site overlay. Pure and
// order-deterministic: later options in opts win over earlier ones, and any
// set field wins over the session default.
func (d Defaults) Resolve(opts ...ActionOptions) Action {
	if d.Timeout == 0 {
		d.Timeout = DefaultTimeout
	}
	a := Action{
		Timeout:     d.Timeout,
		Log:         d.Log,
		ThrowOnFail: d.ThrowOnFail,
	}
	for _, o := range opts {
		if o.Timeout > 0 {
			a.Timeout = o.Timeout
		}
		if o.Log != nil {
			a.Log = *o.Log
		}
		if o.ThrowOnFail != nil {
			a.ThrowOnFail = *o.ThrowOnFail
		}
		if o.Message != "" {
			a.Message = o.Message
		}
	}
	return a
}
