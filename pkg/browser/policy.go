package browser

import (
	"github.com/entrhq/rudder/pkg/logging"
)

// Policy executes operations under a session's resolved configuration. It is
// the single point deciding whether a failure propagates to the caller or is
// recorded and swallowed; there is no retry path in either mode.
type Policy struct {
	Defaults Defaults
	Logger   *logging.Logger
}

// NewPolicy builds a policy over the given defaults. A nil logger is
// replaced with a no-op logger so adapters never guard their log calls.
func NewPolicy(d Defaults, logger *logging.Logger) *Policy {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Policy{Defaults: d, Logger: logger}
}

// Resolve merges the call-site overlay onto the policy defaults.
func (p *Policy) Resolve(opts ...ActionOptions) Action {
	return p.Defaults.Resolve(opts...)
}

// Run executes op under the resolved policy for a result-free operation.
// name describes the operation for logging when the call site supplies no
// Message.
func Run(p *Policy, name string, opts []ActionOptions, op func(Action) error) error {
	_, err := RunValue(p, name, opts, func(a Action) (struct{}, error) {
		return struct{}{}, op(a)
	})
	return err
}

// RunValue executes op under the resolved policy. On success the result
// passes through unchanged. On failure with ThrowOnFail the error propagates;
// otherwise the failure is logged and the zero value returns with a nil
// error, per the fail-open contract.
func RunValue[T any](p *Policy, name string, opts []ActionOptions, op func(Action) (T, error)) (T, error) {
	a := p.Resolve(opts...)
	msg := a.Message
	if msg == "" {
		msg = name
	}
	if a.Log {
		p.Logger.Infof("%s", msg)
	}

	v, err := op(a)
	if err == nil {
		return v, nil
	}
	if a.ThrowOnFail {
		return v, err
	}
	p.Logger.Errorf("%s failed (suppressed): %v", msg, err)
	var zero T
	return zero, nil
}
