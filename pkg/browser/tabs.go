package browser

import "fmt"

// Tabs tracks a session's ordered tab sequence and current-tab pointer. Both
// adapters delegate their tab bookkeeping here so the lifecycle rules hold
// identically across engines: 0 <= current < Len() while any tab is open,
// most-recently-opened reselection on close, and a terminal state once the
// sequence empties.
//
// Tabs does no locking. A session has one cooperative caller; two call paths
// mutating the same session is caller error.
type Tabs[P any] struct {
	items   []P
	current int
}

// NewTabs returns an empty tab list. The first Append puts it in the open
// state.
func NewTabs[P any]() *Tabs[P] {
	return &Tabs[P]{current: -1}
}

// Len reports the number of open tabs.
func (t *Tabs[P]) Len() int {
	return len(t.items)
}

// CurrentIndex reports the current-tab index, or -1 when no tabs remain.
func (t *Tabs[P]) CurrentIndex() int {
	if len(t.items) == 0 {
		return -1
	}
	return t.current
}

// Current returns the current tab.
func (t *Tabs[P]) Current() (P, error) {
	var zero P
	if len(t.items) == 0 {
		return zero, fmt.Errorf("no open tabs: %w", ErrSessionClosed)
	}
	return t.items[t.current], nil
}

// Append adds a tab to the end of the sequence and makes it current.
func (t *Tabs[P]) Append(p P) {
	t.items = append(t.items, p)
	t.current = len(t.items) - 1
}

// Switch makes the tab at index i current.
func (t *Tabs[P]) Switch(i int) error {
	if i < 0 || i >= len(t.items) {
		return fmt.Errorf("%w: index %d with %d tabs", ErrTabNotFound, i, len(t.items))
	}
	t.current = i
	return nil
}

// CloseCurrent removes the current tab from the sequence and returns it so
// the adapter can close the engine page. When tabs remain, the last one
// (most recently opened) becomes current; when none remain the list is
// terminal and Current returns ErrSessionClosed.
func (t *Tabs[P]) CloseCurrent() (P, error) {
	var zero P
	if len(t.items) == 0 {
		return zero, fmt.Errorf("no open tabs: %w", ErrSessionClosed)
	}
	closed := t.items[t.current]
	t.items = append(t.items[:t.current], t.items[t.current+1:]...)
	if len(t.items) == 0 {
		t.current = -1
	} else {
		t.current = len(t.items) - 1
	}
	return closed, nil
}
