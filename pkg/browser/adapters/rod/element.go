package rod

import (
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// part is one step of a selector recipe: a CSS selector scoped to the
// matches of the previous step, or an index into them.
type part struct {
	sel string
	idx int
	nth bool
}

// element implements browser.Element as a selector recipe. No handle is
// held between operations; each one re-resolves the chain and acts on a
// fresh capture.
type element struct {
	s     *Session
	tab   *tab
	chain []part
	desc  string

	// err is set when the recipe was created on a closed session. Every
	// operation surfaces it through the policy.
	err error
}

var _ browser.Element = (*element)(nil)

// String returns the composed selector expression.
func (e *element) String() string {
	return e.desc
}

// Selector scopes a new element to matches of sel within this element.
func (e *element) Selector(sel string) browser.Element {
	next := &element{
		s:    e.s,
		tab:  e.tab,
		desc: e.desc + " >> " + sel,
		err:  e.err,
	}
	next.chain = append(append([]part{}, e.chain...), part{sel: sel})
	return next
}

// Nth scopes a new element to the i-th current match.
func (e *element) Nth(i int) browser.Element {
	next := &element{
		s:    e.s,
		tab:  e.tab,
		desc: fmt.Sprintf("%s >> nth=%d", e.desc, i),
		err:  e.err,
	}
	next.chain = append(append([]part{}, e.chain...), part{idx: i, nth: true})
	return next
}

func (e *element) guard() error {
	if e.err != nil {
		return e.err
	}
	if e.s.closed {
		return fmt.Errorf("session closed: %w", browser.ErrSessionClosed)
	}
	return nil
}

// resolveAll walks the recipe against the current DOM and returns every
// match in document order. With wait set, the first step uses the engine's
// element wait so content still loading gets its chance to appear; the
// walk itself never retries.
func (e *element) resolveAll(d time.Duration, wait bool) (rod.Elements, error) {
	var current rod.Elements
	for i, p := range e.chain {
		switch {
		case p.nth:
			if p.idx < 0 || p.idx >= len(current) {
				return nil, nil
			}
			current = rod.Elements{current[p.idx]}
		case i == 0:
			if wait {
				if _, err := e.tab.page.Timeout(d).Element(p.sel); err != nil {
					return nil, nil
				}
			}
			matches, err := e.tab.page.Elements(p.sel)
			if err != nil {
				return nil, fmt.Errorf("selector %q failed: %w", p.sel, err)
			}
			current = matches
		default:
			var next rod.Elements
			for _, parent := range current {
				matches, err := parent.Elements(p.sel)
				if err != nil {
					return nil, fmt.Errorf("selector %q failed: %w", p.sel, err)
				}
				next = append(next, matches...)
			}
			current = next
		}
	}
	return current, nil
}

// resolveFirst captures the recipe's first match, waiting via the engine
// when the recipe is a plain selector.
func (e *element) resolveFirst(d time.Duration) (*rod.Element, error) {
	if len(e.chain) == 1 && !e.chain[0].nth {
		el, err := e.tab.page.Timeout(d).Element(e.chain[0].sel)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", browser.ErrElementNotFound, e.desc, err)
		}
		return el, nil
	}
	matches, err := e.resolveAll(d, true)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", browser.ErrElementNotFound, e.desc)
	}
	return matches[0], nil
}

func (e *element) Click(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "click "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return err
		}
		return el.Timeout(a.Timeout).Click(proto.InputMouseButtonLeft, 1)
	})
}

// Fill selects any existing content and replaces it with text.
func (e *element) Fill(text string, opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "fill "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return err
		}
		el = el.Timeout(a.Timeout)
		if err := el.SelectAllText(); err == nil {
			_ = el.Input("")
		}
		if err := el.Input(text); err != nil {
			return fmt.Errorf("input failed: %w", err)
		}
		return nil
	})
}

func (e *element) Clear(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "clear "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return err
		}
		el = el.Timeout(a.Timeout)
		if err := el.SelectAllText(); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		return el.Input("")
	})
}

func (e *element) Hover(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "hover "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return err
		}
		el = el.Timeout(a.Timeout)
		if err := el.ScrollIntoView(); err != nil {
			e.s.log.Warnf("scroll into view before hover failed: %v", err)
		}
		return el.Hover()
	})
}

func (e *element) RightClick(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "right click "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return err
		}
		return el.Timeout(a.Timeout).Click(proto.InputMouseButtonRight, 1)
	})
}

func (e *element) DoubleClick(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "double click "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return err
		}
		return el.Timeout(a.Timeout).Click(proto.InputMouseButtonLeft, 2)
	})
}

// Submit submits the form enclosing the resolved node. requestSubmit keeps
// submit event handlers in the loop when the page supports it.
func (e *element) Submit(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "submit "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return err
		}
		_, err = el.Timeout(a.Timeout).Eval(`() => {
			const form = this.form || this.closest('form');
			if (!form) throw new Error('element is not inside a form');
			if (typeof form.requestSubmit === 'function') {
				form.requestSubmit();
			} else {
				form.submit();
			}
		}`)
		return err
	})
}

// DragAndDrop drags the resolved node onto target with a pressed pointer
// move between the two centers.
func (e *element) DragAndDrop(target browser.Element, opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, fmt.Sprintf("drag %s onto %v", e.desc, target), opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		t, ok := target.(*element)
		if !ok || t.s != e.s {
			return fmt.Errorf("drag target %v does not belong to this session", target)
		}
		if t.err != nil {
			return t.err
		}

		from, err := e.location(a.Timeout)
		if err != nil {
			return err
		}
		to, err := t.location(a.Timeout)
		if err != nil {
			return err
		}

		fromX, fromY := from.Center()
		toX, toY := to.Center()
		mouse := e.tab.page.Mouse
		if err := mouse.MoveLinear(proto.Point{X: fromX, Y: fromY}, 10); err != nil {
			return fmt.Errorf("failed to move to drag source: %w", err)
		}
		if err := mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("failed to press at drag source: %w", err)
		}
		if err := mouse.MoveLinear(proto.Point{X: toX, Y: toY}, 10); err != nil {
			return fmt.Errorf("failed to move to drag target: %w", err)
		}
		if err := mouse.Up(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("failed to release at drag target: %w", err)
		}
		return nil
	})
}

func (e *element) Text(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, "get text "+e.desc, opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return "", err
		}
		return el.Timeout(a.Timeout).Text()
	})
}

func (e *element) Value(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, "get value "+e.desc, opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return "", err
		}
		value, err := el.Timeout(a.Timeout).Property("value")
		if err != nil {
			return "", err
		}
		return value.Str(), nil
	})
}

// Attribute returns "" for an attribute the node does not carry.
func (e *element) Attribute(name string, opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, fmt.Sprintf("get attribute %s of %s", name, e.desc), opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return "", err
		}
		value, err := el.Timeout(a.Timeout).Attribute(name)
		if err != nil {
			return "", err
		}
		if value == nil {
			return "", nil
		}
		return *value, nil
	})
}

func (e *element) CSSValue(property string, opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, fmt.Sprintf("get css %s of %s", property, e.desc), opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return "", err
		}
		res, err := el.Timeout(a.Timeout).Eval(
			`(prop) => window.getComputedStyle(this).getPropertyValue(prop)`, property)
		if err != nil {
			return "", err
		}
		return res.Value.Str(), nil
	})
}

func (e *element) TagName(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, "get tag name "+e.desc, opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return "", err
		}
		tag, err := el.Timeout(a.Timeout).Property("tagName")
		if err != nil {
			return "", err
		}
		return strings.ToLower(tag.Str()), nil
	})
}

// HTML returns the node's outer HTML.
func (e *element) HTML(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, "get html "+e.desc, opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return "", err
		}
		return el.Timeout(a.Timeout).HTML()
	})
}

func (e *element) IsEnabled(opts ...browser.ActionOptions) (bool, error) {
	return browser.RunValue(e.s.policy, "is enabled "+e.desc, opts, func(a browser.Action) (bool, error) {
		if err := e.guard(); err != nil {
			return false, err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return false, err
		}
		res, err := el.Timeout(a.Timeout).Eval(`() => !this.disabled`)
		if err != nil {
			return false, err
		}
		return res.Value.Bool(), nil
	})
}

func (e *element) IsVisible(opts ...browser.ActionOptions) (bool, error) {
	return browser.RunValue(e.s.policy, "is visible "+e.desc, opts, func(a browser.Action) (bool, error) {
		if err := e.guard(); err != nil {
			return false, err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return false, err
		}
		return el.Timeout(a.Timeout).Visible()
	})
}

// IsSelected reports checkbox/radio checked state and option selected state
// through one DOM expression, since the engines disagree on which element
// kinds their native checks accept.
func (e *element) IsSelected(opts ...browser.ActionOptions) (bool, error) {
	return browser.RunValue(e.s.policy, "is selected "+e.desc, opts, func(a browser.Action) (bool, error) {
		if err := e.guard(); err != nil {
			return false, err
		}
		el, err := e.resolveFirst(a.Timeout)
		if err != nil {
			return false, err
		}
		res, err := el.Timeout(a.Timeout).Eval(`() => !!(this.checked || this.selected)`)
		if err != nil {
			return false, err
		}
		return res.Value.Bool(), nil
	})
}

// Location returns the node's bounding box. A node the engine cannot lay
// out reports ErrElementNotVisible.
func (e *element) Location(opts ...browser.ActionOptions) (browser.Rect, error) {
	return browser.RunValue(e.s.policy, "get location "+e.desc, opts, func(a browser.Action) (browser.Rect, error) {
		if err := e.guard(); err != nil {
			return browser.Rect{}, err
		}
		return e.location(a.Timeout)
	})
}

func (e *element) location(d time.Duration) (browser.Rect, error) {
	el, err := e.resolveFirst(d)
	if err != nil {
		return browser.Rect{}, err
	}
	shape, err := el.Timeout(d).Shape()
	if err != nil {
		return browser.Rect{}, fmt.Errorf("%w: %q: %v", browser.ErrElementNotVisible, e.desc, err)
	}
	box := shape.Box()
	if box == nil {
		return browser.Rect{}, fmt.Errorf("%w: %q", browser.ErrElementNotVisible, e.desc)
	}
	return browser.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

// Count reports how many nodes currently match, without waiting.
func (e *element) Count(opts ...browser.ActionOptions) (int, error) {
	return browser.RunValue(e.s.policy, "count "+e.desc, opts, func(a browser.Action) (int, error) {
		if err := e.guard(); err != nil {
			return 0, err
		}
		matches, err := e.resolveAll(a.Timeout, false)
		if err != nil {
			return 0, err
		}
		return len(matches), nil
	})
}

// ForEach visits each current match in document order.
func (e *element) ForEach(fn func(el browser.Element, i int) error, opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "for each "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		matches, err := e.resolveAll(a.Timeout, false)
		if err != nil {
			return err
		}
		for i := range matches {
			if err := fn(e.Nth(i), i); err != nil {
				return err
			}
		}
		return nil
	})
}

// Filter collects the matches fn keeps, in document order.
func (e *element) Filter(fn func(el browser.Element, i int) (bool, error), opts ...browser.ActionOptions) ([]browser.Element, error) {
	return browser.RunValue(e.s.policy, "filter "+e.desc, opts, func(a browser.Action) ([]browser.Element, error) {
		if err := e.guard(); err != nil {
			return nil, err
		}
		matches, err := e.resolveAll(a.Timeout, false)
		if err != nil {
			return nil, err
		}
		var kept []browser.Element
		for i := range matches {
			child := e.Nth(i)
			keep, err := fn(child, i)
			if err != nil {
				return nil, err
			}
			if keep {
				kept = append(kept, child)
			}
		}
		return kept, nil
	})
}

// Map collects fn's results for each match, in document order.
func (e *element) Map(fn func(el browser.Element, i int) (any, error), opts ...browser.ActionOptions) ([]any, error) {
	return browser.RunValue(e.s.policy, "map "+e.desc, opts, func(a browser.Action) ([]any, error) {
		if err := e.guard(); err != nil {
			return nil, err
		}
		matches, err := e.resolveAll(a.Timeout, false)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(matches))
		for i := range matches {
			v, err := fn(e.Nth(i), i)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	})
}
