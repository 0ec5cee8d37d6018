package playwright

import (
	"fmt"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/playwright-community/playwright-go"
)

// element implements browser.Element on a Playwright locator. The locator
// carries the lazy reference; composing with Selector or Nth derives a new
// locator without resolving anything.
type element struct {
	s    *Session
	tab  *tab
	loc  playwright.Locator
	desc string

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
	if e.err != nil {
		return &element{s: e.s, desc: e.desc + " >> " + sel, err: e.err}
	}
	return &element{
		s:    e.s,
		tab:  e.tab,
		loc:  e.loc.Locator(sel),
		desc: e.desc + " >> " + sel,
	}
}

// Nth scopes a new element to the i-th current match.
func (e *element) Nth(i int) browser.Element {
	desc := fmt.Sprintf("%s >> nth=%d", e.desc, i)
	if e.err != nil {
		return &element{s: e.s, desc: desc, err: e.err}
	}
	return &element{s: e.s, tab: e.tab, loc: e.loc.Nth(i), desc: desc}
}

// guard reports the sticky creation error or a closed session before any
// engine call is attempted.
func (e *element) guard() error {
	if e.err != nil {
		return e.err
	}
	if e.s.closed {
		return fmt.Errorf("session closed: %w", browser.ErrSessionClosed)
	}
	return nil
}

// classify maps engine failures on an empty match set to ErrElementNotFound.
// The check runs after the operation so the locator's own waiting still
// applies; strict-mode ambiguity errors pass through untouched.
func (e *element) classify(err error) error {
	if err == nil {
		return nil
	}
	if n, countErr := e.loc.Count(); countErr == nil && n == 0 {
		return fmt.Errorf("%w: %q: %v", browser.ErrElementNotFound, e.desc, err)
	}
	return err
}

func (e *element) Click(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "click "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		return e.classify(e.loc.Click(playwright.LocatorClickOptions{Timeout: pwTimeout(a)}))
	})
}

func (e *element) Fill(text string, opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "fill "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		return e.classify(e.loc.Fill(text, playwright.LocatorFillOptions{Timeout: pwTimeout(a)}))
	})
}

func (e *element) Clear(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "clear "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		return e.classify(e.loc.Clear(playwright.LocatorClearOptions{Timeout: pwTimeout(a)}))
	})
}

func (e *element) Hover(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "hover "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		return e.classify(e.loc.Hover(playwright.LocatorHoverOptions{Timeout: pwTimeout(a)}))
	})
}

func (e *element) RightClick(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "right click "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		return e.classify(e.loc.Click(playwright.LocatorClickOptions{
			Button:  playwright.MouseButtonRight,
			Timeout: pwTimeout(a),
		}))
	})
}

func (e *element) DoubleClick(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "double click "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		return e.classify(e.loc.Dblclick(playwright.LocatorDblclickOptions{Timeout: pwTimeout(a)}))
	})
}

// Submit submits the form enclosing the resolved node. requestSubmit keeps
// submit event handlers in the loop when the page supports it.
func (e *element) Submit(opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "submit "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		_, err := e.loc.Evaluate(`el => {
			const form = el.form || el.closest('form');
			if (!form) throw new Error('element is not inside a form');
			if (typeof form.requestSubmit === 'function') {
				form.requestSubmit();
			} else {
				form.submit();
			}
		}`, nil, playwright.LocatorEvaluateOptions{Timeout: pwTimeout(a)})
		return e.classify(err)
	})
}

// DragAndDrop drags the resolved node onto target, which must come from the
// same session.
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
		return e.classify(e.loc.DragTo(t.loc, playwright.LocatorDragToOptions{Timeout: pwTimeout(a)}))
	})
}

func (e *element) Text(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, "get text "+e.desc, opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		text, err := e.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: pwTimeout(a)})
		return text, e.classify(err)
	})
}

func (e *element) Value(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, "get value "+e.desc, opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		value, err := e.loc.InputValue(playwright.LocatorInputValueOptions{Timeout: pwTimeout(a)})
		return value, e.classify(err)
	})
}

// Attribute returns "" for an attribute the node does not carry.
func (e *element) Attribute(name string, opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, fmt.Sprintf("get attribute %s of %s", name, e.desc), opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		value, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: pwTimeout(a)})
		return value, e.classify(err)
	})
}

func (e *element) CSSValue(property string, opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, fmt.Sprintf("get css %s of %s", property, e.desc), opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		res, err := e.loc.Evaluate(
			`(el, prop) => window.getComputedStyle(el).getPropertyValue(prop)`,
			property,
			playwright.LocatorEvaluateOptions{Timeout: pwTimeout(a)},
		)
		if err != nil {
			return "", e.classify(err)
		}
		value, _ := res.(string)
		return value, nil
	})
}

func (e *element) TagName(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, "get tag name "+e.desc, opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		res, err := e.loc.Evaluate(`el => el.tagName.toLowerCase()`, nil,
			playwright.LocatorEvaluateOptions{Timeout: pwTimeout(a)})
		if err != nil {
			return "", e.classify(err)
		}
		tag, _ := res.(string)
		return tag, nil
	})
}

// HTML returns the node's outer HTML.
func (e *element) HTML(opts ...browser.ActionOptions) (string, error) {
	return browser.RunValue(e.s.policy, "get html "+e.desc, opts, func(a browser.Action) (string, error) {
		if err := e.guard(); err != nil {
			return "", err
		}
		res, err := e.loc.Evaluate(`el => el.outerHTML`, nil,
			playwright.LocatorEvaluateOptions{Timeout: pwTimeout(a)})
		if err != nil {
			return "", e.classify(err)
		}
		html, _ := res.(string)
		return html, nil
	})
}

func (e *element) IsEnabled(opts ...browser.ActionOptions) (bool, error) {
	return browser.RunValue(e.s.policy, "is enabled "+e.desc, opts, func(a browser.Action) (bool, error) {
		if err := e.guard(); err != nil {
			return false, err
		}
		enabled, err := e.loc.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: pwTimeout(a)})
		return enabled, e.classify(err)
	})
}

// IsVisible reports false for a hidden node and ErrElementNotFound for a
// missing one; the engine itself reports false for both.
func (e *element) IsVisible(opts ...browser.ActionOptions) (bool, error) {
	return browser.RunValue(e.s.policy, "is visible "+e.desc, opts, func(a browser.Action) (bool, error) {
		if err := e.guard(); err != nil {
			return false, err
		}
		visible, err := e.loc.IsVisible()
		if err != nil {
			return false, e.classify(err)
		}
		if !visible {
			if n, countErr := e.loc.Count(); countErr == nil && n == 0 {
				return false, fmt.Errorf("%w: %q", browser.ErrElementNotFound, e.desc)
			}
		}
		return visible, nil
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
		res, err := e.loc.Evaluate(`el => !!(el.checked || el.selected)`, nil,
			playwright.LocatorEvaluateOptions{Timeout: pwTimeout(a)})
		if err != nil {
			return false, e.classify(err)
		}
		selected, _ := res.(bool)
		return selected, nil
	})
}

// Location returns the node's bounding box. A node the engine cannot lay
// out reports ErrElementNotVisible.
func (e *element) Location(opts ...browser.ActionOptions) (browser.Rect, error) {
	return browser.RunValue(e.s.policy, "get location "+e.desc, opts, func(a browser.Action) (browser.Rect, error) {
		if err := e.guard(); err != nil {
			return browser.Rect{}, err
		}
		box, err := e.loc.BoundingBox(playwright.LocatorBoundingBoxOptions{Timeout: pwTimeout(a)})
		if err != nil {
			return browser.Rect{}, e.classify(err)
		}
		if box == nil {
			return browser.Rect{}, fmt.Errorf("%w: %q", browser.ErrElementNotVisible, e.desc)
		}
		return browser.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
	})
}

// Count reports how many nodes currently match, without waiting.
func (e *element) Count(opts ...browser.ActionOptions) (int, error) {
	return browser.RunValue(e.s.policy, "count "+e.desc, opts, func(a browser.Action) (int, error) {
		if err := e.guard(); err != nil {
			return 0, err
		}
		return e.loc.Count()
	})
}

// ForEach visits each current match in document order.
func (e *element) ForEach(fn func(el browser.Element, i int) error, opts ...browser.ActionOptions) error {
	return browser.Run(e.s.policy, "for each "+e.desc, opts, func(a browser.Action) error {
		if err := e.guard(); err != nil {
			return err
		}
		n, err := e.loc.Count()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
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
		n, err := e.loc.Count()
		if err != nil {
			return nil, err
		}
		var kept []browser.Element
		for i := 0; i < n; i++ {
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
		n, err := e.loc.Count()
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := fn(e.Nth(i), i)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	})
}
