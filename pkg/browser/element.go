package browser

// Element is a logical reference to zero or more DOM nodes selected by a
// selector expression and scoped to one session. It is a recipe, not a
// snapshot: implementations re-evaluate the selector whenever an operation
// needs current DOM state, so a stale engine handle never surfaces to the
// caller. Elements are immutable values; Selector and Nth compose new
// recipes without touching the parent.
//
// Single-target primitives act on exactly one resolved node and fail with
// ErrElementNotFound when the recipe resolves nothing. Behavior when a
// selector matches several nodes is backend-defined: the playwright adapter
// runs strict and reports the ambiguity, the rod adapter targets the first
// match in document order. See each adapter's package documentation.
type Element interface {
	// String returns the composed selector expression, for logs and errors.
	String() string

	// Selector scopes a new Element to matches of sel within this element's
	// matches. Composition is lazy; nothing resolves until an operation runs.
	Selector(sel string) Element

	// Nth scopes a new Element to the i-th current match. Bounds are not
	// checked eagerly; an out-of-range index fails on first use.
	Nth(i int) Element

	// Single-target interactions.
	Click(opts ...ActionOptions) error
	Fill(text string, opts ...ActionOptions) error
	Clear(opts ...ActionOptions) error
	Hover(opts ...ActionOptions) error
	RightClick(opts ...ActionOptions) error
	DoubleClick(opts ...ActionOptions) error
	// Submit submits the form enclosing the resolved node.
	Submit(opts ...ActionOptions) error
	// DragAndDrop drags the resolved node onto target. Both elements must
	// belong to the same session.
	DragAndDrop(target Element, opts ...ActionOptions) error

	// Read-only queries.
	Text(opts ...ActionOptions) (string, error)
	Value(opts ...ActionOptions) (string, error)
	// Attribute returns "" for an absent attribute.
	Attribute(name string, opts ...ActionOptions) (string, error)
	CSSValue(property string, opts ...ActionOptions) (string, error)
	TagName(opts ...ActionOptions) (string, error)
	HTML(opts ...ActionOptions) (string, error)
	IsEnabled(opts ...ActionOptions) (bool, error)
	IsVisible(opts ...ActionOptions) (bool, error)
	IsSelected(opts ...ActionOptions) (bool, error)
	// Location fails with ErrElementNotVisible when the node has no
	// bounding geometry.
	Location(opts ...ActionOptions) (Rect, error)

	// Collection operations. Each call re-queries the backend for the
	// current match set; results are never cached from a prior call.
	Count(opts ...ActionOptions) (int, error)
	// ForEach invokes fn sequentially for each match in document order,
	// passing a child Element scoped to that match and its index. A non-nil
	// error from fn stops iteration.
	ForEach(fn func(el Element, i int) error, opts ...ActionOptions) error
	// Filter collects the children for which fn reports true, preserving
	// document order.
	Filter(fn func(el Element, i int) (bool, error), opts ...ActionOptions) ([]Element, error)
	// Map collects fn's results in document order. For a typed slice use the
	// package-level Map function.
	Map(fn func(el Element, i int) (any, error), opts ...ActionOptions) ([]any, error)
}

// Map re-queries el's matches and collects fn's results in document order.
// It is the typed companion to Element.Map.
func Map[T any](el Element, fn func(el Element, i int) (T, error)) ([]T, error) {
	n, err := el.Count()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := fn(el.Nth(i), i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
