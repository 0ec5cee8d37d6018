package browser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeElement backs the generic Map tests: a recipe over a mutable string
// slice standing in for live DOM matches.
type fakeElement struct {
	data       *[]string
	nth        int // -1 means the whole match set
	countCalls *int
}

func newFakeElement(data []string) *fakeElement {
	calls := 0
	return &fakeElement{data: &data, nth: -1, countCalls: &calls}
}

func (f *fakeElement) String() string { return fmt.Sprintf("fake[%d]", f.nth) }
func (f *fakeElement) Selector(sel string) Element {
	return f
}
func (f *fakeElement) Nth(i int) Element {
	return &fakeElement{data: f.data, nth: i, countCalls: f.countCalls}
}
func (f *fakeElement) Click(...ActionOptions) error                { return nil }
func (f *fakeElement) Fill(string, ...ActionOptions) error         { return nil }
func (f *fakeElement) Clear(...ActionOptions) error                { return nil }
func (f *fakeElement) Hover(...ActionOptions) error                { return nil }
func (f *fakeElement) RightClick(...ActionOptions) error           { return nil }
func (f *fakeElement) DoubleClick(...ActionOptions) error          { return nil }
func (f *fakeElement) Submit(...ActionOptions) error               { return nil }
func (f *fakeElement) DragAndDrop(Element, ...ActionOptions) error { return nil }

func (f *fakeElement) Text(...ActionOptions) (string, error) {
	if f.nth < 0 || f.nth >= len(*f.data) {
		return "", fmt.Errorf("%w: index %d", ErrElementNotFound, f.nth)
	}
	return (*f.data)[f.nth], nil
}
func (f *fakeElement) Value(...ActionOptions) (string, error)             { return "", nil }
func (f *fakeElement) Attribute(string, ...ActionOptions) (string, error) { return "", nil }
func (f *fakeElement) CSSValue(string, ...ActionOptions) (string, error)  { return "", nil }
func (f *fakeElement) TagName(...ActionOptions) (string, error)           { return "", nil }
func (f *fakeElement) HTML(...ActionOptions) (string, error)              { return "", nil }
func (f *fakeElement) IsEnabled(...ActionOptions) (bool, error)           { return true, nil }
func (f *fakeElement) IsVisible(...ActionOptions) (bool, error)           { return true, nil }
func (f *fakeElement) IsSelected(...ActionOptions) (bool, error)          { return false, nil }
func (f *fakeElement) Location(...ActionOptions) (Rect, error)            { return Rect{}, nil }

func (f *fakeElement) Count(...ActionOptions) (int, error) {
	*f.countCalls++
	return len(*f.data), nil
}

func (f *fakeElement) ForEach(fn func(Element, int) error, opts ...ActionOptions) error {
	n, _ := f.Count(opts...)
	for i := 0; i < n; i++ {
		if err := fn(f.Nth(i), i); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeElement) Filter(fn func(Element, int) (bool, error), opts ...ActionOptions) ([]Element, error) {
	var out []Element
	err := f.ForEach(func(el Element, i int) error {
		keep, err := fn(el, i)
		if err != nil {
			return err
		}
		if keep {
			out = append(out, el)
		}
		return nil
	}, opts...)
	return out, err
}

func (f *fakeElement) Map(fn func(Element, int) (any, error), opts ...ActionOptions) ([]any, error) {
	var out []any
	err := f.ForEach(func(el Element, i int) error {
		v, err := fn(el, i)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	}, opts...)
	return out, err
}

func TestMapPreservesDocumentOrder(t *testing.T) {
	el := newFakeElement([]string{"a", "b", "c"})

	got, err := Map(el, func(child Element, i int) (string, error) {
		text, err := child.Text()
		return fmt.Sprintf("%d:%s", i, text), err
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"0:a", "1:b", "2:c"}, got)
}

func TestMapReQueriesEachInvocation(t *testing.T) {
	el := newFakeElement([]string{"a", "b", "c"})

	first, err := Map(el, func(child Element, _ int) (string, error) { return child.Text() })
	require.NoError(t, err)
	assert.Len(t, first, 3)

	// Simulate a DOM mutation removing one match.
	*el.data = (*el.data)[:2]

	second, err := Map(el, func(child Element, _ int) (string, error) { return child.Text() })
	require.NoError(t, err)
	assert.Len(t, second, 2, "a second Map must see the mutated match set")
	assert.Equal(t, 2, *el.countCalls, "each Map call recounts; nothing is cached")
}

func TestMapStopsOnCallbackError(t *testing.T) {
	el := newFakeElement([]string{"a", "b", "c"})

	visited := 0
	_, err := Map(el, func(child Element, i int) (string, error) {
		visited++
		if i == 1 {
			return "", fmt.Errorf("stop here")
		}
		return child.Text()
	})

	require.Error(t, err)
	assert.Equal(t, 2, visited)
}
