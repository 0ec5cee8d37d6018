package playwright

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pageBasic = `data:text/html,<html><head><title>Basic</title></head><body><h1 id='heading'>Hello</h1><p class='row'>one</p><p class='row'>two</p><p class='row'>three</p></body></html>`

	pageSecond = `data:text/html,<html><head><title>Second</title></head><body><h1>Other</h1></body></html>`

	pageForm = `data:text/html,<html><head><title>Form</title></head><body>` +
		`<form id='search' onsubmit="event.preventDefault(); document.title='submitted'">` +
		`<input name='q' value='initial' data-kind='query'>` +
		`<input type='checkbox' id='agree' checked>` +
		`<input type='text' id='disabled-input' disabled>` +
		`<button type='submit'>go</button>` +
		`</form>` +
		`<div id='hidden' style='display:none'>unseen</div>` +
		`<button id='btn' onclick="this.textContent='clicked'" ondblclick="this.textContent='double'" oncontextmenu="event.preventDefault(); this.textContent='context'" onmouseenter="document.title='hovered'">press</button>` +
		`</body></html>`

	pageDrag = `data:text/html,<html><body>` +
		`<div id='src' draggable='true' ondragstart="event.dataTransfer.setData('text','x')">drag me</div>` +
		`<div id='dst' ondragover='event.preventDefault()' ondrop="event.preventDefault(); this.textContent='dropped'">target</div>` +
		`</body></html>`

	pageLate = `data:text/html,<html><body><script>setTimeout(function(){ var d = document.createElement('div'); d.id = 'late'; d.textContent = 'arrived'; document.body.appendChild(d); }, 300);</script></body></html>`
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, err := Connect(Options{Headless: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if !s.Closed() {
			_ = s.CloseBrowser()
		}
	})
	return s
}

func TestNavigation(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.NavigateTo(pageBasic))

	// Engines may re-serialize data URLs, so identify pages by title.
	url, err := s.URL()
	require.NoError(t, err)
	assert.Contains(t, url, "data:text/html")

	title, err := s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Basic", title)

	require.NoError(t, s.NavigateTo(pageSecond))
	require.NoError(t, s.NavigateBack())

	title, err = s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Basic", title)

	require.NoError(t, s.NavigateForward())
	title, err = s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Second", title)

	require.NoError(t, s.Refresh())
	title, err = s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Second", title)

	assert.Equal(t, browser.BackendPlaywright, s.Backend())
}

func TestElementInteractions(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageForm))

	t.Run("click", func(t *testing.T) {
		require.NoError(t, s.Selector("#btn").Click())
		text, err := s.Selector("#btn").Text()
		require.NoError(t, err)
		assert.Equal(t, "clicked", text)
	})

	t.Run("double click", func(t *testing.T) {
		require.NoError(t, s.Selector("#btn").DoubleClick())
		text, err := s.Selector("#btn").Text()
		require.NoError(t, err)
		assert.Equal(t, "double", text)
	})

	t.Run("right click", func(t *testing.T) {
		require.NoError(t, s.Selector("#btn").RightClick())
		text, err := s.Selector("#btn").Text()
		require.NoError(t, err)
		assert.Equal(t, "context", text)
	})

	t.Run("hover", func(t *testing.T) {
		require.NoError(t, s.Selector("#btn").Hover())
		title, err := s.Title()
		require.NoError(t, err)
		assert.Equal(t, "hovered", title)
	})

	t.Run("fill and clear", func(t *testing.T) {
		input := s.Selector("input[name=q]")
		require.NoError(t, input.Fill("rudder"))
		value, err := input.Value()
		require.NoError(t, err)
		assert.Equal(t, "rudder", value)

		require.NoError(t, input.Clear())
		value, err = input.Value()
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("submit from field", func(t *testing.T) {
		require.NoError(t, s.Selector("input[name=q]").Submit())
		title, err := s.Title()
		require.NoError(t, err)
		assert.Equal(t, "submitted", title)
	})

	t.Run("keyboard type into focused field", func(t *testing.T) {
		input := s.Selector("input[name=q]")
		require.NoError(t, input.Clear())
		require.NoError(t, input.Click())
		require.NoError(t, s.Keyboard().Type("abc"))
		require.NoError(t, s.Keyboard().Press("Backspace"))
		value, err := input.Value()
		require.NoError(t, err)
		assert.Equal(t, "ab", value)
	})

	t.Run("mouse click at element center", func(t *testing.T) {
		_, err := s.Eval(`() => { document.getElementById('btn').textContent = 'press'; }`, nil)
		require.NoError(t, err)

		loc, err := s.Selector("#btn").Location()
		require.NoError(t, err)
		x, y := loc.Center()
		require.NoError(t, s.Mouse().Click(x, y))

		text, err := s.Selector("#btn").Text()
		require.NoError(t, err)
		assert.Equal(t, "clicked", text)
	})

	t.Run("scroll", func(t *testing.T) {
		require.NoError(t, s.Scroll(0, 100))
	})
}

func TestDragAndDrop(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageDrag))

	src := s.Selector("#src")
	dst := s.Selector("#dst")
	require.NoError(t, src.DragAndDrop(dst))

	text, err := dst.Text()
	require.NoError(t, err)
	assert.Equal(t, "dropped", text)
}

func TestElementQueries(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageForm))

	t.Run("text and html", func(t *testing.T) {
		text, err := s.Selector("#btn").Text()
		require.NoError(t, err)
		assert.Equal(t, "press", text)

		html, err := s.Selector("#btn").HTML()
		require.NoError(t, err)
		assert.Contains(t, html, "<button")
		assert.Contains(t, html, "press")
	})

	t.Run("attribute", func(t *testing.T) {
		kind, err := s.Selector("input[name=q]").Attribute("data-kind")
		require.NoError(t, err)
		assert.Equal(t, "query", kind)

		absent, err := s.Selector("input[name=q]").Attribute("data-missing")
		require.NoError(t, err)
		assert.Empty(t, absent)
	})

	t.Run("css value", func(t *testing.T) {
		display, err := s.Selector("#hidden").CSSValue("display")
		require.NoError(t, err)
		assert.Equal(t, "none", display)
	})

	t.Run("tag name", func(t *testing.T) {
		tag, err := s.Selector("#btn").TagName()
		require.NoError(t, err)
		assert.Equal(t, "button", tag)
	})

	t.Run("enabled state", func(t *testing.T) {
		enabled, err := s.Selector("input[name=q]").IsEnabled()
		require.NoError(t, err)
		assert.True(t, enabled)

		enabled, err = s.Selector("#disabled-input").IsEnabled()
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("visibility", func(t *testing.T) {
		visible, err := s.Selector("#btn").IsVisible()
		require.NoError(t, err)
		assert.True(t, visible)

		visible, err = s.Selector("#hidden").IsVisible()
		require.NoError(t, err)
		assert.False(t, visible)
	})

	t.Run("selected state", func(t *testing.T) {
		selected, err := s.Selector("#agree").IsSelected()
		require.NoError(t, err)
		assert.True(t, selected)

		selected, err = s.Selector("input[name=q]").IsSelected()
		require.NoError(t, err)
		assert.False(t, selected)
	})

	t.Run("location", func(t *testing.T) {
		loc, err := s.Selector("#btn").Location()
		require.NoError(t, err)
		assert.Greater(t, loc.Width, 0.0)
		assert.Greater(t, loc.Height, 0.0)
	})

	t.Run("location of hidden element", func(t *testing.T) {
		_, err := s.Selector("#hidden").Location(browser.ActionOptions{Timeout: time.Second})
		require.Error(t, err)
		assert.ErrorIs(t, err, browser.ErrElementNotVisible)
	})
}

func TestElementResolution(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageBasic))

	short := browser.ActionOptions{Timeout: 500 * time.Millisecond}

	t.Run("missing element reports not found", func(t *testing.T) {
		err := s.Selector("#nope").Click(short)
		require.Error(t, err)
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})

	t.Run("ambiguous selector reports engine strict error", func(t *testing.T) {
		err := s.Selector("p.row").Click(short)
		require.Error(t, err)
		assert.NotErrorIs(t, err, browser.ErrElementNotFound)
	})

	t.Run("nth disambiguates", func(t *testing.T) {
		text, err := s.Selector("p.row").Nth(1).Text()
		require.NoError(t, err)
		assert.Equal(t, "two", text)
	})

	t.Run("nth out of range reports not found", func(t *testing.T) {
		_, err := s.Selector("p.row").Nth(9).Text(short)
		require.Error(t, err)
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})

	t.Run("descendant scoping", func(t *testing.T) {
		text, err := s.Selector("body").Selector("h1").Text()
		require.NoError(t, err)
		assert.Equal(t, "Hello", text)
	})

	t.Run("count reflects current dom", func(t *testing.T) {
		rows := s.Selector("p.row")
		n, err := rows.Count()
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		_, err = s.Eval(`() => document.querySelector('p.row').remove()`, nil)
		require.NoError(t, err)

		n, err = rows.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.NoError(t, s.Refresh())
	})

	t.Run("for each preserves document order", func(t *testing.T) {
		var texts []string
		err := s.Selector("p.row").ForEach(func(el browser.Element, i int) error {
			text, err := el.Text()
			if err != nil {
				return err
			}
			texts = append(texts, text)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, texts)
	})

	t.Run("filter keeps matching children", func(t *testing.T) {
		kept, err := s.Selector("p.row").Filter(func(el browser.Element, i int) (bool, error) {
			text, err := el.Text()
			return text != "two", err
		})
		require.NoError(t, err)
		require.Len(t, kept, 2)
		text, err := kept[1].Text()
		require.NoError(t, err)
		assert.Equal(t, "three", text)
	})

	t.Run("typed map collects in order", func(t *testing.T) {
		texts, err := browser.Map(s.Selector("p.row"), func(el browser.Element, i int) (string, error) {
			return el.Text()
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, texts)
	})

	t.Run("wait for late element", func(t *testing.T) {
		require.NoError(t, s.NavigateTo(pageLate))
		require.NoError(t, s.WaitFor("#late", browser.ActionOptions{Timeout: 5 * time.Second}))

		text, err := s.Selector("#late").Text()
		require.NoError(t, err)
		assert.Equal(t, "arrived", text)

		err = s.WaitFor("#never", short)
		require.Error(t, err)
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})
}

func TestSwallowPolicy(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageBasic))

	swallow := browser.ActionOptions{
		Timeout:     500 * time.Millisecond,
		ThrowOnFail: browser.Bool(false),
	}

	err := s.Selector("#nope").Click(swallow)
	assert.NoError(t, err)

	text, err := s.Selector("#nope").Text(swallow)
	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestTabs(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageBasic))

	require.NoError(t, s.OpenTab(pageSecond))
	assert.Equal(t, 2, s.TabCount())
	assert.Equal(t, 1, s.CurrentTab())

	title, err := s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Second", title)

	require.NoError(t, s.SwitchToTab(0))
	assert.Equal(t, 0, s.CurrentTab())
	title, err = s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Basic", title)

	err = s.SwitchToTab(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrTabNotFound)

	// Closing the current tab selects the most recently opened survivor.
	require.NoError(t, s.CloseTab())
	assert.Equal(t, 1, s.TabCount())
	title, err = s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Second", title)

	// Closing the last tab ends the session.
	require.NoError(t, s.CloseTab())
	assert.True(t, s.Closed())
	assert.Equal(t, 0, s.TabCount())
	assert.Equal(t, -1, s.CurrentTab())

	err = s.NavigateTo(pageBasic)
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrSessionClosed)

	_, err = s.Selector("#heading").Text()
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrSessionClosed)

	err = s.CloseBrowser()
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrSessionClosed)
}

func TestDialogs(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageBasic))

	t.Run("accept confirm", func(t *testing.T) {
		evalDone := make(chan any, 1)
		go func() {
			// Give the wait a moment to arm before triggering.
			time.Sleep(100 * time.Millisecond)
			res, _ := s.Eval(`() => confirm('proceed?')`, nil)
			evalDone <- res
		}()

		d, err := s.Alert().Accept("")
		require.NoError(t, err)
		assert.False(t, d.TimedOut)
		assert.Equal(t, "confirm", d.Type)
		assert.Equal(t, "proceed?", d.Message)
		assert.Equal(t, true, <-evalDone)
	})

	t.Run("dismiss confirm", func(t *testing.T) {
		evalDone := make(chan any, 1)
		go func() {
			time.Sleep(100 * time.Millisecond)
			res, _ := s.Eval(`() => confirm('sure?')`, nil)
			evalDone <- res
		}()

		d, err := s.Alert().Dismiss()
		require.NoError(t, err)
		assert.False(t, d.TimedOut)
		assert.Equal(t, false, <-evalDone)
	})

	t.Run("accept prompt with text", func(t *testing.T) {
		evalDone := make(chan any, 1)
		go func() {
			time.Sleep(100 * time.Millisecond)
			res, _ := s.Eval(`() => prompt('name?', 'anon')`, nil)
			evalDone <- res
		}()

		d, err := s.Alert().Accept("rudder")
		require.NoError(t, err)
		assert.False(t, d.TimedOut)
		assert.Equal(t, "prompt", d.Type)
		assert.Equal(t, "anon", d.DefaultValue)
		assert.Equal(t, "rudder", <-evalDone)
	})

	t.Run("timeout resolves without error", func(t *testing.T) {
		d, err := s.Alert().Dismiss(browser.ActionOptions{Timeout: 300 * time.Millisecond})
		require.NoError(t, err)
		assert.True(t, d.TimedOut)
	})
}

func TestCapture(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageBasic))

	t.Run("screenshot bytes", func(t *testing.T) {
		img, err := s.Screenshot("", false)
		require.NoError(t, err)
		assert.NotEmpty(t, img)
	})

	t.Run("screenshot to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shot.png")
		img, err := s.Screenshot(path, true)
		require.NoError(t, err)
		assert.NotEmpty(t, img)

		onDisk, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, img, onDisk)
	})

	t.Run("pdf", func(t *testing.T) {
		pdf, err := s.PDF("")
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	})
}

func TestEval(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.NavigateTo(pageBasic))

	res, err := s.Eval(`() => document.title`, nil)
	require.NoError(t, err)
	assert.Equal(t, "Basic", res)

	res, err = s.Eval(`(n) => n * 2`, 21)
	require.NoError(t, err)
	assert.EqualValues(t, 42, res)
}
