package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	input := `<html><body>
		<h1>Store</h1>
		<nav>
			<a href="/catalog">Catalog</a>
			<a href="/about">About us</a>
			<a href="javascript:void(0)">Toggle</a>
			<a href="">Empty</a>
		</nav>
		<h2>Search</h2>
		<form action="/search" method="get">
			<input type="text" name="q">
			<select name="category"><option>All</option></select>
			<input type="submit" value="Go">
		</form>
		<h3>Footer</h3>
	</body></html>`

	out, err := Analyze(input)
	require.NoError(t, err)

	require.Len(t, out.Links, 2)
	assert.Equal(t, Link{Text: "Catalog", Href: "/catalog"}, out.Links[0])
	assert.Equal(t, Link{Text: "About us", Href: "/about"}, out.Links[1])

	require.Len(t, out.Headings, 3)
	assert.Equal(t, Heading{Level: 1, Text: "Store"}, out.Headings[0])
	assert.Equal(t, Heading{Level: 2, Text: "Search"}, out.Headings[1])
	assert.Equal(t, Heading{Level: 3, Text: "Footer"}, out.Headings[2])

	require.Len(t, out.Forms, 1)
	assert.Equal(t, "/search", out.Forms[0].Action)
	assert.Equal(t, "get", out.Forms[0].Method)
	assert.Equal(t, []string{"q", "category"}, out.Forms[0].Fields)
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	out, err := Analyze("<html><body></body></html>")
	require.NoError(t, err)

	assert.Empty(t, out.Links)
	assert.Empty(t, out.Headings)
	assert.Empty(t, out.Forms)
}
