package content

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor inventoried from a page.
type Link struct {
	Text string
	Href string
}

// Heading is a section heading with its level (1 through 6).
type Heading struct {
	Level int
	Text  string
}

// Form describes a form and the names of its submittable fields.
type Form struct {
	Action string
	Method string
	Fields []string
}

// Outline summarizes a page's navigable structure.
type Outline struct {
	Links    []Link
	Headings []Heading
	Forms    []Form
}

// Analyze inventories links, headings, and forms in rawHTML, in document
// order.
func Analyze(rawHTML string) (*Outline, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	out := &Outline{}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "javascript:") {
			return
		}
		out.Links = append(out.Links, Link{
			Text: strings.TrimSpace(sel.Text()),
			Href: href,
		})
	})

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		tag := goquery.NodeName(sel)
		out.Headings = append(out.Headings, Heading{
			Level: int(tag[1] - '0'),
			Text:  strings.TrimSpace(sel.Text()),
		})
	})

	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		form := Form{}
		form.Action, _ = sel.Attr("action")
		form.Method, _ = sel.Attr("method")
		sel.Find("input[name], textarea[name], select[name]").Each(func(_ int, field *goquery.Selection) {
			name, _ := field.Attr("name")
			form.Fields = append(form.Fields, name)
		})
		out.Forms = append(out.Forms, form)
	})

	return out, nil
}
