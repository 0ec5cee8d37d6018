// Package content turns raw page HTML into forms fit for terminals and
// language models: reduced markup, plain text, link/heading/form
// inventories, token budgeting, and exported-PDF verification.
package content

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Page is the cleaned form of a document: reduced markup with noise
// elements removed, the visible text, and head metadata.
type Page struct {
	HTML        string
	Text        string
	Title       string
	Description string
	Truncated   bool
}

// Clean parses rawHTML and produces a reduced document, preserving semantic
// structure and targeting-relevant attributes while dropping scripts,
// styles, and other noise. The cleaned markup is capped at roughly maxBytes;
// the plain text is never capped (Truncate fits it to a token budget).
func Clean(rawHTML string, maxBytes int) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
	}

	var markup strings.Builder
	var used int
	page.Truncated = writeClean(doc, &markup, &used, maxBytes, 0)
	page.HTML = markup.String()

	var text strings.Builder
	writeText(doc, &text)
	page.Text = strings.TrimSpace(text.String())

	return page, nil
}

// writeClean recursively renders n into builder, dropping unwanted nodes
// and reporting whether the byte budget cut the output short.
func writeClean(n *html.Node, builder *strings.Builder, used *int, budget int, depth int) bool {
	if *used >= budget {
		return true
	}

	if n.Type == html.CommentNode {
		return false
	}
	if n.Type == html.ElementNode && isSkippedElement(strings.ToLower(n.Data)) {
		return false
	}

	if n.Type == html.TextNode {
		return writeCleanText(n, builder, used, budget)
	}
	if n.Type == html.ElementNode {
		return writeCleanElement(n, builder, used, budget, depth)
	}

	return writeCleanChildren(n, builder, used, budget, depth)
}

func writeCleanText(n *html.Node, builder *strings.Builder, used *int, budget int) bool {
	text := strings.TrimSpace(n.Data)
	if text == "" {
		return false
	}

	if *used+len(text) > budget {
		remaining := budget - *used
		builder.WriteString(text[:remaining])
		builder.WriteString("...")
		*used = budget
		return true
	}

	builder.WriteString(text)
	*used += len(text)
	return false
}

func writeCleanElement(n *html.Node, builder *strings.Builder, used *int, budget int, depth int) bool {
	tagName := strings.ToLower(n.Data)

	// Indent block elements for readability
	if depth > 0 && isBlockElement(tagName) {
		builder.WriteString("\n")
		builder.WriteString(strings.Repeat("  ", depth))
	}

	builder.WriteString("<")
	builder.WriteString(tagName)
	for _, attr := range n.Attr {
		if shouldPreserveAttribute(tagName, attr.Key) {
			fmt.Fprintf(builder, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	builder.WriteString(">")
	*used += len(tagName) + 2

	truncated := writeCleanChildren(n, builder, used, budget, depth+1)

	if !isVoidElement(tagName) {
		if isBlockElement(tagName) {
			builder.WriteString("\n")
			builder.WriteString(strings.Repeat("  ", depth))
		}
		builder.WriteString("</")
		builder.WriteString(tagName)
		builder.WriteString(">")
		*used += len(tagName) + 3
	}

	return truncated
}

func writeCleanChildren(n *html.Node, builder *strings.Builder, used *int, budget int, depth int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if writeClean(c, builder, used, budget, depth) {
			return true
		}
	}
	return false
}

// writeText collects the document's visible text, separating block elements
// with newlines so the output reads top to bottom.
func writeText(n *html.Node, builder *strings.Builder) {
	if n.Type == html.CommentNode {
		return
	}
	if n.Type == html.ElementNode {
		tagName := strings.ToLower(n.Data)
		if isSkippedElement(tagName) {
			return
		}
		if tagName == "br" {
			builder.WriteString("\n")
			return
		}
	}

	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
				builder.WriteString(" ")
			}
			builder.WriteString(text)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, builder)
	}

	if n.Type == html.ElementNode && isBlockElement(strings.ToLower(n.Data)) {
		if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
			builder.WriteString("\n")
		}
	}
}

// isSkippedElement returns true for elements that are removed entirely
func isSkippedElement(tagName string) bool {
	skipped := map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"iframe":   true,
		"embed":    true,
		"object":   true,
		"svg":      true,
	}
	return skipped[tagName]
}

// isBlockElement returns true for block-level elements (for formatting)
func isBlockElement(tagName string) bool {
	blocks := map[string]bool{
		"div":        true,
		"p":          true,
		"section":    true,
		"article":    true,
		"header":     true,
		"footer":     true,
		"nav":        true,
		"main":       true,
		"aside":      true,
		"h1":         true,
		"h2":         true,
		"h3":         true,
		"h4":         true,
		"h5":         true,
		"h6":         true,
		"ul":         true,
		"ol":         true,
		"li":         true,
		"table":      true,
		"tr":         true,
		"td":         true,
		"th":         true,
		"form":       true,
		"fieldset":   true,
		"blockquote": true,
		"pre":        true,
	}
	return blocks[tagName]
}

// isVoidElement returns true for self-closing elements
func isVoidElement(tagName string) bool {
	voids := map[string]bool{
		"area":   true,
		"base":   true,
		"br":     true,
		"col":    true,
		"embed":  true,
		"hr":     true,
		"img":    true,
		"input":  true,
		"link":   true,
		"meta":   true,
		"param":  true,
		"source": true,
		"track":  true,
		"wbr":    true,
	}
	return voids[tagName]
}

// shouldPreserveAttribute returns true for attributes useful for targeting
// elements from the cleaned markup.
func shouldPreserveAttribute(tagName, attrName string) bool {
	attrName = strings.ToLower(attrName)

	if isGlobalAttribute(attrName) {
		return true
	}

	// data-* attributes are common selector targets
	if strings.HasPrefix(attrName, "data-") {
		return true
	}

	return isTagSpecificAttribute(tagName, attrName)
}

func isGlobalAttribute(attrName string) bool {
	globalAttrs := map[string]bool{
		"id":               true,
		"class":            true,
		"role":             true,
		"aria-label":       true,
		"aria-describedby": true,
	}
	return globalAttrs[attrName]
}

func isTagSpecificAttribute(tagName, attrName string) bool {
	switch tagName {
	case "a":
		return attrName == "href" || attrName == "target"
	case "img":
		return attrName == "src" || attrName == "alt"
	case "input", "textarea", "select":
		return attrName == "name" || attrName == "type" || attrName == "placeholder" || attrName == "value"
	case "button":
		return attrName == "type" || attrName == "name"
	case "form":
		return attrName == "action" || attrName == "method"
	case "table":
		return attrName == "summary"
	}
	return false
}

// findTitle extracts the page title from the document
func findTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

// findMetaDescription extracts the meta description from the document
func findMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				if attr.Key == "name" && attr.Val == "description" {
					isDescription = true
				}
				if attr.Key == "content" {
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				description = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if description != "" {
				return
			}
		}
	}
	traverse(doc)
	return description
}
