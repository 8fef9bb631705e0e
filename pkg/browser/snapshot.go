package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// renderOutline converts raw page HTML into the compact textual snapshot the
// response builder ships to clients: a header with the page URL and title,
// followed by an indented outline of headings, interactive elements, and
// visible text. Scripts, styles, and embeds are dropped.
func renderOutline(rawHTML, pageURL, title string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse page HTML: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Page URL: %s\n", pageURL)
	fmt.Fprintf(&b, "Page Title: %s\n", title)
	b.WriteString("### Page content\n")

	outlineNode(doc, &b, 0)
	return b.String(), nil
}

func outlineNode(n *html.Node, b *strings.Builder, depth int) {
	if n.Type == html.CommentNode {
		return
	}
	if n.Type == html.ElementNode && isDroppedElement(n.Data) {
		return
	}

	if n.Type == html.TextNode {
		text := collapseSpace(n.Data)
		if text != "" {
			writeOutlineLine(b, depth, "text: "+text)
		}
		return
	}

	childDepth := depth
	if n.Type == html.ElementNode {
		if line, ok := describeElement(n); ok {
			writeOutlineLine(b, depth, line)
			if carriesInlineText(strings.ToLower(n.Data)) {
				return
			}
			childDepth = depth + 1
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		outlineNode(c, b, childDepth)
	}
}

// describeElement renders one outline line for elements worth surfacing:
// headings, links, form controls, images, and landmark containers.
func describeElement(n *html.Node) (string, bool) {
	tag := strings.ToLower(n.Data)

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return fmt.Sprintf("heading %q [%s]%s", innerText(n), tag, attrSuffix(n, "id")), true
	case "a":
		return fmt.Sprintf("link %q%s", innerText(n), attrSuffix(n, "href", "id")), true
	case "button":
		return fmt.Sprintf("button %q%s", innerText(n), attrSuffix(n, "type", "name", "id")), true
	case "input":
		kind := attrValue(n, "type")
		if kind == "" {
			kind = "text"
		}
		return fmt.Sprintf("input [type=%s]%s", kind, attrSuffix(n, "name", "placeholder", "value", "id")), true
	case "textarea":
		return "textarea" + attrSuffix(n, "name", "placeholder", "id"), true
	case "select":
		return "select" + attrSuffix(n, "name", "id"), true
	case "img":
		return "image" + attrSuffix(n, "alt", "src"), true
	case "form":
		return "form" + attrSuffix(n, "action", "method", "id"), true
	case "nav", "main", "header", "footer", "aside", "section", "article", "dialog", "table":
		return tag + attrSuffix(n, "id", "role", "aria-label"), true
	}
	return "", false
}

// isDroppedElement returns true for elements removed from the outline
// entirely, children included.
func isDroppedElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg", "template", "head":
		return true
	}
	return false
}

// carriesInlineText returns true for element lines that carry their text
// inline, so their text children are not repeated as separate lines.
func carriesInlineText(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6", "a", "button":
		return true
	}
	return false
}

func innerText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := collapseSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// attrSuffix renders the listed attributes, when present, as bracketed
// key=value pairs for element targeting.
func attrSuffix(n *html.Node, keys ...string) string {
	var b strings.Builder
	for _, key := range keys {
		if v := attrValue(n, key); v != "" {
			fmt.Fprintf(&b, " [%s=%s]", key, v)
		}
	}
	return b.String()
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}

func writeOutlineLine(b *strings.Builder, depth int, line string) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("- ")
	b.WriteString(line)
	b.WriteString("\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
