package mailbox

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractVerificationLink scans the HTML body for an anchor whose visible
// text, trimmed and case-folded, contains marker, and returns its href.
// It returns ok=false when nothing matches or the input cannot be parsed;
// a missing link is the caller's pipeline failure, not this function's.
func ExtractVerificationLink(htmlContent, marker string) (link string, ok bool) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", false
	}
	marker = strings.ToLower(marker)

	var visit func(n *html.Node) (string, bool)
	visit = func(n *html.Node) (string, bool) {
		if n.Type == html.ElementNode && n.Data == "a" {
			text := strings.ToLower(strings.TrimSpace(anchorText(n)))
			if strings.Contains(text, marker) {
				if href, found := attr(n, "href"); found {
					return href, true
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if href, found := visit(child); found {
				return href, true
			}
		}
		return "", false
	}
	return visit(doc)
}

// anchorText concatenates the text nodes beneath an anchor element.
func anchorText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
