package direct

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"

	"github.com/poiesic/docqa/webcrawl"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// boilerplateTags are removed before conversion.
var boilerplateTags = []string{
	"nav", "header", "footer", "aside", "script", "style", "noscript",
	"iframe", "object", "embed", "form", "input", "button",
}

// boilerplateClasses mark elements that are page chrome rather than content.
var boilerplateClasses = []string{
	"nav", "navbar", "navigation", "sidebar", "menu", "toc",
	"table-of-contents", "footer", "header", "ad", "advertisement",
	"social", "share", "comments", "related", "breadcrumb",
}

// converter turns HTML documents into markdown.
type converter struct {
	md *md.Converter
}

func newConverter() *converter {
	c := md.NewConverter("", true, nil)
	c.Use(plugin.GitHubFlavored())
	return &converter{md: c}
}

// convert parses an HTML document and renders its content as markdown.
// DepthBasic keeps only the main content area (main, article, [role=main])
// when one exists. DepthAdvanced converts the whole body with boilerplate
// removed, which keeps tables and embedded content that live outside the
// main element.
func (c *converter) convert(body []byte, depth webcrawl.ExtractDepth) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	title := documentTitle(doc)
	removeElements(doc, []string{"script", "style", "noscript"})

	root := findElement(doc, "body")
	if depth != webcrawl.DepthAdvanced {
		for _, selector := range []string{"main", "article", "[role=main]"} {
			if node := findElement(doc, selector); node != nil {
				root = node
				break
			}
		}
	}
	if root == nil {
		root = doc
	}
	removeElements(root, boilerplateTags)
	removeByClass(root, boilerplateClasses)

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", err
	}

	markdown, err := c.md.ConvertString(sb.String())
	if err != nil {
		return "", err
	}
	markdown = cleanMarkdown(markdown)

	if title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}
	return strings.TrimSpace(markdown), nil
}

func documentTitle(doc *html.Node) string {
	if n := findElement(doc, "title"); n != nil && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	return ""
}

// findElement finds the first element matching a simple selector.
func findElement(n *html.Node, selector string) *html.Node {
	if n.Type == html.ElementNode && matchesSelector(n, selector) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, selector); found != nil {
			return found
		}
	}
	return nil
}

// matchesSelector supports tag names and [attr=value].
func matchesSelector(n *html.Node, selector string) bool {
	if strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]") {
		key, val, ok := strings.Cut(strings.Trim(selector, "[]"), "=")
		if !ok {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == key && a.Val == val {
				return true
			}
		}
		return false
	}
	return n.Data == selector
}

// removeElements removes all descendants of n with the given tag names.
func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[tag] = true
	}
	removeMatching(n, func(node *html.Node) bool {
		return tagSet[node.Data]
	})
}

// removeByClass removes descendants of n carrying any of the given classes.
func removeByClass(n *html.Node, classes []string) {
	classSet := make(map[string]bool, len(classes))
	for _, class := range classes {
		classSet[class] = true
	}
	removeMatching(n, func(node *html.Node) bool {
		for _, a := range node.Attr {
			if a.Key != "class" {
				continue
			}
			for _, c := range strings.Fields(strings.ToLower(a.Val)) {
				if classSet[c] {
					return true
				}
			}
		}
		return false
	})
}

func removeMatching(n *html.Node, match func(*html.Node) bool) {
	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				toRemove = append(toRemove, c)
				continue
			}
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		node.Parent.RemoveChild(node)
	}
}

// cleanMarkdown collapses blank-line runs and trims trailing whitespace.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
