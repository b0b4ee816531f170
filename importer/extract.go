package importer

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	headerClass = "header"
	linkClass   = "toplink"
)

var (
	reRecipePrefix = regexp.MustCompile(`^Recipe \d+\.\d+\s*`)
	reNewlines     = regexp.MustCompile(`\n+`)
	reBodyTag      = regexp.MustCompile(`(?i)<body[\s>/]`)
)

// Extracted is the title and normalized markup fragment of one legacy page.
type Extracted struct {
	Title   string
	Content string
}

// Extract pulls the title and content fragment out of a legacy page. Missing elements fall
// back to defaults; only unparsable input or a category without content is an error.
func Extract(f LegacyFile, src []byte) (Extracted, error) {
	doc, err := nethtml.Parse(bytes.NewReader(src))
	if err != nil {
		return Extracted{}, fmt.Errorf("parse %s: %w", f.Name, err)
	}

	switch f.Category {
	case CategoryExerciseIndex:
		return extractExerciseIndex(f, doc), nil
	case CategorySubExercise:
		return extractSubExercise(f, doc), nil
	case CategoryStep:
		return Extracted{
			Title:   "Step " + f.Step,
			Content: bodyFragment(doc, src, fmt.Sprintf("<p>Step %s content</p>", f.Step)),
		}, nil
	case CategoryReferences:
		return Extracted{
			Title:   "References",
			Content: bodyFragment(doc, src, "<p>References</p>"),
		}, nil
	default:
		return Extracted{}, fmt.Errorf("%s: category %s has no content", f.Name, f.Category)
	}
}

func extractExerciseIndex(f LegacyFile, doc *nethtml.Node) Extracted {
	title := "Exercise " + f.Exercise
	if header := findFirst(doc, func(n *nethtml.Node) bool { return hasClass(n, headerClass) }); header != nil {
		title = strings.TrimSpace(textContent(header))
	}

	parts := []string{fmt.Sprintf("<h2>%s</h2>", html.EscapeString(title))}
	links := findAll(doc, isTopLink)
	if len(links) > 0 {
		parts = append(parts, "<p>This exercise contains the following sections:</p>", "<ul>")
		for _, link := range links {
			parts = append(parts, fmt.Sprintf("<li>%s</li>", html.EscapeString(strings.TrimSpace(textContent(link)))))
		}
		parts = append(parts, "</ul>")
	}

	return Extracted{Title: title, Content: strings.Join(parts, "\n")}
}

func extractSubExercise(f LegacyFile, doc *nethtml.Node) Extracted {
	title := fmt.Sprintf("Exercise %s.%s", f.Exercise, f.Sub)
	if header := findFirst(doc, func(n *nethtml.Node) bool { return hasClass(n, headerClass) }); header != nil {
		title = CleanRecipeTitle(textContent(header))
	}

	parts := []string{fmt.Sprintf("<h3>%s</h3>", html.EscapeString(title))}
	links := findAll(doc, isTopLink)
	if len(links) > 0 {
		parts = append(parts, "<p>This section includes the following steps:</p>", "<ol>")
		for _, link := range links {
			if strings.Contains(attr(link, "href"), "REFS.html") {
				continue
			}
			parts = append(parts, fmt.Sprintf("<li>%s</li>", html.EscapeString(strings.TrimSpace(textContent(link)))))
		}
		parts = append(parts, "</ol>")
	}

	return Extracted{Title: title, Content: strings.Join(parts, "\n")}
}

// CleanRecipeTitle strips the "Recipe N.M" numbering and folds line breaks into spaces.
func CleanRecipeTitle(raw string) string {
	title := reRecipePrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	title = reNewlines.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// bodyFragment renders the children of <body> without the wrapper itself. The parser always
// synthesizes a body, so the raw source decides whether the page really had one.
func bodyFragment(doc *nethtml.Node, src []byte, fallback string) string {
	if !reBodyTag.Match(src) {
		return fallback
	}
	body := findFirst(doc, func(n *nethtml.Node) bool { return n.Type == nethtml.ElementNode && n.DataAtom == atom.Body })
	if body == nil {
		return fallback
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := nethtml.Render(&buf, c); err != nil {
			return fallback
		}
	}
	content := strings.TrimSpace(buf.String())
	if content == "" {
		return fallback
	}
	return content
}

func isTopLink(n *nethtml.Node) bool {
	return n.Type == nethtml.ElementNode && n.DataAtom == atom.A && hasClass(n, linkClass)
}

func hasClass(n *nethtml.Node, class string) bool {
	if n.Type != nethtml.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *nethtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *nethtml.Node, match func(*nethtml.Node) bool) *nethtml.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *nethtml.Node, match func(*nethtml.Node) bool) []*nethtml.Node {
	var out []*nethtml.Node
	var traverse func(*nethtml.Node)
	traverse = func(node *nethtml.Node) {
		if match(node) {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return out
}

func textContent(n *nethtml.Node) string {
	var sb strings.Builder
	var traverse func(*nethtml.Node)
	traverse = func(node *nethtml.Node) {
		if node.Type == nethtml.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return sb.String()
}
