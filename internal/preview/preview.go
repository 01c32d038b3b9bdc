// Package preview condenses the HTML served by the backend's render route
// into a terminal-friendly summary: title, headings, outbound links and a
// short text excerpt.
package preview

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// excerptRunes bounds the text excerpt.
const excerptRunes = 280

// Heading is one h1-h6 element.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Summary is what Summarize extracts from a page.
type Summary struct {
	Title    string    `json:"title"`
	Headings []Heading `json:"headings,omitempty"`

	// Internal links share the page's host; External links do not. Both are
	// absolute, deduplicated and in document order.
	Internal []string `json:"internal,omitempty"`
	External []string `json:"external,omitempty"`

	Excerpt string `json:"excerpt,omitempty"`
}

// Summarize parses page, resolving relative links against base.
func Summarize(base string, page io.Reader) (*Summary, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	doc, err := html.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	s := &Summary{}
	seen := make(map[string]bool)
	var text strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				if s.Title == "" {
					s.Title = collapse(textOf(n))
				}
				return
			case "h1", "h2", "h3", "h4", "h5", "h6":
				if t := collapse(textOf(n)); t != "" {
					s.Headings = append(s.Headings, Heading{Level: int(n.Data[1] - '0'), Text: t})
				}
			case "a":
				s.addLink(baseURL, getAttr(n, "href"), seen)
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	s.Excerpt = truncate(collapse(text.String()), excerptRunes)
	return s, nil
}

// SummarizeBytes is Summarize over an in-memory page.
func SummarizeBytes(base string, page []byte) (*Summary, error) {
	return Summarize(base, bytes.NewReader(page))
}

func (s *Summary) addLink(base *url.URL, href string, seen map[string]bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return
	}
	ref, err := url.Parse(href)
	if err != nil {
		return
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return
	}
	abs.Fragment = ""
	link := abs.String()
	if seen[link] {
		return
	}
	seen[link] = true
	if strings.EqualFold(abs.Host, base.Host) {
		s.Internal = append(s.Internal, link)
	} else {
		s.External = append(s.External, link)
	}
}

// Links returns internal then external links.
func (s *Summary) Links() []string {
	return append(append([]string(nil), s.Internal...), s.External...)
}

// Write prints the summary as plain text.
func (s *Summary) Write(w io.Writer) error {
	var b strings.Builder
	title := s.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "%s\n", title)
	for _, h := range s.Headings {
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", h.Level-1), h.Text)
	}
	if s.Excerpt != "" {
		fmt.Fprintf(&b, "\n%s\n", s.Excerpt)
	}
	if len(s.Internal) > 0 {
		fmt.Fprintf(&b, "\nLinks (%d):\n", len(s.Internal))
		for _, l := range s.Internal {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}
	if len(s.External) > 0 {
		fmt.Fprintf(&b, "\nExternal (%d):\n", len(s.External))
		for _, l := range s.External {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
