// Package linkcheck verifies the internal links of a rendered site against
// the files the render actually produced. The check is offline: external
// URLs are reported but never fetched.
package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link is one reference extracted from a rendered HTML page.
type Link struct {
	URL        string // raw attribute value
	Text       string // link text or alt text
	Tag        string // a, img, script, link, video, audio, source
	Attribute  string // href or src
	IsInternal bool
}

// ExtractLinks parses an HTML file and returns every link-bearing element.
func ExtractLinks(htmlPath, baseURL string) ([]Link, error) {
	f, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()

	links, err := ExtractLinksFromReader(f, baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", htmlPath, err)
	}
	return links, nil
}

// ExtractLinksFromReader parses HTML from r and returns every link-bearing
// element. baseURL decides which absolute URLs count as internal.
func ExtractLinksFromReader(r io.Reader, baseURL string) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n, base); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func elementLink(n *html.Node, base *url.URL) (Link, bool) {
	var attr, text string
	switch n.Data {
	case "a":
		attr, text = "href", extractText(n)
	case "link":
		attr, text = "href", getAttr(n, "rel")
	case "img":
		attr, text = "src", getAttr(n, "alt")
	case "script", "video", "audio", "source":
		attr = "src"
	default:
		return Link{}, false
	}

	val := getAttr(n, attr)
	if val == "" {
		return Link{}, false
	}
	return Link{
		URL:        val,
		Text:       text,
		Tag:        n.Data,
		Attribute:  attr,
		IsInternal: isInternal(val, base),
	}, true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(extractText(c))
	}
	return strings.TrimSpace(b.String())
}

// isInternal reports whether a link stays inside the site: relative URLs,
// pure fragments, and absolute URLs on the site's own host.
func isInternal(link string, base *url.URL) bool {
	if strings.HasPrefix(link, "#") {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	return base != nil && u.Host != "" && u.Host == base.Host
}

// checkable filters out links that carry no verifiable target.
func checkable(l Link) bool {
	if l.URL == "" || strings.HasPrefix(l.URL, "#") {
		return false
	}
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(l.URL, scheme) {
			return false
		}
	}
	return true
}
