package resolver

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"logosvc/internal/models"
	"logosvc/internal/validation"
)

// HTMLScrapeStrategy fetches the entity's own home page and extracts icon
// declarations from its markup: <link rel="icon"> variants (preferring SVG,
// then the largest declared size) and the Open Graph image. Last resort in
// the chain.
type HTMLScrapeStrategy struct {
	client   *http.Client
	maxBytes int64

	// AllowPrivateHosts skips the SSRF guard for development fixtures.
	AllowPrivateHosts bool
}

// NewHTMLScrapeStrategy creates the strategy with its own bounded client.
func NewHTMLScrapeStrategy() *HTMLScrapeStrategy {
	return &HTMLScrapeStrategy{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		maxBytes: 1 << 20,
	}
}

func (s *HTMLScrapeStrategy) Name() string { return models.SourceHTMLScrape }

func (s *HTMLScrapeStrategy) Candidates(ctx context.Context, entry models.CatalogEntry) []string {
	if entry.URL == "" {
		return nil
	}
	if !s.AllowPrivateHosts {
		if ok, _ := validation.ValidateURLForFetch(entry.URL); !ok {
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "logosvc-resolver/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}

	base, err := url.Parse(entry.URL)
	if err != nil {
		return nil
	}

	return extractIconURLs(io.LimitReader(resp.Body, s.maxBytes), base)
}

// iconRef is one icon declaration found in the page head.
type iconRef struct {
	href    string
	isSVG   bool
	size    int  // largest edge from the sizes attribute, 0 when undeclared
	ogImage bool // og:image ranks below any <link> icon
}

// extractIconURLs parses HTML and returns candidate icon URLs resolved
// against base, best first.
func extractIconURLs(r io.Reader, base *url.URL) []string {
	doc, err := html.Parse(r)
	if err != nil {
		return nil
	}

	var refs []iconRef
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				if ref, ok := linkIconRef(n); ok {
					refs = append(refs, ref)
				}
			case "meta":
				if prop := attr(n, "property"); prop == "og:image" {
					if content := attr(n, "content"); content != "" {
						refs = append(refs, iconRef{href: content, ogImage: true})
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// SVG first, then largest declared size; og:image always last.
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.ogImage != b.ogImage {
			return !a.ogImage
		}
		if a.isSVG != b.isSVG {
			return a.isSVG
		}
		return a.size > b.size
	})

	seen := make(map[string]bool)
	var urls []string
	for _, ref := range refs {
		u, err := url.Parse(ref.href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(u).String()
		if !seen[abs] {
			seen[abs] = true
			urls = append(urls, abs)
		}
	}
	return urls
}

func linkIconRef(n *html.Node) (iconRef, bool) {
	rel := strings.ToLower(attr(n, "rel"))
	if !strings.Contains(rel, "icon") {
		return iconRef{}, false
	}
	href := attr(n, "href")
	if href == "" {
		return iconRef{}, false
	}

	ref := iconRef{href: href}
	typ := strings.ToLower(attr(n, "type"))
	if strings.Contains(typ, "svg") || strings.HasSuffix(strings.ToLower(href), ".svg") {
		ref.isSVG = true
	}
	for _, part := range strings.Fields(attr(n, "sizes")) {
		if edge := parseSizeEdge(part); edge > ref.size {
			ref.size = edge
		}
	}
	// Apple touch icons are typically 180x180 even when undeclared.
	if ref.size == 0 && strings.Contains(rel, "apple-touch-icon") {
		ref.size = 180
	}
	return ref, true
}

// parseSizeEdge parses one sizes token like "32x32" or "any".
func parseSizeEdge(s string) int {
	s = strings.ToLower(s)
	if s == "any" {
		return 512
	}
	w, _, ok := strings.Cut(s, "x")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return 0
	}
	return n
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
