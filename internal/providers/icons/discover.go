package icons

import (
	"bytes"
	"mime"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Link selectors in discovery order
const (
	iconSelector       = `link[rel~="icon"]`
	appleTouchSelector = `link[rel~="apple-touch-icon"]`
	faviconPath        = "/favicon.ico"
)

// DetectCharset guesses the charset of an HTML body
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// LoadHTML parses a page body, converting it to UTF-8. A charset declared in
// contentType wins over detection.
func LoadHTML(data []byte, contentType string) (*goquery.Document, error) {
	if _, params, err := mime.ParseMediaType(contentType); err != nil || params["charset"] == "" {
		contentType = "text/html; charset=" + DetectCharset(data)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		// Fallback to direct parsing
		return goquery.NewDocumentFromReader(bytes.NewReader(data))
	}
	return goquery.NewDocumentFromReader(utf8Reader)
}

// Discover returns candidate icon URLs in priority order: rel=icon links,
// then rel=apple-touch-icon links, then /favicon.ico on the page's host.
// A nil document yields only the favicon candidate.
func Discover(doc *goquery.Document, base *url.URL) []*url.URL {
	var out []*url.URL
	seen := make(map[string]bool)

	add := func(u *url.URL) {
		key := u.String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, u)
	}

	if doc != nil {
		for _, sel := range []string{iconSelector, appleTouchSelector} {
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				href, ok := s.Attr("href")
				if !ok {
					return
				}
				href = strings.TrimSpace(href)
				if href == "" {
					return
				}
				u, err := base.Parse(href)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
					return
				}
				add(u)
			})
		}
	}

	if fav, err := base.Parse(faviconPath); err == nil {
		add(fav)
	}
	return out
}
