package fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Meta returns the content of the first <meta> matching property or name.
func Meta(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		for _, attr := range []string{"property", "name", "itemprop"} {
			sel := doc.Find(`meta[` + attr + `="` + key + `"]`).First()
			if v, ok := sel.Attr("content"); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// PageImage looks for og:image, then twitter:image, then the first <img>
// matched by any of the platform-specific selectors.
func PageImage(doc *goquery.Document, selectors ...string) string {
	if v := Meta(doc, "og:image", "twitter:image", "twitter:image:src"); v != "" {
		return Resolve(doc, v)
	}
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if !node.Is("img") {
			node = node.Find("img").First()
		}
		for _, attr := range []string{"src", "data-src"} {
			if v, ok := node.Attr(attr); ok && v != "" {
				return Resolve(doc, v)
			}
		}
	}
	return ""
}

// Resolve turns a possibly relative href into an absolute URL using the
// document's own URL.
func Resolve(doc *goquery.Document, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || doc == nil || doc.Url == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return doc.Url.ResolveReference(ref).String()
}
