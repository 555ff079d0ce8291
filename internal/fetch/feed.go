package fetch

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

var (
	reImgSrc  = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
	reTags    = regexp.MustCompile(`(?s)<[^>]*>`)
	reScripts = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// FeedThumbnail walks the thumbnail fallback chain for a feed item:
// media:content / media:thumbnail (also inside media:group), an image
// enclosure, then the first <img> in title, description or content.
// Returns "" when nothing is found.
func FeedThumbnail(item *gofeed.Item) string {
	if u := mediaThumbnail(item.Extensions); u != "" {
		return u
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(strings.ToLower(enc.Type), "image/") {
			return enc.URL
		}
	}
	for _, s := range []string{item.Title, item.Description, item.Content} {
		if u := FirstImage(s); u != "" {
			return u
		}
	}
	return ""
}

func mediaThumbnail(exts ext.Extensions) string {
	media, ok := exts["media"]
	if !ok {
		return ""
	}
	if u := mediaURL(media); u != "" {
		return u
	}
	for _, group := range media["group"] {
		if u := mediaURL(group.Children); u != "" {
			return u
		}
	}
	return ""
}

func mediaURL(m map[string][]ext.Extension) string {
	for _, c := range m["content"] {
		u := c.Attrs["url"]
		if u == "" {
			continue
		}
		medium := c.Attrs["medium"]
		typ := c.Attrs["type"]
		if medium == "image" || strings.HasPrefix(typ, "image/") || (medium == "" && typ == "") {
			return u
		}
	}
	for _, t := range m["thumbnail"] {
		if u := t.Attrs["url"]; u != "" {
			return u
		}
		if v := strings.TrimSpace(t.Value); v != "" {
			return v
		}
	}
	return ""
}

// FirstImage returns the src of the first <img> tag in an HTML fragment.
func FirstImage(fragment string) string {
	if fragment == "" {
		return ""
	}
	m := reImgSrc.FindStringSubmatch(fragment)
	if m == nil {
		m = reImgSrc.FindStringSubmatch(html.UnescapeString(fragment))
	}
	if m == nil {
		return ""
	}
	return html.UnescapeString(m[1])
}

// FeedPublished resolves an item's timestamp, falling back to now.
func FeedPublished(item *gofeed.Item, now time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}
	return now
}

// ParseTime parses a free-form timestamp string, falling back to now.
func ParseTime(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	if t, err := dateparse.ParseAny(raw); err == nil {
		return t
	}
	return now
}

// StripHTML drops tags and scripts and unescapes entities.
func StripHTML(fragment string) string {
	s := reScripts.ReplaceAllString(fragment, "")
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n").Replace(s)
	s = reTags.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(s))
}

// Extension returns the first value of a namespaced feed extension, e.g. yt:videoId.
func Extension(item *gofeed.Item, ns, name string) string {
	if item.Extensions == nil {
		return ""
	}
	for _, e := range item.Extensions[ns][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

// Limit caps the number of items processed per fetch.
func Limit(items []*gofeed.Item, n int) []*gofeed.Item {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
