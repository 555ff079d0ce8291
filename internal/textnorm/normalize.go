package textnorm

import (
	"regexp"
	"strings"
)

var (
	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&amp;", "&",
	)

	reTrailingPicLink   = regexp.MustCompile(`(?m)(?:^|[ \t]+)(?:https?://)?pic\.(?:twitter|x)\.com/\S+[ \t]*$`)
	reTrailingShortLink = regexp.MustCompile(`(?m)(?:^|[ \t]+)(?:https?://)?t\.co/\S+[ \t]*$`)
	reHorizontalSpaces  = regexp.MustCompile(`[ \t]{2,}`)
	reTrailingSpaces    = regexp.MustCompile(`(?m)[ \t]+$`)
	reExtraNewlines     = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans feed or scraped text. It is idempotent: the result is a
// fixed point of a single cleaning pass.
func Normalize(raw string) string {
	s := raw
	for {
		next := pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

// pass never lengthens its input, so iterating it terminates.
func pass(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = entityReplacer.Replace(s)
	s = reTrailingPicLink.ReplaceAllString(s, "")
	s = reTrailingShortLink.ReplaceAllString(s, "")
	s = reHorizontalSpaces.ReplaceAllString(s, " ")
	s = reTrailingSpaces.ReplaceAllString(s, "")
	s = reExtraNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

var reShortLinkAnywhere = regexp.MustCompile(`(?:https?://)?t\.co/\S+\s*$`)

// LooksTruncated reports whether feed text was likely cut short by the feed
// producer, which is when a canonical lookup is worth the extra request.
func LooksTruncated(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if reShortLinkAnywhere.MatchString(trimmed) {
		return true
	}
	body := strings.TrimSpace(reShortLinkAnywhere.ReplaceAllString(trimmed, ""))
	return strings.HasSuffix(body, "…") || strings.HasSuffix(body, "...")
}
