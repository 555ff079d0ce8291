// Package news extracts articles and events from known party and politician
// list pages using per-site CSS selector profiles.
package news

import (
	"strings"
)

type Kind string

const (
	KindArticle Kind = "article"
	KindEvent   Kind = "event"
)

// SiteProfile describes how to read one list page. Selectors are relative to
// each Item match; empty selectors fall back to the item itself.
type SiteProfile struct {
	ID          string   `yaml:"id"`
	Kind        Kind     `yaml:"kind"`
	ListURL     string   `yaml:"list_url"`
	Item        string   `yaml:"item"`
	Title       string   `yaml:"title"`
	Link        string   `yaml:"link"`
	Date        string   `yaml:"date"`
	Category    string   `yaml:"category"`
	Thumbnail   string   `yaml:"thumbnail"`
	Description string   `yaml:"description"`
	DenyTitles  []string `yaml:"deny_titles"`
	DenyURLs    []string `yaml:"deny_urls"`
}

const minTitleRunes = 5

// Navigation and boilerplate link texts that list pages mix in with content.
var denyTitles = []string{
	"一覧", "一覧を見る", "もっと見る", "続きを読む", "詳しく見る", "トップ", "ホーム", "TOP", "HOME",
	"次へ", "前へ", "次のページ", "前のページ", "ニュース一覧", "お知らせ一覧", "イベント一覧",
	"お問い合わせ", "サイトマップ", "プライバシーポリシー", "個人情報保護方針", "RSS", "More",
}

var denyURLFragments = []string{
	"javascript:", "mailto:", "tel:", "/category/", "/tag/", "/tags/", "/page/", "?page=", "&page=",
	"/privacy", "/contact", "/sitemap", "/feed/", "/search",
}

func (p SiteProfile) deniedTitle(title string) bool {
	t := strings.TrimSpace(title)
	for _, d := range denyTitles {
		if strings.EqualFold(t, d) {
			return true
		}
	}
	for _, d := range p.DenyTitles {
		if d != "" && strings.Contains(t, d) {
			return true
		}
	}
	return false
}

// deniedURL checks the raw href and its resolved form. Links to an anchor on
// the same page are denied; a fragment on an article URL is ignored.
func (p SiteProfile) deniedURL(href, link string) bool {
	if strings.HasPrefix(strings.TrimSpace(href), "#") {
		return true
	}
	lower := strings.ToLower(link)
	if i := strings.IndexByte(lower, '#'); i >= 0 {
		lower = lower[:i]
	}
	for _, frag := range denyURLFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	if strings.HasSuffix(lower, "/feed") {
		return true
	}
	for _, frag := range p.DenyURLs {
		if frag != "" && strings.Contains(lower, strings.ToLower(frag)) {
			return true
		}
	}
	return false
}
