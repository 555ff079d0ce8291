package news

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"politics_fetcher/internal/classify"
	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/fetch"
)

// entry is one accepted list item before it is typed as an article or event.
type entry struct {
	title string
	url   string
	date  time.Time
	text  string
	label string
	thumb string
	desc  string
}

type Source struct {
	profile SiteProfile
	client  *fetch.Client
	limit   int
	logger  *slog.Logger
}

func New(profile SiteProfile, client *fetch.Client, limit int, logger *slog.Logger) *Source {
	if profile.Kind == "" {
		profile.Kind = KindArticle
	}
	return &Source{
		profile: profile,
		client:  client,
		limit:   limit,
		logger:  logger.With("source", profile.ID),
	}
}

func (s *Source) ID() string { return s.profile.ID }

// FetchArticles returns nothing for event profiles.
func (s *Source) FetchArticles(ctx context.Context) ([]domain.ScrapedArticle, error) {
	if s.profile.Kind != KindArticle {
		return nil, nil
	}
	entries, err := s.extract(ctx)
	if err != nil {
		return nil, err
	}

	articles := make([]domain.ScrapedArticle, 0, len(entries))
	for _, e := range entries {
		label := e.label
		if label == "" {
			label = e.title
		}
		articles = append(articles, domain.ScrapedArticle{
			SourceID:     s.profile.ID,
			Title:        e.title,
			URL:          e.url,
			PublishedAt:  e.date,
			Category:     classify.Category(label),
			ThumbnailURL: optional(e.thumb),
			Content:      optional(e.desc),
		})
	}
	return articles, nil
}

// FetchEvents returns nothing for article profiles.
func (s *Source) FetchEvents(ctx context.Context) ([]domain.ScrapedEvent, error) {
	if s.profile.Kind != KindEvent {
		return nil, nil
	}
	entries, err := s.extract(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]domain.ScrapedEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, domain.ScrapedEvent{
			SourceID:     s.profile.ID,
			Title:        e.title,
			URL:          e.url,
			EventDate:    e.date,
			EventType:    classify.EventType(e.title, e.text),
			Prefecture:   optional(classify.Prefecture(e.title + " " + e.text)),
			Description:  optional(e.desc),
			ThumbnailURL: optional(e.thumb),
		})
	}
	return events, nil
}

func (s *Source) extract(ctx context.Context) ([]entry, error) {
	if s.profile.ListURL == "" || s.profile.Item == "" {
		return nil, fmt.Errorf("news source %q: %w", s.profile.ID, domain.ErrMissingSource)
	}
	doc, err := s.client.GetDocument(ctx, s.profile.ListURL)
	if err != nil {
		return nil, fmt.Errorf("fetch list page %s: %w", s.profile.ListURL, err)
	}

	seen := make(map[string]bool)
	var entries []entry
	var noDate, denied, short int

	doc.Find(s.profile.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if s.limit > 0 && len(entries) >= s.limit {
			return false
		}

		href := s.link(item)
		if href == "" {
			return true
		}
		link := fetch.Resolve(doc, href)
		title := collapse(s.text(item, s.profile.Title, s.linkSel(item)))

		if s.profile.deniedTitle(title) || s.profile.deniedURL(href, link) {
			denied++
			return true
		}
		if utf8.RuneCountInString(title) < minTitleRunes {
			short++
			return true
		}
		date, ok := s.date(item)
		if !ok {
			noDate++
			return true
		}
		if seen[link] {
			return true
		}
		seen[link] = true

		e := entry{
			title: title,
			url:   link,
			date:  date,
			text:  collapse(item.Text()),
			label: collapse(s.optionalText(item, s.profile.Category)),
			desc:  collapse(s.optionalText(item, s.profile.Description)),
			thumb: s.thumbnail(doc, item),
		}
		entries = append(entries, e)
		return true
	})

	s.logger.Debug("list page extracted",
		"url", s.profile.ListURL,
		"accepted", len(entries),
		"no_date", noDate,
		"denied", denied,
		"short_title", short,
	)
	return entries, nil
}

func (s *Source) linkSel(item *goquery.Selection) *goquery.Selection {
	if s.profile.Link != "" {
		return item.Find(s.profile.Link).First()
	}
	if item.Is("a") {
		return item
	}
	return item.Find("a[href]").First()
}

func (s *Source) link(item *goquery.Selection) string {
	return strings.TrimSpace(s.linkSel(item).AttrOr("href", ""))
}

// text reads selector text within item, falling back to the given selection.
func (s *Source) text(item *goquery.Selection, selector string, fallback *goquery.Selection) string {
	if selector != "" {
		if sel := item.Find(selector).First(); sel.Length() > 0 {
			return sel.Text()
		}
	}
	return fallback.Text()
}

func (s *Source) optionalText(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return item.Find(selector).First().Text()
}

// date requires a parsable date in the date selector (text or datetime
// attribute), or anywhere in the item when no selector is configured.
func (s *Source) date(item *goquery.Selection) (time.Time, bool) {
	if s.profile.Date == "" {
		return classify.ParseDate(item.Text())
	}
	sel := item.Find(s.profile.Date).First()
	if dt, ok := sel.Attr("datetime"); ok {
		if t, ok := classify.ParseDate(dt); ok {
			return t, true
		}
	}
	return classify.ParseDate(sel.Text())
}

func (s *Source) thumbnail(doc *goquery.Document, item *goquery.Selection) string {
	img := item.Find("img").First()
	if s.profile.Thumbnail != "" {
		img = item.Find(s.profile.Thumbnail).First()
	}
	if img.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"src", "data-src", "data-original"} {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" && !strings.HasPrefix(v, "data:") {
			return fetch.Resolve(doc, v)
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
