// Package classify maps scraped labels and text onto the fixed category
// and event taxonomies, and parses the date formats used on Japanese sites.
package classify

import (
	"strings"

	"politics_fetcher/internal/domain"
)

var categoryLabels = map[string]domain.Category{
	"お知らせ":  domain.CategoryPartyHQ,
	"ニュース":  domain.CategoryPartyHQ,
	"党本部":   domain.CategoryPartyHQ,
	"政策":    domain.CategoryPolicy,
	"政策発表":  domain.CategoryPolicy,
	"提言":    domain.CategoryPolicy,
	"国会":    domain.CategoryParliament,
	"国会活動":  domain.CategoryParliament,
	"選挙":    domain.CategoryElection,
	"選挙情報":  domain.CategoryElection,
	"記者会見":  domain.CategoryPress,
	"会見":    domain.CategoryPress,
	"談話":    domain.CategoryPress,
	"地方":    domain.CategoryLocal,
	"地方議会":  domain.CategoryLocal,
	"活動報告":  domain.CategoryActivity,
	"活動":    domain.CategoryActivity,
	"メディア":  domain.CategoryMedia,
	"メディア出演": domain.CategoryMedia,
}

// Substring rules are checked in order so the result is deterministic.
var categoryKeywords = []struct {
	keyword  string
	category domain.Category
}{
	{"会見", domain.CategoryPress},
	{"談話", domain.CategoryPress},
	{"選挙", domain.CategoryElection},
	{"国会", domain.CategoryParliament},
	{"委員会", domain.CategoryParliament},
	{"政策", domain.CategoryPolicy},
	{"提言", domain.CategoryPolicy},
	{"地方", domain.CategoryLocal},
	{"県連", domain.CategoryLocal},
	{"メディア", domain.CategoryMedia},
	{"出演", domain.CategoryMedia},
	{"活動", domain.CategoryActivity},
}

// Category classifies a raw label: exact match, then substring match,
// then the party_hq default.
func Category(raw string) domain.Category {
	label := strings.TrimSpace(raw)
	if c, ok := categoryLabels[label]; ok {
		return c
	}
	for _, rule := range categoryKeywords {
		if strings.Contains(label, rule.keyword) {
			return rule.category
		}
	}
	return domain.CategoryPartyHQ
}
