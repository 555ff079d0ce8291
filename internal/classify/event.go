package classify

import (
	"strings"

	"politics_fetcher/internal/domain"
)

// More specific phrases come first; the first hit wins.
var eventKeywords = []struct {
	keywords  []string
	eventType domain.EventType
}{
	{[]string{"街頭演説", "街宣"}, domain.EventStreetSpeech},
	{[]string{"タウンミーティング", "対話集会"}, domain.EventTownMeeting},
	{[]string{"討論会", "公開討論"}, domain.EventDebate},
	{[]string{"演説会", "個人演説"}, domain.EventSpeechMeeting},
	{[]string{"政治資金パーティー", "パーティー", "後援会"}, domain.EventFundraiser},
	{[]string{"ボランティア"}, domain.EventVolunteer},
	{[]string{"セミナー", "勉強会", "研修会", "講演会"}, domain.EventSeminar},
	{[]string{"集会", "決起大会", "大会"}, domain.EventRally},
	{[]string{"演説"}, domain.EventStreetSpeech},
}

// EventType classifies an event by keyword containment in its title, then
// in the surrounding text.
func EventType(title, text string) domain.EventType {
	for _, haystack := range []string{title, text} {
		if haystack == "" {
			continue
		}
		for _, rule := range eventKeywords {
			for _, kw := range rule.keywords {
				if strings.Contains(haystack, kw) {
					return rule.eventType
				}
			}
		}
	}
	return domain.EventOther
}
