package domain

import "time"

type Category string

const (
	CategoryPartyHQ    Category = "party_hq"
	CategoryPolicy     Category = "policy"
	CategoryParliament Category = "parliament"
	CategoryElection   Category = "election"
	CategoryPress      Category = "press"
	CategoryLocal      Category = "local"
	CategoryActivity   Category = "activity"
	CategoryMedia      Category = "media"
)

type EventType string

const (
	EventStreetSpeech  EventType = "street_speech"
	EventTownMeeting   EventType = "town_meeting"
	EventDebate        EventType = "debate"
	EventSpeechMeeting EventType = "speech_meeting"
	EventRally         EventType = "rally"
	EventSeminar       EventType = "seminar"
	EventFundraiser    EventType = "fundraiser"
	EventVolunteer     EventType = "volunteer"
	EventOther         EventType = "other"
)

// ScrapedArticle is a news item taken from a party or politician site.
type ScrapedArticle struct {
	ID           int64     `db:"id" json:"id,omitempty"`
	SourceID     string    `db:"source_id" json:"source_id"`
	Title        string    `db:"title" json:"title"`
	URL          string    `db:"url" json:"url"`
	PublishedAt  time.Time `db:"published_at" json:"published_at"`
	Category     Category  `db:"category" json:"category"`
	ThumbnailURL *string   `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Content      *string   `db:"content" json:"content,omitempty"`
}

// ScrapedEvent is a scheduled event (speech, rally, ...) taken from an events page.
type ScrapedEvent struct {
	ID           int64     `db:"id" json:"id,omitempty"`
	SourceID     string    `db:"source_id" json:"source_id"`
	Title        string    `db:"title" json:"title"`
	URL          string    `db:"url" json:"url"`
	EventDate    time.Time `db:"event_date" json:"event_date"`
	EventType    EventType `db:"event_type" json:"event_type"`
	Prefecture   *string   `db:"prefecture" json:"prefecture,omitempty"`
	Description  *string   `db:"description" json:"description,omitempty"`
	ThumbnailURL *string   `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
}
