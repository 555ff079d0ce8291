package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"politics_fetcher/internal/domain"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		label string
		want  domain.Category
	}{
		{"政策", domain.CategoryPolicy},
		{" 国会 ", domain.CategoryParliament},
		{"記者会見", domain.CategoryPress},
		{"お知らせ", domain.CategoryPartyHQ},
		{"政策・提言", domain.CategoryPolicy},
		{"幹事長記者会見（定例）", domain.CategoryPress},
		{"参議院選挙特設", domain.CategoryElection},
		{"予算委員会", domain.CategoryParliament},
		{"unknown label", domain.CategoryPartyHQ},
		{"", domain.CategoryPartyHQ},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.label))
		})
	}
}

func TestCategory_Deterministic(t *testing.T) {
	first := Category("政策")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Category("政策"))
	}
}

func TestEventType(t *testing.T) {
	tests := []struct {
		name  string
		title string
		text  string
		want  domain.EventType
	}{
		{"street speech", "駅前で街頭演説を行います", "", domain.EventStreetSpeech},
		{"speech meeting before generic speech", "個人演説会のお知らせ", "", domain.EventSpeechMeeting},
		{"town meeting", "タウンミーティング in 札幌", "", domain.EventTownMeeting},
		{"rally", "県民集会", "", domain.EventRally},
		{"title wins over text", "公開討論会", "街頭演説もあります", domain.EventDebate},
		{"falls back to text", "9月の予定", "勉強会を開催します", domain.EventSeminar},
		{"fundraiser", "政治資金パーティー開催", "", domain.EventFundraiser},
		{"other", "お知らせ", "詳細は後日", domain.EventOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EventType(tt.title, tt.text))
		})
	}
}

func TestParseDate_Formats(t *testing.T) {
	inputs := []string{
		"2025.10.03",
		"2025年10月3日",
		"2025/10/3",
		"2025-10-03",
		"掲載日：2025年 10月 3日（金）",
	}

	for _, in := range inputs {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		y, m, d := got.Date()
		assert.Equal(t, 2025, y, in)
		assert.Equal(t, time.October, m, in)
		assert.Equal(t, 3, d, in)
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, in := range []string{"not a date", "", "2025.13.01", "2025/02/30", "令和7年"} {
		got, ok := ParseDate(in)
		assert.False(t, ok, in)
		assert.True(t, got.IsZero(), in)
	}
}

func TestPrefecture(t *testing.T) {
	assert.Equal(t, "13", Prefecture("東京都千代田区で開催"))
	assert.Equal(t, "26", Prefecture("京都市内"))
	assert.Equal(t, "01", Prefecture("北海道札幌市"))
	assert.Equal(t, "47", Prefecture("沖縄県那覇市"))
	assert.Equal(t, "27", Prefecture("会場：大阪府大阪市、兵庫県からも参加"))
	assert.Equal(t, "", Prefecture("オンライン開催"))
}
