package classify

import (
	"fmt"
	"strings"
)

var prefectures = []string{
	"北海道", "青森", "岩手", "宮城", "秋田", "山形", "福島",
	"茨城", "栃木", "群馬", "埼玉", "千葉", "東京", "神奈川",
	"新潟", "富山", "石川", "福井", "山梨", "長野", "岐阜",
	"静岡", "愛知", "三重", "滋賀", "京都", "大阪", "兵庫",
	"奈良", "和歌山", "鳥取", "島根", "岡山", "広島", "山口",
	"徳島", "香川", "愛媛", "高知", "福岡", "佐賀", "長崎",
	"熊本", "大分", "宮崎", "鹿児島", "沖縄",
}

// Prefecture returns the two-digit JIS code of the earliest prefecture
// mentioned in text, or "" when none is found.
func Prefecture(text string) string {
	best, bestPos := -1, -1
	for i, name := range prefectures {
		pos := strings.Index(text, name)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos || (pos == bestPos && len(name) > len(prefectures[best])) {
			best, bestPos = i, pos
		}
	}
	if best < 0 {
		return ""
	}
	return fmt.Sprintf("%02d", best+1)
}
