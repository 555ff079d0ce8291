package classify

import (
	"regexp"
	"strconv"
	"time"
)

// JST is a fixed +09:00 zone so parsing does not depend on tzdata.
var JST = time.FixedZone("JST", 9*60*60)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})\.(\d{1,2})\.(\d{1,2})`),
	regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日`),
	regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`),
	regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`),
}

// ParseDate finds the first supported date in s (YYYY.MM.DD, YYYY年MM月DD日,
// YYYY/MM/DD, YYYY-MM-DD, tried in that order) and returns midnight JST of
// that day. ok is false when nothing matches.
func ParseDate(s string) (time.Time, bool) {
	for _, re := range datePatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if mo < 1 || mo > 12 || d < 1 || d > 31 {
			continue
		}
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, JST)
		if t.Day() != d {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}
