package convert

import (
	"regexp"
	"strings"
)

var (
	zeroYearRe  = regexp.MustCompile(`0000-(\d\d)-(\d\d)`)
	zeroMonthRe = regexp.MustCompile(`(\d\d\d\d)-00-(\d\d)`)
	zeroDayRe   = regexp.MustCompile(`(\d\d\d\d)-(\d\d)-00`)
)

// SanitizeDates rewrites MySQL zero dates into the earliest valid
// component: year 0000 becomes 0001, month 00 and day 00 become 01. The
// three rewrites run in that order, so 0000-00-00 becomes 0001-01-01.
// The patterns are not anchored; any digit run of that shape is rewritten,
// inside string literals too.
func SanitizeDates(s string) string {
	if !strings.Contains(s, "0000-") && !strings.Contains(s, "-00") {
		return s
	}
	s = zeroYearRe.ReplaceAllString(s, "0001-${1}-${2}")
	s = zeroMonthRe.ReplaceAllString(s, "${1}-01-${2}")
	s = zeroDayRe.ReplaceAllString(s, "${1}-${2}-01")
	return s
}
