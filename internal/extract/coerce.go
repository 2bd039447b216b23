package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/IshaanNene/wikimatch/internal/types"
)

// isoLayout renders UTC as "+00:00" rather than "Z".
const isoLayout = "2006-01-02T15:04:05-07:00"

// ParseInt converts a trimmed decimal integer. Blank or non-numeric input
// reports false.
func ParseInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// startLayouts are tried before the permissive parser. They cover the day
// and month orders wiki pages use, which dateparse does not always accept.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 January 2006 15:04",
	"2 January 2006 15:04:05",
	"2 January 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"January 2, 2006 15:04",
	"January 2, 2006, 15:04",
	"January 2 2006 15:04",
	"January 2, 2006 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
}

var (
	dashSeparator = regexp.MustCompile(`\s+[-\x{2013}\x{2014}]+\s+`)
	trailingUTC   = regexp.MustCompile(`(?i)\s*\b(?:UTC|GMT)(?:\s*([+-])\s*(\d{1,2})(?::?(\d{2}))?)?$`)
	trailingAbbr  = regexp.MustCompile(`\s+([A-Z]{2,5})$`)
	clockOnly     = regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AaPp][Mm])?$`)
)

// zoneOffsets maps the zone abbreviations found next to match times to
// their UTC offset in hours.
var zoneOffsets = map[string]float64{
	"UTC": 0, "GMT": 0, "WET": 0,
	"BST": 1, "CET": 1, "WEST": 1,
	"CEST": 2, "EET": 2, "SAST": 2,
	"EEST": 3, "MSK": 3,
	"IST": 5.5,
	"SGT": 8, "AWST": 8, "PHT": 8,
	"KST": 9, "JST": 9,
	"AEST": 10, "AEDT": 11,
	"NZST": 12, "NZDT": 13,
	"BRT": -3,
	"EDT": -4,
	"EST": -5, "CDT": -5,
	"CST": -6, "MDT": -6,
	"MST": -7, "PDT": -7,
	"PST": -8,
}

// ParseStartTime combines an optional date and an optional time of day into
// a UTC ISO-8601 timestamp. Values without a zone are taken as UTC. A
// trailing "UTC+N" offset or a known abbreviation such as "CET" shifts the
// value before it is normalized. A time of day alone has no date and reports
// false. So does an unknown trailing zone or anything the parsers reject.
func ParseStartTime(date, clock string) (ts string, ok bool) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)

	var combined string
	switch {
	case date == "" && clock == "":
		return "", false
	case date != "" && clock != "":
		combined = date + " " + clock
	case date != "":
		combined = date
	default:
		combined = clock
	}

	text, loc, ok := splitZone(normalizeStart(combined))
	if !ok || text == "" || clockOnly.MatchString(text) {
		return "", false
	}

	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t.UTC().Format(isoLayout), true
		}
	}

	// dateparse can panic on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			ts, ok = "", false
		}
	}()

	t, err := dateparse.ParseIn(text, loc)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(isoLayout), true
}

// normalizeStart drops the dash that separates date and time on wiki pages
// and collapses whitespace.
func normalizeStart(s string) string {
	s = dashSeparator.ReplaceAllString(s, " ")
	s = strings.Trim(s, " -\u2013\u2014")
	return strings.Join(strings.Fields(s), " ")
}

// splitZone strips a trailing zone designator and returns the location the
// rest should be read in. An all-caps trailing word that is not a known zone
// reports false rather than being silently read as UTC.
func splitZone(s string) (string, *time.Location, bool) {
	if m := trailingUTC.FindStringSubmatchIndex(s); m != nil {
		rest := s[:m[0]]
		if m[2] < 0 {
			return rest, time.UTC, true
		}
		hours, _ := strconv.Atoi(s[m[4]:m[5]])
		minutes := 0
		if m[6] >= 0 {
			minutes, _ = strconv.Atoi(s[m[6]:m[7]])
		}
		if hours > 14 || minutes > 59 {
			return "", nil, false
		}
		offset := hours*3600 + minutes*60
		if s[m[2]:m[3]] == "-" {
			offset = -offset
		}
		return rest, time.FixedZone(strings.TrimSpace(s[m[0]:]), offset), true
	}

	if m := trailingAbbr.FindStringSubmatch(s); m != nil && m[1] != "AM" && m[1] != "PM" {
		hours, known := zoneOffsets[m[1]]
		if !known {
			return "", nil, false
		}
		rest := strings.TrimSuffix(s, m[0])
		return rest, time.FixedZone(m[1], int(hours*3600)), true
	}

	return s, time.UTC, true
}

// DecideWinner reports which side won. Missing scores and ties have no winner.
func DecideWinner(score1, score2 *int) (types.Side, bool) {
	if score1 == nil || score2 == nil {
		return "", false
	}
	switch {
	case *score1 > *score2:
		return types.SideTeam1, true
	case *score2 > *score1:
		return types.SideTeam2, true
	default:
		return "", false
	}
}
