package sweep

import (
	"strings"
	"time"
)

// stopTimezones maps the TMS's fixed timezone abbreviations onto IANA
// zone names. The TMS only ever emits US zones.
var stopTimezones = map[string]string{
	"EDT":  "America/New_York",
	"EST":  "America/New_York",
	"CDT":  "America/Chicago",
	"CST":  "America/Chicago",
	"MDT":  "America/Denver",
	"MST":  "America/Denver",
	"PDT":  "America/Los_Angeles",
	"PST":  "America/Los_Angeles",
	"HDT":  "Pacific/Honolulu",
	"HST":  "Pacific/Honolulu",
	"AKDT": "America/Anchorage",
	"AKST": "America/Anchorage",
}

// stopLocation resolves a stop's timezone abbreviation. Unknown or
// missing abbreviations report false; each sweep decides whether that
// skips the order or falls back to a default zone.
func stopLocation(abbr string) (*time.Location, bool) {
	name, ok := stopTimezones[abbr]
	if !ok {
		return nil, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, false
	}
	return loc, true
}

// parseStopTime parses the TMS date-time encoding in the given zone.
// The encoded offset suffix (or a stray + section) is cut off, since
// the zone is taken from the stop's timezone field instead.
func parseStopTime(raw string, loc *time.Location) (time.Time, error) {
	core := raw
	if i := strings.Index(raw, "+"); i >= 0 {
		core = raw[:i]
	} else if i := strings.Index(raw, "-"); i >= 0 {
		core = raw[:i]
	}
	return time.ParseInLocation("20060102150405", core, loc)
}
