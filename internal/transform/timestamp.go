package transform

import (
	"fmt"
	"strings"
)

// NormalizeTimestamp converts the TMS fixed-width date-time encoding
// (YYYYMMDDHHMMSS, optionally followed by a -offset suffix such as
// "-0600") into an ISO 8601 date-time without timezone
// (YYYY-MM-DDTHH:MM:SS).
//
// The offset is discarded, not applied; no timezone conversion happens.
// It fails closed: missing values, non-string values and strings with
// fewer than 14 core characters yield ("", false).
func NormalizeTimestamp(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", false
	}

	core, _, _ := strings.Cut(s, "-")
	if len(core) < 14 {
		return "", false
	}

	return fmt.Sprintf("%s-%s-%sT%s:%s:%s",
		core[0:4], core[4:6], core[6:8],
		core[8:10], core[10:12], core[12:14]), true
}
