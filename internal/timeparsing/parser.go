// Package timeparsing parses the compact duration syntax used in filter
// expressions (updated:<30d) and escalation thresholds (--threshold 3d).
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// compactDurationRe matches compact duration patterns: (\d+)([hdw])
// Examples: 6h, 30d, 2w
var compactDurationRe = regexp.MustCompile(`^(\d+)([hdw])$`)

// ParseCompactDuration parses compact duration syntax into a time.Duration.
//
// Units:
//   - h = hours
//   - d = days (24h)
//   - w = weeks (168h)
//
// Calendar-dependent units (months, years) are rejected: a filter like
// updated:<1m has no fixed duration and trackers disagree on its meaning.
func ParseCompactDuration(s string) (time.Duration, error) {
	matches := compactDurationRe.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("not a compact duration: %q (expected forms like 6h, 30d, 2w)", s)
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration amount: %q", matches[1])
	}

	switch matches[2] {
	case "h":
		return time.Duration(amount) * time.Hour, nil
	case "d":
		return time.Duration(amount) * 24 * time.Hour, nil
	case "w":
		return time.Duration(amount) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported duration unit: %q", matches[2])
	}
}

// IsCompactDuration reports whether s looks like a compact duration.
func IsCompactDuration(s string) bool {
	return compactDurationRe.MatchString(s)
}
