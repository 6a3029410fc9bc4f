// Package xapi holds pure helpers over xAPI statements shared by the metric
// providers: ISO-8601 duration parsing, best-attempt selection and score or
// completion extraction. Nothing here performs I/O.
package xapi

import (
	"strconv"
	"strings"
)

// ParseDuration converts an ISO-8601 time duration of the form
// PT[nH][nM][n(.n)S] into seconds. Unparseable input yields 0: empty
// strings, a missing PT prefix and garbage fragments all count as zero
// rather than an error, because duration fields in real LRS data are
// frequently absent or malformed. Fractional components are accepted,
// e.g. PT1.5H is 5400.
func ParseDuration(raw string) float64 {
	if raw == "" || !strings.HasPrefix(raw, "PT") {
		return 0
	}

	rest := raw[len("PT"):]
	if rest == "" {
		return 0
	}

	var seconds float64
	start := 0
	for i := 0; i < len(rest); i++ {
		var factor float64
		switch rest[i] {
		case 'H':
			factor = 3600
		case 'M':
			factor = 60
		case 'S':
			factor = 1
		default:
			continue
		}

		value, err := strconv.ParseFloat(rest[start:i], 64)
		if err != nil {
			return 0
		}
		seconds += value * factor
		start = i + 1
	}

	// Trailing digits without a unit invalidate the whole string.
	if start != len(rest) {
		return 0
	}

	return seconds
}
