package services

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// blankValues are cell contents spreadsheet exports use for "no value".
var blankValues = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"none": {},
	"n/a":  {},
	"-":    {},
}

// isBlank reports whether a cell holds no value.
func isBlank(s string) bool {
	_, ok := blankValues[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// CoerceCount is the single clamp-and-warn conversion every counter goes
// through. It never fails: values it cannot read become 0, negatives are
// clamped to 0 and decimals truncate toward zero. The returned message is
// empty when the value was taken as-is.
func CoerceCount(raw string) (int64, string) {
	s := strings.TrimSpace(raw)
	if isBlank(s) {
		return 0, ""
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, "negative value clamped to 0"
		}
		return n, ""
	}

	if isDecimal(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil || errors.Is(err, strconv.ErrRange) {
			return countFromFloat(f, "")
		}
	}

	var msg string
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned != s {
		msg = "non-numeric characters dropped"
	}
	if cleaned == "" {
		return 0, "non-numeric value replaced with 0"
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, "non-numeric value replaced with 0"
	}
	return countFromFloat(f, msg)
}

// isDecimal reports whether s is written as a plain decimal or scientific
// number, such as "3.7" or "1e5".
func isDecimal(s string) bool {
	digits := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case strings.ContainsRune(".+-eE", r):
		default:
			return false
		}
	}
	return digits
}

// countFromFloat clamps and truncates f, appending to msg what it changed.
func countFromFloat(f float64, msg string) (int64, string) {
	switch {
	case f < 0:
		return 0, "negative value clamped to 0"
	case f >= math.MaxInt64:
		return math.MaxInt64, "value out of range clamped"
	}
	if f != math.Trunc(f) {
		if msg == "" {
			msg = "decimal value truncated"
		} else {
			msg += "; decimal value truncated"
		}
	}
	return int64(f), msg
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e12

// ParseTimestamp tries each layout in order and returns the first match
// in UTC. domain.TimestampUnix accepts epoch seconds or milliseconds.
func ParseTimestamp(raw string, layouts []string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if isBlank(s) {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if layout == domain.TimestampUnix {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || n <= 0 {
				continue
			}
			if n >= epochMillisThreshold {
				return time.UnixMilli(n).UTC(), true
			}
			return time.Unix(n, 0).UTC(), true
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// warning builds a DataWarning for a coerced cell.
func warning(line int, field domain.Field, column, raw, msg string) domain.DataWarning {
	return domain.DataWarning{
		Line:    line,
		Field:   field,
		Column:  column,
		Raw:     raw,
		Message: msg,
	}
}
