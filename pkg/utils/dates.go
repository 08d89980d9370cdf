package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the display format shared by every source after normalization.
const DateLayout = "2006.01.02"

// ErrUnparseableDate is returned when a free-text date cannot be normalized.
var ErrUnparseableDate = errors.New("unparseable date")

// ParseDate normalizes loosely formatted dates such as "2026.10.20", "2026.1.5",
// "20261020" or "2026.10.20 (추정)" into a local midnight time.
//
// Everything except digits and dots is dropped and only the first ten characters
// are considered, so range strings resolve to their first date.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) > 10 {
		clean = clean[:10]
	}
	if len(clean) < 8 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
	}

	var norm string
	if strings.Contains(clean, ".") {
		parts := strings.Split(clean, ".")
		if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
		}
		norm = parts[0] + "." + zeroPad(parts[1]) + "." + zeroPad(parts[2])
	} else {
		norm = clean[:4] + "." + clean[4:6] + "." + clean[6:8]
	}

	t, err := time.ParseInLocation(DateLayout, norm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
	}
	return t, nil
}

func zeroPad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// FormatDate renders t as YYYY.MM.DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatCompact converts a contiguous YYYYMMDD string to YYYY.MM.DD, or returns "" if it is too short.
func FormatCompact(s string) string {
	if len(s) < 8 {
		return ""
	}
	return s[:4] + "." + s[4:6] + "." + s[6:8]
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DDay is the signed number of calendar days from today to target.
func DDay(target, today time.Time) int {
	ty, tm, td := target.Date()
	ny, nm, nd := today.In(target.Location()).Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}
