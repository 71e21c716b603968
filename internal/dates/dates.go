// Package dates formats and parses calendar dates using local calendar fields.
//
// Dates travel as "YYYY-MM-DD" strings. Conversions never pass through UTC, so a
// late-evening timestamp in a non-UTC zone keeps its local day.
package dates

import (
	"fmt"
	"regexp"
	"time"
)

// Layout is the wire format of a calendar date.
const Layout = "2006-01-02"

var (
	ymdRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	nowFunc = time.Now
)

// FormatLocalDate renders t as YYYY-MM-DD from its own year, month and day.
func FormatLocalDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseLocalDate parses a strict YYYY-MM-DD string to local midnight.
// Empty or malformed input falls back to the current time, so callers must not
// use it for validation; use Parse for that.
func ParseLocalDate(s string) time.Time {
	return ParseLocalDateIn(s, time.Local)
}

// ParseLocalDateIn is ParseLocalDate for an explicit location.
func ParseLocalDateIn(s string, loc *time.Location) time.Time {
	t, err := ParseIn(s, loc)
	if err != nil {
		return nowFunc().In(loc)
	}
	return t
}

// Parse is the strict form of ParseLocalDate.
func Parse(s string) (time.Time, error) {
	return ParseIn(s, time.Local)
}

// ParseIn strictly parses s as YYYY-MM-DD at midnight in loc.
func ParseIn(s string, loc *time.Location) (time.Time, error) {
	if !IsYMD(s) {
		return time.Time{}, fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	t, err := time.ParseInLocation(Layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not a calendar date", s)
	}
	return t, nil
}

// IsYMD reports whether s has the YYYY-MM-DD shape. It does not check the calendar.
func IsYMD(s string) bool {
	return ymdRe.MatchString(s)
}

// Midnight truncates t to the start of its local day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today returns local midnight of the current day in loc.
func Today(loc *time.Location) time.Time {
	return Midnight(nowFunc().In(loc))
}

// StartOfWeek returns the Monday that starts t's week, at midnight.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return Midnight(t).AddDate(0, 0, -offset)
}

// DaysBetweenInclusive counts calendar days from a to b, both included.
// It is zero or negative when b is before a.
func DaysBetweenInclusive(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours()/24) + 1
}
