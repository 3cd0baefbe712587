package ingest

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts covers the string forms seen in the sales sheets. Day-first
// layouts must come before anything ambiguous; the files are always d/m/y.
var dateLayouts = []string{
	"02/01/2006", "2/1/2006",
	"02-01-2006", "2-1-2006",
	"02.01.2006", "2.1.2006",
	"2006-01-02", "2006/01/02",
	"2006-01-02T15:04:05", time.RFC3339,
	"02/01/06", "2/1/06",
}

// ParseDate converts a raw cell into a calendar date. Resolution order:
// empty -> no date; numeric -> Excel serial; known string layouts; finally a
// 3-part day-month-year split on "/", "-" or ".". The time component is
// always discarded. ok is false when nothing yields a valid date, which
// rejects the row upstream.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := excelSerialToDate(f); ok {
			return t, true
		}
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	if t, ok := splitDayMonthYear(s); ok {
		return t, true
	}
	return time.Time{}, false
}

// excelSerialToDate converts an Excel serial day count to a date. Excel
// epoch is nominally 1899-12-31 but the format counts a nonexistent
// 1900-02-29, so serials from March 1900 onward line up with a 1899-12-30
// base; earlier serials need the extra day back. The fractional day carries
// time-of-day, which is dropped.
func excelSerialToDate(f float64) (time.Time, bool) {
	if f <= 0 {
		return time.Time{}, false
	}
	days := int(f)
	if days <= 59 {
		days++
	}
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, days), true
}

// splitDayMonthYear handles the leftovers dateLayouts misses, e.g. mixed
// separators or stray spacing. Exactly three integer parts interpreted as
// day-month-year; two-digit years are taken as 2000s.
func splitDayMonthYear(s string) (time.Time, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseAmount extracts a non-negative amount from a cell. Everything outside
// [0-9.,] is stripped, commas become dots, and the longest valid float prefix
// is taken. A lone comma is therefore always read as a decimal point:
// "1.234,56" yields 1.234, not 1234.56. That is the behavior stored amounts
// already assume, so thousands separators are NOT disambiguated here.
// Unparseable cells degrade to 0 rather than rejecting the row.
func ParseAmount(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.ReplaceAll(b.String(), ",", ".")
	v, ok := floatPrefix(cleaned)
	if !ok {
		return 0
	}
	return v
}

// floatPrefix parses the longest prefix of s that is a valid float, the way
// a permissive float parser consumes "1.234.56" as 1.234 and stops.
func floatPrefix(s string) (float64, bool) {
	val, found := 0.0, false
	for i := 1; i <= len(s); i++ {
		if f, err := strconv.ParseFloat(s[:i], 64); err == nil {
			val = f
			found = true
		}
	}
	return val, found
}
