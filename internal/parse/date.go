package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LocalInputLayout is the layout of an HTML datetime-local value.
const LocalInputLayout = "2006-01-02T15:04"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	LocalInputLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	// d/m/yyyy, hh:mm with an optional Greek or Latin meridiem marker.
	displayRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(π\.?\s?μ\.?|μ\.?\s?μ\.?|[AaPp]\.?[Mm]\.?)?$`)
	dayRe     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// ReportDate parses the date of a report as either ISO 8601, the form's
// display string or a bare DD/MM/YYYY prefix. Values without a zone are
// read in loc.
func ReportDate(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	if m := displayRe.FindStringSubmatch(s); m != nil {
		return fromDisplay(m, loc)
	}

	// Fallback: only the date part is trusted.
	datePart := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(datePart) > 0 {
		if m := dayRe.FindStringSubmatch(datePart[0]); m != nil {
			return civil(m[3], m[2], m[1], 0, 0, 0, loc)
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %q", raw)
}

func fromDisplay(m []string, loc *time.Location) (time.Time, error) {
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second := 0
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}

	if marker := m[7]; marker != "" {
		if hour < 1 || hour > 12 {
			return time.Time{}, fmt.Errorf("hour %d out of range for 12-hour clock", hour)
		}
		pm := strings.HasPrefix(marker, "μ") || strings.HasPrefix(strings.ToLower(marker), "p")
		switch {
		case pm && hour < 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
	}

	return civil(m[3], m[2], m[1], hour, minute, second, loc)
}

func civil(year, month, day string, hour, minute, second int, loc *time.Location) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if mo < 1 || mo > 12 || d < 1 || d > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("date out of range: %s/%s/%s", day, month, year)
	}
	t := time.Date(y, time.Month(mo), d, hour, minute, second, 0, loc)
	if t.Day() != d {
		return time.Time{}, fmt.Errorf("no such day: %s/%s/%s", day, month, year)
	}
	return t, nil
}
