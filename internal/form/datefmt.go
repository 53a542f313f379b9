package form

import (
	"fmt"
	"strings"
	"time"
)

// FormatDisplay renders t the way reports are dated in the spreadsheet:
// day/month/year, 12-hour clock with Greek meridiem markers.
// 2025-03-04 15:05 becomes "4/3/2025, 03:05 μ.μ.".
func FormatDisplay(t time.Time) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	marker := "π.μ."
	if t.Hour() >= 12 {
		marker = "μ.μ."
	}
	return fmt.Sprintf("%d/%d/%d, %02d:%02d %s", t.Day(), int(t.Month()), t.Year(), hour, t.Minute(), marker)
}

// DisplayDate turns a UTC ISO timestamp into the display form and leaves
// every other value untouched.
func DisplayDate(raw string, loc *time.Location) string {
	if !strings.Contains(raw, "T") || !strings.Contains(raw, "Z") {
		return raw
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	if loc != nil {
		t = t.In(loc)
	}
	return FormatDisplay(t)
}
