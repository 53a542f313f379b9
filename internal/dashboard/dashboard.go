// Package dashboard filters remote reports by date and summarizes them for
// the charts.
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"afc-report-backend/internal/model"
	"afc-report-backend/internal/parse"
	"afc-report-backend/internal/sheet"
)

// DayLayout is the layout of the start and end query values.
const DayLayout = "2006-01-02"

const unknown = "Unknown"

// Range is an inclusive span of whole days.
type Range struct {
	Start time.Time
	End   time.Time
}

// ParseRange reads start and end days in loc. An empty start is the first day
// of the current month, an empty end is today.
func ParseRange(start, end string, now time.Time, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	var r Range
	if start == "" {
		r.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	} else {
		t, err := time.ParseInLocation(DayLayout, start, loc)
		if err != nil {
			return Range{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		r.Start = t
	}
	if end == "" {
		r.End = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	} else {
		t, err := time.ParseInLocation(DayLayout, end, loc)
		if err != nil {
			return Range{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		r.End = t
	}
	return r, nil
}

// Bounds returns the first and last instant covered by the range.
func (r Range) Bounds() (time.Time, time.Time) {
	loc := r.Start.Location()
	from := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, loc)
	endLoc := r.End.Location()
	to := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), endLoc)
	return from, to
}

// FilterByRange keeps the rows dated inside the range. Rows whose date
// cannot be read are dropped.
func FilterByRange(rows []sheet.Row, r Range, loc *time.Location) []sheet.Row {
	from, to := r.Bounds()
	out := make([]sheet.Row, 0, len(rows))
	for _, row := range rows {
		t, err := parse.ReportDate(row.Date(), loc)
		if err != nil {
			continue
		}
		if t.Before(from) || t.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out
}

type StationCount struct {
	Station string `json:"station"`
	Count   int    `json:"count"`
}

type MalfunctionCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the data behind the dashboard charts.
type Summary struct {
	Total            int                `json:"total"`
	Stations         []StationCount     `json:"stations"`
	GateMalfunctions []MalfunctionCount `json:"gateMalfunctions"`
	AtimMalfunctions []MalfunctionCount `json:"atimMalfunctions"`
}

// Summarize counts reports per station, in line order with every station
// present, and per malfunction for GATE and ATIM.
func Summarize(rows []sheet.Row) Summary {
	stations := make(map[string]int)
	gate := make(map[string]int)
	atim := make(map[string]int)

	for _, row := range rows {
		stations[orUnknown(row.Get("station"))]++
		malfunction := orUnknown(row.Get("malfunction"))
		switch model.Device(row.Get("device")) {
		case model.DeviceGATE:
			gate[malfunction]++
		case model.DeviceATIM:
			atim[malfunction]++
		}
	}

	s := Summary{
		Total:            len(rows),
		Stations:         make([]StationCount, 0, len(model.Stations)),
		GateMalfunctions: ranked(gate),
		AtimMalfunctions: ranked(atim),
	}
	for _, st := range model.Stations {
		s.Stations = append(s.Stations, StationCount{Station: st, Count: stations[st]})
	}
	return s
}

func ranked(counts map[string]int) []MalfunctionCount {
	out := make([]MalfunctionCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, MalfunctionCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
