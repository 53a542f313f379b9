// Package export writes report rows into an xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"afc-report-backend/internal/parse"
	"afc-report-backend/internal/sheet"
)

const (
	SheetName  = "Reports"
	DateFormat = "dd/mm/yyyy hh:mm AM/PM"

	headerHeight = 30
)

var ErrNoData = errors.New("No data to export!")

// Filename is the download name of a workbook covering start to end.
func Filename(start, end string) string {
	return fmt.Sprintf("AFC_Reports_%s_to_%s.xlsx", start, end)
}

type styles struct {
	header    int
	data      int
	zebra     int
	date      int
	zebraDate int
}

// Write renders rows as a styled workbook. Dates that can be read become
// date cells; the rest are kept as text.
func Write(w io.Writer, rows []sheet.Row, loc *time.Location) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	header := make([]any, len(sheet.Columns))
	for i, c := range sheet.Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, c.Width); err != nil {
			return fmt.Errorf("failed to set width of %s: %w", c.Header, err)
		}
		header[i] = c.Header
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(sheet.Columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, st.header); err != nil {
		return err
	}
	if err := f.SetRowHeight(SheetName, 1, headerHeight); err != nil {
		return err
	}

	for i, row := range rows {
		n := i + 2
		data, date := st.data, st.date
		if n%2 == 0 {
			data, date = st.zebra, st.zebraDate
		}
		for j, c := range sheet.Columns {
			cell, _ := excelize.CoordinatesToCellName(j+1, n)
			var value any = row.Get(c.Field)
			style := data
			if c.Field == "reportedDate" {
				if t, err := parse.ReportDate(row.Date(), loc); err == nil {
					value = wallClock(t, loc)
					style = date
				}
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write %s: %w", cell, err)
			}
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// wallClock keeps the local reading of t; spreadsheet dates carry no zone.
func wallClock(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func borders(color string) []excelize.Border {
	out := make([]excelize.Border, 0, 4)
	for _, side := range []string{"top", "left", "bottom", "right"} {
		out = append(out, excelize.Border{Type: side, Color: color, Style: 1})
	}
	return out
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0F5132"}},
		Font:      &excelize.Font{Family: "Arial", Bold: true, Size: 11, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders("9CA3AF"),
	})
	if err != nil {
		return st, fmt.Errorf("failed to create header style: %w", err)
	}

	dateFmt := DateFormat
	base := func(zebra bool, date bool) *excelize.Style {
		s := &excelize.Style{
			Font:      &excelize.Font{Family: "Arial", Size: 10, Color: "1F2937"},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
			Border:    borders("E5E7EB"),
		}
		if zebra {
			s.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F9FAFB"}}
		}
		if date {
			s.CustomNumFmt = &dateFmt
		}
		return s
	}

	for _, v := range []struct {
		id    *int
		zebra bool
		date  bool
	}{
		{&st.data, false, false},
		{&st.zebra, true, false},
		{&st.date, false, true},
		{&st.zebraDate, true, true},
	} {
		if *v.id, err = f.NewStyle(base(v.zebra, v.date)); err != nil {
			return st, fmt.Errorf("failed to create data style: %w", err)
		}
	}
	return st, nil
}
