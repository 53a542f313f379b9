// Package sheet describes the column layout of the remote spreadsheet and
// reconciles rows keyed by column headers with the internal report fields.
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"afc-report-backend/internal/model"
)

// Row is one record as returned by the remote read endpoint. Keys are either
// spreadsheet headers ("Reported By") or internal field names ("reportBy").
type Row map[string]any

// Column maps a spreadsheet header to its internal field name.
type Column struct {
	Header string
	Field  string
	Width  float64
}

// Columns is the fixed spreadsheet layout, in sheet order.
var Columns = []Column{
	{Header: "Reported By", Field: "reportBy", Width: 25},
	{Header: "Date", Field: "reportedDate", Width: 22},
	{Header: "Station", Field: "station", Width: 15},
	{Header: "Device", Field: "device", Width: 10},
	{Header: "Tag", Field: "tag", Width: 10},
	{Header: "Status", Field: "status", Width: 15},
	{Header: "Alarm Code", Field: "alarmCode", Width: 15},
	{Header: "Malfunction", Field: "malfunction", Width: 40},
	{Header: "Impact", Field: "impact", Width: 20},
	{Header: "Repair Process", Field: "repairProcess", Width: 40},
	{Header: "Assigned To", Field: "assignedTo", Width: 20},
	{Header: "Final Result", Field: "finalResult", Width: 20},
	{Header: "Comments", Field: "comments", Width: 40},
}

var byField = func() map[string]Column {
	m := make(map[string]Column, len(Columns))
	for _, c := range Columns {
		m[c.Field] = c
	}
	return m
}()

// Get returns the value of an internal field. When a row carries both the
// internal name and the spreadsheet header, the internal name wins. Blank
// values count as absent.
func (r Row) Get(field string) string {
	if v := text(r[field]); v != "" {
		return v
	}
	if c, ok := byField[field]; ok {
		return text(r[c.Header])
	}
	return ""
}

// Date returns the raw date text of the row.
func (r Row) Date() string {
	return r.Get("reportedDate")
}

// Normalize converts a row of either shape into a report.
func Normalize(r Row) model.Report {
	synced, _ := r["synced"].(bool)
	return model.Report{
		ID:            text(r["id"]),
		ReportBy:      r.Get("reportBy"),
		ReportedDate:  r.Get("reportedDate"),
		Station:       r.Get("station"),
		Device:        model.Device(r.Get("device")),
		Tag:           r.Get("tag"),
		Status:        r.Get("status"),
		AlarmCode:     r.Get("alarmCode"),
		Malfunction:   r.Get("malfunction"),
		Impact:        r.Get("impact"),
		RepairProcess: r.Get("repairProcess"),
		AssignedTo:    r.Get("assignedTo"),
		FinalResult:   r.Get("finalResult"),
		Comments:      r.Get("comments"),
		Synced:        synced,
	}
}

// Headed returns the row keyed by spreadsheet headers only.
func Headed(r Row) Row {
	out := make(Row, len(Columns))
	for _, c := range Columns {
		out[c.Header] = r.Get(c.Field)
	}
	return out
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
