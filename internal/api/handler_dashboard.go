package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"afc-report-backend/internal/dashboard"
	"afc-report-backend/internal/export"
	"afc-report-backend/internal/sheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// rowsInRange fetches every spreadsheet row and keeps those inside the
// start/end query range. It writes the error response itself.
func (h *Handler) rowsInRange(c *gin.Context) (dashboard.Range, []sheet.Row, bool) {
	r, err := dashboard.ParseRange(c.Query("start"), c.Query("end"), h.now(), h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return r, nil, false
	}

	rows, err := h.remote.Fetch(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return r, nil, false
	}
	return r, dashboard.FilterByRange(rows, r, h.loc), true
}

// GetDashboard returns the chart data for a date range.
func (h *Handler) GetDashboard(c *gin.Context) {
	r, rows, ok := h.rowsInRange(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start":   r.Start.Format(dashboard.DayLayout),
		"end":     r.End.Format(dashboard.DayLayout),
		"summary": dashboard.Summarize(rows),
		"reports": rows,
	})
}

// GetExport downloads the reports of a date range as a workbook.
func (h *Handler) GetExport(c *gin.Context) {
	r, rows, ok := h.rowsInRange(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, rows, h.loc); err != nil {
		if errors.Is(err, export.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.respondError(c, err)
		return
	}

	name := export.Filename(r.Start.Format(dashboard.DayLayout), r.End.Format(dashboard.DayLayout))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
