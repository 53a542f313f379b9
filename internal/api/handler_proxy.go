package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"afc-report-backend/internal/apperror"
)

// GetReports passes the spreadsheet's rows through unchanged.
func (h *Handler) GetReports(c *gin.Context) {
	body, err := h.remote.FetchRaw(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/json", body)
}

// PostSubmit forwards one report document to the spreadsheet.
func (h *Handler) PostSubmit(c *gin.Context) {
	var body json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.remote.Create(c.Request.Context(), body); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type deleteRowRequest struct {
	RowIndex any `json:"rowIndex"`
}

// PostDelete asks the spreadsheet to drop one row and forwards its answer.
func (h *Handler) PostDelete(c *gin.Context) {
	if !h.remote.Configured() {
		h.respondError(c, apperror.ErrNotConfigured)
		return
	}

	var req deleteRowRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !present(req.RowIndex) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing rowIndex"})
		return
	}

	result, err := h.remote.Delete(c.Request.Context(), req.RowIndex)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", result)
}

// present reports whether a decoded JSON value counts as given: null, false,
// zero and the empty string do not.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}
