package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"afc-report-backend/internal/form"
	"afc-report-backend/internal/model"
	"afc-report-backend/internal/sheet"
)

// formError maps a form rule violation onto a response. Anything else is a
// storage failure.
func (h *Handler) formError(c *gin.Context, err error, state form.State) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, form.ErrFieldLocked):
		status = http.StatusConflict
	case errors.Is(err, form.ErrUnknownField),
		errors.Is(err, form.ErrInvalidValue),
		errors.Is(err, form.ErrOptionDisabled),
		errors.Is(err, form.ErrMissingTag),
		errors.Is(err, form.ErrNoTags):
		status = http.StatusBadRequest
	default:
		h.log.WithError(err).Error("form operation failed")
	}
	c.JSON(status, gin.H{"error": form.Alert(err), "state": state})
}

func (h *Handler) GetForm(c *gin.Context) {
	c.JSON(http.StatusOK, h.form.State())
}

type setFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// PatchForm changes one field of the draft.
func (h *Handler) PatchForm(c *gin.Context) {
	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	state, err := h.form.SetField(c.Request.Context(), req.Field, req.Value)
	if err != nil {
		h.formError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

type toggleRequest struct {
	Option string `json:"option" binding:"required"`
}

func (h *Handler) PostFinalResult(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	state, err := h.form.ToggleFinalResult(req.Option)
	if err != nil {
		h.formError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

type switchRequest struct {
	Enabled *bool  `json:"enabled" binding:"required"`
	Tags    string `json:"tags"`
}

func (h *Handler) PutAutoTime(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	state, err := h.form.SetAutoTime(*req.Enabled)
	if err != nil {
		h.formError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) PutMultiTag(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	state, err := h.form.SetMultiTag(*req.Enabled, req.Tags)
	if err != nil {
		h.formError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

// PostFormSubmit queues the draft and returns the reset form.
func (h *Handler) PostFormSubmit(c *gin.Context) {
	res, err := h.form.Submit(c.Request.Context())
	if err != nil {
		h.formError(c, err, res.State)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) DeleteFormEdit(c *gin.Context) {
	c.JSON(http.StatusOK, h.form.CancelEdit(c.Request.Context()))
}

// GetFormOptions returns the choice lists for the draft's device.
func (h *Handler) GetFormOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.form.Catalog())
}

// GetCatalog returns the choice lists for any device. The answer never
// changes, so it is served through the response cache.
func (h *Handler) GetCatalog(c *gin.Context) {
	device := model.Device(c.Param("device"))
	known := false
	for _, d := range model.Devices {
		if d == device {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown device"})
		return
	}
	c.JSON(http.StatusOK, form.CatalogFor(device))
}

// PostHistoryEdit loads a previously submitted row into the form.
func (h *Handler) PostHistoryEdit(c *gin.Context) {
	var row sheet.Row
	if err := c.ShouldBindJSON(&row); err != nil || len(row) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	c.JSON(http.StatusOK, h.form.BeginEdit(row))
}

// GetHistory lists the latest spreadsheet rows, newest first.
func (h *Handler) GetHistory(c *gin.Context) {
	rows, err := h.history.Recent(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	for _, r := range rows {
		if d, ok := r["Date"].(string); ok {
			r["Date"] = form.DisplayDate(d, h.loc)
		}
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, rows)
}
