package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetPending lists reports waiting for sync, newest first.
func (h *Handler) GetPending(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"reports": h.queue.Pending(),
		"syncing": h.queue.Syncing(),
		"online":  h.queue.Online(),
	})
}

// DeletePending drops a pending report locally. It does not wait for an
// in-progress submission of the same report.
func (h *Handler) DeletePending(c *gin.Context) {
	if err := h.queue.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PostSync runs a sync pass now and reports its outcome.
func (h *Handler) PostSync(c *gin.Context) {
	res := h.queue.Sync(c.Request.Context())
	c.JSON(http.StatusOK, res)
}

// PostClearSynced removes reports that already reached the spreadsheet.
func (h *Handler) PostClearSynced(c *gin.Context) {
	n, err := h.store.ClearSynced(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
