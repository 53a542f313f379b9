package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"afc-report-backend/internal/apperror"
	"afc-report-backend/internal/form"
	"afc-report-backend/internal/history"
	"afc-report-backend/internal/logger"
	"afc-report-backend/internal/queue"
	"afc-report-backend/internal/remote"
	"afc-report-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	remote  *remote.Client
	queue   *queue.Controller
	form    *form.Form
	history *history.Service
	webpush *webpush.Options
	loc     *time.Location
	now     func() time.Time
	log     *logrus.Entry
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, rc *remote.Client, qc *queue.Controller, f *form.Form, webpushOptions *webpush.Options) *Handler {
	h := &Handler{
		store:   s,
		remote:  rc,
		queue:   qc,
		form:    f,
		history: history.NewService(rc),
		webpush: webpushOptions,
		loc:     time.Local,
		now:     time.Now,
		log:     logger.For("api"),
	}
	if f != nil {
		h.loc = f.Location()
	}
	return h
}

// respondError writes err the way the proxy routes always have:
// {"error": message} with the status the error maps to.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, message := apperror.StatusOf(err)
	if status >= 500 {
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}
