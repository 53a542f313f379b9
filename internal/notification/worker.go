package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"afc-report-backend/internal/logger"
	"afc-report-backend/internal/model"
	"afc-report-backend/internal/queue"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Message is the push payload describing one sync pass.
type Message struct {
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Result queue.SyncResult `json:"result"`
}

// WorkerPool fans sync results out to every push subscriber.
type WorkerPool struct {
	size    int
	jobs    chan queue.SyncResult
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	log     *logrus.Entry
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan queue.SyncResult, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     logger.For("notification"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.WithField("worker", id)
	log.Debug("worker started")
	for {
		select {
		case res := <-wp.jobs:
			wp.broadcast(ctx, res)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// Notify queues a sync result for delivery. It never blocks the sync loop;
// results are dropped while every worker is busy.
func (wp *WorkerPool) Notify(ctx context.Context, res queue.SyncResult) {
	select {
	case wp.jobs <- res:
	default:
		wp.log.WithField("synced", res.Synced).Warn("notification queue full, dropping sync result")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan queue.SyncResult {
	return wp.jobs
}

// Describe renders the text shown for a sync pass.
func Describe(res queue.SyncResult) Message {
	var body string
	switch {
	case res.Failed == 0:
		body = fmt.Sprintf("%d report(s) synced to Google Sheets", res.Synced)
	case res.Synced == 0:
		body = fmt.Sprintf("%d report(s) failed to sync, will retry", res.Failed)
	default:
		body = fmt.Sprintf("%d report(s) synced, %d failed and will retry", res.Synced, res.Failed)
	}
	if res.Remaining > 0 {
		body += fmt.Sprintf(" (%d pending)", res.Remaining)
	}
	return Message{Title: "AFC Reports", Body: body, Result: res}
}

func (wp *WorkerPool) broadcast(ctx context.Context, res queue.SyncResult) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		wp.log.WithError(err).Error("failed to fetch push subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(Describe(res))
	if err != nil {
		wp.log.WithError(err).Error("failed to encode push payload")
		return
	}

	wp.log.WithField("subscribers", len(subscriptions)).Info("sending sync notifications")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	log := wp.log.WithField("endpoint", sub.Endpoint)
	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.WithError(err).Warn("failed to send notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Info("subscription expired, deleting")
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.WithError(err).Error("failed to delete expired subscription")
		}
	}
}
