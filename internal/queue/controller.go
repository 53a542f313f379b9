// Package queue keeps the pending reports moving towards the remote side.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"afc-report-backend/internal/logger"
	"afc-report-backend/internal/model"
	"afc-report-backend/internal/submit"
)

// ReportStore is the part of the local store the controller needs.
type ReportStore interface {
	ListPending(ctx context.Context) ([]model.Report, error)
	MarkSynced(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Notifier receives the outcome of every sync pass that attempted something.
type Notifier interface {
	Notify(ctx context.Context, res SyncResult)
}

// SyncResult summarizes one pass over the pending reports.
type SyncResult struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Remaining int `json:"remaining"`
}

// Controller owns the unsynced reports and pushes them through a Submitter.
// Passes never overlap, and a report is never submitted twice at once.
type Controller struct {
	store     ReportStore
	submitter submit.Submitter
	probe     Connectivity
	notifier  Notifier
	interval  time.Duration

	syncing atomic.Bool
	online  atomic.Bool

	mu       sync.Mutex
	inFlight map[string]struct{}
	pending  []model.Report

	triggers chan struct{}
	log      *logrus.Entry
}

// NewController wires a controller. probe may be nil, meaning always online.
func NewController(store ReportStore, submitter submit.Submitter, probe Connectivity, interval time.Duration) *Controller {
	if probe == nil {
		probe = AlwaysOnline{}
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Controller{
		store:     store,
		submitter: submitter,
		probe:     probe,
		interval:  interval,
		inFlight:  make(map[string]struct{}),
		pending:   []model.Report{},
		triggers:  make(chan struct{}, 1),
		log:       logger.For("queue"),
	}
}

// SetNotifier registers the receiver of sync results.
func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

// Trigger asks the running loop for a sync attempt. It never blocks; triggers
// arriving while one is already queued are merged.
func (c *Controller) Trigger() {
	select {
	case c.triggers <- struct{}{}:
	default:
	}
}

// Pending returns a copy of the displayed pending list.
func (c *Controller) Pending() []model.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Report, len(c.pending))
	copy(out, c.pending)
	return out
}

func (c *Controller) Syncing() bool {
	return c.syncing.Load()
}

// Online returns the result of the last connectivity check.
func (c *Controller) Online() bool {
	return c.online.Load()
}

// Run drives syncing until ctx is cancelled: once at start, whenever
// connectivity comes back, on every interval tick and on Trigger.
func (c *Controller) Run(ctx context.Context) {
	c.log.WithField("interval", c.interval).Info("starting sync loop")

	c.Refresh(ctx)
	if c.checkOnline(ctx) && len(c.Pending()) > 0 {
		c.Sync(ctx)
	}

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("sync loop shutting down")
			return
		case <-c.triggers:
			if c.checkOnline(ctx) {
				c.Sync(ctx)
			} else {
				c.Refresh(ctx)
			}
		case <-timer.C:
			c.tick(ctx)
			timer.Reset(c.interval)
		}
	}
}

func (c *Controller) tick(ctx context.Context) {
	wasOnline := c.online.Load()
	online := c.checkOnline(ctx)
	if online && !wasOnline {
		c.log.Info("connectivity regained; attempting background sync")
		c.Sync(ctx)
		return
	}

	if c.syncing.Load() {
		return
	}

	latest, err := c.store.ListPending(ctx)
	if err != nil {
		c.log.WithError(err).Error("failed to reload pending reports")
		return
	}
	if !sameReports(latest, c.Pending()) {
		c.setPending(latest)
	}
	if len(latest) > 0 && online {
		c.Sync(ctx)
	}
}

// Sync submits every pending report once, newest first. It returns at once
// when nothing is pending or another pass is running.
func (c *Controller) Sync(ctx context.Context) SyncResult {
	pending, err := c.store.ListPending(ctx)
	if err != nil {
		c.log.WithError(err).Error("failed to load pending reports")
		return SyncResult{}
	}
	if len(pending) == 0 {
		c.setPending(pending)
		return SyncResult{}
	}
	if !c.syncing.CompareAndSwap(false, true) {
		return SyncResult{}
	}

	c.log.WithField("pending", len(pending)).Info("starting sync pass")
	res := c.pass(ctx, pending)
	res.Remaining = len(c.Pending())

	c.log.WithFields(logrus.Fields{
		"attempted": res.Attempted,
		"synced":    res.Synced,
		"failed":    res.Failed,
		"skipped":   res.Skipped,
		"remaining": res.Remaining,
	}).Info("sync pass finished")

	if c.notifier != nil && res.Attempted > 0 {
		c.notifier.Notify(ctx, res)
	}
	return res
}

func (c *Controller) pass(ctx context.Context, pending []model.Report) (res SyncResult) {
	defer func() {
		c.syncing.Store(false)
		c.Refresh(context.WithoutCancel(ctx))
	}()

	for _, r := range pending {
		if ctx.Err() != nil {
			break
		}
		if !c.claim(r.ID) {
			res.Skipped++
			continue
		}
		res.Attempted++
		if c.deliver(ctx, r) {
			res.Synced++
		} else {
			res.Failed++
		}
	}
	return res
}

// deliver submits one claimed report and releases the claim whatever happens.
func (c *Controller) deliver(ctx context.Context, r model.Report) bool {
	defer c.release(r.ID)

	if !c.submitter.Submit(ctx, r) {
		return false
	}
	if err := c.store.MarkSynced(ctx, r.ID); err != nil {
		c.log.WithError(err).WithField("id", r.ID).Error("report was accepted but could not be marked synced")
		return false
	}
	c.drop(r.ID)
	return true
}

// Delete removes a report from the store and from the displayed list. It does
// not wait for an in-flight submission of the same report.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.drop(id)
	return nil
}

// Refresh reloads the displayed list from the store.
func (c *Controller) Refresh(ctx context.Context) {
	latest, err := c.store.ListPending(ctx)
	if err != nil {
		c.log.WithError(err).Error("failed to refresh pending reports")
		return
	}
	c.setPending(latest)
}

func (c *Controller) checkOnline(ctx context.Context) bool {
	online := c.probe.Online(ctx)
	c.online.Store(online)
	return online
}

func (c *Controller) claim(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[id]; busy {
		return false
	}
	c.inFlight[id] = struct{}{}
	return true
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	delete(c.inFlight, id)
	c.mu.Unlock()
}

func (c *Controller) drop(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.pending[:0:0]
	for _, r := range c.pending {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	c.pending = kept
}

func (c *Controller) setPending(reports []model.Report) {
	c.mu.Lock()
	c.pending = reports
	c.mu.Unlock()
}

func sameReports(a, b []model.Report) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
