// Package submit delivers one queued report to the remote side.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"afc-report-backend/internal/logger"
	"afc-report-backend/internal/model"
)

// Submitter sends one report and reports whether it was accepted.
// Implementations never return errors; every failure is false.
type Submitter interface {
	Submit(ctx context.Context, r model.Report) bool
}

// HTTPClient posts reports to an endpoint that answers {"success": bool}.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type submitResponse struct {
	Success bool `json:"success"`
}

func (c *HTTPClient) Submit(ctx context.Context, r model.Report) bool {
	log := logger.For("submit").WithField("id", r.ID).WithField("tag", r.Tag)

	payload, err := json.Marshal(r)
	if err != nil {
		log.WithError(err).Error("failed to marshal report")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		log.WithError(err).Error("failed to create request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("submission failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("submission rejected")
		return false
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.WithError(err).Warn("submission response is not JSON")
		return false
	}
	return out.Success
}

// Creator is the part of the spreadsheet client used for direct submission.
type Creator interface {
	Create(ctx context.Context, report any) error
}

// RemoteClient submits straight to the spreadsheet script; any 2xx answer
// counts as success.
type RemoteClient struct {
	creator Creator
}

func NewRemoteClient(c Creator) *RemoteClient {
	return &RemoteClient{creator: c}
}

func (c *RemoteClient) Submit(ctx context.Context, r model.Report) bool {
	if err := c.creator.Create(ctx, r); err != nil {
		logger.For("submit").WithField("id", r.ID).WithError(err).Warn("submission failed")
		return false
	}
	return true
}
