// Package remote talks to the spreadsheet script that stores submitted reports.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"afc-report-backend/config"
	"afc-report-backend/internal/apperror"
	"afc-report-backend/internal/logger"
	"afc-report-backend/internal/sheet"
)

// maxErrorBody bounds how much of a failed response is kept for the log.
const maxErrorBody = 4 << 10

// Client forwards reads, creates and deletes to the configured script URL.
type Client struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewClient builds a client from the remote section of the config.
func NewClient(cfg config.RemoteConfig) *Client {
	var transport http.RoundTripper = &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.For("remote").WithError(err).Warnf("invalid proxy URL %q; not using a proxy", cfg.HTTPProxy)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		url:     cfg.URL,
		headers: cfg.Headers,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// Configured reports whether a script URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// FetchRaw returns the body of the read endpoint unchanged. The body must be
// valid JSON.
func (c *Client) FetchRaw(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, apperror.Wrap(fmt.Errorf("invalid JSON in read response"), apperror.ErrCodeUpstreamUnreachable, apperror.ErrUnreachable.Message)
	}
	return body, nil
}

// Fetch returns every row currently stored in the spreadsheet, in sheet order.
func (c *Client) Fetch(ctx context.Context) ([]sheet.Row, error) {
	body, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	rows := make([]sheet.Row, 0)
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, apperror.Wrap(fmt.Errorf("failed to unmarshal rows: %w", err), apperror.ErrCodeUpstreamUnreachable, apperror.ErrUnreachable.Message)
	}
	return rows, nil
}

// Create posts one report document. Any 2xx answer counts as accepted.
func (c *Client) Create(ctx context.Context, report any) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, payload)
	return err
}

type deleteRequest struct {
	Action   string `json:"action"`
	RowIndex any    `json:"rowIndex"`
}

// Delete asks the script to drop the row at rowIndex and returns its answer.
// rowIndex is forwarded as given; the script does its own conversion.
func (c *Client) Delete(ctx context.Context, rowIndex any) (json.RawMessage, error) {
	payload, err := json.Marshal(deleteRequest{Action: "delete", RowIndex: rowIndex})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal delete request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, payload)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, apperror.Wrap(fmt.Errorf("invalid JSON in delete response"), apperror.ErrCodeUpstreamUnreachable, apperror.ErrUnreachable.Message)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if !c.Configured() {
		return nil, apperror.ErrNotConfigured
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url, reqBody)
	if err != nil {
		return nil, apperror.Wrap(fmt.Errorf("failed to create request: %w", err), apperror.ErrCodeUpstreamUnreachable, apperror.ErrUnreachable.Message)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	log := logger.For("remote").WithField("method", method)

	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Error("request to spreadsheet script failed")
		return nil, apperror.Wrap(fmt.Errorf("http request failed: %w", err), apperror.ErrCodeUpstreamUnreachable, apperror.ErrUnreachable.Message)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.WithField("status", resp.StatusCode).WithField("body", string(text)).Error("spreadsheet script responded with error")
		return nil, apperror.Upstream(resp.StatusCode, string(text))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(fmt.Errorf("failed to read response body: %w", err), apperror.ErrCodeUpstreamUnreachable, apperror.ErrUnreachable.Message)
	}
	return body, nil
}
