package queue

import (
	"context"
	"net/http"
	"time"
)

// Connectivity reports whether the remote side can currently be reached.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// HTTPProbe treats any HTTP answer from url as online and any transport
// failure as offline.
type HTTPProbe struct {
	url    string
	client *http.Client
}

func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	return &HTTPProbe{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *HTTPProbe) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// AlwaysOnline is used when there is nothing to probe.
type AlwaysOnline struct{}

func (AlwaysOnline) Online(context.Context) bool { return true }
