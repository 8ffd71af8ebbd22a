// Package keepalive pings the backend periodically so a host that idles
// instances keeps it warm.
package keepalive

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultInterval is used when Pinger.Interval is not positive.
const DefaultInterval = 14 * time.Minute

// Pinger issues GET {BaseURL}/ping immediately and then every Interval.
// Failures are logged and otherwise ignored.
type Pinger struct {
	BaseURL    string
	Interval   time.Duration
	HTTPClient *http.Client
}

// NewPinger returns a Pinger for baseURL (the API root, without the /api/v1 prefix).
func NewPinger(baseURL string, interval time.Duration) *Pinger {
	return &Pinger{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Interval:   interval,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Run pings until ctx is cancelled. It returns ctx.Err().
func (p *Pinger) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	p.Ping(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Ping(ctx)
		}
	}
}

// Ping sends one keep-alive request and reports whether the backend answered 2xx.
func (p *Pinger) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/ping", nil)
	if err != nil {
		log.Printf("keepalive: build request: %v", err)
		return false
	}
	hc := p.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("keepalive: ping failed: %v", err)
		}
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("keepalive: ping returned %s", resp.Status)
		return false
	}
	return true
}
