// Package fetch implements the extraction layer against the eCFR API.
//
// One extraction call performs one logical fetch and either returns a raw
// payload or fails with a typed error. Transport failures and 5xx responses
// are retried a bounded number of times with backoff; the call as a whole
// still succeeds or fails together, never with partial data.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrExtraction indicates the upstream fetch failed: transport error,
// non-success status, or an undecodable body.
var ErrExtraction = errors.New("fetch: extraction failed")

// Config configures the fetcher.
type Config struct {
	Timeout     time.Duration // per-request timeout. Default: 30s.
	MaxBytes    int64         // max response body size. Default: 64MB (full titles are large).
	UserAgent   string        // sent with requests.
	MaxAttempts int           // attempts per fetch. Default: 3.
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 64 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "ecfr-etl/1.0"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
}

// Fetcher performs HTTP extraction calls.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Extract performs the single fetch described by cfg and returns its raw
// payload. Dispatches purely on cfg.Service.
func (f *Fetcher) Extract(ctx context.Context, cfg ServiceConfig) (*Payload, error) {
	switch cfg.Service {
	case ServiceAdmin:
		return f.extractAdmin(ctx, cfg)
	case ServiceVersioner:
		return f.extractVersioner(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedService, cfg.Service)
	}
}

func (f *Fetcher) extractAdmin(ctx context.Context, cfg ServiceConfig) (*Payload, error) {
	body, p, err := f.get(ctx, cfg.Service, cfg.URL())
	if err != nil {
		return p, err
	}
	var resp AgenciesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return p, fmt.Errorf("%w: decode agencies JSON: %v", ErrExtraction, err)
	}
	p.Agencies = &resp
	return p, nil
}

func (f *Fetcher) extractVersioner(ctx context.Context, cfg ServiceConfig) (*Payload, error) {
	body, p, err := f.get(ctx, cfg.Service, cfg.URL())
	if err != nil {
		return p, err
	}
	p.XML = body
	return p, nil
}

// Titles fetches the versioner title index (api/versioner/v1/titles.json).
// Consumed by the orchestrator, not by the per-run pipeline itself.
func (f *Fetcher) Titles(ctx context.Context, baseURL string) (*TitlesResponse, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	body, _, err := f.get(ctx, "titles", baseURL+"/api/versioner/v1/titles.json")
	if err != nil {
		return nil, err
	}
	var resp TitlesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode titles JSON: %v", ErrExtraction, err)
	}
	return &resp, nil
}

// get performs one GET with bounded retry. On failure the returned Payload
// still carries URL/status/elapsed for the fetch log.
func (f *Fetcher) get(ctx context.Context, service, url string) ([]byte, *Payload, error) {
	p := &Payload{Service: service, URL: url}
	start := time.Now()
	defer func() { p.Elapsed = time.Since(start) }()

	var lastErr error
	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, time.Duration(attempt-1)*500*time.Millisecond); err != nil {
				return nil, p, fmt.Errorf("%w: %v", ErrExtraction, err)
			}
		}

		body, status, err := f.doOnce(ctx, url)
		p.StatusCode = status
		if err == nil {
			return body, p, nil
		}
		lastErr = err

		// 4xx will not improve on retry; transport errors and 5xx may.
		if status >= 400 && status < 500 {
			break
		}
	}
	return nil, p, fmt.Errorf("%w: GET %s: %v", ErrExtraction, url, lastErr)
}

func (f *Fetcher) doOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
