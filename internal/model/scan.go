package model

import (
	"fmt"
	"net/url"
)

// ScanRequest is the body of POST /scan.
type ScanRequest struct {
	URL      string `json:"url"`
	MaxDepth int    `json:"max_depth"`
}

// ScanResponse is returned when the backend accepts a crawl job.
type ScanResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status,omitempty"`
}

// Validate checks that the request names an absolute http(s) URL and a
// non-negative depth.
func (r ScanRequest) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", r.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", r.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", r.URL)
	}
	if r.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", r.MaxDepth)
	}
	return nil
}
