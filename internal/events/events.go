// Package events carries crawl progress notifications between a backend that
// publishes them and clients that refresh their views when they arrive.
package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event topic constants
const (
	TopicScanAccepted  = "sitenav.scan.accepted"
	TopicScanProgress  = "sitenav.scan.progress"
	TopicScanCompleted = "sitenav.scan.completed"
	TopicReset         = "sitenav.reset"

	// TopicAll matches every sitenav topic.
	TopicAll = "sitenav.>"
)

// ScanEvent is the payload of the scan topics.
type ScanEvent struct {
	TaskID string `json:"task_id"`
	URL    string `json:"url"`
	Nodes  int    `json:"nodes,omitempty"` // nodes known for URL's crawl so far
}

// ResetEvent is published after the backend clears its data.
type ResetEvent struct{}

// DecodeScanEvent parses a raw scan payload.
func DecodeScanEvent(data []byte) (ScanEvent, error) {
	var ev ScanEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ScanEvent{}, fmt.Errorf("decoding scan event: %w", err)
	}
	if ev.URL == "" {
		return ScanEvent{}, fmt.Errorf("decoding scan event: missing url")
	}
	return ev, nil
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
