// Package config loads client settings from the environment and the named
// remotes file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	URL           string          // SITENAV_URL (default "http://localhost:8000")
	Timeout       time.Duration   // SITENAV_TIMEOUT (default 15s)
	MaxDepth      int             // SITENAV_MAX_DEPTH (default 1)
	RootLimit     int             // SITENAV_ROOT_LIMIT (default 10; 0 = no limit)
	TreeThreshold int             // SITENAV_TREE_THRESHOLD (default 500)
	RefreshDelays []time.Duration // SITENAV_REFRESH_DELAYS (default "2s,8s")
	NATSURL       string          // SITENAV_NATS_URL (optional, empty = no events)
	LogLevel      slog.Level      // SITENAV_LOG_LEVEL (default "info")
	LogFile       string          // SITENAV_LOG_FILE (TUI log destination; empty = discard)

	// Archive settings
	ArchiveInterval    time.Duration // SITENAV_ARCHIVE_INTERVAL (default 0 = export once)
	ArchiveFile        string        // SITENAV_ARCHIVE_FILE (JSONL path; "-" = stdout)
	ArchiveS3Bucket    string        // SITENAV_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint  string        // SITENAV_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region    string        // SITENAV_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key       string        // SITENAV_ARCHIVE_S3_KEY (default "sitenav/snapshot.jsonl")
	ArchiveDatabaseURL string        // SITENAV_ARCHIVE_DATABASE_URL (enables PostgreSQL when set)
}

// DefaultURL is the backend address used when nothing else is configured.
const DefaultURL = "http://localhost:8000"

func Load() (*Config, error) {
	c := &Config{
		URL:                envOrDefault("SITENAV_URL", DefaultURL),
		NATSURL:            os.Getenv("SITENAV_NATS_URL"),
		LogFile:            os.Getenv("SITENAV_LOG_FILE"),
		ArchiveFile:        os.Getenv("SITENAV_ARCHIVE_FILE"),
		ArchiveS3Bucket:    os.Getenv("SITENAV_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint:  os.Getenv("SITENAV_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:    envOrDefault("SITENAV_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:       envOrDefault("SITENAV_ARCHIVE_S3_KEY", "sitenav/snapshot.jsonl"),
		ArchiveDatabaseURL: os.Getenv("SITENAV_ARCHIVE_DATABASE_URL"),
	}

	var err error
	if c.Timeout, err = durationEnv("SITENAV_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("SITENAV_TIMEOUT: must be positive, got %s", c.Timeout)
	}
	if c.ArchiveInterval, err = durationEnv("SITENAV_ARCHIVE_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if c.MaxDepth, err = intEnv("SITENAV_MAX_DEPTH", 1); err != nil {
		return nil, err
	}
	if c.RootLimit, err = intEnv("SITENAV_ROOT_LIMIT", 10); err != nil {
		return nil, err
	}
	if c.TreeThreshold, err = intEnv("SITENAV_TREE_THRESHOLD", 500); err != nil {
		return nil, err
	}
	if c.RefreshDelays, err = ParseDelays(envOrDefault("SITENAV_REFRESH_DELAYS", "2s,8s")); err != nil {
		return nil, fmt.Errorf("SITENAV_REFRESH_DELAYS: %w", err)
	}
	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("SITENAV_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("SITENAV_LOG_LEVEL: %w", err)
	}
	return c, nil
}

// ParseDelays parses the two comma-separated refresh delays, short one first.
func ParseDelays(s string) ([]time.Duration, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("want two comma-separated durations, got %q", s)
	}
	out := make([]time.Duration, 0, 2)
	for _, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("negative delay %s", d)
		}
		out = append(out, d)
	}
	if out[1] < out[0] {
		return nil, fmt.Errorf("second delay %s is shorter than first %s", out[1], out[0])
	}
	return out, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: must be >= 0, got %d", key, n)
	}
	return n, nil
}
