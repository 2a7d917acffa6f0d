package caching

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dtnitsch/record-tiers/models"
)

// Cache is a file-based cache of probe results with a TTL. It is safe for
// concurrent use by the probes of one process.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a new Cache instance.
// The cache path will be created if it doesn't exist.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		path: path,
		ttl:  ttl,
	}, nil
}

// key generates a SHA256 hash of the URL to use as a filename.
func (c *Cache) key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x.json", hash)
}

// Get returns the cached probe of url when present and not expired.
// A zero TTL never expires.
func (c *Cache) Get(url string) (*models.ProbeResult, bool) {
	filePath := filepath.Join(c.path, c.key(url))

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	var probe models.ProbeResult
	if err := json.Unmarshal(data, &probe); err != nil || probe.URL != url {
		return nil, false
	}
	return &probe, true
}

// Set stores probe under url. Writers never expose a half written file.
func (c *Cache) Set(url string, probe *models.ProbeResult) error {
	data, err := json.Marshal(probe)
	if err != nil {
		return fmt.Errorf("failed to encode probe: %w", err)
	}

	tmp, err := os.CreateTemp(c.path, ".probe-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.path, c.key(url))); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
