package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	// MaxHistoryItems bounds the number of unpinned entries kept; older ones
	// are evicted FIFO. Ignored when UnlimitedHistory is set.
	MaxHistoryItems  int  `json:"max_history_items"`
	UnlimitedHistory bool `json:"unlimited_history"`

	// MonitorInterval trades capture responsiveness against CPU: the
	// clipboard change counter is polled this often.
	MonitorInterval int `json:"monitor_interval_ms"`

	// Per-type admission limits. Captures over a limit are discarded whole.
	MaxTextChars  int `json:"max_text_chars"`
	MaxImageBytes int `json:"max_image_bytes"`
	MaxFileCount  int `json:"max_file_count"`

	// EnrichmentTimeout bounds each OCR/link-metadata task.
	EnrichmentTimeout int `json:"enrichment_timeout_ms"`

	// BlobDir holds captured image files and link thumbnails. DatabasePath
	// is the sqlite file. Both default to paths under the config directory.
	BlobDir      string `json:"blob_dir"`
	DatabasePath string `json:"database_path"`
}

func Default() *Config {
	return &Config{
		MaxHistoryItems:  200,
		UnlimitedHistory: false,

		MonitorInterval: 500,

		MaxTextChars:  100000,
		MaxImageBytes: 10 * 1024 * 1024, // 10MB
		MaxFileCount:  100,

		EnrichmentTimeout: 15000,
	}
}

func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Return default config if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.validate()

	return config, nil
}

func (c *Config) Save(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) validate() {
	if c.MaxHistoryItems <= 0 {
		c.MaxHistoryItems = 200
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = 500
	}
	if c.MaxTextChars <= 0 {
		c.MaxTextChars = 100000
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = 10 * 1024 * 1024
	}
	if c.MaxFileCount <= 0 {
		c.MaxFileCount = 100
	}
	if c.EnrichmentTimeout <= 0 {
		c.EnrichmentTimeout = 15000
	}
}
