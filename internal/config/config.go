// Package config loads the experiment configuration: global acquisition
// parameters plus the channel list describing each detection channel's
// input files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root experiment configuration. Optional values use
// pointer fields so an omitted key is distinguishable from a zero.
type Config struct {
	// PixelSize is the physical size of one pixel (e.g. microns).
	PixelSize *float64 `json:"pixel_size"`
	// FrameInterval is the acquisition interval between frames, in
	// seconds. Used only for reporting durations.
	FrameInterval *float64 `json:"frame_interval,omitempty"`

	Channels []ChannelConfig `json:"channels"`
}

// ChannelConfig describes one detection channel. TrackFile and MaskFile
// are paths relative to each cell directory. Exactly one of Radius and
// MaskFile must be set.
type ChannelConfig struct {
	Description string   `json:"description"`
	TrackFile   string   `json:"track_file"`
	MaskFile    *string  `json:"mask_file,omitempty"`
	Radius      *float64 `json:"radius,omitempty"`
	Static      bool     `json:"static,omitempty"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the cross-field constraints the pipeline depends on.
func (c *Config) Validate() error {
	if c.PixelSize == nil {
		return fmt.Errorf("pixel_size is required")
	}
	if *c.PixelSize <= 0 {
		return fmt.Errorf("pixel_size must be positive, got %v", *c.PixelSize)
	}
	if c.FrameInterval != nil && *c.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be positive, got %v", *c.FrameInterval)
	}
	if len(c.Channels) < 2 {
		return fmt.Errorf("at least two channels are required, got %d", len(c.Channels))
	}

	seen := map[string]bool{}
	for i, ch := range c.Channels {
		if ch.Description == "" {
			return fmt.Errorf("channel %d has no description", i)
		}
		if seen[ch.Description] {
			return fmt.Errorf("duplicate channel description %q", ch.Description)
		}
		seen[ch.Description] = true

		if ch.TrackFile == "" {
			return fmt.Errorf("channel %q has no track_file", ch.Description)
		}
		hasRadius := ch.Radius != nil
		hasMask := ch.MaskFile != nil
		if hasRadius == hasMask {
			return fmt.Errorf("channel %q must set exactly one of radius and mask_file", ch.Description)
		}
		if hasRadius && *ch.Radius <= 0 {
			return fmt.Errorf("channel %q: radius must be positive, got %v", ch.Description, *ch.Radius)
		}
	}
	return nil
}

// FrameIntervalOrDefault returns the configured frame interval or 1.0
// when unset, so durations degrade to frame counts.
func (c *Config) FrameIntervalOrDefault() float64 {
	if c.FrameInterval == nil {
		return 1.0
	}
	return *c.FrameInterval
}

// TrackFiles lists every channel's track file path in channel order.
func (c *Config) TrackFiles() []string {
	files := make([]string, len(c.Channels))
	for i, ch := range c.Channels {
		files[i] = ch.TrackFile
	}
	return files
}
