// Package coloc resolves cross-channel particle colocalization: it turns
// per-channel particle tracks (plus optional segmentation masks) into
// pixel-level footprints, merges the footprints across channels into a
// correspondence table, and compresses the table into maximal
// consecutive-frame colocalization intervals.
package coloc

import (
	"fmt"
	"math"

	"github.com/banshee-data/coloc.report/internal/mask"
	"github.com/banshee-data/coloc.report/internal/track"
)

// Channel is one detection channel's input for a cell: its track points
// plus either a fixed particle radius or a segmentation mask. Exactly one
// of Radius/Mask must be set; the config layer validates this upstream and
// the pipeline re-checks it before doing any work.
type Channel struct {
	Description string
	PixelSize   float64 // physical units per pixel, > 0
	Static      bool    // single-frame channel, replicated across the movie
	Radius      float64 // particle radius in physical units; 0 when Mask is set
	Mask        *mask.Mask
	Points      []track.Point
}

func (c *Channel) validate() error {
	if c.Description == "" {
		return fmt.Errorf("channel has no description")
	}
	if c.PixelSize <= 0 {
		return fmt.Errorf("channel %q: pixel size must be positive, got %v", c.Description, c.PixelSize)
	}
	hasRadius := c.Radius > 0
	hasMask := c.Mask != nil
	if hasRadius == hasMask {
		return fmt.Errorf("channel %q: exactly one of radius and mask must be set", c.Description)
	}
	return nil
}

// pixelCoord converts a physical coordinate to a pixel-grid index. The
// rounding rule is round-half-away-from-zero (math.Round), which is a
// contract: test fixtures encode exact pixel coordinates.
func pixelCoord(v, pixelSize float64) int {
	return int(math.Round(v / pixelSize))
}
