package coloc

import (
	"log"
	"sort"
)

// footprint is one pixel attributed to one particle at one frame.
type footprint struct {
	X, Y     int
	Particle int
	Frame    int
}

type pixel struct{ X, Y int }

// 4-connected neighbourhood, fixed order so the fill worklist is
// deterministic.
var neighbourOffsets = [4]pixel{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}

// buildFootprints produces the channel's footprint table. Static channels
// are reduced to frame 0 and replicated across frameCount frames.
func (c *Channel) buildFootprints(frameCount int) ([]footprint, error) {
	var rows []footprint
	var err error
	if c.Mask != nil {
		rows, err = c.maskFootprints()
		if err != nil {
			return nil, err
		}
	} else {
		rows = c.diskFootprints()
	}

	if c.Static {
		rows = dropNonZeroFrames(rows, c.Description)
		rows = replicateFrames(rows, frameCount)
	}
	return rows, nil
}

// diskFootprints emits a square (2r+1)² pixel neighbourhood around each
// centroid. The square shape (not a disk, despite the radius naming) is
// part of the output contract. There is no image extent in this strategy,
// so no bounds are applied.
func (c *Channel) diskFootprints() []footprint {
	rPx := pixelCoord(c.Radius, c.PixelSize)

	rows := make([]footprint, 0, len(c.Points)*(2*rPx+1)*(2*rPx+1))
	for _, pt := range c.Points {
		px := pixelCoord(pt.X, c.PixelSize)
		py := pixelCoord(pt.Y, c.PixelSize)
		for dy := -rPx; dy <= rPx; dy++ {
			for dx := -rPx; dx <= rPx; dx++ {
				rows = append(rows, footprint{
					X:        px + dx,
					Y:        py + dy,
					Particle: pt.ParticleID,
					Frame:    pt.Frame,
				})
			}
		}
	}
	return rows
}

// maskFootprints grows a 4-connected region from each centroid through the
// nonzero mask pixels. A centroid outside the mask bounds or on background
// is fatal for the whole cell; out-of-bounds neighbours during the fill
// are simply not part of the region.
func (c *Channel) maskFootprints() ([]footprint, error) {
	var rows []footprint
	seeds := map[seedKey]pixel{}

	for _, pt := range c.Points {
		px := pixelCoord(pt.X, c.PixelSize)
		py := pixelCoord(pt.Y, c.PixelSize)
		seeds[seedKey{Frame: pt.Frame, Particle: pt.ParticleID}] = pixel{X: px, Y: py}

		plane := 0
		if !c.Static {
			plane = pt.Frame
		}

		if v, ok := c.Mask.At(plane, px, py); !ok || v == 0 {
			return nil, &InvalidCentroidError{
				Channel:  c.Description,
				Particle: pt.ParticleID,
				Frame:    pt.Frame,
				X:        px,
				Y:        py,
			}
		}

		region := floodFill(c, plane, pixel{X: px, Y: py})
		for _, p := range region {
			rows = append(rows, footprint{X: p.X, Y: p.Y, Particle: pt.ParticleID, Frame: pt.Frame})
		}
	}

	return resolveClaims(rows, seeds), nil
}

type seedKey struct {
	Frame    int
	Particle int
}

// floodFill returns the 4-connected nonzero region containing the seed,
// sorted by (y, x). An explicit stack worklist keeps the traversal
// reproducible.
func floodFill(c *Channel, plane int, seed pixel) []pixel {
	stack := []pixel{seed}
	completed := map[pixel]bool{}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if completed[p] {
			continue
		}
		completed[p] = true

		for _, d := range neighbourOffsets {
			n := pixel{X: p.X + d.X, Y: p.Y + d.Y}
			if completed[n] {
				continue
			}
			if v, ok := c.Mask.At(plane, n.X, n.Y); ok && v != 0 {
				stack = append(stack, n)
			}
		}
	}

	region := make([]pixel, 0, len(completed))
	for p := range completed {
		region = append(region, p)
	}
	sort.Slice(region, func(i, j int) bool {
		if region[i].Y != region[j].Y {
			return region[i].Y < region[j].Y
		}
		return region[i].X < region[j].X
	})
	return region
}

// resolveClaims settles pixels claimed by more than one particle in the
// same frame: the claim whose seed centroid is Euclidean-closest to the
// pixel wins, ties going to the lowest particle id.
func resolveClaims(rows []footprint, seeds map[seedKey]pixel) []footprint {
	type claimKey struct {
		X, Y  int
		Frame int
	}
	claims := map[claimKey][]footprint{}
	order := make([]claimKey, 0, len(rows))
	for _, row := range rows {
		k := claimKey{X: row.X, Y: row.Y, Frame: row.Frame}
		if _, seen := claims[k]; !seen {
			order = append(order, k)
		}
		claims[k] = append(claims[k], row)
	}

	out := make([]footprint, 0, len(order))
	for _, k := range order {
		contenders := claims[k]
		best := contenders[0]
		if len(contenders) > 1 {
			bestDist := claimDistance(best, seeds)
			for _, row := range contenders[1:] {
				d := claimDistance(row, seeds)
				if d < bestDist || (d == bestDist && row.Particle < best.Particle) {
					best = row
					bestDist = d
				}
			}
		}
		out = append(out, best)
	}
	return out
}

// claimDistance is the squared distance from the pixel to the claiming
// particle's seed centroid. Squared distance preserves the ordering of the
// Euclidean distance.
func claimDistance(row footprint, seeds map[seedKey]pixel) int {
	seed := seeds[seedKey{Frame: row.Frame, Particle: row.Particle}]
	dx := row.X - seed.X
	dy := row.Y - seed.Y
	return dx*dx + dy*dy
}

// dropNonZeroFrames keeps only frame-0 footprints of a static channel. The
// mask has no time dimension, so track data past frame 0 is not
// authoritative and is discarded with a warning.
func dropNonZeroFrames(rows []footprint, description string) []footprint {
	kept := rows[:0:len(rows)]
	dropped := false
	for _, row := range rows {
		if row.Frame == 0 {
			kept = append(kept, row)
		} else {
			dropped = true
		}
	}
	if dropped {
		log.Printf("WARNING: expected a static image but found multiple time frames for %q", description)
	}
	return kept
}

// replicateFrames duplicates a single-frame footprint table across frames
// 0..frameCount-1.
func replicateFrames(rows []footprint, frameCount int) []footprint {
	out := make([]footprint, 0, len(rows)*frameCount)
	for frame := 0; frame < frameCount; frame++ {
		for _, row := range rows {
			row.Frame = frame
			out = append(out, row)
		}
	}
	return out
}
