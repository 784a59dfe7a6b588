package coloc

import (
	"fmt"
	"sort"
)

// Row is one distinct identity combination observed in a frame: the IDs
// tuple holds, per channel, the particle covering some shared pixel, or
// the absent ID when no footprint from that channel covers it.
type Row struct {
	Frame int
	IDs   Tuple
}

// Table is the merged correspondence table for one cell. Channels gives
// the column order of every row's tuple.
type Table struct {
	Channels []string
	Rows     []Row
}

// FrameCount derives the movie length: one past the highest frame index
// observed in any non-static channel, or 1 when every channel is static.
func FrameCount(channels []*Channel) int {
	max := -1
	for _, c := range channels {
		if c.Static {
			continue
		}
		for _, pt := range c.Points {
			if pt.Frame > max {
				max = pt.Frame
			}
		}
	}
	if max < 0 {
		return 1
	}
	return max + 1
}

// FrameCount reports one past the highest frame present in the table, or
// zero for an empty table.
func (t *Table) FrameCount() int {
	max := -1
	for _, row := range t.Rows {
		if row.Frame > max {
			max = row.Frame
		}
	}
	return max + 1
}

// Merge builds every channel's footprint table and outer-joins them on
// (x, y, frame) into the correspondence table. Pixels sharing the same
// identity combination within a frame collapse to a single row, and
// partial combinations that duplicate information already present in a
// fuller row of the same frame are dropped.
func Merge(channels []*Channel) (*Table, error) {
	if len(channels) < 2 {
		return nil, fmt.Errorf("need at least two channels, got %d", len(channels))
	}
	for _, c := range channels {
		if err := c.validate(); err != nil {
			return nil, err
		}
	}

	frameCount := FrameCount(channels)

	// claims[key][i] lists the particle ids channel i asserts for that
	// pixel-frame. Mask channels resolve their own overlaps beforehand,
	// but disk channels may claim one pixel for several particles; the
	// join then yields every combination, matching an outer join with
	// duplicate keys.
	type cellKey struct {
		X, Y  int
		Frame int
	}
	claims := map[cellKey][][]int{}
	names := make([]string, len(channels))

	for i, c := range channels {
		names[i] = c.Description
		rows, err := c.buildFootprints(frameCount)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			k := cellKey{X: row.X, Y: row.Y, Frame: row.Frame}
			per := claims[k]
			if per == nil {
				per = make([][]int, len(channels))
				claims[k] = per
			}
			per[i] = append(per[i], row.Particle)
		}
	}

	// Expand each pixel-frame into identity tuples and collapse exact
	// duplicates within a frame.
	seen := map[string]bool{}
	var rows []Row
	for k, per := range claims {
		for _, ids := range combine(per) {
			key := fmt.Sprintf("%d|%s", k.Frame, ids.Key())
			if seen[key] {
				continue
			}
			seen[key] = true
			rows = append(rows, Row{Frame: k.Frame, IDs: ids})
		}
	}

	rows = retainInformative(rows, len(channels))

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Frame != rows[j].Frame {
			return rows[i].Frame < rows[j].Frame
		}
		return rows[i].IDs.Compare(rows[j].IDs) < 0
	})

	return &Table{Channels: names, Rows: rows}, nil
}

// combine builds the cartesian product of per-channel claims for one
// pixel-frame. A channel with no claim contributes the absent ID.
func combine(per [][]int) []Tuple {
	tuples := []Tuple{{}}
	for _, ids := range per {
		var next []Tuple
		if len(ids) == 0 {
			for _, t := range tuples {
				next = append(next, append(t.clone(), Absent))
			}
		} else {
			for _, t := range tuples {
				for _, id := range ids {
					next = append(next, append(t.clone(), NewID(id)))
				}
			}
		}
		tuples = next
	}
	return tuples
}

// retainInformative applies the partial-match retention rule frame by
// frame. Complete rows always survive. A row with absent entries survives
// only if at least one of its present ids appears in no other row of the
// frame for that column; otherwise the partial observation is redundant
// with a fuller correspondence and would inflate colocalization counts.
//
// Two passes per frame: the first counts id occurrences per column, the
// second decides retention.
type frameGroup struct {
	counts []map[int]int
	rows   []Row
}

func retainInformative(rows []Row, channelCount int) []Row {
	groups := map[int]*frameGroup{}
	for _, row := range rows {
		g := groups[row.Frame]
		if g == nil {
			g = &frameGroup{counts: make([]map[int]int, channelCount)}
			for i := range g.counts {
				g.counts[i] = map[int]int{}
			}
			groups[row.Frame] = g
		}
		g.rows = append(g.rows, row)
		for i, id := range row.IDs {
			if id.Valid {
				g.counts[i][id.Value]++
			}
		}
	}

	kept := make([]Row, 0, len(rows))
	for _, g := range groups {
		for _, row := range g.rows {
			if !row.IDs.HasAbsent() {
				kept = append(kept, row)
				continue
			}
			unique := false
			for i, id := range row.IDs {
				if id.Valid && g.counts[i][id.Value] == 1 {
					unique = true
					break
				}
			}
			if unique {
				kept = append(kept, row)
			}
		}
	}
	return kept
}
