package coloc

import "sort"

// Interval is a maximal run of consecutive frames over which exactly one
// identity tuple persisted. StartFrame == EndFrame for single-frame runs.
type Interval struct {
	IDs        Tuple
	StartFrame int
	EndFrame   int
}

// DetectRuns groups correspondence rows by their full identity tuple
// (absent entries are concrete key values, so rows absent in the same
// column group together) and splits each group's ascending frame sequence
// at every gap. Output order is deterministic: by tuple with absent
// entries last, then by start frame.
func DetectRuns(t *Table) []Interval {
	type group struct {
		ids    Tuple
		frames []int
	}
	groups := map[string]*group{}
	var order []string
	for _, row := range t.Rows {
		key := row.IDs.Key()
		g := groups[key]
		if g == nil {
			g = &group{ids: row.IDs}
			groups[key] = g
			order = append(order, key)
		}
		g.frames = append(g.frames, row.Frame)
	}

	var intervals []Interval
	for _, key := range order {
		g := groups[key]
		sort.Ints(g.frames)

		start := g.frames[0]
		prev := start
		for _, frame := range g.frames[1:] {
			if frame == prev+1 {
				prev = frame
				continue
			}
			intervals = append(intervals, Interval{IDs: g.ids, StartFrame: start, EndFrame: prev})
			start = frame
			prev = frame
		}
		intervals = append(intervals, Interval{IDs: g.ids, StartFrame: start, EndFrame: prev})
	}

	sort.Slice(intervals, func(i, j int) bool {
		if c := intervals[i].IDs.Compare(intervals[j].IDs); c != 0 {
			return c < 0
		}
		return intervals[i].StartFrame < intervals[j].StartFrame
	})
	return intervals
}

// Frames returns the interval length in frames, inclusive of both ends.
func (iv Interval) Frames() int { return iv.EndFrame - iv.StartFrame + 1 }
