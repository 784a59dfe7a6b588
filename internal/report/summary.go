package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/coloc.report/internal/coloc"
)

// Summary aggregates a cell's colocalization intervals into duration
// statistics. Durations are in seconds (interval frame count times the
// frame interval).
type Summary struct {
	IntervalCount int
	TupleCount    int

	TotalSeconds  float64
	MeanSeconds   float64
	StdDevSeconds float64
	MedianSeconds float64
	MaxSeconds    float64
}

// Summarize computes duration statistics over the intervals using the
// given frame interval in seconds.
func Summarize(intervals []coloc.Interval, frameInterval float64) Summary {
	s := Summary{IntervalCount: len(intervals)}
	if len(intervals) == 0 {
		return s
	}

	tuples := map[string]bool{}
	durations := make([]float64, 0, len(intervals))
	for _, iv := range intervals {
		tuples[iv.IDs.Key()] = true
		d := float64(iv.Frames()) * frameInterval
		durations = append(durations, d)
		s.TotalSeconds += d
		if d > s.MaxSeconds {
			s.MaxSeconds = d
		}
	}
	s.TupleCount = len(tuples)

	sort.Float64s(durations)
	s.MeanSeconds = stat.Mean(durations, nil)
	s.MedianSeconds = stat.Quantile(0.5, stat.Empirical, durations, nil)
	if len(durations) > 1 {
		s.StdDevSeconds = stat.StdDev(durations, nil)
	}
	return s
}
