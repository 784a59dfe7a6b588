package coloc

// Result holds the outputs of one cell's colocalization analysis.
type Result struct {
	Correspondence *Table
	Intervals      []Interval
}

// Run executes the per-cell pipeline: footprint construction for every
// channel, the cross-channel merge and interval detection. It is a pure
// single-threaded computation over inputs owned by the caller; a returned
// error means the cell is abandoned in its entirety, with no partial
// output and no retry.
func Run(channels []*Channel) (*Result, error) {
	table, err := Merge(channels)
	if err != nil {
		return nil, err
	}
	return &Result{
		Correspondence: table,
		Intervals:      DetectRuns(table),
	}, nil
}
