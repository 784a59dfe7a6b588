// Package track parses particle tracking tables exported by TrackMate.
package track

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names of a TrackMate spot export. Only these four columns are
// consumed; any others are ignored.
const (
	ColumnTrackID   = "TRACK_ID"
	ColumnPositionX = "POSITION_X"
	ColumnPositionY = "POSITION_Y"
	ColumnFrame     = "FRAME"
)

// Point is a single particle observation: one particle seen in one frame
// at a sub-pixel position in physical units.
type Point struct {
	ParticleID int
	Frame      int
	X          float64
	Y          float64
}

// MalformedFileError reports a tracking file missing required columns.
type MalformedFileError struct {
	Path    string
	Missing []string
}

func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("malformed track file %q: missing columns %s",
		e.Path, strings.Join(e.Missing, ", "))
}

// ReadFile parses the tracking table at path.
func ReadFile(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track file: %w", err)
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses a tracking table. The first record is the header; required
// columns are located by name. TrackMate version 7 prepends three extra
// header rows below the column header, which are recognised (and skipped)
// by their non-numeric TRACK_ID field, keeping version 6 files working
// unchanged.
func Read(r io.Reader, path string) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &MalformedFileError{Path: path, Missing: requiredColumns()}
	}
	if err != nil {
		return nil, fmt.Errorf("read track file header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns() {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedFileError{Path: path, Missing: missing}
	}

	idCol := cols[ColumnTrackID]
	xCol := cols[ColumnPositionX]
	yCol := cols[ColumnPositionY]
	frameCol := cols[ColumnFrame]

	var points []Point
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read track file row: %w", err)
		}
		if frameCol >= len(rec) || idCol >= len(rec) || xCol >= len(rec) || yCol >= len(rec) {
			continue
		}

		// Rows whose track id is not an integer literal are extra header
		// rows, not data.
		id, ok := parseIntLiteral(rec[idCol])
		if !ok {
			continue
		}

		x, err := strconv.ParseFloat(strings.TrimSpace(rec[xCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("track file %q: bad %s value %q: %w", path, ColumnPositionX, rec[xCol], err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(rec[yCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("track file %q: bad %s value %q: %w", path, ColumnPositionY, rec[yCol], err)
		}
		frame, err := strconv.ParseFloat(strings.TrimSpace(rec[frameCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("track file %q: bad %s value %q: %w", path, ColumnFrame, rec[frameCol], err)
		}

		points = append(points, Point{
			ParticleID: id,
			Frame:      int(frame),
			X:          x,
			Y:          y,
		})
	}
	return points, nil
}

// MaxFrame returns the highest frame index among the points, or -1 when
// there are none.
func MaxFrame(points []Point) int {
	max := -1
	for _, p := range points {
		if p.Frame > max {
			max = p.Frame
		}
	}
	return max
}

func requiredColumns() []string {
	return []string{ColumnTrackID, ColumnPositionX, ColumnPositionY, ColumnFrame}
}

// parseIntLiteral accepts unsigned decimal integer literals only, matching
// the track id format TrackMate writes for data rows.
func parseIntLiteral(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
