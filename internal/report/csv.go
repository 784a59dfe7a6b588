// Package report writes per-cell analysis artifacts: the correspondence
// and interval tables as CSV, cell metadata as JSON, summary statistics
// and an optional interval chart.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/coloc.report/internal/coloc"
)

// Output file names, kept from the original analysis layout so existing
// downstream tooling keeps working.
const (
	CorrespondenceFileName = "DCTracker.csv"
	IntervalsFileName      = "Colocalize.csv"
	MetadataFileName       = "Metadata.json"
	ChartFileName          = "Colocalize.html"
)

// WriteCorrespondenceCSV writes the merged correspondence table. Columns
// are FRAME followed by one nullable id column per channel; absent ids
// are empty fields.
func WriteCorrespondenceCSV(w io.Writer, res *coloc.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{"FRAME"}, res.Correspondence.Channels...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write correspondence header: %w", err)
	}

	rec := make([]string, len(header))
	for _, row := range res.Correspondence.Rows {
		rec[0] = strconv.Itoa(row.Frame)
		for i, id := range row.IDs {
			rec[i+1] = id.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write correspondence row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteIntervalsCSV writes the colocalization interval table. Columns are
// one nullable id column per channel followed by Start.Frame and
// End.Frame.
func WriteIntervalsCSV(w io.Writer, res *coloc.Result) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, res.Correspondence.Channels...), "Start.Frame", "End.Frame")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write intervals header: %w", err)
	}

	rec := make([]string, len(header))
	for _, iv := range res.Intervals {
		for i, id := range iv.IDs {
			rec[i] = id.String()
		}
		rec[len(rec)-2] = strconv.Itoa(iv.StartFrame)
		rec[len(rec)-1] = strconv.Itoa(iv.EndFrame)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write interval row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// CellMetadata is the per-cell provenance record written next to the
// tables.
type CellMetadata struct {
	Label      string            `json:"label"`
	Qualifiers map[string]string `json:"qualifiers,omitempty"`
	PixelSize  float64           `json:"pixel_size"`
	// FrameInterval is in seconds per frame.
	FrameInterval float64 `json:"frame_interval,omitempty"`
}

// WriteMetadataJSON writes the cell metadata record.
func WriteMetadataJSON(w io.Writer, meta CellMetadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
