// Package runner walks assays, analyzes each cell folder and writes the
// per-cell result files. Cells are independent so they are processed by a
// bounded pool of workers; a failed cell is logged and skipped without
// stopping the run.
package runner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/banshee-data/coloc.report/internal/assay"
	"github.com/banshee-data/coloc.report/internal/coloc"
	"github.com/banshee-data/coloc.report/internal/config"
	"github.com/banshee-data/coloc.report/internal/db"
	"github.com/banshee-data/coloc.report/internal/mask"
	"github.com/banshee-data/coloc.report/internal/report"
	"github.com/banshee-data/coloc.report/internal/track"
)

// Runner holds everything shared across cells of one analysis run.
type Runner struct {
	Config     *config.Config
	ConfigPath string
	OutputDir  string

	// Workers bounds concurrent cell analyses. Values < 1 mean serial.
	Workers int

	// Store is optional; when set, results are also recorded to sqlite.
	Store *db.DB

	// WriteChart enables the per-cell HTML chart output.
	WriteChart bool
}

type cellJob struct {
	assay *assay.Assay
	cell  assay.Cell
	// outLabel is the output subdirectory for the cell, unique across
	// assays.
	outLabel string
}

// Run discovers the cell folders of every assay and analyzes them all.
// It returns an error only when nothing could be analyzed; individual
// cell failures are logged and counted.
func (r *Runner) Run(assays []*assay.Assay) error {
	var jobs []cellJob
	for _, a := range assays {
		if err := a.DiscoverCells(r.Config.TrackFiles()); err != nil {
			return err
		}
		for _, cell := range a.Cells {
			outLabel := cell.Label
			if len(assays) > 1 {
				outLabel = filepath.Join(filepath.Base(a.Path), cell.Label)
			}
			jobs = append(jobs, cellJob{assay: a, cell: cell, outLabel: outLabel})
		}
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no cell folder found in any assay")
	}

	var runID string
	if r.Store != nil {
		id, err := r.Store.BeginRun(r.ConfigPath, *r.Config.PixelSize, r.Config.FrameIntervalOrDefault())
		if err != nil {
			return err
		}
		runID = id
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var (
		wg     sync.WaitGroup
		sem    = make(chan struct{}, workers)
		mu     sync.Mutex
		failed int
	)
	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(job cellJob) {
			defer wg.Done()
			defer func() { <-sem }()

			err := r.processCell(job, runID)
			if err != nil {
				log.Printf("WARNING: cell %q failed: %v", job.outLabel, err)
				mu.Lock()
				failed++
				mu.Unlock()
				if r.Store != nil {
					if dberr := r.Store.RecordCellError(runID, job.outLabel, err); dberr != nil {
						log.Printf("WARNING: could not record failure for %q: %v", job.outLabel, dberr)
					}
				}
			}
		}(job)
	}
	wg.Wait()

	if r.Store != nil {
		if err := r.Store.FinishRun(runID); err != nil {
			return err
		}
	}

	if failed == len(jobs) {
		return fmt.Errorf("all %d cells failed", failed)
	}
	log.Printf("analyzed %d cells (%d failed)", len(jobs)-failed, failed)
	return nil
}

func (r *Runner) processCell(job cellJob, runID string) error {
	channels, err := r.loadChannels(job.cell)
	if err != nil {
		return err
	}

	res, err := coloc.Run(channels)
	if err != nil {
		return err
	}

	if err := r.writeCellOutput(job, res); err != nil {
		return err
	}

	if r.Store != nil {
		if err := r.Store.RecordCell(runID, job.outLabel, job.assay.Qualifiers, res); err != nil {
			return err
		}
	}

	summary := report.Summarize(res.Intervals, r.Config.FrameIntervalOrDefault())
	log.Printf("cell %q: %d intervals over %d identity combinations, %.2fs colocalized",
		job.outLabel, summary.IntervalCount, summary.TupleCount, summary.TotalSeconds)
	return nil
}

// loadChannels reads the track table and footprint source of every
// configured channel from the cell folder.
func (r *Runner) loadChannels(cell assay.Cell) ([]*coloc.Channel, error) {
	channels := make([]*coloc.Channel, 0, len(r.Config.Channels))
	for _, cc := range r.Config.Channels {
		points, err := track.ReadFile(filepath.Join(cell.Dir, cc.TrackFile))
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", cc.Description, err)
		}

		ch := &coloc.Channel{
			Description: cc.Description,
			PixelSize:   *r.Config.PixelSize,
			Static:      cc.Static,
			Points:      points,
		}
		if cc.Radius != nil {
			ch.Radius = *cc.Radius
		}
		if cc.MaskFile != nil {
			m, err := loadMask(filepath.Join(cell.Dir, *cc.MaskFile))
			if err != nil {
				return nil, fmt.Errorf("channel %q: %w", cc.Description, err)
			}
			ch.Mask = m
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// loadMask loads a mask from a single image file, or from a sorted frame
// sequence when the configured path contains glob metacharacters.
func loadMask(path string) (*mask.Mask, error) {
	if strings.ContainsAny(path, "*?[") {
		return mask.LoadGlob(path)
	}
	return mask.Load(path)
}

func (r *Runner) writeCellOutput(job cellJob, res *coloc.Result) error {
	dir := filepath.Join(r.OutputDir, job.outLabel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeFile(filepath.Join(dir, report.CorrespondenceFileName), func(f *os.File) error {
		return report.WriteCorrespondenceCSV(f, res)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, report.IntervalsFileName), func(f *os.File) error {
		return report.WriteIntervalsCSV(f, res)
	}); err != nil {
		return err
	}

	meta := report.CellMetadata{
		Label:         job.outLabel,
		Qualifiers:    job.assay.Qualifiers,
		PixelSize:     *r.Config.PixelSize,
		FrameInterval: r.Config.FrameIntervalOrDefault(),
	}
	if err := writeFile(filepath.Join(dir, report.MetadataFileName), func(f *os.File) error {
		return report.WriteMetadataJSON(f, meta)
	}); err != nil {
		return err
	}

	if r.WriteChart {
		if err := writeFile(filepath.Join(dir, report.ChartFileName), func(f *os.File) error {
			return report.WriteIntervalChart(f, res, job.outLabel)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}
