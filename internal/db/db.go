// Package db persists analysis results to a local sqlite database so
// repeated runs over the same assay can be compared after the fact.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/coloc.report/internal/coloc"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			config_path TEXT,
			pixel_size DOUBLE,
			frame_interval DOUBLE,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS cells (
			run_id TEXT,
			label TEXT,
			qualifiers TEXT,
			frame_count INTEGER,
			interval_count INTEGER,
			error TEXT,
			PRIMARY KEY (run_id, label),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS intervals (
			run_id TEXT,
			label TEXT,
			ids TEXT,
			start_frame INTEGER,
			end_frame INTEGER,
			FOREIGN KEY(run_id, label) REFERENCES cells(run_id, label)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// BeginRun registers a new analysis run and returns its identifier.
func (db *DB) BeginRun(configPath string, pixelSize, frameInterval float64) (string, error) {
	runID := uuid.New().String()
	_, err := db.Exec(
		"INSERT INTO runs (run_id, config_path, pixel_size, frame_interval, started_at) VALUES (?, ?, ?, ?, ?)",
		runID, configPath, pixelSize, frameInterval, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// FinishRun stamps the run with its completion time.
func (db *DB) FinishRun(runID string) error {
	_, err := db.Exec("UPDATE runs SET finished_at = ? WHERE run_id = ?", time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordCell stores one analyzed cell and its colocalization intervals.
func (db *DB) RecordCell(runID, label string, qualifiers map[string]string, res *coloc.Result) error {
	quals, err := json.Marshal(qualifiers)
	if err != nil {
		return fmt.Errorf("encode qualifiers: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO cells (run_id, label, qualifiers, frame_count, interval_count) VALUES (?, ?, ?, ?, ?)",
		runID, label, string(quals), res.Correspondence.FrameCount(), len(res.Intervals),
	)
	if err != nil {
		return fmt.Errorf("insert cell %q: %w", label, err)
	}

	stmt, err := tx.Prepare("INSERT INTO intervals (run_id, label, ids, start_frame, end_frame) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, iv := range res.Intervals {
		if _, err := stmt.Exec(runID, label, iv.IDs.Key(), iv.StartFrame, iv.EndFrame); err != nil {
			return fmt.Errorf("insert interval for %q: %w", label, err)
		}
	}

	return tx.Commit()
}

// RecordCellError stores a cell whose analysis failed, keeping the failure
// visible alongside the cells that succeeded.
func (db *DB) RecordCellError(runID, label string, cellErr error) error {
	_, err := db.Exec(
		"INSERT INTO cells (run_id, label, interval_count, error) VALUES (?, ?, 0, ?)",
		runID, label, cellErr.Error(),
	)
	if err != nil {
		return fmt.Errorf("insert failed cell %q: %w", label, err)
	}
	return nil
}

// CellInterval is one stored colocalization interval.
type CellInterval struct {
	Label      string
	IDs        string
	StartFrame int
	EndFrame   int
}

// Intervals returns all intervals recorded for a run, ordered by cell label
// and start frame.
func (db *DB) Intervals(runID string) ([]CellInterval, error) {
	rows, err := db.Query(
		"SELECT label, ids, start_frame, end_frame FROM intervals WHERE run_id = ? ORDER BY label, start_frame",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CellInterval
	for rows.Next() {
		var iv CellInterval
		if err := rows.Scan(&iv.Label, &iv.IDs, &iv.StartFrame, &iv.EndFrame); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
