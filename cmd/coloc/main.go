package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"

	"github.com/banshee-data/coloc.report/internal/assay"
	"github.com/banshee-data/coloc.report/internal/config"
	"github.com/banshee-data/coloc.report/internal/db"
	"github.com/banshee-data/coloc.report/internal/runner"
	"github.com/banshee-data/coloc.report/internal/version"
)

func main() {
	var configPath string
	var metadataPath string
	var inputDir string
	var outputDir string
	var dbPath string
	var workers int
	var chart bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "path to the experiment config (json)")
	flag.StringVar(&metadataPath, "metadata", "", "metadata file listing the assay directories")
	flag.StringVar(&inputDir, "input", "", "single assay directory (alternative to -metadata)")
	flag.StringVar(&outputDir, "output", "output", "directory for per-cell result files")
	flag.StringVar(&dbPath, "db", "", "optional sqlite db to record results to")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "number of cells to analyze in parallel")
	flag.BoolVar(&chart, "chart", false, "also write a per-cell html chart")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("coloc %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if configPath == "" {
		log.Fatalf("-config must be provided")
	}
	if (metadataPath == "") == (inputDir == "") {
		log.Fatalf("exactly one of -metadata and -input must be provided")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var assays []*assay.Assay
	if metadataPath != "" {
		assays, err = assay.ParseMetadataFile(metadataPath)
		if err != nil {
			log.Fatalf("parse metadata: %v", err)
		}
	} else {
		assays = []*assay.Assay{assay.SingleDirectory(inputDir)}
	}

	r := &runner.Runner{
		Config:     cfg,
		ConfigPath: configPath,
		OutputDir:  outputDir,
		Workers:    workers,
		WriteChart: chart,
	}
	if dbPath != "" {
		store, err := db.NewDB(dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
		r.Store = store
	}

	if err := r.Run(assays); err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
}
