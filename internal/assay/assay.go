// Package assay maps experiment metadata onto the on-disk file structure:
// each assay is a directory tree whose cell folders contain one tracking
// table (and optionally one mask) per channel.
package assay

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Assay is one experimental replicate: a directory to scan plus optional
// qualifier columns from the metadata file (condition, replicate, ...).
type Assay struct {
	Path       string
	Qualifiers map[string]string
	Cells      []Cell
}

// Cell is one cell folder within an assay. Label is the folder path
// relative to the assay root.
type Cell struct {
	Label string
	Dir   string
}

// ParseMetadataFile reads a metadata file listing the assays. Each data
// row is comma-separated with the assay path in the last field; a leading
// `#`-prefixed row names the qualifier columns for the preceding fields.
// Later comment rows are ignored.
func ParseMetadataFile(path string) ([]*Assay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata file: %w", err)
	}
	defer f.Close()
	return ParseMetadata(f)
}

// ParseMetadata parses metadata rows from r. See ParseMetadataFile.
func ParseMetadata(r io.Reader) ([]*Assay, error) {
	var assays []*Assay
	var header []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if header == nil {
				header = splitFields(line[1:])
			}
			continue
		}

		fields := splitFields(line)
		a := &Assay{Path: fields[len(fields)-1]}
		if len(fields) > 1 {
			a.Qualifiers = map[string]string{}
			if header != nil {
				for i, name := range header {
					if i < len(fields)-1 {
						a.Qualifiers[name] = fields[i]
					}
				}
			} else {
				a.Qualifiers["description"] = strings.Join(fields[:len(fields)-1], ",")
			}
		}
		assays = append(assays, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if len(assays) == 0 {
		return nil, fmt.Errorf("metadata file is empty")
	}
	return assays, nil
}

// SingleDirectory wraps one input directory as an anonymous assay, for
// runs without a metadata file.
func SingleDirectory(dir string) *Assay {
	return &Assay{Path: dir}
}

// DiscoverCells walks the assay directory for cell folders: any folder
// that contains every channel's track file (given as paths relative to
// the cell folder). The result is sorted by label so processing order is
// stable.
func (a *Assay) DiscoverCells(trackFiles []string) error {
	candidates := map[string]int{}

	err := filepath.WalkDir(a.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, tf := range trackFiles {
			suffix := filepath.FromSlash(tf)
			if path == filepath.Join(a.Path, suffix) || strings.HasSuffix(path, string(filepath.Separator)+suffix) {
				cellDir := strings.TrimSuffix(path, suffix)
				cellDir = strings.TrimSuffix(cellDir, string(filepath.Separator))
				candidates[cellDir]++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan assay %q: %w", a.Path, err)
	}

	var dirs []string
	for dir, found := range candidates {
		// A cell folder must provide all channels' track files.
		if found == len(trackFiles) {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)

	if len(dirs) == 0 {
		log.Printf("WARNING: no valid cell folder found in %q", a.Path)
	}

	a.Cells = a.Cells[:0]
	for _, dir := range dirs {
		label, err := filepath.Rel(a.Path, dir)
		if err != nil || label == "." {
			label = filepath.Base(dir)
		}
		a.Cells = append(a.Cells, Cell{Label: label, Dir: dir})
	}
	return nil
}

func splitFields(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
