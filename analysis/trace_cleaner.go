package analysis

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMetadataLines is the fixed-size acquisition header at the top of
// every raw trace export.
const DefaultMetadataLines = 20

// TraceFile is one raw spectral trace export found under the raw data dir.
type TraceFile struct {
	Path      string
	Animal    string
	Condition Condition
	Stem      string // filename without extension, e.g. "Traces_cFFT"
}

// FindTraceFiles walks rawDir for raw trace exports laid out as
// {animal}/{baseline|test}/*_cFFT.csv. Directories that are not a
// recognized condition are skipped; they are not part of the convention.
func FindTraceFiles(rawDir string) ([]TraceFile, error) {
	if rawDir == "" {
		return nil, errors.New("FindTraceFiles: rawDir is empty")
	}

	var found []TraceFile
	err := filepath.WalkDir(rawDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), TraceSuffix) {
			return nil
		}
		rel, err := filepath.Rel(rawDir, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil
		}
		cond, err := ParseCondition(parts[1])
		if err != nil {
			return nil
		}
		found = append(found, TraceFile{
			Path:      path,
			Animal:    parts[0],
			Condition: cond,
			Stem:      strings.TrimSuffix(d.Name(), ".csv"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("FindTraceFiles: walk %s: %w", rawDir, err)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Animal != found[j].Animal {
			return found[i].Animal < found[j].Animal
		}
		return found[i].Condition < found[j].Condition
	})
	return found, nil
}

// CleanOptions controls how raw trace files are cleaned.
type CleanOptions struct {
	// MetadataLines is the number of leading acquisition-metadata lines to
	// strip (defaults to DefaultMetadataLines).
	MetadataLines int

	// OverwriteExisting controls whether an existing cleaned file is
	// rewritten. If false and the output exists, cleaning is skipped.
	OverwriteExisting bool

	// FileMode is used when creating output files (defaults to 0o644).
	FileMode fs.FileMode
}

// CleanResult reports one cleaning run.
type CleanResult struct {
	OutPath   string
	LinesKept int
	Skipped   bool
}

// CleanTraceFile strips the acquisition metadata header from a raw trace
// export and writes the remaining CSV lines to outPath.
func CleanTraceFile(path, outPath string, opts CleanOptions) (CleanResult, error) {
	if path == "" {
		return CleanResult{}, errors.New("CleanTraceFile: path is empty")
	}
	if outPath == "" {
		return CleanResult{}, errors.New("CleanTraceFile: outPath is empty")
	}
	if opts.MetadataLines == 0 {
		opts.MetadataLines = DefaultMetadataLines
	}
	if opts.MetadataLines < 0 {
		return CleanResult{}, fmt.Errorf("CleanTraceFile: metadata lines %d: %w", opts.MetadataLines, ErrInvalidParameter)
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}

	if !opts.OverwriteExisting && fileExists(outPath) {
		return CleanResult{OutPath: outPath, Skipped: true}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return CleanResult{}, fmt.Errorf("CleanTraceFile: open: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	kept := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 0; sc.Scan(); line++ {
		if line < opts.MetadataLines {
			continue
		}
		buf.Write(sc.Bytes())
		buf.WriteByte('\n')
		kept++
	}
	if err := sc.Err(); err != nil {
		return CleanResult{}, fmt.Errorf("CleanTraceFile: read %s: %w", path, err)
	}
	if kept == 0 {
		return CleanResult{}, fmt.Errorf("CleanTraceFile: %s has no data after %d metadata lines: %w", path, opts.MetadataLines, ErrMalformedInput)
	}

	if _, err := writeFileAtomic(filepath.Dir(outPath), outPath, buf.Bytes(), opts.FileMode); err != nil {
		return CleanResult{}, fmt.Errorf("CleanTraceFile: write %s: %w", outPath, err)
	}
	return CleanResult{OutPath: outPath, LinesKept: kept}, nil
}

// ReadTraceTable loads a cleaned trace CSV into memory.
func ReadTraceTable(path string) (TraceTable, error) {
	records, err := readCSVRecords(path)
	if err != nil {
		return TraceTable{}, fmt.Errorf("ReadTraceTable: read %s: %w", path, err)
	}
	if len(records) < 2 {
		return TraceTable{}, fmt.Errorf("ReadTraceTable: %s: table needs a header and at least one field row: %w", path, ErrMalformedInput)
	}
	return TraceTable{Header: records[0], Rows: records[1:]}, nil
}
