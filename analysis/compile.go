package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/montanaflynn/stats"
)

// CompileCohort averages normalized chunk profiles element-wise across
// animals. Every table must carry the same frequency columns and the same
// (condition, chunk) row set; one animal's table diverging is a recording
// problem that should surface, not be papered over.
func CompileCohort(tables []CombinedTable) (CombinedTable, error) {
	if len(tables) == 0 {
		return CombinedTable{}, fmt.Errorf("CompileCohort: no tables: %w", ErrMalformedInput)
	}

	first := tables[0]
	if len(first.Rows) == 0 {
		return CombinedTable{}, fmt.Errorf("CompileCohort: table 0 has no rows: %w", ErrMalformedInput)
	}
	for n, t := range tables[1:] {
		if !equalStrings(t.Freqs, first.Freqs) {
			return CombinedTable{}, fmt.Errorf("CompileCohort: table %d frequency columns differ: %w", n+1, ErrMalformedInput)
		}
		if len(t.Rows) != len(first.Rows) {
			return CombinedTable{}, fmt.Errorf("CompileCohort: table %d has %d rows, table 0 has %d: %w",
				n+1, len(t.Rows), len(first.Rows), ErrChunkMismatch)
		}
		for j, r := range t.Rows {
			if r.Condition != first.Rows[j].Condition || r.ChunkIndex != first.Rows[j].ChunkIndex {
				return CombinedTable{}, fmt.Errorf("CompileCohort: table %d row %d is %s/%d, table 0 has %s/%d: %w",
					n+1, j, r.Condition, r.ChunkIndex, first.Rows[j].Condition, first.Rows[j].ChunkIndex, ErrChunkMismatch)
			}
		}
	}

	out := CombinedTable{Freqs: append([]string(nil), first.Freqs...)}
	out.Rows = make([]AggregateRow, len(first.Rows))
	sample := make([]float64, len(tables))
	for j := range first.Rows {
		values := make([]float64, len(first.Freqs))
		for i := range first.Freqs {
			for n, t := range tables {
				if len(t.Rows[j].Values) != len(first.Freqs) {
					return CombinedTable{}, fmt.Errorf("CompileCohort: table %d row %d width: %w", n, j, ErrMalformedInput)
				}
				sample[n] = t.Rows[j].Values[i]
			}
			m, err := stats.Mean(sample)
			if err != nil {
				return CombinedTable{}, fmt.Errorf("CompileCohort: row %d, frequency %q: %w", j, first.Freqs[i], err)
			}
			values[i] = m
		}
		out.Rows[j] = AggregateRow{
			Condition:  first.Rows[j].Condition,
			ChunkIndex: first.Rows[j].ChunkIndex,
			Values:     values,
		}
	}
	return out, nil
}

// WriteCompiled writes a compiled cohort table as one CSV per chunk index,
// named chunk_{NN}.csv, and returns the written paths.
func WriteCompiled(ct CombinedTable, dir string, opts CombinedWriteOptions) ([]string, error) {
	if dir == "" {
		return nil, errors.New("WriteCompiled: dir is empty")
	}
	var mode fs.FileMode = 0o644
	if opts.FileMode != 0 {
		mode = opts.FileMode
	}

	header := append([]string{"Condition", "Chunk"}, ct.Freqs...)
	var written []string
	for _, idx := range ct.ChunkIndices() {
		records := [][]string{header}
		for _, r := range ct.Rows {
			if r.ChunkIndex != idx {
				continue
			}
			row := make([]string, 0, len(header))
			row = append(row, string(r.Condition), strconv.Itoa(r.ChunkIndex))
			for _, v := range r.Values {
				row = append(row, formatPower(v))
			}
			records = append(records, row)
		}

		path := filepath.Join(dir, fmt.Sprintf("chunk_%02d.csv", idx))
		if !opts.OverwriteExisting && fileExists(path) {
			return nil, fmt.Errorf("WriteCompiled: %s already exists (use overwrite)", path)
		}
		if err := writeCSVAtomic(path, records, mode); err != nil {
			return nil, fmt.Errorf("WriteCompiled: chunk %d: %w", idx, err)
		}
		written = append(written, path)
	}
	return written, nil
}
