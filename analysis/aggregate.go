package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// AggregateChunk computes the arithmetic mean of every frequency column
// across the chunk's epochs, producing a single profile row for the given
// condition.
func AggregateChunk(ch Chunk, cond Condition) (AggregateRow, error) {
	if len(ch.Epochs) == 0 {
		return AggregateRow{}, fmt.Errorf("AggregateChunk: chunk %d: %w", ch.Index, ErrEmptyChunk)
	}

	values := make([]float64, len(ch.Freqs))
	col := make([]float64, len(ch.Epochs))
	for i := range ch.Freqs {
		for j, ep := range ch.Epochs {
			if len(ep.Power) != len(ch.Freqs) {
				return AggregateRow{}, fmt.Errorf("AggregateChunk: chunk %d, epoch %d has %d values, want %d: %w",
					ch.Index, j, len(ep.Power), len(ch.Freqs), ErrMalformedInput)
			}
			col[j] = ep.Power[i]
		}
		m, err := stats.Mean(col)
		if err != nil {
			return AggregateRow{}, fmt.Errorf("AggregateChunk: chunk %d, frequency %q: %w", ch.Index, ch.Freqs[i], err)
		}
		values[i] = m
	}
	return AggregateRow{Condition: cond, ChunkIndex: ch.Index, Values: values}, nil
}

// CombineOptions controls how baseline and test aggregates are merged.
type CombineOptions struct {
	// AllowPartial keeps only chunk indices present in both conditions
	// instead of failing when the index sets differ. Off by default:
	// a mismatch usually means an upstream recording problem.
	AllowPartial bool
}

// Combine merges baseline and test aggregate rows into one table, keyed by
// (condition, chunk index). Conditions stay distinct rows; nothing is
// averaged here. Rows come out ordered by chunk index, baseline first.
func Combine(freqs []string, baseline, test []AggregateRow, opts CombineOptions) (CombinedTable, error) {
	if len(freqs) == 0 {
		return CombinedTable{}, fmt.Errorf("Combine: no frequency columns: %w", ErrMalformedInput)
	}

	bl, err := indexRows(baseline, len(freqs))
	if err != nil {
		return CombinedTable{}, fmt.Errorf("Combine: baseline: %w", err)
	}
	ts, err := indexRows(test, len(freqs))
	if err != nil {
		return CombinedTable{}, fmt.Errorf("Combine: test: %w", err)
	}

	shared := make([]int, 0, len(bl))
	for idx := range bl {
		if _, ok := ts[idx]; ok {
			shared = append(shared, idx)
		}
	}
	if !opts.AllowPartial && (len(shared) != len(bl) || len(shared) != len(ts)) {
		return CombinedTable{}, fmt.Errorf("Combine: baseline has %d chunks, test has %d, %d shared: %w",
			len(bl), len(ts), len(shared), ErrChunkMismatch)
	}
	sort.Ints(shared)

	out := CombinedTable{Freqs: append([]string(nil), freqs...)}
	for _, idx := range shared {
		out.Rows = append(out.Rows, bl[idx], ts[idx])
	}
	return out, nil
}

func indexRows(rows []AggregateRow, width int) (map[int]AggregateRow, error) {
	byIndex := make(map[int]AggregateRow, len(rows))
	for _, r := range rows {
		if len(r.Values) != width {
			return nil, fmt.Errorf("chunk %d has %d values, want %d: %w", r.ChunkIndex, len(r.Values), width, ErrMalformedInput)
		}
		if _, ok := byIndex[r.ChunkIndex]; ok {
			return nil, fmt.Errorf("duplicate chunk index %d: %w", r.ChunkIndex, ErrMalformedInput)
		}
		byIndex[r.ChunkIndex] = r
	}
	return byIndex, nil
}

// ChunkIndices reports the distinct chunk indices in the table, ascending.
func (ct CombinedTable) ChunkIndices() []int {
	seen := make(map[int]struct{}, len(ct.Rows))
	for _, r := range ct.Rows {
		seen[r.ChunkIndex] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Row returns the row identified by ref, if present.
func (ct CombinedTable) Row(ref ChunkRef) (AggregateRow, bool) {
	for _, r := range ct.Rows {
		if r.Condition == ref.Condition && r.ChunkIndex == ref.Index {
			return r, true
		}
	}
	return AggregateRow{}, false
}

// CombinedWriteOptions controls combined per-chunk file emission.
type CombinedWriteOptions struct {
	OverwriteExisting bool
	FileMode          fs.FileMode
}

// WriteCombinedByChunk writes the table as one CSV per chunk index into
// dir, named chunk_{NN}_{kind}.csv, and returns the written paths. Each
// file holds the rows of a single chunk index (one per condition), so the
// on-disk layout matches the per-chunk convention downstream tools expect.
func WriteCombinedByChunk(ct CombinedTable, dir, kind string, opts CombinedWriteOptions) ([]string, error) {
	if dir == "" {
		return nil, errors.New("WriteCombinedByChunk: dir is empty")
	}
	if kind == "" {
		return nil, errors.New("WriteCombinedByChunk: kind is empty")
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
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

		path := filepath.Join(dir, CombinedFileName(idx, kind))
		if !opts.OverwriteExisting && fileExists(path) {
			return nil, fmt.Errorf("WriteCombinedByChunk: %s already exists (use overwrite)", path)
		}
		if err := writeCSVAtomic(path, records, opts.FileMode); err != nil {
			return nil, fmt.Errorf("WriteCombinedByChunk: chunk %d: %w", idx, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// ReadCombinedDir loads every chunk_{NN}_{kind}.csv in dir back into one
// combined table, with rows ordered by chunk index, baseline first.
func ReadCombinedDir(dir, kind string) (CombinedTable, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return CombinedTable{}, fmt.Errorf("ReadCombinedDir: %w", err)
	}

	var ct CombinedTable
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		idx, k, ok := ParseCombinedFileName(e.Name())
		if !ok || k != kind {
			continue
		}

		records, err := readCSVRecords(filepath.Join(dir, e.Name()))
		if err != nil {
			return CombinedTable{}, fmt.Errorf("ReadCombinedDir: read %s: %w", e.Name(), err)
		}
		if len(records) < 2 || len(records[0]) < 3 {
			return CombinedTable{}, fmt.Errorf("ReadCombinedDir: %s: short table: %w", e.Name(), ErrMalformedInput)
		}
		freqs := records[0][2:]
		if ct.Freqs == nil {
			ct.Freqs = append([]string(nil), freqs...)
		} else if !equalStrings(ct.Freqs, freqs) {
			return CombinedTable{}, fmt.Errorf("ReadCombinedDir: %s: frequency columns differ from earlier chunks: %w", e.Name(), ErrMalformedInput)
		}

		for n, row := range records[1:] {
			if len(row) != len(records[0]) {
				return CombinedTable{}, fmt.Errorf("ReadCombinedDir: %s: row %d width: %w", e.Name(), n, ErrMalformedInput)
			}
			cond, err := ParseCondition(row[0])
			if err != nil {
				return CombinedTable{}, fmt.Errorf("ReadCombinedDir: %s: row %d: %w", e.Name(), n, err)
			}
			rowIdx, err := strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil || rowIdx != idx {
				return CombinedTable{}, fmt.Errorf("ReadCombinedDir: %s: row %d: chunk column %q does not match filename index %d: %w",
					e.Name(), n, row[1], idx, ErrMalformedInput)
			}
			values := make([]float64, len(freqs))
			for i, s := range row[2:] {
				v, err := parsePower(strings.TrimSpace(s))
				if err != nil {
					return CombinedTable{}, fmt.Errorf("ReadCombinedDir: %s: row %d, frequency %q: %w", e.Name(), n, freqs[i], ErrMalformedInput)
				}
				values[i] = v
			}
			ct.Rows = append(ct.Rows, AggregateRow{Condition: cond, ChunkIndex: idx, Values: values})
		}
	}

	sort.SliceStable(ct.Rows, func(i, j int) bool {
		if ct.Rows[i].ChunkIndex != ct.Rows[j].ChunkIndex {
			return ct.Rows[i].ChunkIndex < ct.Rows[j].ChunkIndex
		}
		return ct.Rows[i].Condition < ct.Rows[j].Condition
	})
	return ct, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
