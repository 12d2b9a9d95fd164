package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Preprocess turns a cleaned trace table into per-stage epoch tables: the
// table is transposed so epochs become rows, rows are grouped by stage
// label with chronological order preserved inside each group, WAKE epochs
// are dropped, and the remainder is split into REM and NREM tables.
func Preprocess(t TraceTable, cfg LabelConfig) (rem, nrem StageTable, err error) {
	if cfg.LabelField == "" {
		cfg.LabelField = "Stage"
	}

	width := len(t.Header)
	if width < 2 {
		return rem, nrem, fmt.Errorf("Preprocess: table has no epoch columns: %w", ErrMalformedInput)
	}

	var labelRow []string
	var metaRows [][]string
	var metaNames []string
	var freqRows [][]string
	var freqNames []string

	for _, row := range t.Rows {
		if len(row) != width {
			return rem, nrem, fmt.Errorf("Preprocess: field row %q has %d columns, header has %d: %w",
				firstCell(row), len(row), width, ErrMalformedInput)
		}
		name := strings.TrimSpace(row[0])
		switch {
		case name == cfg.LabelField:
			if labelRow != nil {
				return rem, nrem, fmt.Errorf("Preprocess: duplicate label field %q: %w", name, ErrMalformedInput)
			}
			labelRow = row
		case cfg.isMeta(name):
			metaNames = append(metaNames, name)
			metaRows = append(metaRows, row)
		default:
			freqNames = append(freqNames, name)
			freqRows = append(freqRows, row)
		}
	}
	if labelRow == nil {
		return rem, nrem, fmt.Errorf("Preprocess: label field %q not found: %w", cfg.LabelField, ErrMalformedInput)
	}
	if len(freqNames) == 0 {
		return rem, nrem, fmt.Errorf("Preprocess: no frequency fields: %w", ErrMalformedInput)
	}

	// Transpose: one epoch per column.
	epochs := make([]Epoch, 0, width-1)
	for col := 1; col < width; col++ {
		stage, err := ParseStage(labelRow[col])
		if err != nil {
			return rem, nrem, fmt.Errorf("Preprocess: epoch %d: %w", col-1, err)
		}

		meta := make([]string, len(metaRows))
		for i, row := range metaRows {
			meta[i] = strings.TrimSpace(row[col])
		}

		power := make([]float64, len(freqRows))
		for i, row := range freqRows {
			v, err := parsePower(strings.TrimSpace(row[col]))
			if err != nil {
				return rem, nrem, fmt.Errorf("Preprocess: epoch %d, frequency %q: value %q: %w",
					col-1, freqNames[i], row[col], ErrMalformedInput)
			}
			power[i] = v
		}

		epochs = append(epochs, Epoch{Meta: meta, Stage: stage, Power: power})
	}

	// Group by stage; the stable sort keeps epochs chronological inside
	// each group, which chunking depends on.
	sort.SliceStable(epochs, func(i, j int) bool {
		return epochs[i].Stage < epochs[j].Stage
	})

	rem = StageTable{Stage: StageREM, Meta: metaNames, Freqs: freqNames}
	nrem = StageTable{Stage: StageNREM, Meta: metaNames, Freqs: freqNames}
	for _, ep := range epochs {
		switch ep.Stage {
		case StageREM:
			rem.Epochs = append(rem.Epochs, ep)
		case StageNREM:
			nrem.Epochs = append(nrem.Epochs, ep)
		case StageWake:
			// dropped
		}
	}
	return rem, nrem, nil
}

func firstCell(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

// StageWriteOptions controls stage-table emission.
type StageWriteOptions struct {
	OverwriteExisting bool
	FileMode          fs.FileMode
}

// WriteStageTable writes a stage table as a CSV with one epoch per row:
// meta fields first, then the stage label, then one column per frequency.
func WriteStageTable(st StageTable, path string, opts StageWriteOptions) error {
	if path == "" {
		return errors.New("WriteStageTable: path is empty")
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
	if !opts.OverwriteExisting && fileExists(path) {
		return nil
	}

	records := make([][]string, 0, len(st.Epochs)+1)
	header := make([]string, 0, len(st.Meta)+1+len(st.Freqs))
	header = append(header, st.Meta...)
	header = append(header, "Stage")
	header = append(header, st.Freqs...)
	records = append(records, header)

	for _, ep := range st.Epochs {
		row := make([]string, 0, len(header))
		row = append(row, ep.Meta...)
		row = append(row, string(ep.Stage))
		for _, v := range ep.Power {
			row = append(row, formatPower(v))
		}
		records = append(records, row)
	}

	if err := writeCSVAtomic(path, records, opts.FileMode); err != nil {
		return fmt.Errorf("WriteStageTable: %s: %w", path, err)
	}
	return nil
}

// ReadStageTable loads a stage-table CSV written by WriteStageTable. The
// label config identifies which header columns are meta fields; everything
// after the stage column is a frequency bin.
func ReadStageTable(path string, cfg LabelConfig) (StageTable, error) {
	if cfg.LabelField == "" {
		cfg.LabelField = "Stage"
	}
	records, err := readCSVRecords(path)
	if err != nil {
		return StageTable{}, fmt.Errorf("ReadStageTable: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return StageTable{}, fmt.Errorf("ReadStageTable: %s: missing header: %w", path, ErrMalformedInput)
	}

	header := records[0]
	labelCol := -1
	for i, name := range header {
		if name == cfg.LabelField {
			labelCol = i
			break
		}
	}
	if labelCol < 0 {
		return StageTable{}, fmt.Errorf("ReadStageTable: %s: label column %q not found: %w", path, cfg.LabelField, ErrMalformedInput)
	}

	st := StageTable{
		Meta:  append([]string(nil), header[:labelCol]...),
		Freqs: append([]string(nil), header[labelCol+1:]...),
	}

	for n, row := range records[1:] {
		if len(row) != len(header) {
			return StageTable{}, fmt.Errorf("ReadStageTable: %s: row %d has %d columns, header has %d: %w",
				path, n, len(row), len(header), ErrMalformedInput)
		}
		stage, err := ParseStage(row[labelCol])
		if err != nil {
			return StageTable{}, fmt.Errorf("ReadStageTable: %s: row %d: %w", path, n, err)
		}
		if st.Stage == "" {
			st.Stage = stage
		} else if st.Stage != stage {
			return StageTable{}, fmt.Errorf("ReadStageTable: %s: mixed stages %q and %q: %w", path, st.Stage, stage, ErrMalformedInput)
		}

		power := make([]float64, len(st.Freqs))
		for i, s := range row[labelCol+1:] {
			v, err := parsePower(strings.TrimSpace(s))
			if err != nil {
				return StageTable{}, fmt.Errorf("ReadStageTable: %s: row %d, frequency %q: value %q: %w",
					path, n, st.Freqs[i], s, ErrMalformedInput)
			}
			power[i] = v
		}
		st.Epochs = append(st.Epochs, Epoch{
			Meta:  append([]string(nil), row[:labelCol]...),
			Stage: stage,
			Power: power,
		})
	}
	return st, nil
}
