package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook exports compiled chunk profiles to an XLSX workbook with
// one sheet per sleep stage: a header row of frequency labels, one row per
// (condition, chunk) profile, and a line chart of the profiles.
func WriteWorkbook(path string, compiled map[Stage]CombinedTable) error {
	if path == "" {
		return errors.New("WriteWorkbook: path is empty")
	}
	if len(compiled) == 0 {
		return fmt.Errorf("WriteWorkbook: nothing to export: %w", ErrMalformedInput)
	}

	stages := make([]Stage, 0, len(compiled))
	for st := range compiled {
		stages = append(stages, st)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	f := excelize.NewFile()
	defer f.Close()

	for n, st := range stages {
		sheet := sheetName(st)
		if n == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("WriteWorkbook: rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("WriteWorkbook: new sheet %s: %w", sheet, err)
			}
		}
		if err := writeStageSheet(f, sheet, compiled[st]); err != nil {
			return fmt.Errorf("WriteWorkbook: sheet %s: %w", sheet, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("WriteWorkbook: save %s: %w", path, err)
	}
	return nil
}

func sheetName(st Stage) string {
	switch st {
	case StageREM:
		return "REM"
	case StageNREM:
		return "NREM"
	default:
		return string(st)
	}
}

func writeStageSheet(f *excelize.File, sheet string, ct CombinedTable) error {
	header := make([]interface{}, 0, len(ct.Freqs)+1)
	header = append(header, "Profile")
	for _, freq := range ct.Freqs {
		header = append(header, freq)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	series := make([]excelize.ChartSeries, 0, len(ct.Rows))
	for j, r := range ct.Rows {
		rowNum := j + 2
		label := string(r.Condition) + " " + strconv.Itoa(r.ChunkIndex)
		row := make([]interface{}, 0, len(r.Values)+1)
		row = append(row, label)
		for _, v := range r.Values {
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}

		endCell, err := excelize.CoordinatesToCellName(len(ct.Freqs)+1, rowNum)
		if err != nil {
			return err
		}
		valStart, err := excelize.CoordinatesToCellName(2, rowNum)
		if err != nil {
			return err
		}
		catEnd, err := excelize.CoordinatesToCellName(len(ct.Freqs)+1, 1)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$A$%d", sheet, rowNum),
			Categories: fmt.Sprintf("%s!$B$1:%s", sheet, "$"+colOf(catEnd)+"$1"),
			Values:     fmt.Sprintf("%s!%s:%s", sheet, absCell(valStart), absCell(endCell)),
		})
	}

	anchor, err := excelize.CoordinatesToCellName(2, len(ct.Rows)+3)
	if err != nil {
		return err
	}
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: sheet + " normalized spectral profiles"}},
	})
}

func colOf(cell string) string {
	col, _, _ := excelize.SplitCellName(cell)
	return col
}

func absCell(cell string) string {
	col, row, err := excelize.SplitCellName(cell)
	if err != nil {
		return cell
	}
	return "$" + col + "$" + strconv.Itoa(row)
}
