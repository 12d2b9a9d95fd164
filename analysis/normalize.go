package analysis

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// NormalizePerFrequency rescales every frequency column by its own
// arithmetic mean across all rows of the table, independently of every
// other column. This pass must run before NormalizeToBaseline; swapping
// the order changes the numbers.
func NormalizePerFrequency(ct CombinedTable) (CombinedTable, error) {
	if len(ct.Rows) == 0 {
		return CombinedTable{}, fmt.Errorf("NormalizePerFrequency: table has no rows: %w", ErrMalformedInput)
	}

	col := make([]float64, len(ct.Rows))
	means := make([]float64, len(ct.Freqs))
	for i, freq := range ct.Freqs {
		for j, r := range ct.Rows {
			if len(r.Values) != len(ct.Freqs) {
				return CombinedTable{}, fmt.Errorf("NormalizePerFrequency: row %d has %d values, want %d: %w",
					j, len(r.Values), len(ct.Freqs), ErrMalformedInput)
			}
			col[j] = r.Values[i]
		}
		m, err := stats.Mean(col)
		if err != nil {
			return CombinedTable{}, fmt.Errorf("NormalizePerFrequency: frequency %q: %w", freq, err)
		}
		if m == 0 {
			return CombinedTable{}, fmt.Errorf("NormalizePerFrequency: frequency %q has zero mean: %w", freq, ErrDegenerateReference)
		}
		means[i] = m
	}

	out := CombinedTable{Freqs: append([]string(nil), ct.Freqs...)}
	out.Rows = make([]AggregateRow, len(ct.Rows))
	for j, r := range ct.Rows {
		values := make([]float64, len(r.Values))
		for i, v := range r.Values {
			values[i] = v / means[i]
		}
		out.Rows[j] = AggregateRow{Condition: r.Condition, ChunkIndex: r.ChunkIndex, Values: values}
	}
	return out, nil
}

// NormalizeToBaseline divides every row's values by the reference row's
// value for the same frequency, so the reference row becomes 1.0 across
// the board. The reference is conventionally the first baseline chunk.
func NormalizeToBaseline(ct CombinedTable, ref ChunkRef) (CombinedTable, error) {
	refRow, ok := ct.Row(ref)
	if !ok {
		return CombinedTable{}, fmt.Errorf("NormalizeToBaseline: reference %s: %w", ref, ErrReferenceNotFound)
	}
	if len(refRow.Values) != len(ct.Freqs) {
		return CombinedTable{}, fmt.Errorf("NormalizeToBaseline: reference %s has %d values, want %d: %w",
			ref, len(refRow.Values), len(ct.Freqs), ErrMalformedInput)
	}
	// Snapshot before dividing: the reference row is itself rescaled.
	refValues := append([]float64(nil), refRow.Values...)
	for i, v := range refValues {
		if v == 0 {
			return CombinedTable{}, fmt.Errorf("NormalizeToBaseline: reference %s, frequency %q is zero: %w",
				ref, ct.Freqs[i], ErrDegenerateReference)
		}
	}

	out := CombinedTable{Freqs: append([]string(nil), ct.Freqs...)}
	out.Rows = make([]AggregateRow, len(ct.Rows))
	for j, r := range ct.Rows {
		if len(r.Values) != len(ct.Freqs) {
			return CombinedTable{}, fmt.Errorf("NormalizeToBaseline: row %d has %d values, want %d: %w",
				j, len(r.Values), len(ct.Freqs), ErrMalformedInput)
		}
		values := make([]float64, len(r.Values))
		for i, v := range r.Values {
			values[i] = v / refValues[i]
		}
		out.Rows[j] = AggregateRow{Condition: r.Condition, ChunkIndex: r.ChunkIndex, Values: values}
	}
	return out, nil
}
