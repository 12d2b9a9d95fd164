package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_WorkedExample(t *testing.T) {
	t.Parallel()

	// Baseline chunk 0 has 4.0 and test chunk 0 has 8.0 for one frequency;
	// normalized against baseline chunk 0 they become 1.0 and 2.0.
	ct := CombinedTable{
		Freqs: []string{"10"},
		Rows: []AggregateRow{
			aggRow(ConditionBaseline, 0, 4.0),
			aggRow(ConditionTest, 0, 8.0),
		},
	}

	st1, err := NormalizePerFrequency(ct)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/6.0, st1.Rows[0].Values[0], 1e-12)
	assert.InDelta(t, 8.0/6.0, st1.Rows[1].Values[0], 1e-12)

	final, err := NormalizeToBaseline(st1, ChunkRef{Condition: ConditionBaseline, Index: 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, final.Rows[0].Values[0], 1e-12)
	assert.InDelta(t, 2.0, final.Rows[1].Values[0], 1e-12)
}

func TestNormalize_ReferenceRowBecomesUnity(t *testing.T) {
	t.Parallel()

	ct := CombinedTable{
		Freqs: []string{"0.5", "1.0", "1.5"},
		Rows: []AggregateRow{
			aggRow(ConditionBaseline, 0, 3, 1.5, 9),
			aggRow(ConditionTest, 0, 6, 4.5, 2),
			aggRow(ConditionBaseline, 1, 1, 2.5, 5),
			aggRow(ConditionTest, 1, 8, 0.5, 4),
		},
	}

	st1, err := NormalizePerFrequency(ct)
	require.NoError(t, err)
	final, err := NormalizeToBaseline(st1, DefaultReference)
	require.NoError(t, err)

	ref, ok := final.Row(DefaultReference)
	require.True(t, ok)
	for i := range final.Freqs {
		assert.InDelta(t, 1.0, ref.Values[i], 1e-12)
	}
}

func TestNormalizePerFrequency_ColumnsAreIndependent(t *testing.T) {
	t.Parallel()

	ct := CombinedTable{
		Freqs: []string{"a", "b"},
		Rows: []AggregateRow{
			aggRow(ConditionBaseline, 0, 2, 100),
			aggRow(ConditionTest, 0, 4, 300),
		},
	}

	st1, err := NormalizePerFrequency(ct)
	require.NoError(t, err)

	// Column a: mean 3 -> 2/3, 4/3. Column b: mean 200 -> 0.5, 1.5.
	assert.InDelta(t, 2.0/3.0, st1.Rows[0].Values[0], 1e-12)
	assert.InDelta(t, 4.0/3.0, st1.Rows[1].Values[0], 1e-12)
	assert.InDelta(t, 0.5, st1.Rows[0].Values[1], 1e-12)
	assert.InDelta(t, 1.5, st1.Rows[1].Values[1], 1e-12)
}

func TestNormalizePerFrequency_ZeroMean(t *testing.T) {
	t.Parallel()

	ct := CombinedTable{
		Freqs: []string{"a"},
		Rows: []AggregateRow{
			aggRow(ConditionBaseline, 0, 2),
			aggRow(ConditionTest, 0, -2),
		},
	}

	_, err := NormalizePerFrequency(ct)
	require.ErrorIs(t, err, ErrDegenerateReference)
}

func TestNormalizePerFrequency_EmptyTable(t *testing.T) {
	t.Parallel()

	_, err := NormalizePerFrequency(CombinedTable{Freqs: []string{"a"}})
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestNormalizeToBaseline_ReferenceNotFound(t *testing.T) {
	t.Parallel()

	ct := CombinedTable{
		Freqs: []string{"a"},
		Rows:  []AggregateRow{aggRow(ConditionTest, 0, 1)},
	}

	_, err := NormalizeToBaseline(ct, DefaultReference)
	require.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestNormalizeToBaseline_ZeroReferenceValue(t *testing.T) {
	t.Parallel()

	ct := CombinedTable{
		Freqs: []string{"a", "b"},
		Rows: []AggregateRow{
			aggRow(ConditionBaseline, 0, 1, 0),
			aggRow(ConditionTest, 0, 2, 3),
		},
	}

	_, err := NormalizeToBaseline(ct, DefaultReference)
	require.ErrorIs(t, err, ErrDegenerateReference)
}

func TestNormalize_InputTableUnchanged(t *testing.T) {
	t.Parallel()

	ct := CombinedTable{
		Freqs: []string{"a"},
		Rows: []AggregateRow{
			aggRow(ConditionBaseline, 0, 4),
			aggRow(ConditionTest, 0, 8),
		},
	}

	_, err := NormalizePerFrequency(ct)
	require.NoError(t, err)
	assert.InDelta(t, 4, ct.Rows[0].Values[0], 0)
	assert.InDelta(t, 8, ct.Rows[1].Values[0], 0)
}
