package analysis

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageFixture(stage Stage, epochs int) StageTable {
	st := StageTable{
		Stage: stage,
		Meta:  []string{"EpochNo"},
		Freqs: []string{"0.5", "1.0", "1.5"},
	}
	for i := 0; i < epochs; i++ {
		st.Epochs = append(st.Epochs, Epoch{
			Meta:  []string{fmt.Sprintf("%d", i+1)},
			Stage: stage,
			Power: []float64{float64(i), float64(i) * 2, float64(i) * 3},
		})
	}
	return st
}

func TestChunkStage_ExactPartition(t *testing.T) {
	t.Parallel()

	st := stageFixture(StageREM, 100)
	chunks, err := ChunkStage(st, 20)
	require.NoError(t, err)
	require.Len(t, chunks, 5)

	// Concatenating all chunks in order reconstructs the input exactly.
	var rebuilt []Epoch
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Len(t, ch.Epochs, 20)
		rebuilt = append(rebuilt, ch.Epochs...)
	}
	require.Len(t, rebuilt, len(st.Epochs))
	for i := range st.Epochs {
		assert.Equal(t, st.Epochs[i].Meta, rebuilt[i].Meta)
		assert.InDeltaSlice(t, st.Epochs[i].Power, rebuilt[i].Power, 0)
	}
}

func TestChunkStage_TrailingPartialChunkKept(t *testing.T) {
	t.Parallel()

	chunks, err := ChunkStage(stageFixture(StageNREM, 25), 10)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Epochs, 10)
	assert.Len(t, chunks[1].Epochs, 10)
	assert.Len(t, chunks[2].Epochs, 5)
}

func TestChunkStage_Deterministic(t *testing.T) {
	t.Parallel()

	st := stageFixture(StageREM, 33)
	a, err := ChunkStage(st, 7)
	require.NoError(t, err)
	b, err := ChunkStage(st, 7)
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Index, b[i].Index)
		require.Len(t, b[i].Epochs, len(a[i].Epochs))
		for j := range a[i].Epochs {
			assert.Equal(t, a[i].Epochs[j].Meta, b[i].Epochs[j].Meta)
		}
	}
}

func TestChunkStage_InvalidSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1, -100} {
		_, err := ChunkStage(stageFixture(StageREM, 10), size)
		require.ErrorIs(t, err, ErrInvalidParameter, "size %d", size)
	}
}

func TestChunkStage_EmptyTable(t *testing.T) {
	t.Parallel()

	chunks, err := ChunkStage(stageFixture(StageREM, 0), 10)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestWriteChunks_RoundTrip(t *testing.T) {
	t.Parallel()

	chunks, err := ChunkStage(stageFixture(StageREM, 12), 5)
	require.NoError(t, err)

	dir := t.TempDir()
	written, err := WriteChunks(chunks, ChunkWriteOptions{
		OutputDir: dir,
		Stem:      "Traces_cFFT",
		Condition: ConditionBaseline,
	})
	require.NoError(t, err)
	require.Len(t, written, 3)
	assert.Equal(t, filepath.Join(dir, "Traces_cFFT_baseline_00.csv"), written[0])

	ch, cond, err := ReadChunkFile(written[2], DefaultLabelConfig())
	require.NoError(t, err)
	assert.Equal(t, ConditionBaseline, cond)
	assert.Equal(t, 2, ch.Index)
	assert.Len(t, ch.Epochs, 2)
}

func TestWriteChunks_RefusesExistingWithoutOverwrite(t *testing.T) {
	t.Parallel()

	chunks, err := ChunkStage(stageFixture(StageREM, 4), 2)
	require.NoError(t, err)

	dir := t.TempDir()
	opts := ChunkWriteOptions{OutputDir: dir, Stem: "Traces_cFFT", Condition: ConditionTest}
	_, err = WriteChunks(chunks, opts)
	require.NoError(t, err)

	_, err = WriteChunks(chunks, opts)
	require.Error(t, err)

	opts.OverwriteExisting = true
	_, err = WriteChunks(chunks, opts)
	require.NoError(t, err)
}
