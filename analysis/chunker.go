package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// ChunkStage partitions a stage table's epochs into consecutive chunks of
// chunkSize epochs, numbered from 0. The trailing chunk keeps its natural
// smaller size, so concatenating all chunks in order reconstructs the
// input exactly.
func ChunkStage(st StageTable, chunkSize int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("ChunkStage: chunk size %d: %w", chunkSize, ErrInvalidParameter)
	}

	n := len(st.Epochs)
	count := (n + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, Chunk{
			Index:  i,
			Stage:  st.Stage,
			Meta:   st.Meta,
			Freqs:  st.Freqs,
			Epochs: st.Epochs[start:end:end],
		})
	}
	return chunks, nil
}

// ChunkWriteOptions controls per-chunk file emission.
type ChunkWriteOptions struct {
	// OutputDir is where chunk CSV files are written.
	OutputDir string

	// Stem is the original trace filename stem, e.g. "Traces_cFFT".
	Stem string

	// Condition labels the session the chunks came from.
	Condition Condition

	OverwriteExisting bool
	FileMode          fs.FileMode
}

// WriteChunks writes one CSV per chunk into opts.OutputDir, named
// {stem}_{condition}_{NN}.csv, and returns the written paths.
func WriteChunks(chunks []Chunk, opts ChunkWriteOptions) ([]string, error) {
	if opts.OutputDir == "" {
		return nil, errors.New("WriteChunks: opts.OutputDir is empty")
	}
	if opts.Stem == "" {
		return nil, errors.New("WriteChunks: opts.Stem is empty")
	}
	if opts.Condition == "" {
		return nil, errors.New("WriteChunks: opts.Condition is empty")
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}

	written := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		path := filepath.Join(opts.OutputDir, ChunkFileName(opts.Stem, opts.Condition, ch.Index))
		if !opts.OverwriteExisting && fileExists(path) {
			return nil, fmt.Errorf("WriteChunks: %s already exists (use overwrite)", path)
		}
		st := StageTable{Stage: ch.Stage, Meta: ch.Meta, Freqs: ch.Freqs, Epochs: ch.Epochs}
		if err := WriteStageTable(st, path, StageWriteOptions{OverwriteExisting: true, FileMode: opts.FileMode}); err != nil {
			return nil, fmt.Errorf("WriteChunks: chunk %d: %w", ch.Index, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// ReadChunkFile loads one chunk CSV back into a Chunk, taking the chunk
// index from the filename.
func ReadChunkFile(path string, cfg LabelConfig) (Chunk, Condition, error) {
	_, cond, index, ok := ParseChunkFileName(filepath.Base(path))
	if !ok {
		return Chunk{}, "", fmt.Errorf("ReadChunkFile: %s: not a chunk filename: %w", path, ErrMalformedInput)
	}
	st, err := ReadStageTable(path, cfg)
	if err != nil {
		return Chunk{}, "", fmt.Errorf("ReadChunkFile: %w", err)
	}
	return Chunk{Index: index, Stage: st.Stage, Meta: st.Meta, Freqs: st.Freqs, Epochs: st.Epochs}, cond, nil
}
