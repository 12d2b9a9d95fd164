package analysis

import "errors"

// Error kinds surfaced by the core transforms. Callers are expected to
// match with errors.Is; every wrapped error names the operation and the
// offending value.
var (
	// ErrMalformedInput indicates a table missing its stage-label field,
	// carrying labels outside {R, NR, W}, or with inconsistent row widths.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidParameter indicates a non-positive chunk size or similar
	// out-of-range caller parameter.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptyChunk indicates an aggregation attempt over zero epochs.
	ErrEmptyChunk = errors.New("empty chunk")

	// ErrChunkMismatch indicates baseline and test aggregates whose chunk
	// index sets differ.
	ErrChunkMismatch = errors.New("chunk index mismatch")

	// ErrReferenceNotFound indicates a normalization reference chunk that
	// is absent from the combined table.
	ErrReferenceNotFound = errors.New("reference chunk not found")

	// ErrDegenerateReference indicates a zero-valued normalization
	// reference, which cannot divide.
	ErrDegenerateReference = errors.New("degenerate normalization reference")
)
