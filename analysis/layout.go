package analysis

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

// Layout owns the on-disk naming convention for one analysis run. Every
// path below the raw and output roots is derived here and nowhere else.
//
//	{RawDir}/{animal}/{baseline|test}/Traces_cFFT.csv
//	{OutDir}/input/{animal}/{baseline|test}/{stem}_cleaned.csv
//	{OutDir}/{animal}/{rem|nrem}/original/{baseline|test}/{stem}_{stage}.csv
//	{OutDir}/{animal}/{rem|nrem}/chunked/{stem}_{condition}_{NN}.csv
//	{OutDir}/{animal}/{rem|nrem}/chunked/chunk_{NN}_raw.csv
//	{OutDir}/{animal}/{rem|nrem}/chunked/chunk_{NN}_norm.csv
//	{OutDir}/compiled/{rem|nrem}/chunk_{NN}.csv
type Layout struct {
	RawDir string
	OutDir string
}

// TraceSuffix is the filename suffix of raw spectral trace exports.
const TraceSuffix = "_cFFT.csv"

func (l Layout) InputDir(animal string, cond Condition) string {
	return filepath.Join(l.OutDir, "input", animal, string(cond))
}

func (l Layout) CleanedPath(animal string, cond Condition, stem string) string {
	return filepath.Join(l.InputDir(animal, cond), stem+"_cleaned.csv")
}

func (l Layout) OriginalDir(animal string, stage Stage, cond Condition) string {
	return filepath.Join(l.OutDir, animal, stage.DirName(), "original", string(cond))
}

func (l Layout) StagePath(animal string, stage Stage, cond Condition, stem string) string {
	return filepath.Join(l.OriginalDir(animal, stage, cond), fmt.Sprintf("%s_%s.csv", stem, stage.DirName()))
}

func (l Layout) ChunkedDir(animal string, stage Stage) string {
	return filepath.Join(l.OutDir, animal, stage.DirName(), "chunked")
}

func (l Layout) ChunkPath(animal string, stage Stage, cond Condition, stem string, index int) string {
	return filepath.Join(l.ChunkedDir(animal, stage), ChunkFileName(stem, cond, index))
}

func (l Layout) RawChunkPath(animal string, stage Stage, index int) string {
	return filepath.Join(l.ChunkedDir(animal, stage), CombinedFileName(index, "raw"))
}

func (l Layout) NormChunkPath(animal string, stage Stage, index int) string {
	return filepath.Join(l.ChunkedDir(animal, stage), CombinedFileName(index, "norm"))
}

func (l Layout) CompiledDir(stage Stage) string {
	return filepath.Join(l.OutDir, "compiled", stage.DirName())
}

func (l Layout) CompiledChunkPath(stage Stage, index int) string {
	return filepath.Join(l.CompiledDir(stage), fmt.Sprintf("chunk_%02d.csv", index))
}

func (l Layout) ManifestPath() string {
	return filepath.Join(l.OutDir, "manifest.json")
}

// ChunkFileName names one condition's chunk table, e.g.
// "Traces_cFFT_baseline_03.csv".
func ChunkFileName(stem string, cond Condition, index int) string {
	return fmt.Sprintf("%s_%s_%02d.csv", stem, cond, index)
}

// CombinedFileName names a combined per-chunk table, e.g. "chunk_03_raw.csv".
func CombinedFileName(index int, kind string) string {
	return fmt.Sprintf("chunk_%02d_%s.csv", index, kind)
}

var chunkFileRe = regexp.MustCompile(`^(.+)_(baseline|test)_(\d{2,})\.csv$`)

// ParseChunkFileName recovers the stem, condition, and chunk index from a
// chunk filename produced by ChunkFileName.
func ParseChunkFileName(name string) (stem string, cond Condition, index int, ok bool) {
	m := chunkFileRe.FindStringSubmatch(name)
	if m == nil {
		return "", "", 0, false
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, false
	}
	return m[1], Condition(m[2]), n, true
}

var combinedFileRe = regexp.MustCompile(`^chunk_(\d{2,})_(raw|norm)\.csv$`)

// ParseCombinedFileName recovers the chunk index and kind from a combined
// per-chunk filename.
func ParseCombinedFileName(name string) (index int, kind string, ok bool) {
	m := combinedFileRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, m[2], true
}
