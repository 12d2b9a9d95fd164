package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// DefaultChunkSize is the number of epochs per chunk when none is given.
const DefaultChunkSize = 100

// PipelineStages lists the pipeline stages in run order.
var PipelineStages = []string{"clean", "split", "chunk", "aggregate", "normalize", "compile"}

// RunConfig carries every parameter of a pipeline run. There is no other
// configuration state; what is not in here does not influence the output.
type RunConfig struct {
	RawDataDir string
	OutputDir  string

	ChunkSize     int
	MetadataLines int
	Label         LabelConfig
	Reference     ChunkRef
	AllowPartial  bool

	Overwrite bool

	// Workers bounds the animal fan-out. Tuples are independent, so this
	// is purely a throughput knob.
	Workers int

	// WorkbookPath, if set, exports compiled profiles as XLSX.
	WorkbookPath string
}

func (c RunConfig) withDefaults() RunConfig {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MetadataLines == 0 {
		c.MetadataLines = DefaultMetadataLines
	}
	if c.Label.LabelField == "" {
		c.Label = DefaultLabelConfig()
	}
	if c.Reference.Condition == "" {
		c.Reference = DefaultReference
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

// Runner drives the pipeline stages over the directory layout.
type Runner struct {
	cfg    RunConfig
	layout Layout
	log    *zap.Logger
}

// NewRunner validates the config and returns a runner. A nil logger is
// replaced with a no-op logger.
func NewRunner(cfg RunConfig, log *zap.Logger) (*Runner, error) {
	cfg = cfg.withDefaults()
	if cfg.OutputDir == "" {
		return nil, errors.New("NewRunner: OutputDir is empty")
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("NewRunner: chunk size %d: %w", cfg.ChunkSize, ErrInvalidParameter)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		layout: Layout{RawDir: cfg.RawDataDir, OutDir: cfg.OutputDir},
		log:    log,
	}, nil
}

// Layout exposes the runner's directory convention.
func (r *Runner) Layout() Layout { return r.layout }

// RunClean strips acquisition metadata from every raw trace export and
// writes cleaned CSVs under the input tree.
func (r *Runner) RunClean(ctx context.Context) (int, error) {
	if r.cfg.RawDataDir == "" {
		return 0, errors.New("RunClean: RawDataDir is empty")
	}
	traces, err := FindTraceFiles(r.cfg.RawDataDir)
	if err != nil {
		return 0, err
	}
	if len(traces) == 0 {
		return 0, fmt.Errorf("RunClean: no %s files under %s", TraceSuffix, r.cfg.RawDataDir)
	}

	written := 0
	for _, tf := range traces {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		outPath := r.layout.CleanedPath(tf.Animal, tf.Condition, tf.Stem)
		res, err := CleanTraceFile(tf.Path, outPath, CleanOptions{
			MetadataLines:     r.cfg.MetadataLines,
			OverwriteExisting: r.cfg.Overwrite,
		})
		if err != nil {
			return written, fmt.Errorf("RunClean: %s: %w", tf.Path, err)
		}
		if res.Skipped {
			r.log.Debug("clean skipped, output exists", zap.String("path", outPath))
			continue
		}
		r.log.Info("cleaned trace",
			zap.String("animal", tf.Animal),
			zap.String("condition", string(tf.Condition)),
			zap.Int("lines", res.LinesKept))
		written++
	}
	return written, nil
}

// RunSplit preprocesses every cleaned table and writes per-stage tables.
func (r *Runner) RunSplit(ctx context.Context) (int, error) {
	animals, err := r.animals()
	if err != nil {
		return 0, err
	}

	var mu sync.Mutex
	total := 0
	err = r.forEachAnimal(ctx, animals, func(animal string) error {
		for _, cond := range Conditions {
			stems, err := cleanedStems(r.layout.InputDir(animal, cond))
			if err != nil {
				return err
			}
			for _, stem := range stems {
				t, err := ReadTraceTable(r.layout.CleanedPath(animal, cond, stem))
				if err != nil {
					return err
				}
				rem, nrem, err := Preprocess(t, r.cfg.Label)
				if err != nil {
					return err
				}
				for _, st := range []StageTable{rem, nrem} {
					path := r.layout.StagePath(animal, st.Stage, cond, stem)
					if err := WriteStageTable(st, path, StageWriteOptions{OverwriteExisting: r.cfg.Overwrite}); err != nil {
						return err
					}
					mu.Lock()
					total++
					mu.Unlock()
				}
				r.log.Info("split trace",
					zap.String("animal", animal),
					zap.String("condition", string(cond)),
					zap.Int("rem_epochs", len(rem.Epochs)),
					zap.Int("nrem_epochs", len(nrem.Epochs)))
			}
		}
		return nil
	})
	return total, err
}

// RunChunk partitions every stage table into fixed-size chunks and writes
// per-chunk CSVs. It also reports per-animal epoch and chunk counts.
func (r *Runner) RunChunk(ctx context.Context) (int, []AnimalResult, error) {
	animals, err := r.animals()
	if err != nil {
		return 0, nil, err
	}

	var mu sync.Mutex
	total := 0
	var results []AnimalResult
	err = r.forEachAnimal(ctx, animals, func(animal string) error {
		ar := AnimalResult{Animal: animal}
		for _, stage := range []Stage{StageREM, StageNREM} {
			sr := StageResult{Stage: stage.DirName()}
			chunkCount := 0
			for _, cond := range Conditions {
				stems, err := stageStems(r.layout.OriginalDir(animal, stage, cond), stage)
				if err != nil {
					return err
				}
				for _, stem := range stems {
					st, err := ReadStageTable(r.layout.StagePath(animal, stage, cond, stem), r.cfg.Label)
					if err != nil {
						return err
					}
					switch cond {
					case ConditionBaseline:
						sr.BaselineEpochs += len(st.Epochs)
					case ConditionTest:
						sr.TestEpochs += len(st.Epochs)
					}
					chunks, err := ChunkStage(st, r.cfg.ChunkSize)
					if err != nil {
						return err
					}
					if len(chunks) > chunkCount {
						chunkCount = len(chunks)
					}
					written, err := WriteChunks(chunks, ChunkWriteOptions{
						OutputDir:         r.layout.ChunkedDir(animal, stage),
						Stem:              stem,
						Condition:         cond,
						OverwriteExisting: r.cfg.Overwrite,
					})
					if err != nil {
						return err
					}
					mu.Lock()
					total += len(written)
					mu.Unlock()
				}
			}
			sr.Chunks = chunkCount
			sr.Skipped = sr.BaselineEpochs == 0 && sr.TestEpochs == 0
			ar.Stages = append(ar.Stages, sr)
			r.log.Info("chunked stage",
				zap.String("animal", animal),
				zap.String("stage", stage.DirName()),
				zap.Int("chunks", chunkCount))
		}
		mu.Lock()
		results = append(results, ar)
		mu.Unlock()
		return nil
	})

	sort.Slice(results, func(i, j int) bool { return results[i].Animal < results[j].Animal })
	return total, results, err
}

// RunAggregate averages each chunk's frequencies and combines baseline and
// test profiles into per-chunk raw tables.
func (r *Runner) RunAggregate(ctx context.Context) (int, error) {
	animals, err := r.animals()
	if err != nil {
		return 0, err
	}

	var mu sync.Mutex
	total := 0
	err = r.forEachAnimal(ctx, animals, func(animal string) error {
		for _, stage := range []Stage{StageREM, StageNREM} {
			dir := r.layout.ChunkedDir(animal, stage)
			freqs, rowsByCond, err := r.aggregateDir(dir)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", animal, stage.DirName(), err)
			}
			if len(rowsByCond[ConditionBaseline]) == 0 && len(rowsByCond[ConditionTest]) == 0 {
				r.log.Warn("no chunks to aggregate",
					zap.String("animal", animal),
					zap.String("stage", stage.DirName()))
				continue
			}
			ct, err := Combine(freqs, rowsByCond[ConditionBaseline], rowsByCond[ConditionTest],
				CombineOptions{AllowPartial: r.cfg.AllowPartial})
			if err != nil {
				return fmt.Errorf("%s/%s: %w", animal, stage.DirName(), err)
			}
			written, err := WriteCombinedByChunk(ct, dir, "raw", CombinedWriteOptions{OverwriteExisting: r.cfg.Overwrite})
			if err != nil {
				return fmt.Errorf("%s/%s: %w", animal, stage.DirName(), err)
			}
			mu.Lock()
			total += len(written)
			mu.Unlock()
		}
		return nil
	})
	return total, err
}

func (r *Runner) aggregateDir(dir string) ([]string, map[Condition][]AggregateRow, error) {
	rowsByCond := map[Condition][]AggregateRow{}
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, rowsByCond, nil
		}
		return nil, nil, err
	}

	var freqs []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if _, _, _, ok := ParseChunkFileName(e.Name()); !ok {
			continue
		}
		ch, cond, err := ReadChunkFile(filepath.Join(dir, e.Name()), r.cfg.Label)
		if err != nil {
			return nil, nil, err
		}
		if freqs == nil {
			freqs = ch.Freqs
		} else if !equalStrings(freqs, ch.Freqs) {
			return nil, nil, fmt.Errorf("%s: frequency columns differ from earlier chunks: %w", e.Name(), ErrMalformedInput)
		}
		row, err := AggregateChunk(ch, cond)
		if err != nil {
			return nil, nil, err
		}
		rowsByCond[cond] = append(rowsByCond[cond], row)
	}
	return freqs, rowsByCond, nil
}

// RunNormalize applies the two normalization passes to every per-chunk raw
// table set: per-frequency first, then baseline-relative.
func (r *Runner) RunNormalize(ctx context.Context) (int, error) {
	animals, err := r.animals()
	if err != nil {
		return 0, err
	}

	var mu sync.Mutex
	total := 0
	err = r.forEachAnimal(ctx, animals, func(animal string) error {
		for _, stage := range []Stage{StageREM, StageNREM} {
			dir := r.layout.ChunkedDir(animal, stage)
			ct, err := ReadCombinedDir(dir, "raw")
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return fmt.Errorf("%s/%s: %w", animal, stage.DirName(), err)
			}
			if len(ct.Rows) == 0 {
				r.log.Warn("no raw aggregates to normalize",
					zap.String("animal", animal),
					zap.String("stage", stage.DirName()))
				continue
			}
			st1, err := NormalizePerFrequency(ct)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", animal, stage.DirName(), err)
			}
			final, err := NormalizeToBaseline(st1, r.cfg.Reference)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", animal, stage.DirName(), err)
			}
			written, err := WriteCombinedByChunk(final, dir, "norm", CombinedWriteOptions{OverwriteExisting: r.cfg.Overwrite})
			if err != nil {
				return fmt.Errorf("%s/%s: %w", animal, stage.DirName(), err)
			}
			mu.Lock()
			total += len(written)
			mu.Unlock()
		}
		return nil
	})
	return total, err
}

// RunCompile averages normalized profiles across animals per stage, writes
// the compiled tables, and exports the workbook when configured.
func (r *Runner) RunCompile(ctx context.Context) (int, error) {
	animals, err := r.animals()
	if err != nil {
		return 0, err
	}

	total := 0
	compiled := map[Stage]CombinedTable{}
	for _, stage := range []Stage{StageREM, StageNREM} {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		var tables []CombinedTable
		for _, animal := range animals {
			ct, err := ReadCombinedDir(r.layout.ChunkedDir(animal, stage), "norm")
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return total, fmt.Errorf("RunCompile: %s/%s: %w", animal, stage.DirName(), err)
			}
			if len(ct.Rows) == 0 {
				continue
			}
			tables = append(tables, ct)
		}
		if len(tables) == 0 {
			r.log.Warn("no normalized profiles to compile", zap.String("stage", stage.DirName()))
			continue
		}
		cohort, err := CompileCohort(tables)
		if err != nil {
			return total, fmt.Errorf("RunCompile: %s: %w", stage.DirName(), err)
		}
		written, err := WriteCompiled(cohort, r.layout.CompiledDir(stage), CombinedWriteOptions{OverwriteExisting: r.cfg.Overwrite})
		if err != nil {
			return total, fmt.Errorf("RunCompile: %s: %w", stage.DirName(), err)
		}
		total += len(written)
		compiled[stage] = cohort
		r.log.Info("compiled cohort",
			zap.String("stage", stage.DirName()),
			zap.Int("animals", len(tables)),
			zap.Int("chunks", len(cohort.ChunkIndices())))
	}

	if r.cfg.WorkbookPath != "" && len(compiled) > 0 {
		if err := WriteWorkbook(r.cfg.WorkbookPath, compiled); err != nil {
			return total, fmt.Errorf("RunCompile: %w", err)
		}
		r.log.Info("wrote workbook", zap.String("path", r.cfg.WorkbookPath))
	}
	return total, nil
}

// RunAll runs the requested stages in pipeline order and writes the run
// manifest. An empty stage list means all stages.
func (r *Runner) RunAll(ctx context.Context, stages []string) (RunManifest, error) {
	if len(stages) == 0 {
		stages = PipelineStages
	}

	m := RunManifest{
		Version:       1,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		RawDataDir:    r.cfg.RawDataDir,
		OutputDir:     r.cfg.OutputDir,
		ChunkSize:     r.cfg.ChunkSize,
		MetadataLines: r.cfg.MetadataLines,
		Reference:     r.cfg.Reference,
	}

	for _, name := range stages {
		start := time.Now()
		var outputs int
		var err error
		switch name {
		case "clean":
			outputs, err = r.RunClean(ctx)
		case "split":
			outputs, err = r.RunSplit(ctx)
		case "chunk":
			outputs, m.Results, err = r.RunChunk(ctx)
		case "aggregate":
			outputs, err = r.RunAggregate(ctx)
		case "normalize":
			outputs, err = r.RunNormalize(ctx)
		case "compile":
			outputs, err = r.RunCompile(ctx)
		default:
			return m, fmt.Errorf("RunAll: unknown stage %q: %w", name, ErrInvalidParameter)
		}
		if err != nil {
			return m, fmt.Errorf("RunAll: stage %s: %w", name, err)
		}
		m.Stages = append(m.Stages, StageRun{Name: name, Outputs: outputs})
		r.log.Info("stage done",
			zap.String("stage", name),
			zap.Int("outputs", outputs),
			zap.Duration("took", time.Since(start)))
	}

	animals, err := r.animals()
	if err == nil {
		m.Animals = animals
	}

	if err := WriteManifest(r.layout.ManifestPath(), m, true); err != nil {
		return m, fmt.Errorf("RunAll: %w", err)
	}
	return m, nil
}

func (r *Runner) forEachAnimal(ctx context.Context, animals []string, fn func(animal string) error) error {
	p := pool.New().WithMaxGoroutines(r.cfg.Workers)
	var mu sync.Mutex
	var errs []error
	for _, animal := range animals {
		animal := animal
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			if err := fn(animal); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", animal, err))
				mu.Unlock()
			}
		})
	}
	p.Wait()
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// animals lists animal directories, preferring the input tree and falling
// back to the output tree for runs that start at a later stage.
func (r *Runner) animals() ([]string, error) {
	inputDir := filepath.Join(r.layout.OutDir, "input")
	if names, err := dirNames(inputDir, nil); err == nil && len(names) > 0 {
		return names, nil
	}
	return dirNames(r.layout.OutDir, map[string]bool{"input": true, "compiled": true})
}

func dirNames(dir string, skip map[string]bool) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if !e.IsDir() || skip[e.Name()] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func cleanedStems(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var stems []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "_cleaned.csv") {
			continue
		}
		stems = append(stems, strings.TrimSuffix(e.Name(), "_cleaned.csv"))
	}
	sort.Strings(stems)
	return stems, nil
}

func stageStems(dir string, stage Stage) ([]string, error) {
	suffix := "_" + stage.DirName() + ".csv"
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var stems []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		stems = append(stems, strings.TrimSuffix(e.Name(), suffix))
	}
	sort.Strings(stems)
	return stems, nil
}
