package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/nocturnelab/psa/analysis"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	if cfg.PrintSchema {
		schema, err := analysis.ManifestSchema()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		os.Stdout.Write(schema)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := buildLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer log.Sync()

	cond, err := analysis.ParseCondition(cfg.RefCondition)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	r, err := analysis.NewRunner(analysis.RunConfig{
		RawDataDir:    cfg.RawDir,
		OutputDir:     cfg.OutDir,
		ChunkSize:     cfg.ChunkSize,
		MetadataLines: cfg.MetadataLines,
		Reference:     analysis.ChunkRef{Condition: cond, Index: cfg.RefChunk},
		AllowPartial:  cfg.AllowPartial,
		Overwrite:     cfg.Overwrite,
		Workers:       cfg.Workers,
		WorkbookPath:  cfg.WorkbookPath,
	}, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	stages := selectStages(cfg)
	m, err := r.RunAll(ctx, stages)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	for _, s := range m.Stages {
		fmt.Fprintf(os.Stdout, "%s: outputs=%d\n", s.Name, s.Outputs)
	}
	fmt.Fprintf(os.Stdout, "animals=%d manifest=%s\n", len(m.Animals), r.Layout().ManifestPath())
}

func selectStages(cfg Config) []string {
	if cfg.OnlyStage != "" {
		return []string{cfg.OnlyStage}
	}
	if cfg.FromStage != "" {
		return stagesFrom(analysis.PipelineStages, cfg.FromStage)
	}
	return nil
}

func stagesFrom(stages []string, from string) []string {
	from = strings.ToLower(strings.TrimSpace(from))
	for i, s := range stages {
		if s == from {
			return stages[i:]
		}
	}
	return stages
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.RawDir, "raw", cfg.RawDir, "Directory of raw trace exports, laid out as {animal}/{baseline|test}/*_cFFT.csv")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Analysis output directory")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Number of epochs per chunk")
	fs.IntVar(&cfg.MetadataLines, "metadata-lines", cfg.MetadataLines, "Number of acquisition metadata lines to strip from each export")
	fs.StringVar(&cfg.RefCondition, "ref-condition", cfg.RefCondition, "Condition of the normalization reference chunk (baseline or test)")
	fs.IntVar(&cfg.RefChunk, "ref-chunk", cfg.RefChunk, "Index of the normalization reference chunk")
	fs.BoolVar(&cfg.AllowPartial, "allow-partial", false, "Keep only chunk indices present in both conditions instead of failing on a mismatch")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent animals processed per stage")
	fs.StringVar(&cfg.WorkbookPath, "xlsx", cfg.WorkbookPath, "Optional path for an XLSX export of the compiled profiles")
	fs.StringVar(&cfg.FromStage, "from-stage", "", "Start at stage: "+strings.Join(analysis.PipelineStages, "|"))
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: "+strings.Join(analysis.PipelineStages, "|"))
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing outputs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&cfg.PrintSchema, "print-schema", false, "Print the run manifest JSON schema and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/psa-pipeline -raw data/raw -out data/analysis -xlsx data/analysis/profiles.xlsx")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.RawDir != "" {
		cfg.RawDir = filepath.Clean(cfg.RawDir)
	}
	if cfg.OutDir != "" {
		cfg.OutDir = filepath.Clean(cfg.OutDir)
	}
	if cfg.WorkbookPath != "" {
		cfg.WorkbookPath = filepath.Clean(cfg.WorkbookPath)
	}
	return cfg, nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
