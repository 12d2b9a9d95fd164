package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
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
		OutputDir: cfg.OutDir,
		Reference: analysis.ChunkRef{Condition: cond, Index: cfg.RefChunk},
		Overwrite: cfg.Overwrite,
	}, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	written, err := r.RunNormalize(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "norm_tables_written=%d reference=%s_%d\n", written, cond, cfg.RefChunk)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Analysis output directory containing per-animal raw aggregate tables")
	fs.StringVar(&cfg.RefCondition, "ref-condition", cfg.RefCondition, "Condition of the reference chunk (baseline or test)")
	fs.IntVar(&cfg.RefChunk, "ref-chunk", cfg.RefChunk, "Index of the reference chunk")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing normalized files")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chunk-normalizer -out data/analysis -ref-condition baseline -ref-chunk 0")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.OutDir = filepath.Clean(cfg.OutDir)
	return cfg, nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
