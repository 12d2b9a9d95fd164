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

	r, err := analysis.NewRunner(analysis.RunConfig{
		RawDataDir:    cfg.RawDir,
		OutputDir:     cfg.OutDir,
		MetadataLines: cfg.MetadataLines,
		Overwrite:     cfg.Overwrite,
	}, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	written, err := r.RunClean(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "traces_cleaned=%d out_dir=%s\n", written, filepath.Join(cfg.OutDir, "input"))
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.RawDir, "raw", cfg.RawDir, "Directory of raw trace exports, laid out as {animal}/{baseline|test}/*_cFFT.csv")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Analysis output directory; cleaned CSVs go under its input/ tree")
	fs.IntVar(&cfg.MetadataLines, "metadata-lines", cfg.MetadataLines, "Number of acquisition metadata lines to strip from the top of each export")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing cleaned files")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/trace-cleaner -raw data/raw -out data/analysis")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.RawDir = filepath.Clean(cfg.RawDir)
	cfg.OutDir = filepath.Clean(cfg.OutDir)
	return cfg, nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
