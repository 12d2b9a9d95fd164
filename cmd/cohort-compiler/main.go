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
		OutputDir:    cfg.OutDir,
		WorkbookPath: cfg.WorkbookPath,
		Overwrite:    cfg.Overwrite,
	}, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	written, err := r.RunCompile(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "compiled_tables_written=%d out_dir=%s\n", written, filepath.Join(cfg.OutDir, "compiled"))
	if cfg.WorkbookPath != "" {
		fmt.Fprintln(os.Stdout, "workbook:", cfg.WorkbookPath)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Analysis output directory containing per-animal normalized tables")
	fs.StringVar(&cfg.WorkbookPath, "xlsx", cfg.WorkbookPath, "Optional path for an XLSX export of the compiled profiles")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing compiled files")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/cohort-compiler -out data/analysis -xlsx data/analysis/profiles.xlsx")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.OutDir = filepath.Clean(cfg.OutDir)
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
