package main

import (
	"flag"
	"testing"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("trace-cleaner", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-raw", "data/raw",
		"-out", "data/analysis",
		"-metadata-lines", "15",
		"-overwrite",
		"-verbose",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.RawDir != "data/raw" {
		t.Fatalf("RawDir=%q", cfg.RawDir)
	}
	if cfg.OutDir != "data/analysis" {
		t.Fatalf("OutDir=%q", cfg.OutDir)
	}
	if cfg.MetadataLines != 15 {
		t.Fatalf("MetadataLines=%d", cfg.MetadataLines)
	}
	if !cfg.Overwrite || !cfg.Verbose {
		t.Fatalf("Overwrite=%v Verbose=%v", cfg.Overwrite, cfg.Verbose)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	if err := (Config{RawDir: "raw", OutDir: "out", MetadataLines: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative metadata lines")
	}
	if err := (Config{RawDir: "raw", OutDir: "out", MetadataLines: 20}).Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
